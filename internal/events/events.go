// Package events announces newly persisted articles to a message broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	"newsdesk/internal/config"
	"newsdesk/internal/core"
	"newsdesk/internal/logger"
)

// DefaultTopic receives one message per persisted article.
const DefaultTopic = "newsdesk.articles"

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher announces persisted articles.
type Publisher interface {
	Publish(ctx context.Context, articles []core.Article) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes article metadata to a Kafka topic keyed by article ID.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New returns a Kafka publisher for cfg, or nil when no brokers are configured.
func New(cfg config.Events) Publisher {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
	}
	return NewKafkaPublisher(writer, topic)
}

// NewKafkaPublisher wraps an existing writer.
func NewKafkaPublisher(writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		log:    logger.Component("events"),
	}
}

// Publish sends one message per article in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, articles []core.Article) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.mu.Unlock()

	if len(articles) == 0 {
		return nil
	}

	msgs, err := Messages(articles)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d articles to %s: %w", len(msgs), p.topic, err)
	}

	p.log.Info("Published article events", "topic", p.topic, "count", len(msgs))
	return nil
}

// Close flushes and closes the writer. It is safe to call more than once.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// Messages encodes articles as Kafka messages: key is the article ID and
// value is its metadata as JSON.
func Messages(articles []core.Article) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(articles))
	for _, a := range articles {
		value, err := json.Marshal(a.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to encode article %s: %w", a.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.ID),
			Value: value,
			Time:  a.IngestedAt,
		})
	}
	return msgs, nil
}
