package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/config"
	"newsdesk/internal/core"
)

type mockWriter struct {
	WriteMessagesFunc func(ctx context.Context, msgs ...kafka.Message) error

	written []kafka.Message
	closes  int
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.WriteMessagesFunc != nil {
		if err := m.WriteMessagesFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closes++
	return nil
}

func article(id string) core.Article {
	return core.Article{
		ID:               id,
		Title:            "Title " + id,
		Link:             "https://example.com/" + id,
		Source:           core.SourceBBC,
		SummaryLocalized: "- 摘要",
		Embedding:        []float32{1, 2},
		IngestedAt:       time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestNewWithoutBrokers(t *testing.T) {
	assert.Nil(t, New(config.Events{}))
	assert.NotNil(t, New(config.Events{Brokers: []string{"localhost:9092"}}))
}

func TestPublish(t *testing.T) {
	writer := &mockWriter{}
	pub := NewKafkaPublisher(writer, DefaultTopic)

	require.NoError(t, pub.Publish(context.Background(), []core.Article{article("a"), article("b")}))
	require.Len(t, writer.written, 2)

	msg := writer.written[0]
	assert.Equal(t, "a", string(msg.Key))
	assert.Equal(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC), msg.Time)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &meta))
	assert.Equal(t, "Title a", meta[core.MetaTitle])
	assert.Equal(t, "- 摘要", meta[core.MetaSummary])
	assert.NotContains(t, string(msg.Value), "embedding")
}

func TestPublishEmptyIsNoop(t *testing.T) {
	writer := &mockWriter{WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		t.Fatal("writer should not be called")
		return nil
	}}
	require.NoError(t, NewKafkaPublisher(writer, DefaultTopic).Publish(context.Background(), nil))
}

func TestPublishError(t *testing.T) {
	writer := &mockWriter{WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("leader not available")
	}}

	err := NewKafkaPublisher(writer, DefaultTopic).Publish(context.Background(), []core.Article{article("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestClose(t *testing.T) {
	writer := &mockWriter{}
	pub := NewKafkaPublisher(writer, DefaultTopic)

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.Equal(t, 1, writer.closes)

	err := pub.Publish(context.Background(), []core.Article{article("a")})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
