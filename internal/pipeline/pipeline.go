// Package pipeline runs one ingestion pass: collect, normalize, identify,
// enrich, persist, then the optional snapshot and event side effects.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/core"
	"newsdesk/internal/events"
	"newsdesk/internal/identity"
	"newsdesk/internal/logger"
	"newsdesk/internal/normalize"
)

// ErrNotConfigured is returned by Run when a required stage is missing.
var ErrNotConfigured = errors.New("pipeline is not fully configured")

// Pipeline orchestrates the ingestion workflow
type Pipeline struct {
	// Core stages
	collector ItemCollector
	enricher  ArticleEnricher
	persister ArticlePersister

	// Optional
	publisher events.Publisher

	config *Config
	now    func() time.Time
	log    *slog.Logger
}

// Config holds pipeline configuration
type Config struct {
	// SnapshotPath receives a JSON array of the run's enriched articles; empty disables it
	SnapshotPath string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{}
}

// NewPipeline creates a pipeline from its stages. publisher may be nil.
func NewPipeline(
	collector ItemCollector,
	enricher ArticleEnricher,
	persister ArticlePersister,
	publisher events.Publisher,
	config *Config,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}

	return &Pipeline{
		collector: collector,
		enricher:  enricher,
		persister: persister,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		log:       logger.Component("pipeline"),
	}
}

// SourceStats reports one source's contribution to a run
type SourceStats struct {
	Name     string        `json:"name"`
	Items    int           `json:"items"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunStats tracks pipeline execution metrics
type RunStats struct {
	Sources      []SourceStats `json:"sources"`
	Collected    int           `json:"collected"`
	Unique       int           `json:"unique"`
	Enriched     int           `json:"enriched"`
	Dropped      int           `json:"dropped"`
	Persisted    int           `json:"persisted"`
	Refused      int           `json:"refused"`
	FailedChunks int           `json:"failed_chunks"`
	Published    int           `json:"published"`
	SnapshotPath string        `json:"snapshot_path,omitempty"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
}

// FailedSources returns how many sources reported an error
func (s *RunStats) FailedSources() int {
	n := 0
	for _, src := range s.Sources {
		if src.Error != "" {
			n++
		}
	}
	return n
}

// Run executes one ingestion pass. Source, article, chunk, snapshot and
// publish failures degrade the run and are reported in the stats; only a
// missing stage or a collector that cannot start returns an error.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	if p.collector == nil || p.enricher == nil || p.persister == nil {
		return nil, ErrNotConfigured
	}

	stats := &RunStats{StartTime: p.now()}

	// Step 1: Collect raw items from all sources
	p.log.Info("Step 1/6: Collecting items")
	collection, err := p.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect items: %w", err)
	}
	for _, r := range collection.Reports {
		src := SourceStats{Name: r.Source, Items: r.Items, Duration: r.Duration}
		if r.Err != nil {
			src.Error = r.Err.Error()
		}
		stats.Sources = append(stats.Sources, src)
	}
	stats.Collected = len(collection.Items)

	// Step 2: Normalize, assign content-addressed IDs and dedupe
	p.log.Info("Step 2/6: Normalizing articles", "items", stats.Collected)
	articles := identity.Dedupe(identity.AssignAll(normalize.All(collection.Items)))
	stats.Unique = len(articles)
	if len(articles) == 0 {
		p.log.Warn("No articles collected, nothing to ingest")
		return p.finish(stats), nil
	}

	// Step 3: Summarize and embed
	p.log.Info("Step 3/6: Enriching articles", "articles", stats.Unique)
	result := p.enricher.Run(ctx, articles)
	stats.Enriched = len(result.Ready)
	stats.Dropped = result.DroppedCount()

	// Step 4: Persist
	p.log.Info("Step 4/6: Persisting articles", "articles", stats.Enriched)
	report := p.persister.Persist(ctx, result.Ready)
	stats.Persisted = report.Committed
	stats.Refused = report.Refused
	stats.FailedChunks = len(report.Failed)

	// Step 5: Optional snapshot
	if p.config.SnapshotPath != "" && len(result.Ready) > 0 {
		p.log.Info("Step 5/6: Writing snapshot", "path", p.config.SnapshotPath)
		if err := WriteSnapshot(p.config.SnapshotPath, result.Ready); err != nil {
			// Non-fatal: the store is the source of truth
			p.log.Warn("Failed to write snapshot", "path", p.config.SnapshotPath, "error", err)
		} else {
			stats.SnapshotPath = p.config.SnapshotPath
		}
	} else {
		p.log.Debug("Step 5/6: Skipping snapshot")
	}

	// Step 6: Optional events for committed articles
	if p.publisher != nil && len(report.CommittedIDs) > 0 {
		p.log.Info("Step 6/6: Publishing events", "articles", len(report.CommittedIDs))
		committed := committedArticles(result.Ready, report.CommittedIDs)
		if err := p.publisher.Publish(ctx, committed); err != nil {
			p.log.Warn("Failed to publish events", "error", err)
		} else {
			stats.Published = len(committed)
		}
	} else {
		p.log.Debug("Step 6/6: Skipping events")
	}

	return p.finish(stats), nil
}

func (p *Pipeline) finish(stats *RunStats) *RunStats {
	stats.EndTime = p.now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	p.log.Info("Ingestion completed",
		"collected", stats.Collected,
		"unique", stats.Unique,
		"enriched", stats.Enriched,
		"dropped", stats.Dropped,
		"persisted", stats.Persisted,
		"failed_chunks", stats.FailedChunks,
		"failed_sources", stats.FailedSources(),
		"duration", stats.Duration,
	)
	return stats
}

func committedArticles(articles []core.Article, ids []string) []core.Article {
	committed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		committed[id] = struct{}{}
	}
	out := make([]core.Article, 0, len(ids))
	for _, a := range articles {
		if _, ok := committed[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}
