package pipeline

import (
	"fmt"
	"net/http"

	"newsdesk/internal/config"
	"newsdesk/internal/enrich"
	"newsdesk/internal/events"
	"newsdesk/internal/feeds"
	"newsdesk/internal/fetch"
	"newsdesk/internal/llm"
	"newsdesk/internal/sources"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	cfg        *config.Config
	generator  llm.Generator
	embedder   llm.Embedder
	persister  ArticlePersister
	publisher  events.Publisher
	registry   *sources.Registry
	httpClient *http.Client
}

// NewBuilder creates a new pipeline builder for cfg
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithLLM sets the generation and embedding client
func (b *Builder) WithLLM(client llm.Client) *Builder {
	b.generator = client
	b.embedder = client
	return b
}

// WithGenerator sets the summary generator
func (b *Builder) WithGenerator(generator llm.Generator) *Builder {
	b.generator = generator
	return b
}

// WithEmbedder sets the summary embedder
func (b *Builder) WithEmbedder(embedder llm.Embedder) *Builder {
	b.embedder = embedder
	return b
}

// WithPersister sets the persistence gateway
func (b *Builder) WithPersister(persister ArticlePersister) *Builder {
	b.persister = persister
	return b
}

// WithPublisher enables ingestion events
func (b *Builder) WithPublisher(publisher events.Publisher) *Builder {
	b.publisher = publisher
	return b
}

// WithRegistry replaces the default adapter registry
func (b *Builder) WithRegistry(registry *sources.Registry) *Builder {
	b.registry = registry
	return b
}

// WithHTTPClient sets the client used by the default feed and page fetchers
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	// Validate required components
	if b.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if b.generator == nil || b.embedder == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if b.persister == nil {
		return nil, fmt.Errorf("persister is required")
	}

	registry := b.registry
	if registry == nil {
		httpClient := b.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: config.Duration(b.cfg.Sources.Timeout, sources.DefaultTimeout)}
		}
		pages := fetch.NewClient(
			fetch.WithHTTPClient(httpClient),
			fetch.WithUserAgent(b.cfg.Sources.UserAgent),
		)
		registry = sources.NewDefaultRegistry(feeds.NewFetcher(httpClient, b.cfg.Sources.UserAgent), pages, pages)
	}

	srcs, err := registry.Build(SourceConfigs(b.cfg.Sources))
	if err != nil {
		return nil, fmt.Errorf("failed to build sources: %w", err)
	}
	collector := sources.NewCollector(srcs, config.Duration(b.cfg.Sources.Timeout, sources.DefaultTimeout))

	stage := enrich.NewStage(b.generator, b.embedder, enrich.Options{
		Language:      b.cfg.App.Language,
		Workers:       b.cfg.Enrich.Workers,
		CallTimeout:   config.Duration(b.cfg.Enrich.CallTimeout, enrich.DefaultCallTimeout),
		MaxInputChars: b.cfg.Enrich.MaxInputChars,
		Generation:    llm.OptionsFromConfig(b.cfg.AI.Gemini),
	})

	return NewPipeline(collector, stage, b.persister, b.publisher, &Config{
		SnapshotPath: b.cfg.Pipeline.SnapshotPath,
	}), nil
}

// SourceConfigs converts configured feeds to adapter configs, applying the
// shared item limit where a feed sets none.
func SourceConfigs(cfg config.Sources) []sources.Config {
	out := make([]sources.Config, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		limit := f.Limit
		if limit <= 0 {
			limit = cfg.Limit
		}
		out = append(out, sources.Config{
			Name:    f.Name,
			Kind:    f.Kind,
			URL:     f.URL,
			Limit:   limit,
			Options: f.Options,
		})
	}
	return out
}
