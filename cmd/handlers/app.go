package handlers

import (
	"context"
	"errors"
	"fmt"

	"newsdesk/internal/config"
	"newsdesk/internal/events"
	"newsdesk/internal/llm"
	"newsdesk/internal/logger"
	"newsdesk/internal/pipeline"
	"newsdesk/internal/rag"
	"newsdesk/internal/scheduler"
	"newsdesk/internal/vectorstore"
)

// services holds the long-lived clients shared by a command.
type services struct {
	cfg       *config.Config
	client    llm.Client
	gateway   *vectorstore.Gateway
	news      *rag.Service
	publisher events.Publisher
}

// newServices validates cfg and connects the LLM provider and vector store.
func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := llm.New(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	gateway, err := openGateway(ctx, cfg.Store)
	if err != nil {
		client.Close()
		return nil, err
	}

	news := rag.NewService(client, client, gateway, rag.Options{
		Language:           cfg.App.Language,
		TopK:               cfg.RAG.TopK,
		BriefingLimit:      cfg.RAG.BriefingLimit,
		RecentFetchLimit:   cfg.RAG.RecentFetchLimit,
		ContextBudgetChars: cfg.RAG.ContextBudgetChars,
		Generation:         llm.OptionsFromConfig(cfg.AI.Gemini),
	})

	return &services{
		cfg:     cfg,
		client:  client,
		gateway: gateway,
		news:    news,
	}, nil
}

// openGateway opens the configured store, provisioning the pgvector schema
// when auto_migrate is set.
func openGateway(ctx context.Context, cfg config.Store) (*vectorstore.Gateway, error) {
	store, err := vectorstore.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	if migrator, ok := store.(vectorstore.Migrator); ok && cfg.Backend == "pgvector" && cfg.PgVector.AutoMigrate {
		if err := migrator.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate vector store: %w", err)
		}
	}

	return vectorstore.NewGateway(store, cfg.BatchSize, cfg.Dimension), nil
}

// pipeline builds the ingestion pipeline, enabling events when brokers are configured.
func (s *services) pipeline() (*pipeline.Pipeline, error) {
	if s.publisher == nil {
		s.publisher = events.New(s.cfg.Events)
	}
	return pipeline.NewBuilder(s.cfg).
		WithLLM(s.client).
		WithPersister(s.gateway).
		WithPublisher(s.publisher).
		Build()
}

// runner builds the pipeline behind the guard shared by every trigger in
// this process.
func (s *services) runner() (*pipeline.Runner, error) {
	p, err := s.pipeline()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(p), nil
}

// scheduledIngest is the cron job for runner. A tick that finds a run
// already active is skipped.
func scheduledIngest(runner *pipeline.Runner) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return nil
		}
		return err
	}
}

// Close releases every client.
func (s *services) Close() {
	log := logger.Get()
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Warn("Failed to close event publisher", "error", err)
		}
	}
	if err := s.gateway.Close(); err != nil {
		log.Warn("Failed to close vector store", "error", err)
	}
	if err := s.client.Close(); err != nil {
		log.Warn("Failed to close LLM client", "error", err)
	}
}
