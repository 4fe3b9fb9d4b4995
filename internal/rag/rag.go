// Package rag answers questions and composes briefings from stored articles.
package rag

import (
	"context"
	"log/slog"

	"newsdesk/internal/core"
	"newsdesk/internal/llm"
	"newsdesk/internal/logger"
)

// Fixed responses for degraded chat paths.
const (
	EmbedFailureResponse      = "Sorry, I couldn't process your request."
	GenerationFailureResponse = "Sorry, I encountered an error while processing your request."
)

// Defaults for retrieval and composition.
const (
	DefaultTopK               = 3
	DefaultBriefingLimit      = 10
	DefaultRecentFetchLimit   = 20
	DefaultContextBudgetChars = 12000
)

// Retriever is the read side of the persistence gateway.
type Retriever interface {
	Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error)
	FetchRecent(ctx context.Context, limit int) ([]core.Match, error)
}

// Options configures the service.
type Options struct {
	Language           string
	TopK               int
	BriefingLimit      int
	RecentFetchLimit   int
	ContextBudgetChars int
	Generation         llm.Options
}

// Service answers chat questions and builds daily briefings.
// Neither operation returns an error; every path yields a valid response.
type Service struct {
	generator llm.Generator
	embedder  llm.Embedder
	retriever Retriever
	opts      Options
	log       *slog.Logger
}

// NewService creates the service, filling unset options with defaults.
func NewService(generator llm.Generator, embedder llm.Embedder, retriever Retriever, opts Options) *Service {
	if opts.Language == "" {
		opts.Language = llm.DefaultLanguage
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.BriefingLimit <= 0 {
		opts.BriefingLimit = DefaultBriefingLimit
	}
	if opts.RecentFetchLimit <= 0 {
		opts.RecentFetchLimit = DefaultRecentFetchLimit
	}
	if opts.ContextBudgetChars <= 0 {
		opts.ContextBudgetChars = DefaultContextBudgetChars
	}
	if opts.Generation.MaxOutputTokens == 0 && len(opts.Generation.Safety) == 0 {
		opts.Generation = llm.DefaultOptions()
	}
	return &Service{
		generator: generator,
		embedder:  embedder,
		retriever: retriever,
		opts:      opts,
		log:       logger.Component("rag"),
	}
}
