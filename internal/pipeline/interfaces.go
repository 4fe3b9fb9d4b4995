package pipeline

import (
	"context"

	"newsdesk/internal/core"
	"newsdesk/internal/enrich"
	"newsdesk/internal/sources"
	"newsdesk/internal/vectorstore"
)

// ItemCollector gathers raw items from every configured source
type ItemCollector interface {
	// Collect runs all sources; per-source failures are reported, not returned
	Collect(ctx context.Context) (*sources.Collection, error)
}

// ArticleEnricher adds localized summaries and embeddings
type ArticleEnricher interface {
	// Run returns only fully enriched articles plus a per-article outcome
	Run(ctx context.Context, articles []core.Article) *enrich.Result
}

// ArticlePersister writes enriched articles to the vector store
type ArticlePersister interface {
	// Persist refuses unenriched articles and isolates chunk failures
	Persist(ctx context.Context, articles []core.Article) *vectorstore.UpsertReport
}
