// Package vectorstore persists enriched articles as vector records and
// queries them by similarity.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"newsdesk/internal/config"
	"newsdesk/internal/core"
	"newsdesk/internal/logger"
)

// Defaults for the gateway.
const (
	DefaultBatchSize = 100
	DefaultDimension = 768
)

// Store is a vector index keyed by record ID. Upsert is idempotent.
type Store interface {
	Upsert(ctx context.Context, records []core.VectorRecord) error
	Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error)
	Close() error
}

// RecentLister is implemented by stores that can order records by ingestion time.
type RecentLister interface {
	Recent(ctx context.Context, limit int) ([]core.Match, error)
}

// Migrator is implemented by stores whose schema is provisioned explicitly.
type Migrator interface {
	EnsureSchema(ctx context.Context) error
}

// Open constructs and connects the configured backend.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultDimension
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		store, err := OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "pgvector":
		store, err := OpenPgVector(ctx, cfg.PgVector.ConnectionString, cfg.PgVector.Table, dimension)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.Backend)
	}
}

// ChunkFailure describes one upsert chunk that could not be committed.
type ChunkFailure struct {
	Index int
	Size  int
	Err   error
}

// UpsertReport summarises a chunked upsert.
type UpsertReport struct {
	Attempted int
	Committed int
	Refused   int
	Failed    []ChunkFailure

	// IDs of committed records in write order.
	CommittedIDs []string
}

// Gateway writes to and reads from a Store with chunking and failure isolation.
type Gateway struct {
	store     Store
	batchSize int
	dimension int
	log       *slog.Logger
}

// NewGateway wraps store. Non-positive sizes use the defaults.
func NewGateway(store Store, batchSize, dimension int) *Gateway {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Gateway{
		store:     store,
		batchSize: batchSize,
		dimension: dimension,
		log:       logger.Component("vectorstore"),
	}
}

// Store returns the underlying store.
func (g *Gateway) Store() Store {
	return g.store
}

// Upsert writes records in chunks. A failed chunk is reported and does not
// stop later chunks; committed chunks are never rolled back.
func (g *Gateway) Upsert(ctx context.Context, records []core.VectorRecord) *UpsertReport {
	report := &UpsertReport{Attempted: len(records)}

	for index, start := 0, 0; start < len(records); index, start = index+1, start+g.batchSize {
		end := start + g.batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		if err := g.store.Upsert(ctx, chunk); err != nil {
			report.Failed = append(report.Failed, ChunkFailure{
				Index: index,
				Size:  len(chunk),
				Err:   fmt.Errorf("%w: chunk %d: %v", core.ErrPersistence, index, err),
			})
			g.log.Error("Failed to upsert chunk", "chunk", index, "size", len(chunk), "error", err)
			continue
		}
		report.Committed += len(chunk)
		for _, r := range chunk {
			report.CommittedIDs = append(report.CommittedIDs, r.ID)
		}
		g.log.Debug("Upserted chunk", "chunk", index, "size", len(chunk))
	}

	g.log.Info("Upsert completed",
		"attempted", report.Attempted,
		"committed", report.Committed,
		"failed_chunks", len(report.Failed),
	)
	return report
}

// Persist converts ready articles to records and upserts them. Articles
// missing a summary or embedding are refused.
func (g *Gateway) Persist(ctx context.Context, articles []core.Article) *UpsertReport {
	records := make([]core.VectorRecord, 0, len(articles))
	refused := 0
	for _, a := range articles {
		if !a.Ready() {
			refused++
			g.log.Warn("Refusing to persist unenriched article", "id", a.ID, "title", a.Title)
			continue
		}
		records = append(records, core.RecordFromArticle(a))
	}

	report := g.Upsert(ctx, records)
	report.Refused = refused
	return report
}

// Query returns the topK most similar records.
func (g *Gateway) Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error) {
	matches, err := g.store.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRetrieval, err)
	}
	return matches, nil
}

// FetchRecent returns up to limit records. Stores implementing RecentLister
// return the newest first; otherwise a zero-vector query is used and the
// order is the store's arbitrary top-k, not recency.
func (g *Gateway) FetchRecent(ctx context.Context, limit int) ([]core.Match, error) {
	if lister, ok := g.store.(RecentLister); ok {
		matches, err := lister.Recent(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrRetrieval, err)
		}
		return matches, nil
	}
	return g.Query(ctx, make([]float32, g.dimension), limit)
}

// Close closes the underlying store.
func (g *Gateway) Close() error {
	return g.store.Close()
}

// cosine returns the cosine similarity of a and b, or 0 when either has zero norm
// or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type scored struct {
	match core.Match
	seq   int64
}

// rank orders candidates by score, breaking ties by insertion order, and keeps topK.
func rank(candidates []scored, topK int) []core.Match {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match.Score != candidates[j].match.Score {
			return candidates[i].match.Score > candidates[j].match.Score
		}
		return candidates[i].seq < candidates[j].seq
	})
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]core.Match, len(candidates))
	for i, c := range candidates {
		out[i] = c.match
	}
	return out
}

func copyMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
