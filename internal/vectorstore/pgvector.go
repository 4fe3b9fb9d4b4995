package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"newsdesk/internal/core"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// DefaultTable is the pgvector table holding news vectors.
const DefaultTable = "news_vectors"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PgVectorStore implements Store using PostgreSQL with the pgvector extension.
// Similarity is cosine (1 - cosine distance).
type PgVectorStore struct {
	db        *sql.DB
	table     string
	dimension int
}

// OpenPgVector connects to PostgreSQL and verifies the connection.
func OpenPgVector(ctx context.Context, dsn, table string, dimension int) (*PgVectorStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pgvector connection string is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPgVectorStore(db, table, dimension), nil
}

// NewPgVectorStore wraps an open database handle.
func NewPgVectorStore(db *sql.DB, table string, dimension int) *PgVectorStore {
	if table == "" {
		table = DefaultTable
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &PgVectorStore{db: db, table: table, dimension: dimension}
}

// EnsureSchema creates the extension, table and HNSW index if missing.
func (p *PgVectorStore) EnsureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(p.table)
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			embedding   vector(%d) NOT NULL,
			metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
			ingested_at TIMESTAMPTZ,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, table, p.dimension),
		// m=16 connections per layer, ef_construction=64 candidate list size
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s
			USING hnsw (embedding vector_cosine_ops)
			WITH (m = 16, ef_construction = 64)`,
			pq.QuoteIdentifier("idx_"+p.table+"_embedding_hnsw"), table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (ingested_at DESC)`,
			pq.QuoteIdentifier("idx_"+p.table+"_ingested_at"), table),
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or updates records in one transaction.
func (p *PgVectorStore) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	query, args, err := p.upsertQuery(records)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return tx.Commit()
}

func (p *PgVectorStore) upsertQuery(records []core.VectorRecord) (string, []interface{}, error) {
	insert := psql.Insert(pq.QuoteIdentifier(p.table)).
		Columns("id", "embedding", "metadata", "ingested_at", "updated_at")

	for _, r := range records {
		if len(r.Values) != p.dimension {
			return "", nil, fmt.Errorf("record %s has %d dimensions, want %d", r.ID, len(r.Values), p.dimension)
		}
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode metadata for %s: %w", r.ID, err)
		}
		insert = insert.Values(r.ID, pgvector.NewVector(r.Values), string(meta), ingestedAt(r.Metadata), sq.Expr("NOW()"))
	}

	query, args, err := insert.Suffix(`ON CONFLICT (id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		metadata = EXCLUDED.metadata,
		ingested_at = EXCLUDED.ingested_at,
		updated_at = NOW()`).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build upsert: %w", err)
	}
	return query, args, nil
}

// Query returns the topK records closest to vector by cosine distance.
func (p *PgVectorStore) Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error) {
	query, args, err := p.similarityQuery(vector, topK)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var matches []core.Match
	for rows.Next() {
		var (
			m    core.Match
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.Score, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if m.Metadata, err = decodeMeta(string(meta)); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return matches, nil
}

func (p *PgVectorStore) similarityQuery(vector []float32, topK int) (string, []interface{}, error) {
	if topK <= 0 {
		topK = 10
	}
	v := pgvector.NewVector(vector)
	query, args, err := psql.Select("id").
		Column("COALESCE(1 - (embedding <=> ?), 0) AS score", v).
		Column("metadata").
		From(pq.QuoteIdentifier(p.table)).
		OrderByClause("embedding <=> ?", v).
		Limit(uint64(topK)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build search: %w", err)
	}
	return query, args, nil
}

// Recent returns the most recently ingested records first.
func (p *PgVectorStore) Recent(ctx context.Context, limit int) ([]core.Match, error) {
	query, args, err := p.recentQuery(limit)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent: %w", err)
	}
	defer rows.Close()

	var matches []core.Match
	for rows.Next() {
		var (
			m    core.Match
			meta []byte
		)
		if err := rows.Scan(&m.ID, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if m.Metadata, err = decodeMeta(string(meta)); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (p *PgVectorStore) recentQuery(limit int) (string, []interface{}, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := psql.Select("id", "metadata").
		From(pq.QuoteIdentifier(p.table)).
		OrderBy("ingested_at DESC NULLS LAST", "updated_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build recent query: %w", err)
	}
	return query, args, nil
}

// Close closes the database handle.
func (p *PgVectorStore) Close() error {
	return p.db.Close()
}

func ingestedAt(meta map[string]string) interface{} {
	if ts := meta[core.MetaIngestedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t
		}
	}
	return nil
}
