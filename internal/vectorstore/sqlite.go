package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"newsdesk/internal/core"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vector_records (
	id          TEXT PRIMARY KEY,
	vector      BLOB NOT NULL,
	metadata    TEXT NOT NULL,
	ingested_at TEXT NOT NULL DEFAULT '',
	seq         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vector_records_ingested ON vector_records(ingested_at DESC);
`

// SQLiteStore is a local persistent index. Similarity is computed in process.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the index at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the records table.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, records []core.VectorRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_records (id, vector, metadata, ingested_at, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM vector_records))
		ON CONFLICT(id) DO UPDATE SET
			vector = excluded.vector,
			metadata = excluded.metadata,
			ingested_at = excluded.ingested_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, encodeVector(r.Values), string(meta), r.Metadata[core.MetaIngestedAt]); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Query scans all records and ranks them by cosine similarity.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vector, metadata, seq FROM vector_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var candidates []scored
	for rows.Next() {
		var (
			id   string
			blob []byte
			meta string
			seq  int64
		)
		if err := rows.Scan(&id, &blob, &meta, &seq); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		metadata, err := decodeMeta(meta)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		candidates = append(candidates, scored{
			match: core.Match{ID: id, Score: cosine(vector, decodeVector(blob)), Metadata: metadata},
			seq:   seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return rank(candidates, topK), nil
}

// Recent returns the most recently ingested records first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]core.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, metadata FROM vector_records
		ORDER BY ingested_at DESC, seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent records: %w", err)
	}
	defer rows.Close()

	var matches []core.Match
	for rows.Next() {
		var id, meta string
		if err := rows.Scan(&id, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		metadata, err := decodeMeta(meta)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		matches = append(matches, core.Match{ID: id, Metadata: metadata})
	}
	return matches, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func decodeMeta(raw string) (map[string]string, error) {
	meta := map[string]string{}
	if raw == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return meta, nil
}
