package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"newsdesk/internal/core"
)

type memoryEntry struct {
	record core.VectorRecord
	seq    int64
}

// MemoryStore is a process-local index queried by brute-force cosine similarity.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	nextSeq int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Upsert inserts or replaces records by ID. Replacing keeps the original
// position. A chunk with an invalid record is rejected whole.
func (m *MemoryStore) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record %d without id", i)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		entry, ok := m.entries[r.ID]
		if !ok {
			entry.seq = m.nextSeq
			m.nextSeq++
		}
		entry.record = core.VectorRecord{
			ID:       r.ID,
			Values:   append([]float32(nil), r.Values...),
			Metadata: copyMeta(r.Metadata),
		}
		m.entries[r.ID] = entry
	}
	return nil
}

// Query ranks every record against vector.
func (m *MemoryStore) Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		candidates = append(candidates, scored{
			match: core.Match{ID: e.record.ID, Score: cosine(vector, e.record.Values), Metadata: copyMeta(e.record.Metadata)},
			seq:   e.seq,
		})
	}
	return rank(candidates, topK), nil
}

// Get returns a stored record.
func (m *MemoryStore) Get(id string) (core.VectorRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e.record, ok
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
