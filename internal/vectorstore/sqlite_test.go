package vectorstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	return store, path
}

func TestSQLiteUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestSQLite(t)
	defer store.Close()

	base := time.Date(2025, 10, 14, 8, 0, 0, 0, time.UTC)
	gw := NewGateway(store, 2, 2)
	report := gw.Persist(ctx, []core.Article{
		readyArticle("a", []float32{1, 0}, base),
		readyArticle("b", []float32{0, 1}, base.Add(time.Hour)),
		readyArticle("c", []float32{0.7, 0.7}, base.Add(2*time.Hour)),
	})
	require.Empty(t, report.Failed)
	assert.Equal(t, 3, report.Committed)

	matches, err := store.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "c", matches[1].ID)
	assert.Equal(t, "Title a", matches[0].Metadata[core.MetaTitle])
	assert.Equal(t, "- summary a", matches[0].Metadata[core.MetaSummary])
}

func TestSQLiteRecentOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestSQLite(t)
	defer store.Close()

	base := time.Date(2025, 10, 14, 8, 0, 0, 0, time.UTC)
	gw := NewGateway(store, 0, 2)
	gw.Persist(ctx, []core.Article{
		readyArticle("old", []float32{1, 0}, base),
		readyArticle("new", []float32{0, 1}, base.Add(2*time.Hour)),
		readyArticle("mid", []float32{1, 1}, base.Add(time.Hour)),
	})

	recent, err := gw.FetchRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid"}, ids(recent))
}

func TestSQLiteReingestOverwritesAndPersists(t *testing.T) {
	ctx := context.Background()
	store, path := openTestSQLite(t)

	a := readyArticle("a", []float32{1, 0}, time.Date(2025, 10, 14, 8, 0, 0, 0, time.UTC))
	require.NoError(t, store.Upsert(ctx, []core.VectorRecord{core.RecordFromArticle(a)}))

	a.SummaryLocalized = "- second run"
	a.Embedding = []float32{0, 1}
	require.NoError(t, store.Upsert(ctx, []core.VectorRecord{core.RecordFromArticle(a)}))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, config.Store{Backend: "sqlite", SQLite: config.SQLiteConfig{Path: path}})
	require.NoError(t, err)
	defer reopened.Close()

	matches, err := reopened.Query(ctx, []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "- second run", matches[0].Metadata[core.MetaSummary])
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestVectorEncoding(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, in, decodeVector(encodeVector(in)))
}
