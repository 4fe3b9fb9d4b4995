package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/config"
	"newsdesk/internal/core"
	"newsdesk/internal/enrich"
	"newsdesk/internal/events"
	"newsdesk/internal/identity"
	"newsdesk/internal/llm"
	"newsdesk/internal/sources"
	"newsdesk/internal/vectorstore"
	"newsdesk/test/mocks"
)

type mockCollector struct {
	CollectFunc func(ctx context.Context) (*sources.Collection, error)
}

func (m *mockCollector) Collect(ctx context.Context) (*sources.Collection, error) {
	return m.CollectFunc(ctx)
}

type mockPublisher struct {
	PublishFunc func(ctx context.Context, articles []core.Article) error
	published   []core.Article
}

func (m *mockPublisher) Publish(ctx context.Context, articles []core.Article) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, articles); err != nil {
			return err
		}
	}
	m.published = append(m.published, articles...)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func staticCollection() *sources.Collection {
	return &sources.Collection{
		Items: []core.RawItem{
			{Title: "Markets & Rates", Link: "https://www.bbc.co.uk/news/1?utm_source=rss", RawSummary: "<p>Rates rose</p>", FullText: "Central banks raised rates.", Source: core.SourceBBC},
			{Title: "Storm warning", Link: "https://edition.cnn.com/2026/storm", FullText: "A storm is coming.", Source: core.SourceCNN},
			{Title: "Markets & Rates (updated)", Link: "https://www.bbc.co.uk/news/1", FullText: "Central banks raised rates again.", Source: core.SourceBBC},
		},
		Reports: []sources.SourceReport{
			{Source: core.SourceBBC, Items: 2, Duration: time.Second},
			{Source: core.SourceCNN, Items: 1, Duration: time.Second},
			{Source: core.SourceReuters, Err: core.ErrSourceUnavailable},
		},
	}
}

func newTestPipeline(t *testing.T, gen *mocks.MockGenerator, store vectorstore.Store, pub events.Publisher, snapshot string) *Pipeline {
	t.Helper()
	collector := &mockCollector{CollectFunc: func(ctx context.Context) (*sources.Collection, error) {
		return staticCollection(), nil
	}}
	stage := enrich.NewStage(gen, &mocks.MockEmbedder{}, enrich.Options{Workers: 2})
	return NewPipeline(collector, stage, vectorstore.NewGateway(store, 1, 8), pub, &Config{SnapshotPath: snapshot})
}

func TestRun(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	pub := &mockPublisher{}
	snapshot := filepath.Join(t.TempDir(), "out", "articles.json")

	stats, err := newTestPipeline(t, &mocks.MockGenerator{}, store, pub, snapshot).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Collected)
	assert.Equal(t, 2, stats.Unique)
	assert.Equal(t, 2, stats.Enriched)
	assert.Equal(t, 0, stats.Dropped)
	assert.Equal(t, 2, stats.Persisted)
	assert.Equal(t, 0, stats.FailedChunks)
	assert.Equal(t, 2, stats.Published)
	assert.Equal(t, snapshot, stats.SnapshotPath)
	assert.Equal(t, 1, stats.FailedSources())
	require.Len(t, stats.Sources, 3)
	assert.NotEmpty(t, stats.Sources[2].Error)
	assert.False(t, stats.EndTime.Before(stats.StartTime))

	assert.Equal(t, 2, store.Len())
	rec, ok := store.Get(identity.ID("https://www.bbc.co.uk/news/1"))
	require.True(t, ok)
	assert.Equal(t, "Markets & Rates (updated)", rec.Metadata[core.MetaTitle])

	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Markets & Rates (updated)")
	assert.True(t, strings.HasPrefix(string(data), "[\n    {"))

	articles, err := ReadSnapshot(snapshot)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "- mock summary", articles[0].SummaryLocalized)
	assert.False(t, articles[0].IngestedAt.IsZero())

	require.Len(t, pub.published, 2)
}

func TestRunIsIdempotent(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	p := newTestPipeline(t, &mocks.MockGenerator{}, store, nil, "")

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Persisted)
	assert.Equal(t, 2, store.Len())
	assert.Empty(t, stats.SnapshotPath)
}

func TestRunDropsFailedEnrichment(t *testing.T) {
	gen := &mocks.MockGenerator{GenerateFunc: func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		if strings.Contains(prompt, "storm") {
			return "", errors.New("safety block")
		}
		return "- ok", nil
	}}
	store := vectorstore.NewMemoryStore()
	pub := &mockPublisher{}

	stats, err := newTestPipeline(t, gen, store, pub, "").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.Persisted)
	assert.Equal(t, 1, store.Len())
	require.Len(t, pub.published, 1)
	assert.Equal(t, core.SourceBBC, pub.published[0].Source)
}

func TestRunPublishFailureDegrades(t *testing.T) {
	pub := &mockPublisher{PublishFunc: func(ctx context.Context, articles []core.Article) error {
		return errors.New("broker down")
	}}

	stats, err := newTestPipeline(t, &mocks.MockGenerator{}, vectorstore.NewMemoryStore(), pub, "").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Persisted)
	assert.Equal(t, 0, stats.Published)
}

type failingStore struct {
	*vectorstore.MemoryStore
	calls int
}

func (f *failingStore) Upsert(ctx context.Context, records []core.VectorRecord) error {
	f.calls++
	if f.calls == 1 {
		return errors.New("disk full")
	}
	return f.MemoryStore.Upsert(ctx, records)
}

func TestRunChunkFailurePublishesCommittedOnly(t *testing.T) {
	store := &failingStore{MemoryStore: vectorstore.NewMemoryStore()}
	pub := &mockPublisher{}

	stats, err := newTestPipeline(t, &mocks.MockGenerator{}, store, pub, "").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FailedChunks)
	assert.Equal(t, 1, stats.Persisted)
	require.Len(t, pub.published, 1)
	assert.Equal(t, core.SourceCNN, pub.published[0].Source)
}

func TestRunNoItems(t *testing.T) {
	gen := &mocks.MockGenerator{}
	collector := &mockCollector{CollectFunc: func(ctx context.Context) (*sources.Collection, error) {
		return &sources.Collection{}, nil
	}}
	p := NewPipeline(collector, enrich.NewStage(gen, &mocks.MockEmbedder{}, enrich.Options{}),
		vectorstore.NewGateway(vectorstore.NewMemoryStore(), 0, 8), nil, nil)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Unique)
	assert.Equal(t, 0, gen.Calls())
}

func TestRunErrors(t *testing.T) {
	_, err := NewPipeline(nil, nil, nil, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	collector := &mockCollector{CollectFunc: func(ctx context.Context) (*sources.Collection, error) {
		return nil, errors.New("pool exhausted")
	}}
	p := NewPipeline(collector, enrich.NewStage(&mocks.MockGenerator{}, &mocks.MockEmbedder{}, enrich.Options{}),
		vectorstore.NewGateway(vectorstore.NewMemoryStore(), 0, 8), nil, nil)
	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool exhausted")
}

type staticAdapter struct {
	name  string
	items []core.RawItem
}

func (s *staticAdapter) Name() string { return s.name }

func (s *staticAdapter) Collect(ctx context.Context, cfg sources.Config) ([]core.RawItem, error) {
	if len(s.items) > cfg.Limit {
		return s.items[:cfg.Limit], nil
	}
	return s.items, nil
}

func TestBuilder(t *testing.T) {
	cfg := &config.Config{
		Sources: config.Sources{
			Timeout: "5s",
			Limit:   1,
			Feeds:   []config.SourceConfig{{Name: "Wire", Kind: "static"}},
		},
	}

	_, err := NewBuilder(cfg).Build()
	require.Error(t, err)

	registry := sources.NewRegistry()
	registry.Register("static", func(name string) sources.Adapter {
		return &staticAdapter{name: name, items: []core.RawItem{
			{Title: "One", Link: "https://example.com/1", FullText: "first", Source: name},
			{Title: "Two", Link: "https://example.com/2", FullText: "second", Source: name},
		}}
	})
	store := vectorstore.NewMemoryStore()

	p, err := NewBuilder(cfg).
		WithGenerator(&mocks.MockGenerator{}).
		WithEmbedder(&mocks.MockEmbedder{}).
		WithPersister(vectorstore.NewGateway(store, 0, 8)).
		WithRegistry(registry).
		Build()
	require.NoError(t, err)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Collected)
	assert.Equal(t, 1, store.Len())
}

func TestBuilderUnknownKind(t *testing.T) {
	cfg := &config.Config{Sources: config.Sources{Feeds: []config.SourceConfig{{Name: "X", Kind: "carrier-pigeon"}}}}

	_, err := NewBuilder(cfg).
		WithGenerator(&mocks.MockGenerator{}).
		WithEmbedder(&mocks.MockEmbedder{}).
		WithPersister(vectorstore.NewGateway(vectorstore.NewMemoryStore(), 0, 8)).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestSourceConfigs(t *testing.T) {
	got := SourceConfigs(config.Sources{
		Limit: 5,
		Feeds: []config.SourceConfig{
			{Name: "BBC", URL: "http://bbc/rss"},
			{Name: "Reuters", Kind: "html", Limit: 3, Options: map[string]string{"base_url": "https://www.reuters.com"}},
		},
	})

	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Limit)
	assert.Equal(t, 3, got[1].Limit)
	assert.Equal(t, "https://www.reuters.com", got[1].Option("base_url", ""))
}

func TestWriteSnapshotReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	a := core.Article{ID: "1", Title: "<b>Bold</b> & more", SummaryLocalized: "- 重點"}
	require.NoError(t, WriteSnapshot(path, []core.Article{a}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<b>Bold</b> & more")
	assert.Contains(t, string(data), "- 重點")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
