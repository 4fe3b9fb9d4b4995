package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  language: Traditional Chinese\n"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-flash-latest", cfg.AI.Gemini.Model)
	assert.Equal(t, "text-embedding-004", cfg.AI.Gemini.EmbeddingModel)
	assert.EqualValues(t, 768, cfg.AI.Gemini.Dimensions)
	assert.EqualValues(t, 8192, cfg.AI.Gemini.MaxOutputTokens)
	assert.Equal(t, 5, cfg.Sources.Limit)
	assert.Equal(t, 100, cfg.Store.BatchSize)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, 10, cfg.RAG.BriefingLimit)
	assert.Equal(t, 20, cfg.RAG.RecentFetchLimit)
	assert.Equal(t, 5000, cfg.Server.Port)
	require.Len(t, cfg.Sources.Feeds, 3)
	assert.Equal(t, "Reuters", cfg.Sources.Feeds[2].Name)
	assert.Equal(t, "html", cfg.Sources.Feeds[2].Kind)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
  batch_size: 50
sources:
  timeout: 10s
  feeds:
    - name: Example
      kind: rss
      url: https://example.com/rss.xml
      limit: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 50, cfg.Store.BatchSize)
	require.Len(t, cfg.Sources.Feeds, 1)
	assert.Equal(t, "Example", cfg.Sources.Feeds[0].Name)
	assert.Equal(t, 2, cfg.Sources.Feeds[0].Limit)
	assert.Equal(t, 10*time.Second, Duration(cfg.Sources.Timeout, time.Minute))
}

func TestLoadInvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "enrich:\n  call_timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich.call_timeout")
}

func TestLoadEnvironmentKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/news")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "google-key", cfg.AI.Gemini.APIKey)
	assert.Equal(t, "postgres://localhost/news", cfg.Store.PgVector.ConnectionString)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Events.Brokers)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		AI:      AI{Provider: "gemini"},
		Store:   Store{Backend: "pgvector"},
		Sources: Sources{Feeds: DefaultSources()},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gemini API key is required")
	assert.Contains(t, err.Error(), "pgvector backend requires a connection string")

	cfg.AI.Gemini.APIKey = "key"
	cfg.Store.Backend = "memory"
	assert.NoError(t, cfg.Validate())

	cfg.Store.Backend = "redis"
	assert.Error(t, cfg.Validate())
}

func TestDurationFallback(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("", 3*time.Second))
	assert.Equal(t, 3*time.Second, Duration("bogus", 3*time.Second))
	assert.Equal(t, 250*time.Millisecond, Duration("250ms", 3*time.Second))
}
