package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Sources  Sources  `mapstructure:"sources"`
	Enrich   Enrich   `mapstructure:"enrich"`
	Store    Store    `mapstructure:"store"`
	RAG      RAG      `mapstructure:"rag"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Events   Events   `mapstructure:"events"`
	Schedule Schedule `mapstructure:"schedule"`
	Server   Server   `mapstructure:"server"`
	Logging  Logging  `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Language string `mapstructure:"language"`
}

// AI holds generation and embedding provider configuration
type AI struct {
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	EmbeddingModel  string  `mapstructure:"embedding_model"`
	Dimensions      int32   `mapstructure:"dimensions"`
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top_p"`
	TopK            float32 `mapstructure:"top_k"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
	SafetyThreshold string  `mapstructure:"safety_threshold"`
}

// OpenAIConfig holds configuration for an OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// Sources holds source adapter configuration
type Sources struct {
	Timeout   string         `mapstructure:"timeout"`
	UserAgent string         `mapstructure:"user_agent"`
	Limit     int            `mapstructure:"limit"`
	Feeds     []SourceConfig `mapstructure:"feeds"`
}

// SourceConfig declares a single news source
type SourceConfig struct {
	Name    string            `mapstructure:"name"`
	Kind    string            `mapstructure:"kind"`
	URL     string            `mapstructure:"url"`
	Limit   int               `mapstructure:"limit"`
	Options map[string]string `mapstructure:"options"`
}

// Enrich holds enrichment stage configuration
type Enrich struct {
	Workers       int    `mapstructure:"workers"`
	CallTimeout   string `mapstructure:"call_timeout"`
	MaxInputChars int    `mapstructure:"max_input_chars"`
}

// Store holds vector store configuration
type Store struct {
	Backend   string         `mapstructure:"backend"`
	BatchSize int            `mapstructure:"batch_size"`
	Dimension int            `mapstructure:"dimension"`
	SQLite    SQLiteConfig   `mapstructure:"sqlite"`
	PgVector  PgVectorConfig `mapstructure:"pgvector"`
}

// SQLiteConfig holds the local index location
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PgVectorConfig holds PostgreSQL/pgvector configuration
type PgVectorConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	Table            string `mapstructure:"table"`
	AutoMigrate      bool   `mapstructure:"auto_migrate"`
}

// RAG holds retrieval and composition configuration
type RAG struct {
	TopK               int `mapstructure:"top_k"`
	BriefingLimit      int `mapstructure:"briefing_limit"`
	RecentFetchLimit   int `mapstructure:"recent_fetch_limit"`
	ContextBudgetChars int `mapstructure:"context_budget_chars"`
}

// Pipeline holds ingestion run configuration
type Pipeline struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// Events holds ingestion event publishing configuration
type Events struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Schedule holds recurring ingestion configuration
type Schedule struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// Server holds HTTP server configuration
type Server struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	StaticDir       string   `mapstructure:"static_dir"`
	RequestTimeout  string   `mapstructure:"request_timeout"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AdminAPIKey     string   `mapstructure:"admin_api_key"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads the configuration from defaults, an optional YAML file, .env and the environment.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".newsdesk")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("NEWSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(cfg); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.language", "Traditional Chinese")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-flash-latest")
	v.SetDefault("ai.gemini.embedding_model", "text-embedding-004")
	v.SetDefault("ai.gemini.dimensions", 768)
	v.SetDefault("ai.gemini.temperature", 0.9)
	v.SetDefault("ai.gemini.top_p", 1.0)
	v.SetDefault("ai.gemini.top_k", 1.0)
	v.SetDefault("ai.gemini.max_output_tokens", 8192)
	v.SetDefault("ai.gemini.safety_threshold", "BLOCK_MEDIUM_AND_ABOVE")
	v.SetDefault("ai.openai.base_url", "http://localhost:11434/v1")
	v.SetDefault("ai.openai.model", "llama3.1")
	v.SetDefault("ai.openai.embedding_model", "nomic-embed-text")

	v.SetDefault("sources.timeout", "45s")
	v.SetDefault("sources.user_agent", "Mozilla/5.0 (compatible; newsdesk/1.0)")
	v.SetDefault("sources.limit", 5)

	v.SetDefault("enrich.workers", 4)
	v.SetDefault("enrich.call_timeout", "60s")
	v.SetDefault("enrich.max_input_chars", 30000)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.batch_size", 100)
	v.SetDefault("store.dimension", 768)
	v.SetDefault("store.sqlite.path", "newsdesk.db")
	v.SetDefault("store.pgvector.table", "news_vectors")
	v.SetDefault("store.pgvector.auto_migrate", false)

	v.SetDefault("rag.top_k", 3)
	v.SetDefault("rag.briefing_limit", 10)
	v.SetDefault("rag.recent_fetch_limit", 20)
	v.SetDefault("rag.context_budget_chars", 12000)

	v.SetDefault("pipeline.snapshot_path", "articles.json")

	v.SetDefault("events.topic", "newsdesk.articles")

	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("schedule.timezone", "UTC")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// DefaultSources returns the built-in BBC, CNN and Reuters sources.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "BBC", Kind: "rss", URL: "http://feeds.bbci.co.uk/news/world/rss.xml"},
		{Name: "CNN", Kind: "rss", URL: "http://rss.cnn.com/rss/edition_world.rss"},
		{Name: "Reuters", Kind: "html", URL: "https://www.reuters.com/world/", Options: map[string]string{
			"base_url": "https://www.reuters.com",
		}},
	}
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	bindEnvKeys(v, "ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys(v, "server.admin_api_key", []string{
		"ADMIN_API_KEY",
	})

	bindEnvKeys(v, "store.pgvector.connection_string", []string{
		"DATABASE_URL",
		"PGVECTOR_URL",
	})

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		v.Set("events.brokers", splitList(brokers))
	}
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, key string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(key, value)
			return
		}
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Store.SQLite.Path != "" {
		config.Store.SQLite.Path = expandPath(config.Store.SQLite.Path)
	}
	if config.Pipeline.SnapshotPath != "" {
		config.Pipeline.SnapshotPath = expandPath(config.Pipeline.SnapshotPath)
	}
	if len(config.Sources.Feeds) == 0 {
		config.Sources.Feeds = DefaultSources()
	}

	durations := map[string]string{
		"sources.timeout":         config.Sources.Timeout,
		"enrich.call_timeout":     config.Enrich.CallTimeout,
		"server.request_timeout":  config.Server.RequestTimeout,
		"server.shutdown_timeout": config.Server.ShutdownTimeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// Validate ensures the configuration needed by the selected providers is present.
func (c *Config) Validate() error {
	var errors []string

	switch c.AI.Provider {
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			errors = append(errors, "Gemini API key is required. Set GEMINI_API_KEY (or GOOGLE_API_KEY) or ai.gemini.api_key in the config file")
		}
	case "openai":
		if c.AI.OpenAI.BaseURL == "" {
			errors = append(errors, "ai.openai.base_url is required for the openai provider")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown AI provider: %s. Supported: gemini, openai", c.AI.Provider))
	}

	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			errors = append(errors, "store.sqlite.path is required for the sqlite backend")
		}
	case "pgvector":
		if c.Store.PgVector.ConnectionString == "" {
			errors = append(errors, "pgvector backend requires a connection string. Set DATABASE_URL or store.pgvector.connection_string")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown store backend: %s. Supported: memory, sqlite, pgvector", c.Store.Backend))
	}

	for i, src := range c.Sources.Feeds {
		if src.Name == "" || src.URL == "" {
			errors = append(errors, fmt.Sprintf("sources.feeds[%d] needs both name and url", i))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
