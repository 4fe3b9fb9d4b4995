// Package llm defines the generation and embedding contracts and their
// Gemini and OpenAI-compatible implementations.
package llm

import (
	"context"
	"errors"
	"fmt"

	"newsdesk/internal/config"
)

const (
	// DefaultModel is the default Gemini generation model.
	DefaultModel = "gemini-flash-latest"
	// DefaultEmbeddingModel is the default Gemini embedding model.
	DefaultEmbeddingModel = "text-embedding-004"
	// DefaultEmbeddingDimensions is the vector length stored in the index.
	DefaultEmbeddingDimensions = int32(768)
)

// Embedding task types understood by the providers.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// ErrEmptyInput is returned when there is nothing to embed or generate from.
var ErrEmptyInput = errors.New("empty input")

// Harm categories filtered on every generation call.
var DefaultHarmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// SafetySetting pairs a harm category with its blocking threshold.
type SafetySetting struct {
	Category  string
	Threshold string
}

// Options controls a single generation call. Zero values leave the
// provider default in place.
type Options struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	Safety          []SafetySetting
	JSON            bool
}

// WithJSON returns a copy of o requesting structured JSON output.
func (o Options) WithJSON() Options {
	o.JSON = true
	return o
}

// TaskHint tells the embedder what the vector will be used for.
type TaskHint struct {
	Type  string
	Title string
}

// DocumentHint is the hint for stored article summaries.
func DocumentHint() TaskHint {
	return TaskHint{Type: TaskRetrievalDocument, Title: "News Article"}
}

// QueryHint is the hint for user questions.
func QueryHint() TaskHint {
	return TaskHint{Type: TaskRetrievalQuery}
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Embedder produces a fixed-length vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string, hint TaskHint) ([]float32, error)
}

// Client is a provider offering both generation and embedding.
type Client interface {
	Generator
	Embedder
	Close() error
}

// DefaultOptions returns generation defaults: temperature 0.9, top-p 1,
// top-k 1, 8192 output tokens and all harm categories blocked at medium.
func DefaultOptions() Options {
	return Options{
		Temperature:     0.9,
		TopP:            1,
		TopK:            1,
		MaxOutputTokens: 8192,
		Safety:          safetyFor("BLOCK_MEDIUM_AND_ABOVE"),
	}
}

// OptionsFromConfig builds generation options from configuration.
func OptionsFromConfig(cfg config.GeminiConfig) Options {
	opts := DefaultOptions()
	opts.Temperature = cfg.Temperature
	if cfg.TopP > 0 {
		opts.TopP = cfg.TopP
	}
	if cfg.TopK > 0 {
		opts.TopK = cfg.TopK
	}
	if cfg.MaxOutputTokens > 0 {
		opts.MaxOutputTokens = cfg.MaxOutputTokens
	}
	if cfg.SafetyThreshold != "" {
		opts.Safety = safetyFor(cfg.SafetyThreshold)
	}
	return opts
}

func safetyFor(threshold string) []SafetySetting {
	settings := make([]SafetySetting, 0, len(DefaultHarmCategories))
	for _, category := range DefaultHarmCategories {
		settings = append(settings, SafetySetting{Category: category, Threshold: threshold})
	}
	return settings
}

// New constructs the client for the configured provider.
func New(ctx context.Context, cfg config.AI) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGemini(ctx, cfg.Gemini)
	case "openai":
		return NewOpenAI(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
