package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdesk/internal/config"
	"newsdesk/internal/logger"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient talks to an OpenAI-compatible endpoint such as a local model server.
type OpenAIClient struct {
	model    llms.Model
	embedder embeddings.Embedder
	log      *slog.Logger
}

// NewOpenAI creates a client for an OpenAI-compatible endpoint.
func NewOpenAI(cfg config.OpenAIConfig) (*OpenAIClient, error) {
	// Local OpenAI-compatible services accept any token.
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{openai.WithToken(token)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.EmbeddingModel))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAIClient{
		model:    client,
		embedder: embedder,
		log:      logger.Component("openai"),
	}, nil
}

// Generate runs a single-turn completion. Safety settings have no
// equivalent on this provider and are ignored.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty: %w", ErrEmptyInput)
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, callOptions(opts)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Embed embeds text as a query or a document depending on the hint.
func (c *OpenAIClient) Embed(ctx context.Context, text string, hint TaskHint) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to embed: %w", ErrEmptyInput)
	}

	c.log.Debug("generating embedding", "task", hint.Type, "length", len(text))

	if hint.Type == TaskRetrievalQuery {
		vector, err := c.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("no embedding values returned from API")
		}
		return vector, nil
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("no embedding values returned from API")
	}
	return vectors[0], nil
}

// Close is a no-op; the HTTP client holds no resources.
func (c *OpenAIClient) Close() error {
	return nil
}

func callOptions(opts Options) []llms.CallOption {
	callOpts := []llms.CallOption{llms.WithTemperature(float64(opts.Temperature))}
	if opts.TopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(float64(opts.TopP)))
	}
	if opts.TopK > 0 {
		callOpts = append(callOpts, llms.WithTopK(int(opts.TopK)))
	}
	if opts.MaxOutputTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(int(opts.MaxOutputTokens)))
	}
	if opts.JSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	return callOpts
}
