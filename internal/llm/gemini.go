package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdesk/internal/config"
	"newsdesk/internal/logger"

	"google.golang.org/genai"
)

// GeminiClient talks to the Gemini API.
type GeminiClient struct {
	gClient        *genai.Client
	modelName      string
	embeddingModel string
	dimensions     int32
	log            *slog.Logger
}

// NewGemini creates a Gemini client from configuration.
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		gClient:        gClient,
		modelName:      cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
		log:            logger.Component("gemini"),
	}
	if c.modelName == "" {
		c.modelName = DefaultModel
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.dimensions <= 0 {
		c.dimensions = DefaultEmbeddingDimensions
	}
	return c, nil
}

// Generate runs a single-turn generation.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty: %w", ErrEmptyInput)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, generateConfig(opts))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// Embed returns the embedding of text with the configured dimensionality.
func (c *GeminiClient) Embed(ctx context.Context, text string, hint TaskHint) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to embed: %w", ErrEmptyInput)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, embedConfig(hint, c.dimensions))
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	return resp.Embeddings[0].Values, nil
}

// Close releases the client. The SDK holds no resources needing cleanup.
func (c *GeminiClient) Close() error {
	c.log.Debug("closing Gemini client")
	return nil
}

func generateConfig(opts Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.TopP > 0 {
		config.TopP = genai.Ptr(opts.TopP)
	}
	if opts.TopK > 0 {
		config.TopK = genai.Ptr(opts.TopK)
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.MaxOutputTokens
	}
	for _, s := range opts.Safety {
		config.SafetySettings = append(config.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func embedConfig(hint TaskHint, dims int32) *genai.EmbedContentConfig {
	config := &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(dims),
		TaskType:             hint.Type,
	}
	if hint.Type == TaskRetrievalDocument && hint.Title != "" {
		config.Title = hint.Title
	}
	return config
}
