package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder turns text into a fixed-size vector
type Embedder interface {
	// Embed returns the embedding for text
	Embed(ctx context.Context, text string) ([]float32, error)
	// Close releases any resources held by the client
	Close() error
}

// NewEmbedder creates an embedder based on configuration
func NewEmbedder(ctx context.Context, config *Config, apiKey string) (Embedder, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", config.Provider)
	}
}

// GeminiEmbedder implements Embedder for Google Gemini. It is built once per process
// and shared; the underlying client is safe for concurrent use.
type GeminiEmbedder struct {
	client *genai.Client
	config *Config
}

// NewGeminiEmbedder creates a new Gemini embedder
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultGeminiConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		config: config,
	}, nil
}

// Embed embeds text with the configured model
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.config.Model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	return extractValues(resp, e.config.Dimensions)
}

// Close releases resources held by the client
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// extractValues pulls the vector out of a Gemini response and checks its size
func extractValues(resp *genai.EmbedContentResponse, dims int) ([]float32, error) {
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	if dims > 0 && len(resp.Embedding.Values) != dims {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(resp.Embedding.Values), dims)
	}
	return resp.Embedding.Values, nil
}
