// Package llm provides the embedding client used for hint retrieval.
package llm

// Provider represents an embedding provider
type Provider string

// Provider constants define supported embedding providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Config holds the embedding model configuration
type Config struct {
	Provider   Provider
	Model      string
	Dimensions int
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:   ProviderGemini,
		Model:      "text-embedding-004",
		Dimensions: 768,
	}
}

// WithModel returns a copy of the config using model, or the same config when model is empty.
func (c *Config) WithModel(model string) *Config {
	if model == "" {
		return c
	}
	cp := *c
	cp.Model = model
	return &cp
}
