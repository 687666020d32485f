// Package config provides configuration loading and validation for the recommender.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/gift-recommender/internal/ranking"
	"github.com/jonathan/gift-recommender/internal/types"
)

// Default values applied by Defaults.
const (
	DefaultEmbeddingModel        = "text-embedding-004"
	DefaultSupplierTimeoutMS     = 8000
	DefaultAvailabilityTimeoutMS = 5000
	DefaultEmbeddingTimeoutMS    = 5000
	DefaultHintLimit             = 10
	DefaultAvailabilityCacheTTL  = 600 // seconds
	DefaultLogMode               = "development"
)

// Config represents the recommender configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or environment variables.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`           // Gemini API key (embeddings)
	SupplierURL string `json:"supplier_url,omitempty" yaml:"supplier_url,omitempty"` // Base URL of the catalog supplier API

	// Retrieval
	EmbeddingModel string  `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	HintLimit      int     `json:"hint_limit,omitempty" yaml:"hint_limit,omitempty"`
	HintThreshold  float64 `json:"hint_threshold,omitempty" yaml:"hint_threshold,omitempty"` // Minimum cosine similarity (0 = no floor)

	// Timeouts
	SupplierTimeoutMS     int `json:"supplier_timeout_ms,omitempty" yaml:"supplier_timeout_ms,omitempty"`
	AvailabilityTimeoutMS int `json:"availability_timeout_ms,omitempty" yaml:"availability_timeout_ms,omitempty"`
	EmbeddingTimeoutMS    int `json:"embedding_timeout_ms,omitempty" yaml:"embedding_timeout_ms,omitempty"` // Embedding call plus semantic search

	// Availability
	AvailabilityCacheTTL  int  `json:"availability_cache_ttl,omitempty" yaml:"availability_cache_ttl,omitempty"` // Seconds
	DeepAvailabilityCheck bool `json:"deep_availability_check,omitempty" yaml:"deep_availability_check,omitempty"`

	// Suppliers
	UseFixtureSupplier bool `json:"use_fixture_supplier,omitempty" yaml:"use_fixture_supplier,omitempty"`

	// Scoring
	LoveLanguageWeights map[types.LoveLanguage]types.LoveLanguageWeight `json:"love_language_weights,omitempty" yaml:"love_language_weights,omitempty"`

	// Behavior
	LogMode string `json:"log_mode,omitempty" yaml:"log_mode,omitempty"` // "development" or "production"
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() Config {
	return Config{
		EmbeddingModel:        DefaultEmbeddingModel,
		HintLimit:             DefaultHintLimit,
		SupplierTimeoutMS:     DefaultSupplierTimeoutMS,
		AvailabilityTimeoutMS: DefaultAvailabilityTimeoutMS,
		EmbeddingTimeoutMS:    DefaultEmbeddingTimeoutMS,
		AvailabilityCacheTTL:  DefaultAvailabilityCacheTTL,
		LoveLanguageWeights:   ranking.DefaultLoveLanguageWeights(),
		LogMode:               DefaultLogMode,
	}
}

// LoadConfig loads configuration from a JSON or YAML file.
// The format is chosen by extension: .yaml and .yml are YAML, anything else is JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.HintLimit < 0 {
		return fmt.Errorf("config error: 'hint_limit' must be non-negative")
	}
	if c.HintThreshold < -1 || c.HintThreshold > 1 {
		return fmt.Errorf("config error: 'hint_threshold' must be within [-1, 1]")
	}
	if c.SupplierTimeoutMS < 0 {
		return fmt.Errorf("config error: 'supplier_timeout_ms' must be non-negative")
	}
	if c.AvailabilityTimeoutMS < 0 {
		return fmt.Errorf("config error: 'availability_timeout_ms' must be non-negative")
	}
	if c.EmbeddingTimeoutMS < 0 {
		return fmt.Errorf("config error: 'embedding_timeout_ms' must be non-negative")
	}
	if c.AvailabilityCacheTTL < 0 {
		return fmt.Errorf("config error: 'availability_cache_ttl' must be non-negative")
	}

	switch strings.ToLower(c.LogMode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("config error: unknown 'log_mode' %q", c.LogMode)
	}

	for lang, w := range c.LoveLanguageWeights {
		if !isLoveLanguage(lang) {
			return fmt.Errorf("config error: unknown love language %q", lang)
		}
		if w.Primary < 0 || w.Secondary < 0 {
			return fmt.Errorf("config error: love language %q weights must be non-negative", lang)
		}
		// Primary must always outweigh secondary.
		if w.Primary < w.Secondary {
			return fmt.Errorf("config error: love language %q primary weight %.2f is below secondary weight %.2f",
				lang, w.Primary, w.Secondary)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.SupplierURL == "" {
		result.SupplierURL = defaults.SupplierURL
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}

	// Int fields: use default if zero
	if result.HintLimit == 0 {
		result.HintLimit = defaults.HintLimit
	}
	if result.SupplierTimeoutMS == 0 {
		result.SupplierTimeoutMS = defaults.SupplierTimeoutMS
	}
	if result.AvailabilityTimeoutMS == 0 {
		result.AvailabilityTimeoutMS = defaults.AvailabilityTimeoutMS
	}
	if result.EmbeddingTimeoutMS == 0 {
		result.EmbeddingTimeoutMS = defaults.EmbeddingTimeoutMS
	}
	if result.AvailabilityCacheTTL == 0 {
		result.AvailabilityCacheTTL = defaults.AvailabilityCacheTTL
	}

	// Weights: per language, so a file can tune a single language
	weights := make(map[types.LoveLanguage]types.LoveLanguageWeight, len(defaults.LoveLanguageWeights))
	for lang, w := range defaults.LoveLanguageWeights {
		weights[lang] = w
	}
	for lang, w := range c.LoveLanguageWeights {
		weights[lang] = w
	}
	result.LoveLanguageWeights = weights

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// ApplyEnv overrides connection settings from environment variables when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SUPPLIER_URL"); v != "" {
		c.SupplierURL = v
	}
	if v := os.Getenv("LOG_MODE"); v != "" {
		c.LogMode = v
	}
	if v := os.Getenv("DEEP_AVAILABILITY_CHECK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DeepAvailabilityCheck = b
		}
	}
}

// SupplierTimeout returns the per-call supplier timeout.
func (c *Config) SupplierTimeout() time.Duration {
	return time.Duration(c.SupplierTimeoutMS) * time.Millisecond
}

// AvailabilityTimeout returns the per-URL reachability timeout.
func (c *Config) AvailabilityTimeout() time.Duration {
	return time.Duration(c.AvailabilityTimeoutMS) * time.Millisecond
}

// EmbeddingTimeout returns the bound on hint embedding and semantic search.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.EmbeddingTimeoutMS) * time.Millisecond
}

// AvailabilityCacheDuration returns how long reachability results are cached.
func (c *Config) AvailabilityCacheDuration() time.Duration {
	return time.Duration(c.AvailabilityCacheTTL) * time.Second
}

func isLoveLanguage(lang types.LoveLanguage) bool {
	for _, l := range types.AllLoveLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
