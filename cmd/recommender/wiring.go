package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/aggregation"
	"github.com/jonathan/gift-recommender/internal/availability"
	"github.com/jonathan/gift-recommender/internal/config"
	"github.com/jonathan/gift-recommender/internal/db"
	"github.com/jonathan/gift-recommender/internal/fetch"
	"github.com/jonathan/gift-recommender/internal/llm"
	"github.com/jonathan/gift-recommender/internal/observability"
	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/retrieval"
	"github.com/jonathan/gift-recommender/internal/schemas"
	"github.com/jonathan/gift-recommender/internal/supplier"
	"github.com/jonathan/gift-recommender/internal/types"
)

// runtime holds the collaborators shared by the serve, generate and refresh commands.
type runtime struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *db.DB
	embedder llm.Embedder
	pipeline *pipeline.Pipeline
}

// runtimeOptions controls what newRuntime connects to.
type runtimeOptions struct {
	NeedDB     bool
	OnProgress pipeline.ProgressCallback
}

// resolveConfig loads the optional config file, applies environment overrides and
// fills in defaults.
func resolveConfig(path string) (config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// buildSuppliers returns the configured catalog suppliers. The built-in fixture catalog
// is used when asked for, or when no supplier URL is configured.
func buildSuppliers(cfg config.Config) []supplier.CandidateSupplier {
	var out []supplier.CandidateSupplier
	if cfg.SupplierURL != "" {
		client := &http.Client{Timeout: cfg.SupplierTimeout()}
		out = append(out, supplier.NewHTTP("catalog", cfg.SupplierURL, client))
	}
	if cfg.UseFixtureSupplier || len(out) == 0 {
		out = append(out, supplier.NewFixture(""))
	}
	return out
}

// newRuntime wires the pipeline. Without a database the pipeline runs without hint
// retrieval; without an API key retrieval uses the chronological fallback.
func newRuntime(ctx context.Context, cfg config.Config, opts runtimeOptions) (*runtime, error) {
	logger, err := observability.NewLogger(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger}

	if opts.NeedDB {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.db = database
	}

	deps := pipeline.Deps{
		Aggregator: aggregation.New(buildSuppliers(cfg), cfg.SupplierTimeout(), logger),
		Weights:    cfg.LoveLanguageWeights,
		Logger:     logger,
		OnProgress: opts.OnProgress,
	}

	if rt.db != nil {
		var embedder retrieval.Embedder
		if cfg.APIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, hints use the chronological fallback")
		} else {
			e, err := llm.NewEmbedder(ctx, llm.DefaultConfig().WithModel(cfg.EmbeddingModel), cfg.APIKey)
			if err != nil {
				logger.Warn("embedding client unavailable, hints use the chronological fallback", zap.Error(err))
			} else {
				rt.embedder = e
				embedder = e
			}
		}
		deps.Retriever = retrieval.NewRetriever(embedder, rt.db,
			retrieval.WithLimit(cfg.HintLimit),
			retrieval.WithThreshold(cfg.HintThreshold),
			retrieval.WithTimeout(cfg.EmbeddingTimeout()),
			retrieval.WithLogger(logger),
		)
	}

	checker := fetch.NewChecker(cfg.AvailabilityTimeout(),
		fetch.WithDeepCheck(cfg.DeepAvailabilityCheck),
		fetch.WithCheckerLogger(logger),
	)
	deps.Verifier = availability.NewVerifier(fetch.NewCachedChecker(checker, cfg.AvailabilityCacheDuration()), logger)

	rt.pipeline = pipeline.New(deps)
	return rt, nil
}

// Close releases the runtime's connections.
func (rt *runtime) Close() {
	if rt.embedder != nil {
		_ = rt.embedder.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.logger.Sync()
}

// vaultSource names where a command reads its vault from: a JSON file, or the database.
type vaultSource struct {
	File    string
	VaultID string
	UserID  string
}

func (s vaultSource) validate() error {
	if s.File == "" && s.VaultID == "" {
		return fmt.Errorf("either --vault or --vault-id must be provided")
	}
	if s.File != "" && s.VaultID != "" {
		return fmt.Errorf("--vault and --vault-id are mutually exclusive; provide only one")
	}
	if s.VaultID != "" && s.UserID == "" {
		return fmt.Errorf("--user-id is required with --vault-id")
	}
	return nil
}

func (s vaultSource) needsDB() bool {
	return s.VaultID != ""
}

// load returns the vault from the file or the database.
func (s vaultSource) load(ctx context.Context, rt *runtime) (*types.Vault, error) {
	if s.File != "" {
		return loadVaultFile(s.File, rt.logger)
	}

	vaultID, err := uuid.Parse(s.VaultID)
	if err != nil {
		return nil, fmt.Errorf("invalid vault_id format: %w", err)
	}
	userID, err := uuid.Parse(s.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id format: %w", err)
	}

	vault, err := rt.db.LoadVault(ctx, vaultID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vault %s: %w", vaultID, err)
	}
	if vault == nil {
		return nil, fmt.Errorf("vault %s not found for user %s", vaultID, userID)
	}
	return vault, nil
}

// loadVaultFile reads a vault JSON file. Schema violations are logged, not fatal; the
// pipeline validates the profile and budgets itself.
func loadVaultFile(path string, logger *zap.Logger) (*types.Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file %s: %w", path, err)
	}

	warnOnSchema(schemas.VaultSchema, data, path, logger)

	var vault types.Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		return nil, fmt.Errorf("failed to parse vault JSON: %w", err)
	}
	return &vault, nil
}

// warnOnSchema validates document against schema and logs any violations.
func warnOnSchema(schema string, document []byte, name string, logger *zap.Logger) {
	err := schemas.ValidateNamed(schema, document)
	if err == nil {
		return
	}
	var loadErr *schemas.SchemaLoadError
	if errors.As(err, &loadErr) {
		logger.Debug("schema check skipped", zap.String("schema", schema), zap.Error(err))
		return
	}
	logger.Warn("document does not match schema",
		zap.String("document", name),
		zap.String("schema", schema),
		zap.Error(err),
	)
}

// parseMilestone parses an optional milestone id flag.
func parseMilestone(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid milestone id format: %w", err)
	}
	return &id, nil
}
