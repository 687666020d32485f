// Package retrieval finds the partner hints most relevant to the occasion being planned.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/types"
)

// Retrieval defaults
const (
	DefaultLimit     = 10
	DefaultThreshold = 0.0
	// DefaultTimeout bounds the embedding call and the semantic search together.
	DefaultTimeout = 5 * time.Second
	// EmbeddingDimensions is the vector size the hint store indexes.
	EmbeddingDimensions = 768
	queryInterests      = 3
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HintStore looks up a vault's hints.
type HintStore interface {
	SemanticSearch(ctx context.Context, vaultID uuid.UUID, vector []float32, limit int, threshold float64) ([]types.RelevantHint, error)
	RecentHints(ctx context.Context, vaultID uuid.UUID, limit int) ([]types.RelevantHint, error)
}

// Retriever fetches relevant hints, falling back to the newest hints when semantic
// search is unavailable.
type Retriever struct {
	embedder  Embedder
	store     HintStore
	limit     int
	threshold float64
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLimit sets the maximum number of hints returned.
func WithLimit(limit int) Option {
	return func(r *Retriever) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithThreshold sets the minimum cosine similarity for semantic matches.
func WithThreshold(threshold float64) Option {
	return func(r *Retriever) { r.threshold = threshold }
}

// WithTimeout bounds the semantic path. When it expires the retriever falls back to
// the most recent hints on the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Retriever) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetriever creates a Retriever. embedder may be nil, in which case only the
// chronological fallback is used.
func NewRetriever(embedder Embedder, store HintStore, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		store:     store,
		limit:     DefaultLimit,
		threshold: DefaultThreshold,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildQuery assembles the search text from the milestone, the occasion and the
// partner's top interests.
func BuildQuery(profile *types.PartnerProfile, occasion types.OccasionType, milestone *types.MilestoneContext) string {
	var parts []string
	if milestone != nil {
		if milestone.Name != "" {
			parts = append(parts, milestone.Name)
		}
		if milestone.Type != "" {
			parts = append(parts, string(milestone.Type))
		}
	}
	if occasion != "" {
		parts = append(parts, occasion.Label())
	}
	if profile != nil {
		for _, interest := range profile.TopInterests(queryInterests) {
			if s := strings.TrimSpace(interest); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Retrieve never fails: embedding or search errors fall back to the most recent hints
// with similarity 0, and a failing fallback yields an empty list.
func (r *Retriever) Retrieve(ctx context.Context, vaultID uuid.UUID, query string) []types.RelevantHint {
	if r.store == nil {
		return []types.RelevantHint{}
	}

	if r.embedder != nil && strings.TrimSpace(query) != "" {
		hints, err := r.semantic(ctx, vaultID, query)
		if err == nil {
			return hints
		}
		r.logger.Warn("semantic hint search failed, using recent hints",
			zap.String("vault_id", vaultID.String()),
			zap.Error(err))
	}

	hints, err := r.store.RecentHints(ctx, vaultID, r.limit)
	if err != nil {
		r.logger.Warn("recent hint lookup failed",
			zap.String("vault_id", vaultID.String()),
			zap.Error(err))
		return []types.RelevantHint{}
	}
	for i := range hints {
		hints[i].Similarity = 0
	}
	return hints
}

func (r *Retriever) semantic(ctx context.Context, vaultID uuid.UUID, query string) ([]types.RelevantHint, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &Error{Message: "failed to embed query", Cause: err}
	}
	if len(vector) != EmbeddingDimensions {
		return nil, &Error{Message: "unexpected embedding size"}
	}
	hints, err := r.store.SemanticSearch(ctx, vaultID, vector, r.limit, r.threshold)
	if err != nil {
		return nil, &Error{Message: "semantic search failed", Cause: err}
	}
	if hints == nil {
		hints = []types.RelevantHint{}
	}
	return hints, nil
}
