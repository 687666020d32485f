// Package availability confirms that selected recommendations still resolve before they are
// shown, swapping in replacements from the scored pool when they do not.
package availability

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/gift-recommender/internal/ranking"
	"github.com/jonathan/gift-recommender/internal/types"
)

// MaxReplacementAttempts is the number of pool candidates tried for one failed slot.
const MaxReplacementAttempts = 3

// Checker reports whether a URL is reachable.
type Checker interface {
	Check(ctx context.Context, rawURL string) bool
}

// Verifier checks selected candidates and replaces unreachable ones.
type Verifier struct {
	checker Checker
	logger  *zap.Logger
}

// NewVerifier creates a Verifier. A nil logger disables logging.
func NewVerifier(checker Checker, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{checker: checker, logger: logger}
}

// Verify walks the selected candidates in order. A candidate without an external URL is
// kept as-is. One whose URL does not resolve is replaced by the best remaining pool candidate
// that does, trying at most MaxReplacementAttempts. Every candidate tried, whether selected
// or a replacement, is never tried again. The result may hold fewer items than selected.
// Verification stops at the first slot reached after ctx is done; callers check ctx.Err().
func (v *Verifier) Verify(ctx context.Context, selected, pool []types.Candidate) []types.Candidate {
	tried := make(map[string]bool, len(selected))
	for _, c := range selected {
		tried[c.ID] = true
	}

	alternates := make([]types.Candidate, len(pool))
	copy(alternates, pool)
	ranking.SortByScore(alternates, func(c *types.Candidate) float64 { return c.FinalScore })

	verified := make([]types.Candidate, 0, len(selected))
	for _, c := range selected {
		if err := ctx.Err(); err != nil {
			v.logger.Warn("availability check cancelled",
				zap.Int("verified", len(verified)),
				zap.Error(err))
			return verified
		}
		if v.available(ctx, &c) {
			verified = append(verified, c)
			continue
		}
		v.logger.Warn("recommendation unavailable, looking for replacement",
			zap.String("candidate_id", c.ID),
			zap.String("url", c.ExternalURL))

		if replacement, ok := v.replace(ctx, alternates, tried); ok {
			verified = append(verified, replacement)
		}
	}

	if len(verified) < len(selected) {
		v.logger.Warn("fewer recommendations than requested after availability check",
			zap.Int("requested", len(selected)),
			zap.Int("available", len(verified)))
	}
	return verified
}

func (v *Verifier) replace(ctx context.Context, alternates []types.Candidate, tried map[string]bool) (types.Candidate, bool) {
	attempts := 0
	for i := range alternates {
		if attempts >= MaxReplacementAttempts || ctx.Err() != nil {
			break
		}
		alt := alternates[i]
		if tried[alt.ID] {
			continue
		}
		tried[alt.ID] = true
		attempts++
		if v.available(ctx, &alt) {
			v.logger.Info("replacement found", zap.String("candidate_id", alt.ID))
			return alt, true
		}
	}
	return types.Candidate{}, false
}

func (v *Verifier) available(ctx context.Context, c *types.Candidate) bool {
	if c.ExternalURL == "" {
		return true
	}
	return v.checker.Check(ctx, c.ExternalURL)
}
