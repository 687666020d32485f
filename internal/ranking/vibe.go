package ranking

import (
	"math"

	"github.com/jonathan/gift-recommender/internal/types"
)

// vibeBoostPerMatch is the boost added for each profile vibe a candidate carries.
const vibeBoostPerMatch = 0.30

// MatchOptions holds the profile signals used by MatchVibes.
type MatchOptions struct {
	Interests []string // only used for explanations
	Vibes     []types.Vibe
	Primary   types.LoveLanguage
	Secondary types.LoveLanguage
	// Weights overrides DefaultLoveLanguageWeights when non-nil.
	Weights map[types.LoveLanguage]types.LoveLanguageWeight
}

// VibeBoost returns 0.30 per profile vibe the candidate matches.
func VibeBoost(c *types.Candidate, vibes []types.Vibe) float64 {
	count := 0
	for _, v := range vibes {
		if MatchesVibe(c, v) {
			count++
		}
	}
	return vibeBoostPerMatch * float64(count)
}

// LoveLanguageBoost returns the primary weight if the candidate speaks the primary language
// plus the secondary weight if it speaks the secondary one.
func LoveLanguageBoost(c *types.Candidate, opts MatchOptions) float64 {
	weights := opts.Weights
	if weights == nil {
		weights = DefaultLoveLanguageWeights()
	}

	boost := 0.0
	if opts.Primary != "" && MatchesLoveLanguage(c, opts.Primary) {
		boost += weights[opts.Primary].Primary
	}
	if opts.Secondary != "" && opts.Secondary != opts.Primary && MatchesLoveLanguage(c, opts.Secondary) {
		boost += weights[opts.Secondary].Secondary
	}
	return boost
}

// FinalScore combines the three signals. The interest floor of 1.0 lets candidates with no
// interest match still benefit from vibe and love language alignment.
func FinalScore(interest, vibeBoost, loveBoost float64) float64 {
	return math.Max(interest, 1.0) * (1 + vibeBoost) * (1 + loveBoost)
}

// MatchVibes scores each candidate's vibe and love language fit, sets its final score and
// explanation, and returns new candidates sorted by (-final score, title).
func MatchVibes(pool []types.Candidate, opts MatchOptions) []types.Candidate {
	matched := make([]types.Candidate, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		vb := VibeBoost(c, opts.Vibes)
		lb := LoveLanguageBoost(c, opts)
		scored := c.WithMatchScores(vb, lb, FinalScore(c.InterestScore, vb, lb))
		matched = append(matched, scored.WithReason(BuildReason(&scored, opts)))
	}

	SortByScore(matched, func(c *types.Candidate) float64 { return c.FinalScore })
	return matched
}
