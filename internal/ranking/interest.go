package ranking

import (
	"github.com/jonathan/gift-recommender/internal/types"
)

// Interest scoring constants
const (
	// MaxFilteredPool is the number of candidates kept after interest filtering.
	MaxFilteredPool = 9
	// interestMatchScore is added per matched interest.
	interestMatchScore = 1.0
	// provenanceBonus is added once when any interest matched via the supplier's tag.
	provenanceBonus = 0.5
	// dislikedSentinel marks a candidate for removal; it never leaves this package.
	dislikedSentinel = -1.0
)

// matchSource records which signal matched a term.
type matchSource int

const (
	matchNone matchSource = iota
	matchTag
	matchTitle
	matchDescription
)

// matchTerm checks the three match signals in priority order: provenance tag, title, description.
func matchTerm(c *types.Candidate, term string) matchSource {
	if c.Provenance.MatchedInterest != "" && sameTerm(c.Provenance.MatchedInterest, term) {
		return matchTag
	}
	if containsPhrase(c.Title, term) {
		return matchTitle
	}
	if containsPhrase(c.Description, term) {
		return matchDescription
	}
	return matchNone
}

// ScoreInterests computes a candidate's interest score from scratch.
// It returns a negative sentinel when the candidate matches any dislike.
func ScoreInterests(c *types.Candidate, interests, dislikes []string) float64 {
	for _, dislike := range dislikes {
		if matchTerm(c, dislike) != matchNone {
			return dislikedSentinel
		}
	}

	score := 0.0
	tagged := false
	for _, interest := range interests {
		switch matchTerm(c, interest) {
		case matchTag:
			tagged = true
			score += interestMatchScore
		case matchTitle, matchDescription:
			score += interestMatchScore
		}
	}
	if tagged {
		score += provenanceBonus
	}
	return score
}

// MatchedInterests returns the interests the candidate matches, in profile order.
func MatchedInterests(c *types.Candidate, interests []string) []string {
	var matched []string
	for _, interest := range interests {
		if matchTerm(c, interest) != matchNone {
			matched = append(matched, interest)
		}
	}
	return matched
}

// FilterByInterests removes candidates matching a dislike, scores the rest by interest
// relevance and returns at most MaxFilteredPool of them sorted by (-score, title).
// Candidates matching no interest are kept with score 0. The input slice is not modified.
func FilterByInterests(pool []types.Candidate, interests, dislikes []string) []types.Candidate {
	kept := make([]types.Candidate, 0, len(pool))
	for i := range pool {
		score := ScoreInterests(&pool[i], interests, dislikes)
		if score < 0 {
			continue
		}
		kept = append(kept, pool[i].WithInterestScore(score))
	}

	SortByScore(kept, func(c *types.Candidate) float64 { return c.InterestScore })

	if len(kept) > MaxFilteredPool {
		kept = kept[:MaxFilteredPool]
	}
	return kept
}
