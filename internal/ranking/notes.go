package ranking

import (
	"fmt"
	"strings"

	"github.com/jonathan/gift-recommender/internal/types"
)

// BuildReason creates a brief explanation of why a candidate fits the profile.
func BuildReason(c *types.Candidate, opts MatchOptions) string {
	var parts []string

	// Interest match description
	if matched := MatchedInterests(c, opts.Interests); len(matched) > 0 {
		parts = append(parts, fmt.Sprintf("Matches their interest in %s", joinWords(matched)))
	}

	// Vibe match description
	var vibes []string
	for _, v := range opts.Vibes {
		if MatchesVibe(c, v) {
			vibes = append(vibes, humanize(string(v)))
		}
	}
	if len(vibes) > 0 {
		parts = append(parts, fmt.Sprintf("Fits their %s style", joinWords(vibes)))
	}

	// Love language description
	if opts.Primary != "" && MatchesLoveLanguage(c, opts.Primary) {
		parts = append(parts, fmt.Sprintf("Speaks to %s", humanize(string(opts.Primary))))
	} else if opts.Secondary != "" && MatchesLoveLanguage(c, opts.Secondary) {
		parts = append(parts, fmt.Sprintf("Speaks to %s", humanize(string(opts.Secondary))))
	}

	if len(parts) == 0 {
		return "A fresh pick within your budget"
	}
	return strings.Join(parts, ". ")
}

func humanize(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

// joinWords renders "a", "a and b", "a, b and c".
func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	}
}
