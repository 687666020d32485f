// Package ranking provides functionality to filter and score recommendation candidates against a partner profile.
package ranking

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/gift-recommender/internal/types"
)

// NormalizeText lowercases s, turns punctuation into spaces and collapses whitespace.
func NormalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			space = false
			continue
		}
		if !space {
			sb.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(sb.String())
}

// containsPhrase reports whether phrase occurs in text on word boundaries,
// tolerating a trailing plural "s" on the phrase.
func containsPhrase(text, phrase string) bool {
	p := NormalizeText(phrase)
	if p == "" {
		return false
	}
	t := " " + NormalizeText(text) + " "
	return strings.Contains(t, " "+p+" ") || strings.Contains(t, " "+p+"s ")
}

// sameTerm compares two tags after normalization.
func sameTerm(a, b string) bool {
	na := NormalizeText(a)
	return na != "" && na == NormalizeText(b)
}

// SortByScore orders candidates by descending score, then title, then id.
// The ordering is total so repeated runs produce identical output.
func SortByScore(candidates []types.Candidate, score func(*types.Candidate) float64) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := score(&candidates[i]), score(&candidates[j])
		if si != sj {
			return si > sj
		}
		ti, tj := strings.ToLower(candidates[i].Title), strings.ToLower(candidates[j].Title)
		if ti != tj {
			return ti < tj
		}
		return candidates[i].ID < candidates[j].ID
	})
}
