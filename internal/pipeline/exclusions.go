package pipeline

import (
	"strings"

	"github.com/jonathan/gift-recommender/internal/ranking"
	"github.com/jonathan/gift-recommender/internal/selection"
	"github.com/jonathan/gift-recommender/internal/types"
)

// ApplyExclusions removes candidates a refresh must not show again. Every reason drops
// the rejected items themselves, matched by id or normalized title. On top of that:
//
//	too_expensive        drops tiers at or above the highest rejected tier
//	too_cheap            drops tiers at or below the lowest rejected tier
//	not_their_style      drops candidates sharing a vibe with any rejected item
//	already_have_similar drops candidates with a rejected item's merchant and type
//
// The pool is not modified.
func ApplyExclusions(pool, rejected []types.Candidate, reason types.RejectionReason, budget types.BudgetRange) []types.Candidate {
	ids := make(map[string]bool, len(rejected))
	titles := make(map[string]bool, len(rejected))
	for _, r := range rejected {
		if r.ID != "" {
			ids[r.ID] = true
		}
		if t := ranking.NormalizeText(r.Title); t != "" {
			titles[t] = true
		}
	}

	extra := reasonRule(rejected, reason, budget)

	kept := make([]types.Candidate, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if ids[c.ID] || titles[ranking.NormalizeText(c.Title)] {
			continue
		}
		if extra != nil && extra(c) {
			continue
		}
		kept = append(kept, *c)
	}
	return kept
}

// reasonRule returns the reason-specific exclusion predicate, or nil when the reason
// adds nothing beyond the baseline.
func reasonRule(rejected []types.Candidate, reason types.RejectionReason, budget types.BudgetRange) func(*types.Candidate) bool {
	if len(rejected) == 0 {
		return nil
	}

	switch reason {
	case types.RejectTooExpensive:
		highest := -1
		for i := range rejected {
			highest = max(highest, selection.TierOf(rejected[i].PriceCents, budget).Rank())
		}
		return func(c *types.Candidate) bool {
			return selection.TierOf(c.PriceCents, budget).Rank() >= highest
		}

	case types.RejectTooCheap:
		lowest := selection.TierHigh.Rank() + 1
		for i := range rejected {
			lowest = min(lowest, selection.TierOf(rejected[i].PriceCents, budget).Rank())
		}
		return func(c *types.Candidate) bool {
			return selection.TierOf(c.PriceCents, budget).Rank() <= lowest
		}

	case types.RejectNotTheirStyle:
		vibes := map[types.Vibe]bool{}
		for i := range rejected {
			for _, v := range ranking.CandidateVibes(&rejected[i]) {
				vibes[v] = true
			}
		}
		if len(vibes) == 0 {
			return nil
		}
		return func(c *types.Candidate) bool {
			for _, v := range ranking.CandidateVibes(c) {
				if vibes[v] {
					return true
				}
			}
			return false
		}

	case types.RejectAlreadyHaveSimilar:
		type shopKind struct {
			merchant string
			kind     types.CandidateType
		}
		seen := map[shopKind]bool{}
		for _, r := range rejected {
			if m := strings.ToLower(strings.TrimSpace(r.Merchant)); m != "" {
				seen[shopKind{m, r.Type}] = true
			}
		}
		if len(seen) == 0 {
			return nil
		}
		return func(c *types.Candidate) bool {
			return seen[shopKind{strings.ToLower(strings.TrimSpace(c.Merchant)), c.Type}]
		}
	}
	return nil
}
