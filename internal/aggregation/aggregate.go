// Package aggregation gathers recommendation candidates from every configured supplier.
package aggregation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/gift-recommender/internal/ranking"
	"github.com/jonathan/gift-recommender/internal/supplier"
	"github.com/jonathan/gift-recommender/internal/types"
)

// Aggregation limits
const (
	MaxCandidates  = 20
	MaxPerTag      = 3
	DefaultTimeout = 8 * time.Second
)

// Aggregator fans out to suppliers and merges their results into one candidate pool.
type Aggregator struct {
	suppliers []supplier.CandidateSupplier
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an Aggregator. A non-positive timeout uses DefaultTimeout.
func New(suppliers []supplier.CandidateSupplier, timeout time.Duration, logger *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{suppliers: suppliers, timeout: timeout, logger: logger}
}

// Aggregate fetches gifts for the profile's interests and experiences for its vibes from
// every supplier in parallel. A failing or slow supplier contributes nothing. The merged pool
// is budget-filtered, deduplicated, capped per interest and vibe, interleaved between gifts
// and experiences, and capped at MaxCandidates.
func (a *Aggregator) Aggregate(ctx context.Context, profile *types.PartnerProfile, budget types.BudgetRange) []types.Candidate {
	n := len(a.suppliers)
	gifts := make([][]types.Candidate, n)
	experiences := make([][]types.Candidate, n)

	var g errgroup.Group
	for i, s := range a.suppliers {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			result, err := s.FetchGifts(callCtx, profile.Interests, budget)
			if err != nil {
				a.logger.Warn("supplier gift fetch failed", zap.String("supplier", s.Name()), zap.Error(err))
				return nil
			}
			gifts[i] = result
			return nil
		})
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			result, err := s.FetchExperiences(callCtx, profile.Vibes, budget, profile.Location)
			if err != nil {
				a.logger.Warn("supplier experience fetch failed", zap.String("supplier", s.Name()), zap.Error(err))
				return nil
			}
			experiences[i] = result
			return nil
		})
	}
	// Each goroutine writes only its own slot and returns nil; failures were logged above.
	_ = g.Wait()

	pool := Merge(flatten(gifts), flatten(experiences), budget)
	a.logger.Debug("aggregated candidates",
		zap.Int("suppliers", n),
		zap.Int("candidates", len(pool)))
	return pool
}

// Merge interleaves gifts and experiences, keeping only in-budget, previously unseen
// candidates and at most MaxPerTag per matched interest or vibe, up to MaxCandidates.
func Merge(gifts, experiences []types.Candidate, budget types.BudgetRange) []types.Candidate {
	m := merger{
		budget: budget,
		ids:    map[string]bool{},
		titles: map[string]bool{},
		tags:   map[string]int{},
	}

	pool := make([]types.Candidate, 0, MaxCandidates)
	gi, ei := 0, 0
	takeGift := true
	for len(pool) < MaxCandidates && (gi < len(gifts) || ei < len(experiences)) {
		var c *types.Candidate
		fromGifts := (takeGift && gi < len(gifts)) || ei >= len(experiences)
		if fromGifts {
			c = &gifts[gi]
			gi++
		} else {
			c = &experiences[ei]
			ei++
		}
		if m.accept(c) {
			pool = append(pool, *c)
			takeGift = !fromGifts
		}
	}
	return pool
}

type merger struct {
	budget types.BudgetRange
	ids    map[string]bool
	titles map[string]bool
	tags   map[string]int
}

func (m *merger) accept(c *types.Candidate) bool {
	if !InBudget(c, m.budget) {
		return false
	}
	title := ranking.NormalizeText(c.Title)
	if c.ID == "" || title == "" || m.ids[c.ID] || m.titles[title] {
		return false
	}
	tag := tagKey(c)
	if tag != "" && m.tags[tag] >= MaxPerTag {
		return false
	}

	m.ids[c.ID] = true
	m.titles[title] = true
	if tag != "" {
		m.tags[tag]++
	}
	return true
}

// InBudget keeps unpriced candidates and drops priced ones outside the range or in
// another currency.
func InBudget(c *types.Candidate, budget types.BudgetRange) bool {
	if !c.HasPrice() {
		return true
	}
	if c.Currency != "" && budget.Currency != "" && !strings.EqualFold(c.Currency, budget.Currency) {
		return false
	}
	return budget.Contains(c.Price())
}

func tagKey(c *types.Candidate) string {
	if c.Provenance.MatchedInterest != "" {
		return "interest:" + ranking.NormalizeText(c.Provenance.MatchedInterest)
	}
	if c.Provenance.MatchedVibe != "" {
		return "vibe:" + string(c.Provenance.MatchedVibe)
	}
	return ""
}

func flatten(parts [][]types.Candidate) []types.Candidate {
	var out []types.Candidate
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
