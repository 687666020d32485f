package selection

import (
	"strings"

	"github.com/jonathan/gift-recommender/internal/types"
)

// DefaultCount is the number of recommendations a run returns.
const DefaultCount = 3

// SelectDiverse picks up to n candidates from a pool sorted best-first.
//
// The first pick is the top-scored candidate. Each following pick maximizes the number of
// dimensions (price tier, type, merchant) on which it differs from every candidate already
// picked. Ties go to the higher final score, then the title. The pool is not modified.
func SelectDiverse(pool []types.Candidate, budget types.BudgetRange, n int) ([]types.Candidate, error) {
	if n <= 0 {
		return nil, &Error{Message: "selection count must be positive"}
	}
	if budget.MaxCents < budget.MinCents || budget.MinCents < 0 {
		return nil, &Error{Message: "invalid budget range"}
	}
	if len(pool) == 0 {
		return []types.Candidate{}, nil
	}

	used := make([]bool, len(pool))
	selected := make([]types.Candidate, 0, n)

	first := 0
	for i := 1; i < len(pool); i++ {
		if better(&pool[i], &pool[first]) {
			first = i
		}
	}
	used[first] = true
	selected = append(selected, pool[first])

	for len(selected) < n {
		best, bestDiv := -1, -1
		for i := range pool {
			if used[i] {
				continue
			}
			div := diversity(&pool[i], selected, budget)
			if best < 0 || div > bestDiv || (div == bestDiv && better(&pool[i], &pool[best])) {
				best, bestDiv = i, div
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		selected = append(selected, pool[best])
	}
	return selected, nil
}

// diversity counts the dimensions on which c differs from every selected candidate.
func diversity(c *types.Candidate, selected []types.Candidate, budget types.BudgetRange) int {
	tier := TierOf(c.PriceCents, budget)
	tierDiffers, typeDiffers, merchantDiffers := true, true, true
	for i := range selected {
		s := &selected[i]
		if TierOf(s.PriceCents, budget) == tier {
			tierDiffers = false
		}
		if s.Type == c.Type {
			typeDiffers = false
		}
		if SameMerchant(s.Merchant, c.Merchant) {
			merchantDiffers = false
		}
	}
	count := 0
	for _, differs := range []bool{tierDiffers, typeDiffers, merchantDiffers} {
		if differs {
			count++
		}
	}
	return count
}

// SameMerchant compares merchants case-insensitively; two missing merchants are the same.
func SameMerchant(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// better orders by final score, then title, then id.
func better(a, b *types.Candidate) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}
	ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if ta != tb {
		return ta < tb
	}
	return a.ID < b.ID
}
