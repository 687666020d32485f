package selection

import "github.com/jonathan/gift-recommender/internal/types"

// PriceTier is a candidate's position within the active budget range.
type PriceTier string

// Price tiers, cheapest first
const (
	TierLow  PriceTier = "low"
	TierMid  PriceTier = "mid"
	TierHigh PriceTier = "high"
)

// Rank orders tiers: low < mid < high.
func (t PriceTier) Rank() int {
	switch t {
	case TierLow:
		return 0
	case TierHigh:
		return 2
	default:
		return 1
	}
}

// TierOf splits the budget into thirds. A missing price or a zero-width budget is mid.
// For a [2000, 5000] budget: 2000-3000 low, 3001-4000 mid, 4001-5000 high.
func TierOf(priceCents *int, budget types.BudgetRange) PriceTier {
	width := budget.MaxCents - budget.MinCents
	if priceCents == nil || width <= 0 {
		return TierMid
	}
	// compare 3*offset against the width to stay in integers
	offset := 3 * (*priceCents - budget.MinCents)
	switch {
	case offset <= width:
		return TierLow
	case offset <= 2*width:
		return TierMid
	default:
		return TierHigh
	}
}
