package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/types"
)

// LoadContext validates the request and builds the initial state.
//
// With no occasion, a milestone's budget tier picks the budget; without either the run
// is "just because". A milestone id that is not in the vault, an unknown occasion, an
// invalid profile and a missing or malformed budget are all contract violations.
func LoadContext(vault *types.Vault, occasion types.OccasionType, milestoneID *uuid.UUID) (*State, error) {
	if vault == nil {
		return nil, contractError(ErrInvalidProfile, "vault is required", nil)
	}
	if err := vault.Profile.Validate(); err != nil {
		return nil, contractError(ErrInvalidProfile, "profile failed validation", err)
	}

	var milestone *types.MilestoneContext
	if milestoneID != nil {
		m, ok := vault.Milestone(*milestoneID)
		if !ok {
			return nil, contractError(ErrMilestoneNotFound, "milestone "+milestoneID.String()+" is not in this vault", nil)
		}
		milestone = m
	}

	if occasion == "" {
		occasion = types.OccasionJustBecause
		if milestone != nil && milestone.BudgetTier.Valid() {
			occasion = milestone.BudgetTier
		}
	}
	if !occasion.Valid() {
		return nil, contractError(ErrUnknownOccasion, "occasion "+string(occasion)+" is not supported", nil)
	}

	budget, ok := vault.Budget(occasion)
	if !ok {
		return nil, contractError(ErrBudgetNotFound, "vault has no budget for "+string(occasion), nil)
	}
	if err := budget.Validate(); err != nil {
		return nil, contractError(ErrInvalidBudget, "budget for "+string(occasion)+" is malformed", err)
	}

	return &State{
		VaultID:   vault.ID,
		Profile:   vault.Profile,
		Occasion:  occasion,
		Milestone: milestone,
		Budget:    budget,
		Stage:     StageRetrieve,
	}, nil
}
