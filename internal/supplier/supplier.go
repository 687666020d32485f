// Package supplier defines the candidate source interface and its implementations.
package supplier

import (
	"context"
	"fmt"

	"github.com/jonathan/gift-recommender/internal/types"
)

// CandidateSupplier is a source of gift and experience candidates.
// Implementations must be safe for concurrent use.
type CandidateSupplier interface {
	// Name identifies the supplier in logs and in Candidate.Source.
	Name() string
	// FetchGifts returns gift candidates for the given interests.
	FetchGifts(ctx context.Context, interests []string, budget types.BudgetRange) ([]types.Candidate, error)
	// FetchExperiences returns experience and date candidates for the given vibes.
	FetchExperiences(ctx context.Context, vibes []types.Vibe, budget types.BudgetRange, location *types.Location) ([]types.Candidate, error)
}

// Error represents a supplier failure
type Error struct {
	Supplier string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("supplier %s: %s: %v", e.Supplier, e.Message, e.Cause)
	}
	return fmt.Sprintf("supplier %s: %s", e.Supplier, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
