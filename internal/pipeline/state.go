// Package pipeline runs the recommendation state machine: it loads the request context,
// retrieves hints, gathers and scores candidates, picks a diverse three and verifies them.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/types"
)

// Stage is a state of the recommendation state machine.
type Stage string

// Stages in execution order, plus the two terminal states
const (
	StageRetrieve  Stage = "retrieve"
	StageAggregate Stage = "aggregate"
	StageFilter    Stage = "filter"
	StageMatch     Stage = "match"
	StageExclude   Stage = "exclude"
	StageSelect    Stage = "select"
	StageVerify    Stage = "verify"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// State is the working record of one run. It is created per request and never shared.
type State struct {
	VaultID   uuid.UUID               `json:"vault_id"`
	Profile   types.PartnerProfile    `json:"profile"`
	Occasion  types.OccasionType      `json:"occasion_type"`
	Milestone *types.MilestoneContext `json:"milestone,omitempty"`
	Budget    types.BudgetRange       `json:"budget"`

	RelevantHints []types.RelevantHint `json:"relevant_hints"`
	CandidatePool []types.Candidate    `json:"candidate_pool"`
	// FilteredPool holds at most nine candidates; later stages rescore and narrow it.
	FilteredPool []types.Candidate `json:"filtered_pool"`
	FinalThree   []types.Candidate `json:"final_three"`

	Error string `json:"error,omitempty"`
	Stage Stage  `json:"current_stage"`

	// Set only for refresh runs.
	Rejected        []types.Candidate     `json:"rejected_recommendations,omitempty"`
	RejectionReason types.RejectionReason `json:"rejection_reason,omitempty"`
}

// Failed reports whether the run ended on an empty pool.
func (s *State) Failed() bool {
	return s.Stage == StageFailed
}

// Result is what a run returns to its caller.
type Result struct {
	Items []types.Candidate    `json:"recommendations"`
	Hints []types.RelevantHint `json:"relevant_hints"`
	Error string               `json:"error,omitempty"`
	State *State               `json:"-"`
}

func resultOf(s *State) *Result {
	items := s.FinalThree
	if items == nil || s.Failed() {
		items = []types.Candidate{}
	}
	hints := s.RelevantHints
	if hints == nil {
		hints = []types.RelevantHint{}
	}
	return &Result{Items: items, Hints: hints, Error: s.Error, State: s}
}
