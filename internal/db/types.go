package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/types"
)

// Interest kinds stored in partner_interests.interest_type
const (
	InterestLike    = "like"
	InterestDislike = "dislike"
)

// interestRow is one row of partner_interests
type interestRow struct {
	Kind     string
	Category string
}

// StoredRecommendation is a recommendation returned to the user and persisted
type StoredRecommendation struct {
	ID          uuid.UUID       `json:"id"`
	VaultID     uuid.UUID       `json:"vault_id"`
	MilestoneID *uuid.UUID      `json:"milestone_id,omitempty"`
	Candidate   types.Candidate `json:"candidate"`
	CreatedAt   time.Time       `json:"created_at"`
}
