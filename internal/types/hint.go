// Package types provides type definitions for structured data used throughout the gift-recommender system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Hint sources
const (
	HintSourceText  = "text"
	HintSourceVoice = "voice"
)

// RelevantHint is a captured note about the partner, as returned by retrieval.
// Similarity is 0 when the hint came from the chronological fallback.
type RelevantHint struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"hint_text"`
	Similarity float64   `json:"similarity_score"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// RejectionReason explains why a user rejected a batch of recommendations.
type RejectionReason string

// Supported rejection reasons
const (
	RejectTooExpensive       RejectionReason = "too_expensive"
	RejectTooCheap           RejectionReason = "too_cheap"
	RejectNotTheirStyle      RejectionReason = "not_their_style"
	RejectAlreadyHaveSimilar RejectionReason = "already_have_similar"
	RejectShowDifferent      RejectionReason = "show_different"
)

// Valid reports whether r is one of the known reasons.
func (r RejectionReason) Valid() bool {
	switch r {
	case RejectTooExpensive, RejectTooCheap, RejectNotTheirStyle, RejectAlreadyHaveSimilar, RejectShowDifferent:
		return true
	}
	return false
}
