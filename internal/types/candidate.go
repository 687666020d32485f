// Package types provides type definitions for structured data used throughout the gift-recommender system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// CandidateType is the kind of recommendation.
type CandidateType string

// Supported candidate types
const (
	CandidateGift       CandidateType = "gift"
	CandidateExperience CandidateType = "experience"
	CandidateDate       CandidateType = "date"
)

// Provenance records which profile signal a supplier matched a candidate on.
type Provenance struct {
	MatchedInterest string `json:"matched_interest,omitempty"`
	MatchedVibe     Vibe   `json:"matched_vibe,omitempty"`
}

// Candidate is one recommendation option. Candidates are values: the With* methods
// return modified copies and never touch the receiver.
type Candidate struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	Type        CandidateType `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	PriceCents  *int          `json:"price_cents,omitempty"`
	Currency    string        `json:"currency,omitempty"`
	ExternalURL string        `json:"external_url,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Merchant    string        `json:"merchant_name,omitempty"`
	Location    *Location     `json:"location,omitempty"`
	Provenance  Provenance    `json:"provenance"`

	InterestScore     float64 `json:"interest_score"`
	VibeScore         float64 `json:"vibe_score"`
	LoveLanguageScore float64 `json:"love_language_score"`
	FinalScore        float64 `json:"final_score"`

	// Reason is a short explanation of why the candidate was picked.
	Reason string `json:"reason,omitempty"`
}

// WithInterestScore returns a copy with the interest score set.
func (c Candidate) WithInterestScore(score float64) Candidate {
	c.InterestScore = score
	return c
}

// WithMatchScores returns a copy with the vibe, love language and final scores set.
func (c Candidate) WithMatchScores(vibe, loveLanguage, final float64) Candidate {
	c.VibeScore = vibe
	c.LoveLanguageScore = loveLanguage
	c.FinalScore = final
	return c
}

// WithReason returns a copy with the explanation set.
func (c Candidate) WithReason(reason string) Candidate {
	c.Reason = reason
	return c
}

// HasPrice reports whether the candidate carries a price.
func (c *Candidate) HasPrice() bool {
	return c.PriceCents != nil
}

// Price returns the price in cents, or 0 when unknown.
func (c *Candidate) Price() int {
	if c.PriceCents == nil {
		return 0
	}
	return *c.PriceCents
}

// Cents is a helper for building optional prices.
func Cents(v int) *int {
	return &v
}

// LoveLanguageWeight is the score boost applied when a candidate matches a love language,
// depending on whether it is the partner's primary or secondary language.
type LoveLanguageWeight struct {
	Primary   float64 `json:"primary" yaml:"primary"`
	Secondary float64 `json:"secondary" yaml:"secondary"`
}
