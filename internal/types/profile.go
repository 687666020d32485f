// Package types provides type definitions for structured data used throughout the gift-recommender system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Vibe is an aesthetic taste tag from a fixed set.
type Vibe string

// Supported vibes
const (
	VibeQuietLuxury Vibe = "quiet_luxury"
	VibeStreetUrban Vibe = "street_urban"
	VibeOutdoorsy   Vibe = "outdoorsy"
	VibeVintage     Vibe = "vintage"
	VibeMinimalist  Vibe = "minimalist"
	VibeBohemian    Vibe = "bohemian"
	VibeRomantic    Vibe = "romantic"
	VibeAdventurous Vibe = "adventurous"
)

// AllVibes lists every supported vibe in a stable order.
var AllVibes = []Vibe{
	VibeQuietLuxury, VibeStreetUrban, VibeOutdoorsy, VibeVintage,
	VibeMinimalist, VibeBohemian, VibeRomantic, VibeAdventurous,
}

// LoveLanguage is one of the five affection categories.
type LoveLanguage string

// Supported love languages
const (
	LoveWordsOfAffirmation LoveLanguage = "words_of_affirmation"
	LoveActsOfService      LoveLanguage = "acts_of_service"
	LoveReceivingGifts     LoveLanguage = "receiving_gifts"
	LoveQualityTime        LoveLanguage = "quality_time"
	LovePhysicalTouch      LoveLanguage = "physical_touch"
)

// AllLoveLanguages lists every love language in a stable order.
var AllLoveLanguages = []LoveLanguage{
	LoveWordsOfAffirmation, LoveActsOfService, LoveReceivingGifts, LoveQualityTime, LovePhysicalTouch,
}

// OccasionType selects which budget range is active.
type OccasionType string

// Supported occasion types
const (
	OccasionJustBecause    OccasionType = "just_because"
	OccasionMinor          OccasionType = "minor_occasion"
	OccasionMajorMilestone OccasionType = "major_milestone"
)

// Label returns a human-readable occasion label.
func (o OccasionType) Label() string {
	switch o {
	case OccasionJustBecause:
		return "just because"
	case OccasionMinor:
		return "a minor occasion"
	case OccasionMajorMilestone:
		return "a major milestone"
	default:
		return strings.ReplaceAll(string(o), "_", " ")
	}
}

// Valid reports whether o is one of the known occasion types.
func (o OccasionType) Valid() bool {
	switch o {
	case OccasionJustBecause, OccasionMinor, OccasionMajorMilestone:
		return true
	}
	return false
}

// Location is an optional city/state/country triple.
type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// String joins the non-empty location parts.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.State, l.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// PartnerProfile is the preference record the pipeline scores against.
type PartnerProfile struct {
	PartnerName           string       `json:"partner_name,omitempty"`
	Interests             []string     `json:"interests" validate:"len=5,dive,required"`
	Dislikes              []string     `json:"dislikes" validate:"len=5,dive,required"`
	Vibes                 []Vibe       `json:"vibes" validate:"min=1,dive,oneof=quiet_luxury street_urban outdoorsy vintage minimalist bohemian romantic adventurous"`
	PrimaryLoveLanguage   LoveLanguage `json:"primary_love_language" validate:"required,oneof=words_of_affirmation acts_of_service receiving_gifts quality_time physical_touch"`
	SecondaryLoveLanguage LoveLanguage `json:"secondary_love_language" validate:"required,oneof=words_of_affirmation acts_of_service receiving_gifts quality_time physical_touch,nefield=PrimaryLoveLanguage"`
	Location              *Location    `json:"location,omitempty"`
}

// Validate checks the profile's shape and that likes and dislikes are disjoint.
func (p *PartnerProfile) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return err
	}
	likes := make(map[string]bool, len(p.Interests))
	for _, like := range p.Interests {
		likes[strings.ToLower(strings.TrimSpace(like))] = true
	}
	for _, dislike := range p.Dislikes {
		if likes[strings.ToLower(strings.TrimSpace(dislike))] {
			return fmt.Errorf("%q is both an interest and a dislike", dislike)
		}
	}
	return nil
}

// TopInterests returns at most n interests in profile order.
func (p *PartnerProfile) TopInterests(n int) []string {
	if n > len(p.Interests) {
		n = len(p.Interests)
	}
	return p.Interests[:n]
}

// BudgetRange is the active price range for an occasion.
type BudgetRange struct {
	OccasionType OccasionType `json:"occasion_type"`
	MinCents     int          `json:"min_cents" validate:"gte=0"`
	MaxCents     int          `json:"max_cents" validate:"gtefield=MinCents"`
	Currency     string       `json:"currency" validate:"required,len=3"`
}

// Validate reports a malformed budget range.
func (b *BudgetRange) Validate() error {
	validate := validator.New()
	return validate.Struct(b)
}

// Contains reports whether cents falls inside the range, inclusive.
func (b *BudgetRange) Contains(cents int) bool {
	return cents >= b.MinCents && cents <= b.MaxCents
}

// MilestoneType is the kind of upcoming event.
type MilestoneType string

// Supported milestone types
const (
	MilestoneBirthday    MilestoneType = "birthday"
	MilestoneAnniversary MilestoneType = "anniversary"
	MilestoneHoliday     MilestoneType = "holiday"
	MilestoneCustom      MilestoneType = "custom"
)

// MilestoneContext is the specific upcoming event being planned for.
type MilestoneContext struct {
	ID         uuid.UUID     `json:"id"`
	Type       MilestoneType `json:"milestone_type"`
	Name       string        `json:"milestone_name"`
	Date       time.Time     `json:"milestone_date"`
	Recurrence string        `json:"recurrence,omitempty"`
	BudgetTier OccasionType  `json:"budget_tier,omitempty"`
}

// Vault is the loaded partner vault: profile, budgets and milestones.
type Vault struct {
	ID         uuid.UUID          `json:"vault_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Profile    PartnerProfile     `json:"profile"`
	Budgets    []BudgetRange      `json:"budgets"`
	Milestones []MilestoneContext `json:"milestones,omitempty"`
}

// Budget returns the budget range for the occasion, if the vault has one.
func (v *Vault) Budget(occasion OccasionType) (BudgetRange, bool) {
	for _, b := range v.Budgets {
		if b.OccasionType == occasion {
			return b, true
		}
	}
	return BudgetRange{}, false
}

// Milestone returns the milestone with the given id, if present.
func (v *Vault) Milestone(id uuid.UUID) (*MilestoneContext, bool) {
	for i := range v.Milestones {
		if v.Milestones[i].ID == id {
			m := v.Milestones[i]
			return &m, true
		}
	}
	return nil, false
}
