package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/types"
)

var milestoneID = uuid.MustParse("8d1f6c1e-2a4b-4c3d-9e8f-0a1b2c3d4e5f")

func testVault() *types.Vault {
	return &types.Vault{
		ID:     uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		UserID: uuid.MustParse("99999999-8888-7777-6666-555555555555"),
		Profile: types.PartnerProfile{
			PartnerName:           "Sam",
			Interests:             []string{"Travel", "Cooking", "Photography", "Reading", "Coffee"},
			Dislikes:              []string{"Golf", "Sports", "Gaming", "Cars", "Country Music"},
			Vibes:                 []types.Vibe{types.VibeRomantic, types.VibeOutdoorsy},
			PrimaryLoveLanguage:   types.LoveQualityTime,
			SecondaryLoveLanguage: types.LoveReceivingGifts,
		},
		Budgets: []types.BudgetRange{
			{OccasionType: types.OccasionJustBecause, MinCents: 1000, MaxCents: 3000, Currency: "USD"},
			{OccasionType: types.OccasionMinor, MinCents: 2000, MaxCents: 5000, Currency: "USD"},
			{OccasionType: types.OccasionMajorMilestone, MinCents: 5000, MaxCents: 20000, Currency: "USD"},
		},
		Milestones: []types.MilestoneContext{
			{ID: milestoneID, Type: types.MilestoneAnniversary, Name: "Our Anniversary",
				Date: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), Recurrence: "yearly", BudgetTier: types.OccasionMajorMilestone},
		},
	}
}

func cand(id, title string, kind types.CandidateType, cents int, merchant, interest string) types.Candidate {
	return types.Candidate{
		ID:          id,
		Source:      "test",
		Type:        kind,
		Title:       title,
		PriceCents:  types.Cents(cents),
		Currency:    "USD",
		Merchant:    merchant,
		ExternalURL: "https://shop.example/" + id,
		Provenance:  types.Provenance{MatchedInterest: interest},
	}
}

// minorPool spans all three tiers of the [2000, 5000] budget.
func minorPool() []types.Candidate {
	return []types.Candidate{
		cand("h1", "Travel Duffel", types.CandidateGift, 4800, "Away", "Travel"),
		cand("h2", "Cooking Class", types.CandidateExperience, 4500, "Sur La Table", "Cooking"),
		cand("m1", "Coffee Grinder", types.CandidateGift, 3500, "Baratza", "Coffee"),
		cand("m2", "Photography Walk", types.CandidateDate, 3800, "Airbnb", "Photography"),
		cand("l1", "Reading Lamp", types.CandidateGift, 2500, "Target", "Reading"),
		cand("l2", "Travel Map Workshop", types.CandidateExperience, 2200, "ClassBento", "Travel"),
	}
}

type fakeAggregator struct {
	pool  []types.Candidate
	calls int
}

func (f *fakeAggregator) Aggregate(context.Context, *types.PartnerProfile, types.BudgetRange) []types.Candidate {
	f.calls++
	out := make([]types.Candidate, len(f.pool))
	copy(out, f.pool)
	return out
}

type fakeRetriever struct {
	hints []types.RelevantHint
	query string
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ uuid.UUID, query string) []types.RelevantHint {
	f.query = query
	return f.hints
}

// dropVerifier removes the listed ids without replacement.
type dropVerifier struct {
	drop map[string]bool
}

func (d *dropVerifier) Verify(_ context.Context, selected, _ []types.Candidate) []types.Candidate {
	var out []types.Candidate
	for _, c := range selected {
		if !d.drop[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func ids(cs []types.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// cancelVerifier cancels the run while verifying and keeps every selected item.
type cancelVerifier struct {
	cancel context.CancelFunc
}

func (c *cancelVerifier) Verify(_ context.Context, selected, _ []types.Candidate) []types.Candidate {
	c.cancel()
	return selected
}
