package supplier

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jonathan/gift-recommender/internal/types"
)

// fixtureNamespace seeds the deterministic candidate ids.
var fixtureNamespace = uuid.MustParse("6f1c2a8e-4b7d-4e0a-9a51-3c2f8d9b7e10")

// entry is a catalog template. Price is placed at fraction of the active budget.
type entry struct {
	kind     types.CandidateType
	title    string
	desc     string
	merchant string
	fraction float64
}

// giftTemplates are filled with each interest.
var giftTemplates = []entry{
	{types.CandidateGift, "%s Gift Set", "A curated set for someone who loves %s.", "Uncommon Goods", 0.25},
	{types.CandidateGift, "%s Subscription Box", "Monthly surprises built around %s.", "Cratejoy", 0.55},
	{types.CandidateGift, "Personalized %s Keepsake", "Engraved with a note about their love of %s.", "Etsy", 0.90},
}

// experienceCatalog lists experiences and dates per vibe.
var experienceCatalog = map[types.Vibe][]entry{
	types.VibeQuietLuxury: {
		{types.CandidateDate, "Chef's Tasting Menu for Two", "Seasonal fine dining with wine pairing.", "Tock", 0.95},
		{types.CandidateExperience, "Private Spa Day", "Massage and sauna with a premium robe to take home.", "Spafinder", 0.70},
		{types.CandidateExperience, "Artisan Perfume Workshop", "Blend a signature scent with a master perfumer.", "Airbnb Experiences", 0.50},
	},
	types.VibeStreetUrban: {
		{types.CandidateExperience, "Street Food Walking Tour", "Taste your way through the city's best stalls.", "Eatwith", 0.30},
		{types.CandidateExperience, "Graffiti Art Workshop", "Learn spray technique from local artists.", "Airbnb Experiences", 0.45},
		{types.CandidateDate, "Rooftop Bar Night", "Cocktails and skyline views.", "OpenTable", 0.40},
	},
	types.VibeOutdoorsy: {
		{types.CandidateExperience, "Guided Sunrise Hike", "A small group hike with breakfast at the summit.", "REI Adventures", 0.20},
		{types.CandidateExperience, "Kayak Tour", "Half-day paddle with a naturalist guide.", "Viator", 0.50},
		{types.CandidateDate, "Picnic in the Park", "A packed basket and blanket for an afternoon outside.", "Picnic Co", 0.15},
	},
	types.VibeVintage: {
		{types.CandidateExperience, "Film Camera Photo Walk", "Shoot a roll of film and develop it together.", "Airbnb Experiences", 0.35},
		{types.CandidateDate, "Classic Movie Night", "A restored classic at an old-school cinema.", "Fandango", 0.10},
		{types.CandidateExperience, "Antique Market Tour", "A guided hunt through the best vintage stalls.", "Viator", 0.25},
	},
	types.VibeMinimalist: {
		{types.CandidateExperience, "Meditation Retreat Day", "A simple, quiet day of guided practice.", "Retreat Guru", 0.60},
		{types.CandidateExperience, "Modern Design Museum Tour", "A guided tour of essential modern design.", "GetYourGuide", 0.20},
		{types.CandidateDate, "Tea Ceremony for Two", "A calm, traditional tea service.", "Tock", 0.35},
	},
	types.VibeBohemian: {
		{types.CandidateExperience, "Pottery Class", "Throw and glaze your own handmade pieces.", "ClassBento", 0.45},
		{types.CandidateExperience, "Macrame Plant Hanger Workshop", "Knot a hanger for a favorite plant.", "Etsy", 0.20},
		{types.CandidateDate, "Drum Circle and Farmers Market", "A slow morning of music and local food.", "Eventbrite", 0.10},
	},
	types.VibeRomantic: {
		{types.CandidateDate, "Sunset Sailing for Two", "A private sail with champagne at golden hour.", "Viator", 0.85},
		{types.CandidateDate, "Candlelit Dinner", "A quiet corner table and a long dinner.", "OpenTable", 0.65},
		{types.CandidateExperience, "Couples Dance Lesson", "A private salsa or tango lesson.", "ClassPass", 0.30},
	},
	types.VibeAdventurous: {
		{types.CandidateExperience, "Hot Air Balloon Ride", "A sunrise flight over the valley.", "Cloud 9 Balloons", 1.00},
		{types.CandidateExperience, "Indoor Climbing Intro", "Learn to boulder with a coach.", "ClassPass", 0.20},
		{types.CandidateExperience, "Escape Room Challenge", "Sixty minutes to get out together.", "Eventbrite", 0.15},
	},
}

// Fixture is an offline supplier backed by a built-in catalog. Prices are placed
// inside the requested budget so every tier is represented.
type Fixture struct {
	// BaseURL, when set, gives every candidate an external URL under it.
	BaseURL string
}

// NewFixture creates a fixture supplier.
func NewFixture(baseURL string) *Fixture {
	return &Fixture{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements CandidateSupplier.
func (f *Fixture) Name() string { return "fixture" }

// FetchGifts implements CandidateSupplier.
func (f *Fixture) FetchGifts(ctx context.Context, interests []string, budget types.BudgetRange) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []types.Candidate
	for _, interest := range interests {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			continue
		}
		for _, tmpl := range giftTemplates {
			title := fmt.Sprintf(tmpl.title, titleCase(interest))
			c := f.build(tmpl, title, fmt.Sprintf(tmpl.desc, strings.ToLower(interest)), budget)
			c.Provenance = types.Provenance{MatchedInterest: interest}
			out = append(out, c)
		}
	}
	return out, nil
}

// FetchExperiences implements CandidateSupplier.
func (f *Fixture) FetchExperiences(ctx context.Context, vibes []types.Vibe, budget types.BudgetRange, location *types.Location) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []types.Candidate
	for _, vibe := range vibes {
		for _, tmpl := range experienceCatalog[vibe] {
			desc := tmpl.desc
			if where := location.String(); where != "" {
				desc = fmt.Sprintf("%s Near %s.", desc, where)
			}
			c := f.build(tmpl, tmpl.title, desc, budget)
			c.Provenance = types.Provenance{MatchedVibe: vibe}
			if location != nil {
				loc := *location
				c.Location = &loc
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fixture) build(tmpl entry, title, desc string, budget types.BudgetRange) types.Candidate {
	slug := slugify(title)
	c := types.Candidate{
		ID:          uuid.NewSHA1(fixtureNamespace, []byte(string(tmpl.kind)+":"+slug)).String(),
		Source:      f.Name(),
		Type:        tmpl.kind,
		Title:       title,
		Description: desc,
		PriceCents:  types.Cents(priceAt(budget, tmpl.fraction)),
		Currency:    budget.Currency,
		Merchant:    tmpl.merchant,
	}
	if f.BaseURL != "" {
		c.ExternalURL = fmt.Sprintf("%s/%ss/%s", f.BaseURL, tmpl.kind, slug)
	}
	return c
}

// priceAt returns the price at fraction of the way through the budget, rounded to a dollar.
func priceAt(budget types.BudgetRange, fraction float64) int {
	width := budget.MaxCents - budget.MinCents
	cents := budget.MinCents + int(float64(width)*fraction)
	rounded := cents / 100 * 100
	if rounded < budget.MinCents {
		return cents
	}
	return rounded
}

func slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
