package ranking

import "github.com/jonathan/gift-recommender/internal/types"

// vibeKeywords maps each vibe to phrases that signal it in a title or description.
var vibeKeywords = map[types.Vibe][]string{
	types.VibeQuietLuxury: {"cashmere", "silk", "leather", "handcrafted", "artisan", "premium", "luxury", "fine dining", "tasting menu"},
	types.VibeStreetUrban: {"sneaker", "streetwear", "graffiti", "urban", "street food", "hip hop", "skate", "rooftop", "city"},
	types.VibeOutdoorsy:   {"hiking", "hike", "camping", "outdoor", "trail", "kayak", "national park", "garden", "picnic", "hammock"},
	types.VibeVintage:     {"vintage", "retro", "antique", "record player", "vinyl", "classic", "film camera", "thrift"},
	types.VibeMinimalist:  {"minimalist", "minimal", "simple", "sleek", "modern", "essential", "clean design"},
	types.VibeBohemian:    {"bohemian", "boho", "macrame", "handmade", "crystal", "tapestry", "plant", "pottery", "incense"},
	types.VibeRomantic:    {"romantic", "candlelit", "candle", "rose", "love", "sunset", "wine", "couples", "for two"},
	types.VibeAdventurous: {"adventure", "skydiving", "climbing", "rafting", "zipline", "hot air balloon", "escape room", "surf", "scuba"},
}

// loveLanguageSignature describes which candidates speak a love language: any candidate of
// one of the types, or any candidate whose text contains one of the keywords.
type loveLanguageSignature struct {
	kinds    []types.CandidateType
	keywords []string
}

var loveLanguageSignatures = map[types.LoveLanguage]loveLanguageSignature{
	types.LoveReceivingGifts: {
		kinds:    []types.CandidateType{types.CandidateGift},
		keywords: []string{"keepsake", "gift set", "jewelry"},
	},
	types.LoveQualityTime: {
		kinds:    []types.CandidateType{types.CandidateExperience, types.CandidateDate},
		keywords: []string{"together", "for two", "couples", "game night"},
	},
	types.LovePhysicalTouch: {
		keywords: []string{"massage", "spa", "blanket", "cozy", "dance", "robe", "cuddle"},
	},
	types.LoveWordsOfAffirmation: {
		keywords: []string{"letter", "journal", "book", "engraved", "personalized", "custom", "poem", "card"},
	},
	types.LoveActsOfService: {
		keywords: []string{"meal kit", "cleaning", "organizer", "tool kit", "repair", "delivery", "maintenance", "subscription"},
	},
}

// DefaultLoveLanguageWeights returns the built-in boost weights. Languages that map directly to
// gift giving or shared experiences get the largest boosts.
func DefaultLoveLanguageWeights() map[types.LoveLanguage]types.LoveLanguageWeight {
	return map[types.LoveLanguage]types.LoveLanguageWeight{
		types.LoveReceivingGifts:     {Primary: 0.40, Secondary: 0.20},
		types.LoveQualityTime:        {Primary: 0.40, Secondary: 0.20},
		types.LovePhysicalTouch:      {Primary: 0.30, Secondary: 0.15},
		types.LoveWordsOfAffirmation: {Primary: 0.25, Secondary: 0.12},
		types.LoveActsOfService:      {Primary: 0.20, Secondary: 0.10},
	}
}

// MatchesVibe reports whether the candidate carries the vibe, by provenance tag or keyword.
func MatchesVibe(c *types.Candidate, vibe types.Vibe) bool {
	if c.Provenance.MatchedVibe != "" && sameTerm(string(c.Provenance.MatchedVibe), string(vibe)) {
		return true
	}
	for _, kw := range vibeKeywords[vibe] {
		if containsPhrase(c.Title, kw) || containsPhrase(c.Description, kw) {
			return true
		}
	}
	return false
}

// CandidateVibes returns every known vibe the candidate carries, in AllVibes order.
func CandidateVibes(c *types.Candidate) []types.Vibe {
	var vibes []types.Vibe
	for _, v := range types.AllVibes {
		if MatchesVibe(c, v) {
			vibes = append(vibes, v)
		}
	}
	return vibes
}

// MatchesLoveLanguage reports whether the candidate fits the love language's signature.
func MatchesLoveLanguage(c *types.Candidate, lang types.LoveLanguage) bool {
	sig, ok := loveLanguageSignatures[lang]
	if !ok {
		return false
	}
	for _, t := range sig.kinds {
		if c.Type == t {
			return true
		}
	}
	for _, kw := range sig.keywords {
		if containsPhrase(c.Title, kw) || containsPhrase(c.Description, kw) {
			return true
		}
	}
	return false
}
