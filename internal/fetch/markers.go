package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// unavailableMarkers are the normalized availability values that mean a product cannot be bought.
var unavailableMarkers = []string{"outofstock", "soldout", "discontinued"}

// availabilitySelectors find schema.org microdata and OpenGraph product availability.
const availabilitySelectors = "[itemprop='availability'], meta[property='og:availability'], meta[property='product:availability']"

// PageAvailability parses a product page and reports whether it advertises the product as
// unavailable. Pages without any marker are treated as available.
func PageAvailability(html string) (available bool, marker string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(availabilitySelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value := s.AttrOr("content", s.AttrOr("href", s.Text()))
		if isUnavailable(value) {
			marker = strings.TrimSpace(value)
			return false
		}
		return true
	})
	if marker != "" {
		return false, marker, nil
	}

	// JSON-LD offers carry "availability": "https://schema.org/OutOfStock"
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(strings.ToLower(text), "availability") {
			return true
		}
		for _, m := range unavailableMarkers {
			if strings.Contains(squash(text), m) {
				marker = m
				return false
			}
		}
		return true
	})
	if marker != "" {
		return false, marker, nil
	}
	return true, "", nil
}

func isUnavailable(value string) bool {
	v := squash(value)
	for _, m := range unavailableMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

// squash lowercases s and drops everything but letters.
func squash(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
