// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/gift-recommender/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintProfile outputs a summary of the partner profile and the active budget.
func (p *Printer) PrintProfile(profile *types.PartnerProfile, budget types.BudgetRange) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	if profile.PartnerName != "" {
		sb.WriteString(fmt.Sprintf("Partner:   %s\n", profile.PartnerName))
	}
	sb.WriteString(fmt.Sprintf("Interests: %s\n", strings.Join(profile.Interests, ", ")))
	sb.WriteString(fmt.Sprintf("Dislikes:  %s\n", strings.Join(profile.Dislikes, ", ")))

	vibes := make([]string, 0, len(profile.Vibes))
	for _, v := range profile.Vibes {
		vibes = append(vibes, string(v))
	}
	sb.WriteString(fmt.Sprintf("Vibes:     %s\n", strings.Join(vibes, ", ")))
	sb.WriteString(fmt.Sprintf("Love:      %s / %s\n", profile.PrimaryLoveLanguage, profile.SecondaryLoveLanguage))
	if loc := profile.Location.String(); loc != "" {
		sb.WriteString(fmt.Sprintf("Location:  %s\n", loc))
	}
	sb.WriteString(fmt.Sprintf("\nBudget (%s): %s - %s\n", budget.OccasionType,
		FormatPrice(budget.MinCents, budget.Currency), FormatPrice(budget.MaxCents, budget.Currency)))

	p.printBox("PARTNER PROFILE", sb.String())
}

// PrintHints outputs the hints retrieved for the run.
func (p *Printer) PrintHints(hints []types.RelevantHint) {
	if len(hints) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Relevant hints: %d\n\n", len(hints)))

	count := min(len(hints), maxItemsToShow)
	for i := 0; i < count; i++ {
		h := hints[i]
		if h.Similarity > 0 {
			sb.WriteString(fmt.Sprintf("• (%.2f) %s\n", h.Similarity, h.Text))
		} else {
			sb.WriteString(fmt.Sprintf("• %s\n", h.Text))
		}
	}

	if len(hints) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more hints", len(hints)-maxItemsToShow))
	}

	p.printBox("RELEVANT HINTS", sb.String())
}

// PrintPool outputs the top of a scored candidate pool.
func (p *Printer) PrintPool(title string, pool []types.Candidate) {
	if len(pool) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidates: %d\n\n", len(pool)))

	count := min(len(pool), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := pool[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, c.Title))
		sb.WriteString(fmt.Sprintf("    %s · %s · interest %.2f", c.Type, formatCandidatePrice(&c), c.InterestScore))
		if c.FinalScore > 0 {
			sb.WriteString(fmt.Sprintf(" · final %.2f", c.FinalScore))
		}
		sb.WriteString("\n")
	}

	if len(pool) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more candidates", len(pool)-maxItemsToShow))
	}

	p.printBox(title, sb.String())
}

// PrintRecommendations outputs the final recommendations with their explanations.
// A run that ended without results prints its error message instead.
func (p *Printer) PrintRecommendations(items []types.Candidate, errMsg string) {
	if len(items) == 0 {
		if errMsg == "" {
			errMsg = "No recommendations"
		}
		p.printBox("RECOMMENDATIONS", "✗ "+errMsg)
		return
	}

	var sb strings.Builder
	for i, c := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.Title))
		detail := fmt.Sprintf("   %s · %s", c.Type, formatCandidatePrice(&c))
		if c.Merchant != "" {
			detail += " · " + c.Merchant
		}
		sb.WriteString(detail + "\n")
		if c.Reason != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", c.Reason))
		}
		if c.ExternalURL != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", c.ExternalURL))
		}
		if i < len(items)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("RECOMMENDATIONS (%d)", len(items)), sb.String())
}

// FormatPrice renders cents as "$12.50" for USD and "12.50 EUR" otherwise.
func FormatPrice(cents int, currency string) string {
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if currency == "" || strings.EqualFold(currency, "USD") {
		return "$" + amount
	}
	return amount + " " + strings.ToUpper(currency)
}

func formatCandidatePrice(c *types.Candidate) string {
	if !c.HasPrice() {
		return "price n/a"
	}
	return FormatPrice(c.Price(), c.Currency)
}
