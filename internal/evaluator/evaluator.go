// Package evaluator renders the availability verdict for one scan. It is a
// pure function of the gathered listings; the monitor loop owns timing and
// delivery.
package evaluator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"crouswatch/internal/domain"
)

const (
	// summaryMaxLen keeps the rendered message inside a single Telegram
	// payload (hard limit 4096, with headroom for the trailer).
	summaryMaxLen = 3500

	snippetLen = 250
)

var titleCaser = cases.Title(language.French)

// Evaluate decides whether the scan found anything and renders the
// notification text for it.
func Evaluate(city string, listings []domain.Listing) domain.ScanReport {
	report := domain.ScanReport{
		City:     city,
		Found:    len(listings) > 0,
		Listings: listings,
	}

	cityName := titleCaser.String(strings.TrimSpace(city))
	if !report.Found {
		report.Summary = fmt.Sprintf("No %s listings found on the CROUS housing site.", cityName)
		return report
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏠 <b>%s FOUND!</b>\n\n", strings.ToUpper(cityName))
	fmt.Fprintf(&b, "Found %d listing(s) for %s:\n", len(listings), cityName)

	rendered := 0
	for i, l := range listings {
		entry := renderEntry(i+1, l)
		if b.Len()+len(entry) > summaryMaxLen {
			break
		}
		b.WriteString(entry)
		rendered++
	}
	if rendered < len(listings) {
		fmt.Fprintf(&b, "\n… and %d more listing(s)", len(listings)-rendered)
	}

	report.Summary = b.String()
	return report
}

func renderEntry(n int, l domain.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%d. <b>%s</b>\n", n, l.Title)
	if l.URL != "" {
		fmt.Fprintf(&b, "🔗 <a href='%s'>View details</a>\n", l.URL)
	}
	if l.Context != "" {
		snippet := []rune(l.Context)
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen]
		}
		fmt.Fprintf(&b, "📝 %s\n", string(snippet))
	}
	fmt.Fprintf(&b, "(page %d)\n", l.Page)
	return b.String()
}
