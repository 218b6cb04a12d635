package extractor

import (
	"fmt"
	"regexp"
	"strings"
)

// postalPrefixes maps the major CROUS cities to their postal-code prefix.
// A known prefix tightens matching: the city name alone is not enough, the
// card must also carry the prefix or a full postal code starting with it.
var postalPrefixes = map[string]string{
	"paris":       "75",
	"lyon":        "69",
	"marseille":   "13",
	"toulouse":    "31",
	"nice":        "06",
	"nantes":      "44",
	"strasbourg":  "67",
	"montpellier": "34",
	"bordeaux":    "33",
	"lille":       "59",
	"rennes":      "35",
	"reims":       "51",
	"grenoble":    "38",
}

// newCityMatcher builds the predicate deciding whether a candidate card's
// text belongs to the target city. Cities without a known postal prefix fall
// back to name-only matching.
func newCityMatcher(city string) func(text string) bool {
	name := strings.ToLower(strings.TrimSpace(city))
	nameRe := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)

	prefix, known := postalPrefixes[name]
	if !known {
		return nameRe.MatchString
	}

	postalRe := regexp.MustCompile(fmt.Sprintf(`\b%s\d{3}\b`, prefix))
	return func(text string) bool {
		if nameRe.MatchString(text) && strings.Contains(text, prefix) {
			return true
		}
		return postalRe.MatchString(text)
	}
}
