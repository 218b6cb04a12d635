package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"crouswatch/internal/domain"
)

const maxContextLen = 400

var (
	listingHref  = regexp.MustCompile(`/logement/|/residence/`)
	cardClass    = regexp.MustCompile(`(?i)(card|listing|residence|logement)`)
	pageOfMarker = regexp.MustCompile(`(?i)page\s+\d+\s+(sur|of)\s+\d+`)
)

// Extractor turns raw search-results markup into listing records. It is
// pure: no network access, and identical input yields identical output.
type Extractor struct {
	base *url.URL
}

func New(baseURL string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Extractor{base: base}, nil
}

// Extract parses one page of search results and returns the entries matching
// city, in document order, along with the total candidate count on the page.
// A *domain.ParseError means the document has no recognizable search-results
// structure at all, which is distinct from a well-formed page with zero
// matches.
func (e *Extractor) Extract(html, city string, page int) (domain.PageListings, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.PageListings{}, &domain.ParseError{Page: page, Reason: err.Error()}
	}

	candidates := findCandidates(doc)
	if candidates.Length() == 0 {
		if !hasResultsMarker(doc) {
			return domain.PageListings{}, &domain.ParseError{Page: page, Reason: "no search-results structure in document"}
		}
		return domain.PageListings{}, nil
	}

	match := newCityMatcher(city)
	seen := make(map[string]bool)
	result := domain.PageListings{Total: candidates.Length()}

	candidates.Each(func(_ int, s *goquery.Selection) {
		text := joinedText(s)
		if !match(text) {
			return
		}

		link := e.resolveLink(s)
		if link != "" {
			if seen[link] {
				return
			}
			seen[link] = true
		}

		result.Listings = append(result.Listings, domain.Listing{
			Title:   findTitle(s),
			URL:     link,
			City:    city,
			Context: squeeze(text, maxContextLen),
			Page:    page,
		})
	})

	return result, nil
}

// findCandidates walks the selector cascade: direct listing links first,
// then article elements, then card-like divs.
func findCandidates(doc *goquery.Document) *goquery.Selection {
	candidates := doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return listingHref.MatchString(href)
	})
	if candidates.Length() > 0 {
		return candidates
	}

	candidates = doc.Find("article")
	if candidates.Length() > 0 {
		return candidates
	}

	return doc.Find("div[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return cardClass.MatchString(class)
	})
}

// hasResultsMarker reports whether the document still looks like a search
// results page even though no candidates were found.
func hasResultsMarker(doc *goquery.Document) bool {
	if doc.Find("[class*=pagination], [class*=paging], [class*=results], [class*=Results]").Length() > 0 {
		return true
	}
	return pageOfMarker.MatchString(doc.Find("title").First().Text())
}

// joinedText flattens the candidate into its text nodes separated by
// spaces. Selection.Text concatenates adjacent elements with no separator,
// which destroys the word boundaries the city matcher relies on.
func joinedText(s *goquery.Selection) string {
	var parts []string
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}

// resolveLink finds the listing's detail link and makes it absolute.
func (e *Extractor) resolveLink(s *goquery.Selection) string {
	link := s
	if !s.Is("a") {
		link = s.Find("a[href]").First()
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}

// findTitle takes the first heading inside the candidate, falling back to a
// generic label when the card carries none.
func findTitle(s *goquery.Selection) string {
	title := strings.TrimSpace(s.Find("h1, h2, h3, h4, h5, h6").First().Text())
	if title == "" {
		return "Logement trouvé"
	}
	return title
}

// squeeze collapses runs of whitespace and truncates to max runes.
func squeeze(text string, max int) string {
	out := strings.Join(strings.Fields(text), " ")
	runes := []rune(out)
	if len(runes) > max {
		return string(runes[:max])
	}
	return out
}
