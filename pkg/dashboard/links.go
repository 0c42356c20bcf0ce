package dashboard

import (
	"slices"
	"strings"

	"github.com/rycus86/startpage-departures/pkg/prefs"
)

// SortLinks orders links by the length of their URL, shortest first.
func SortLinks(links []prefs.Link) []prefs.Link {
	sorted := slices.Clone(links)

	slices.SortStableFunc(sorted, func(a, b prefs.Link) int {
		return len(a.URL) - len(b.URL)
	})

	return sorted
}

// SearchLinks returns the index of the first link whose title contains term,
// ignoring case, or -1.
func SearchLinks(links []prefs.Link, term string) int {
	term = strings.ToLower(term)

	return slices.IndexFunc(links, func(link prefs.Link) bool {
		return strings.Contains(strings.ToLower(link.Title), term)
	})
}
