// Package search holds the listing filters used by the course finder and the
// generated search page.
package search

import (
	"strings"

	"github.com/pfassina/coursesite/internal/course"
)

// Filter returns the candidates whose Name contains query. The match is case
// sensitive. An empty query returns every candidate. Order is preserved.
func Filter(query string, candidates []course.Link) []course.Link {
	return filter(query, candidates, strings.Contains)
}

// FilterFold is Filter with case-insensitive matching.
func FilterFold(query string, candidates []course.Link) []course.Link {
	q := strings.ToLower(query)
	return filter(q, candidates, func(name, q string) bool {
		return strings.Contains(strings.ToLower(name), q)
	})
}

func filter(query string, candidates []course.Link, match func(name, query string) bool) []course.Link {
	if query == "" {
		return candidates
	}
	out := make([]course.Link, 0, len(candidates))
	for _, c := range candidates {
		if match(c.Name, query) {
			out = append(out, c)
		}
	}
	return out
}
