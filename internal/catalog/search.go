package catalog

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxDistanceRatio bounds fuzzy matches to names within 40% edits of the query.
const maxDistanceRatio = 0.4

type Match struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
	Exact    bool   `json:"exact"`
}

// Search returns display names matching query. Substring matches come first
// in catalog order, followed by typo-tolerant matches ranked by edit distance.
func (c *Catalog) Search(query string, limit int) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	names := c.Names()
	if q == "" {
		matches := make([]Match, 0, len(names))
		for _, n := range names {
			matches = append(matches, Match{Name: n, Exact: true})
		}
		return truncate(matches, limit)
	}

	var exact, fuzzy []Match
	for _, n := range names {
		lower := strings.ToLower(n)
		if strings.Contains(lower, q) {
			exact = append(exact, Match{Name: n, Exact: true})
			continue
		}

		// closest of the whole name or any single word
		dist := bestDistance(lower, q)
		if float64(dist) <= maxDistanceRatio*float64(len(q)) {
			fuzzy = append(fuzzy, Match{Name: n, Distance: dist})
		}
	}

	slices.SortStableFunc(fuzzy, func(a, b Match) int { return a.Distance - b.Distance })
	return truncate(append(exact, fuzzy...), limit)
}

func bestDistance(name, q string) int {
	best := levenshtein.ComputeDistance(name, q)
	words := strings.Fields(name)
	for _, w := range words {
		if d := levenshtein.ComputeDistance(w, q); d < best {
			best = d
		}
	}
	return best
}

func truncate(m []Match, limit int) []Match {
	if limit > 0 && len(m) > limit {
		return m[:limit]
	}
	return m
}
