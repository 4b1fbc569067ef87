package catalog

import (
	"slices"

	"sales-dashboard/internal/models"
)

// Selection is the set of display names currently ticked in the item list.
type Selection map[string]struct{}

func NewSelection(names ...string) Selection {
	s := make(Selection, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func SelectAll(c *Catalog) Selection { return NewSelection(c.Names()...) }

func SelectNone() Selection { return Selection{} }

func (s Selection) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the selected names in lexical order.
func (s Selection) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Filter keeps the sales whose item display name is selected, in order.
// Selection is by name, so ids sharing a display name are kept or dropped
// together.
func Filter(sales []models.Sale, c *Catalog, sel Selection) []models.Sale {
	filtered := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		name, ok := c.Name(s.ItemID)
		if ok && sel.Has(name) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
