// Package catalog derives the item catalog and buyer map of a loaded ledger
// and filters sales by the items a user has selected.
package catalog

import (
	"strings"

	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/models"
)

// DefaultPrefix separates the storefront prefix from the item label in raw
// item names ("Shop - Widget").
const DefaultPrefix = " - "

// Catalog maps item ids to display names and remembers first-seen order.
type Catalog struct {
	names map[string]string
	order []string
}

// Build derives one display name per item id. An entry is (re)written when
// the id has none yet, or when its stored name is still the raw id.
func Build(sales []models.Sale, prefix string) (*Catalog, error) {
	c := &Catalog{names: make(map[string]string)}

	for _, s := range sales {
		if s.ItemID == "" {
			return nil, &ledger.MissingFieldError{Source: s.Source, Line: s.Line, Field: ledger.ColumnItemID}
		}
		if s.ItemName == "" {
			return nil, &ledger.MissingFieldError{Source: s.Source, Line: s.Line, Field: ledger.ColumnName}
		}

		current, ok := c.names[s.ItemID]
		if ok && current != s.ItemID {
			continue
		}
		if !ok {
			c.order = append(c.order, s.ItemID)
		}
		c.names[s.ItemID] = CleanName(s.ItemName, prefix)
	}

	return c, nil
}

// CleanName keeps the part of raw after the first occurrence of prefix.
func CleanName(raw, prefix string) string {
	if prefix != "" {
		if _, after, found := strings.Cut(raw, prefix); found {
			if name := strings.TrimSpace(after); name != "" {
				return name
			}
		}
	}
	return strings.TrimSpace(raw)
}

func (c *Catalog) Name(id string) (string, bool) {
	name, ok := c.names[id]
	return name, ok
}

func (c *Catalog) Len() int { return len(c.order) }

// Names returns the distinct display names in first-seen order. Two ids that
// clean to the same name share one entry.
func (c *Catalog) Names() []string {
	seen := make(map[string]struct{}, len(c.order))
	names := make([]string, 0, len(c.order))
	for _, id := range c.order {
		name := c.names[id]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// BuildUserCountries maps each buyer to the country of their first sale.
func BuildUserCountries(sales []models.Sale) map[string]string {
	users := make(map[string]string)
	for _, s := range sales {
		if _, ok := users[s.BuyerUsername]; !ok {
			users[s.BuyerUsername] = s.Country
		}
	}
	return users
}
