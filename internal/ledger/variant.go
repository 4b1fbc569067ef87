// Package ledger describes the marketplace export formats the dashboard
// understands and the errors raised while reading them.
package ledger

import (
	"fmt"
	"strings"
)

// Variant identifies the marketplace a ledger export came from. The zero
// value is Unset and has no schema.
type Variant int

const (
	Unset Variant = iota
	Store
	Frontier
)

const (
	ColumnItemID  = "Item ID"
	ColumnName    = "Item Name"
	ColumnDate    = "Date"
	ColumnBuyer   = "Buyer Username"
	ColumnCountry = "Country"
)

// Schema holds the concrete column names of one ledger variant.
type Schema struct {
	Variant  Variant
	ItemID   string
	ItemName string
	Date     string
	User     string
	Country  string
	Earnings string
}

var schemas = map[Variant]Schema{
	Store: {
		Variant:  Store,
		ItemID:   ColumnItemID,
		ItemName: ColumnName,
		Date:     ColumnDate,
		User:     ColumnBuyer,
		Country:  ColumnCountry,
		Earnings: "Net Earnings",
	},
	Frontier: {
		Variant:  Frontier,
		ItemID:   ColumnItemID,
		ItemName: ColumnName,
		Date:     ColumnDate,
		User:     ColumnBuyer,
		Country:  ColumnCountry,
		Earnings: "Earnings (USD)",
	},
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "store":
		return Store, nil
	case "frontier":
		return Frontier, nil
	default:
		return Unset, fmt.Errorf("%w: %q", ErrUnrecognizedVariant, s)
	}
}

// Schema returns the column table for v. Unset and unknown variants fail
// rather than resolving to empty column names.
func (v Variant) Schema() (Schema, error) {
	s, ok := schemas[v]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnrecognizedVariant, v)
	}
	return s, nil
}

func (v Variant) String() string {
	switch v {
	case Store:
		return "store"
	case Frontier:
		return "frontier"
	case Unset:
		return "unset"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}
