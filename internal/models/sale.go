package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one ledger row after column resolution. Date is a calendar day at
// midnight UTC.
type Sale struct {
	ItemID        string
	ItemName      string
	Date          time.Time
	BuyerUsername string
	Country       string
	Earnings      decimal.Decimal
	Source        string
	Line          int
}

type Point struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type ItemSummary struct {
	ItemID string          `json:"item_id"`
	Name   string          `json:"name"`
	Total  decimal.Decimal `json:"total"`
	Sales  int             `json:"sales"`
}

type CountrySummary struct {
	Country string          `json:"country"`
	Total   decimal.Decimal `json:"total"`
	Buyers  int             `json:"buyers"`
	Sales   int             `json:"sales"`
}
