// Package series samples ledger earnings over a regular date grid.
package series

import (
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/models"
)

const (
	DefaultStepDays   = 7
	DefaultWindowDays = 30
)

// DateRange returns start, start+step, start+2*step ... while <= end. The
// last point can fall short of end when the span is not a multiple of step.
func DateRange(start, end time.Time, stepDays int) []time.Time {
	if stepDays <= 0 || start.After(end) {
		return nil
	}

	var grid []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, stepDays) {
		grid = append(grid, d)
	}
	return grid
}

// Bounds returns the earliest and latest sale dates.
func Bounds(sales []models.Sale) (time.Time, time.Time, error) {
	if len(sales) == 0 {
		return time.Time{}, time.Time{}, ledger.ErrEmptyDataset
	}

	lo, hi := sales[0].Date, sales[0].Date
	for _, s := range sales[1:] {
		if s.Date.Before(lo) {
			lo = s.Date
		}
		if s.Date.After(hi) {
			hi = s.Date
		}
	}
	return lo, hi, nil
}

// Grid is DateRange over the bounds of sales.
func Grid(sales []models.Sale, stepDays int) ([]time.Time, error) {
	lo, hi, err := Bounds(sales)
	if err != nil {
		return nil, err
	}
	return DateRange(lo, hi, stepDays), nil
}

// ParseWindow reads the moving-average window field. Empty, non-numeric and
// non-positive input all fall back to fallback, or to DefaultWindowDays when
// fallback is not positive.
func ParseWindow(raw string, fallback int) int {
	if fallback <= 0 {
		fallback = DefaultWindowDays
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
