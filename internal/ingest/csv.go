// Package ingest turns ledger CSV exports into sale records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/models"
)

// Row maps a header column to its raw cell. Columns past the end of a short
// record are absent, not empty.
type Row map[string]string

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

// ReadRows reads a CSV document with a mandatory header row. Blank records
// are skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if blank(record) {
			continue
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(record) {
				break
			}
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ParseSales resolves rows against schema. Item id and date are required;
// earnings fall back to zero when absent or unparseable, and the number of
// rows that needed that fallback is returned alongside the sales.
func ParseSales(rows []Row, schema ledger.Schema, source string) ([]models.Sale, int, error) {
	sales := make([]models.Sale, 0, len(rows))
	recovered := 0

	for i, row := range rows {
		line := i + 2 // header is line 1

		id := strings.TrimSpace(row[schema.ItemID])
		if id == "" {
			return nil, recovered, &ledger.MissingFieldError{Source: source, Line: line, Field: schema.ItemID}
		}

		rawDate, ok := row[schema.Date]
		if !ok || strings.TrimSpace(rawDate) == "" {
			return nil, recovered, &ledger.MissingFieldError{Source: source, Line: line, Field: schema.Date}
		}
		date, err := ParseDate(rawDate)
		if err != nil {
			return nil, recovered, &ledger.DateError{Source: source, Line: line, Value: rawDate, Err: err}
		}

		earnings, ok := ParseEarnings(row[schema.Earnings])
		if !ok {
			recovered++
		}

		name, hasName := row[schema.ItemName]
		if hasName {
			name = strings.TrimSpace(name)
		}

		sales = append(sales, models.Sale{
			ItemID:        id,
			ItemName:      name,
			Date:          date,
			BuyerUsername: strings.TrimSpace(row[schema.User]),
			Country:       strings.TrimSpace(row[schema.Country]),
			Earnings:      earnings,
			Source:        source,
			Line:          line,
		})
	}

	return sales, recovered, nil
}

// ParseDate accepts the date layouts seen in marketplace exports and returns
// the calendar day at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseEarnings parses a money cell such as "$1,234.50" or "(2.00)". The
// boolean is false when the cell had to be treated as zero.
func ParseEarnings(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", "USD", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
