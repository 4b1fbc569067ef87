package series

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/models"
)

func byDate(a, b models.Sale) int { return a.Date.Compare(b.Date) }

// SortByDate stable-sorts sales in place by ascending date.
func SortByDate(sales []models.Sale) {
	slices.SortStableFunc(sales, byDate)
}

// sorted returns sales ordered by date, copying only when the input is not
// already ordered.
func sorted(sales []models.Sale) []models.Sale {
	if slices.IsSortedFunc(sales, byDate) {
		return sales
	}
	c := slices.Clone(sales)
	SortByDate(c)
	return c
}

// prefixSums returns p where p[i] is the earnings total of sales[:i].
func prefixSums(sales []models.Sale) []decimal.Decimal {
	p := make([]decimal.Decimal, len(sales)+1)
	p[0] = decimal.Zero
	for i, s := range sales {
		p[i+1] = p[i].Add(s.Earnings)
	}
	return p
}

// firstAfter returns the index of the first sale dated strictly after d.
func firstAfter(sales []models.Sale, d time.Time) int {
	return sort.Search(len(sales), func(i int) bool { return sales[i].Date.After(d) })
}

// firstFrom returns the index of the first sale dated on or after d.
func firstFrom(sales []models.Sale, d time.Time) int {
	return sort.Search(len(sales), func(i int) bool { return !sales[i].Date.Before(d) })
}

// Cumulative returns, for every grid date d, the earnings of all sales dated
// on or before d.
func Cumulative(sales []models.Sale, grid []time.Time) []models.Point {
	sales = sorted(sales)
	points := make([]models.Point, 0, len(grid))

	total := decimal.Zero
	i := 0
	for _, d := range grid {
		for i < len(sales) && !sales[i].Date.After(d) {
			total = total.Add(sales[i].Earnings)
			i++
		}
		points = append(points, models.Point{Date: d, Value: total})
	}
	return points
}

// MovingAverage returns, for every grid date d, the earnings dated within
// [d-w/2, d+w/2] divided by w. The divisor is the window length, not the
// number of sales in it, so the value reads as an average daily rate.
func MovingAverage(sales []models.Sale, grid []time.Time, windowDays int) ([]models.Point, error) {
	if windowDays <= 0 {
		return nil, ledger.ErrInvalidWindow
	}

	sales = sorted(sales)
	prefix := prefixSums(sales)
	half := windowDays / 2
	divisor := decimal.NewFromInt(int64(windowDays))

	points := make([]models.Point, 0, len(grid))
	for _, d := range grid {
		lo := firstFrom(sales, d.AddDate(0, 0, -half))
		hi := firstAfter(sales, d.AddDate(0, 0, half))

		sum := decimal.Zero
		if hi > lo {
			sum = prefix[hi].Sub(prefix[lo])
		}
		points = append(points, models.Point{Date: d, Value: sum.Div(divisor)})
	}
	return points, nil
}

// TotalProfit sums the earnings of sales for exactly itemID.
func TotalProfit(itemID string, sales []models.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		if s.ItemID == itemID {
			total = total.Add(s.Earnings)
		}
	}
	return total
}

// NameLookup resolves an item id to its display name.
type NameLookup interface {
	Name(id string) (string, bool)
}

// ItemTotals returns one summary per item id present in sales, highest total
// first. Sales are bucketed by id in one pass and each bucket is summed with
// TotalProfit.
func ItemTotals(names NameLookup, sales []models.Sale) []models.ItemSummary {
	var ids []string
	buckets := make(map[string][]models.Sale)
	for _, s := range sales {
		if _, ok := buckets[s.ItemID]; !ok {
			ids = append(ids, s.ItemID)
		}
		buckets[s.ItemID] = append(buckets[s.ItemID], s)
	}

	items := make([]models.ItemSummary, 0, len(ids))
	for _, id := range ids {
		name, found := names.Name(id)
		if !found {
			name = id
		}
		items = append(items, models.ItemSummary{
			ItemID: id,
			Name:   name,
			Total:  TotalProfit(id, buckets[id]),
			Sales:  len(buckets[id]),
		})
	}

	slices.SortStableFunc(items, func(a, b models.ItemSummary) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return items
}

// CountryTotals groups earnings by the country each buyer is mapped to.
// Buyers missing from users fall back to the country on the sale.
func CountryTotals(users map[string]string, sales []models.Sale) []models.CountrySummary {
	index := make(map[string]int)
	buyers := make(map[string]map[string]struct{})
	var countries []models.CountrySummary

	for _, s := range sales {
		country, ok := users[s.BuyerUsername]
		if !ok {
			country = s.Country
		}

		i, ok := index[country]
		if !ok {
			i = len(countries)
			index[country] = i
			buyers[country] = make(map[string]struct{})
			countries = append(countries, models.CountrySummary{Country: country, Total: decimal.Zero})
		}
		countries[i].Total = countries[i].Total.Add(s.Earnings)
		countries[i].Sales++
		buyers[country][s.BuyerUsername] = struct{}{}
	}

	for i := range countries {
		countries[i].Buyers = len(buyers[countries[i].Country])
	}

	slices.SortStableFunc(countries, func(a, b models.CountrySummary) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})
	return countries
}
