package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return sb.String()
}

func TestDashboard_NoData(t *testing.T) {
	html := render(t, Dashboard(DashboardData{Window: 30, Currency: "USD"}))

	for _, want := range []string{
		"<!DOCTYPE html>",
		`id="dashboard"`,
		`id="upload-form"`,
		`id="no-data"`,
		"No data loaded",
		"datastar",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(html, `id="item-table"`) {
		t.Error("no-data page should not render the item table")
	}
}

func TestDashboard_Loaded(t *testing.T) {
	d := DashboardData{
		Loaded:   true,
		Variant:  "store",
		Names:    []string{"Widget", "Gadget"},
		Window:   30,
		Currency: "USD",
		Rows:     3,
		Items: []models.ItemSummary{
			{ItemID: "A", Name: "Widget", Total: decimal.RequireFromString("1234.5"), Sales: 2},
		},
		Countries: []models.CountrySummary{
			{Country: "FR", Total: decimal.NewFromInt(15), Buyers: 1, Sales: 2},
		},
	}
	html := render(t, Dashboard(d))

	for _, want := range []string{
		`id="item-list"`,
		`data-on:change="@get('/sse/refresh')"`,
		`value="Widget"`,
		`value="Gadget"`,
		`id="item-table"`,
		"$1,234.50",
		"FR",
		`data-init="@get('/sse/refresh')"`,
		"&#34;window&#34;:&#34;30&#34;",
		"3 sales",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(html, `id="no-data"`) {
		t.Error("loaded page should not render the no-data view")
	}
}

func TestItemList_EscapesNames(t *testing.T) {
	html := render(t, ItemList([]string{`<b>"Bold"</b>`}))
	if strings.Contains(html, "<b>") {
		t.Errorf("item names must be escaped: %s", html)
	}

	empty := render(t, ItemList(nil))
	if !strings.Contains(empty, "No matching items") {
		t.Errorf("empty list should say so: %s", empty)
	}
}

func TestItemTable_Empty(t *testing.T) {
	html := render(t, ItemTable(nil, "USD"))
	if !strings.Contains(html, "No sales in the selection") {
		t.Errorf("unexpected table: %s", html)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"8", "USD", "$8.00"},
		{"0.125", "USD", "$0.13"},
		{"1234.5", "USD", "$1,234.50"},
		{"1.5", "NOPE", "1.50"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.amount), tt.code); got != tt.want {
			t.Errorf("FormatMoney(%s, %s) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}
