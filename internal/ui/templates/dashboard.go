package templates

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
)

// DashboardData is everything the full page needs on first render. Chart
// series are not included; the page asks for them over SSE once loaded.
type DashboardData struct {
	Loaded    bool
	Variant   string
	Names     []string
	Window    int
	Currency  string
	Rows      int
	Items     []models.ItemSummary
	Countries []models.CountrySummary
}

// InitialSignals is the datastar signal set the page starts with.
type InitialSignals struct {
	Selected      []string  `json:"selected"`
	Window        string    `json:"window"`
	Search        string    `json:"search"`
	Grid          []string  `json:"grid"`
	Cumulative    []float64 `json:"cumulative"`
	MovingAverage []float64 `json:"movingAverage"`
	Message       string    `json:"message"`
}

func (d DashboardData) signals() InitialSignals {
	selected := d.Names
	if selected == nil {
		selected = []string{}
	}
	return InitialSignals{
		Selected:      selected,
		Window:        strconv.Itoa(d.Window),
		Grid:          []string{},
		Cumulative:    []float64{},
		MovingAverage: []float64{},
	}
}

func Dashboard(d DashboardData) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		signals, err := json.Marshal(d.signals())
		if err != nil {
			h.err = err
			return
		}

		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Sales Dashboard</title>`)
		h.raw(`<script type="module" src="` + datastarScript + `"></script>`)
		h.raw(`<script src="` + chartScript + `"></script>`)
		h.raw(`<script>` + drawScript + `</script>`)
		h.raw(`<style>` + pageStyle + `</style>`)
		h.raw(`</head><body data-signals="`)
		h.text(string(signals))
		h.raw(`">`)
		h.child(ctx, Body(d))
		h.raw(`</body></html>`)
	})
}

// Body is the patchable part of the page; a successful upload replaces it.
func Body(d DashboardData) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<main id="dashboard">`)
		h.raw(`<header><h1>Sales Dashboard</h1>`)
		if d.Variant != "" {
			h.raw(`<span class="badge">`)
			h.text(d.Variant)
			h.raw(`</span>`)
		}
		h.raw(`</header>`)
		h.child(ctx, UploadForm())

		if !d.Loaded {
			h.child(ctx, NoData())
			h.raw(`</main>`)
			return
		}

		h.raw(`<section class="layout" data-init="@get('/sse/refresh')">`)
		h.raw(`<aside class="controls">`)
		h.child(ctx, Controls(d.Window))
		h.child(ctx, ItemList(d.Names))
		h.raw(`</aside><div class="content">`)
		h.child(ctx, Summary(d.Rows, len(d.Names), d.Window))
		h.raw(`<div class="charts" data-effect="window.drawSeries && window.drawSeries($grid, $cumulative, $movingAverage)">`)
		h.raw(`<figure><figcaption>Cumulative profit</figcaption><canvas id="cumulative-chart"></canvas></figure>`)
		h.raw(`<figure><figcaption>Moving average of daily profit</figcaption><canvas id="average-chart"></canvas></figure>`)
		h.raw(`</div>`)
		h.child(ctx, ItemTable(d.Items, d.Currency))
		h.child(ctx, CountryTable(d.Countries, d.Currency))
		h.raw(`</div></section></main>`)
	})
}

func UploadForm() templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<form id="upload-form" enctype="multipart/form-data" data-on:submit="@post('/api/upload', {contentType: 'form'})">`)
		h.raw(`<input type="file" name="files" accept=".csv" multiple required>`)
		h.raw(`<select name="variant"><option value="">default format</option><option value="store">store</option><option value="frontier">frontier</option></select>`)
		h.raw(`<button type="submit">Load</button>`)
		h.raw(`<p id="upload-status" class="status" data-text="$message"></p>`)
		h.raw(`</form>`)
	})
}

func NoData() templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section id="no-data" class="empty"><p>No data loaded. Choose one or more CSV exports to begin.</p></section>`)
	})
}

func Controls(window int) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="controls">`)
		h.raw(`<input type="search" placeholder="Search items" data-bind:search data-on:input__debounce.300ms="@get('/sse/refresh')">`)
		h.printf(`<label>Window (days) <input type="number" min="1" placeholder="%d" data-bind:window></label>`, window)
		h.raw(`<div class="buttons">`)
		h.raw(`<button data-on:click="@get('/sse/select-all')">Select all</button>`)
		h.raw(`<button data-on:click="@get('/sse/select-none')">Select none</button>`)
		h.raw(`<button class="primary" data-on:click="@get('/sse/refresh')">Recalculate</button>`)
		h.raw(`</div></div>`)
	})
}

// ItemList renders one checkbox per display name, bound to $selected.
func ItemList(names []string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<ul id="item-list" data-on:change="@get('/sse/refresh')">`)
		for _, name := range names {
			h.raw(`<li><label><input type="checkbox" data-bind:selected value="`)
			h.text(name)
			h.raw(`"> `)
			h.text(name)
			h.raw(`</label></li>`)
		}
		if len(names) == 0 {
			h.raw(`<li class="muted">No matching items</li>`)
		}
		h.raw(`</ul>`)
	})
}

func Summary(rows, selected, window int) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.printf(`<div id="summary"><span>%d sales</span><span>%d items selected</span><span>%d day window</span></div>`, rows, selected, window)
	})
}

func ItemTable(items []models.ItemSummary, currency string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="item-table"><table class="modern-table">`)
		h.raw(`<thead><tr><th>Item</th><th>ID</th><th>Sales</th><th>Total profit</th></tr></thead><tbody>`)
		for _, it := range items {
			h.raw(`<tr><td>`)
			h.text(it.Name)
			h.raw(`</td><td>`)
			h.text(it.ItemID)
			h.printf(`</td><td>%d</td><td class="num">`, it.Sales)
			h.text(FormatMoney(it.Total, currency))
			h.raw(`</td></tr>`)
		}
		if len(items) == 0 {
			h.raw(`<tr><td colspan="4" class="muted">No sales in the selection</td></tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

func CountryTable(countries []models.CountrySummary, currency string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="country-table"><table class="modern-table">`)
		h.raw(`<thead><tr><th>Country</th><th>Buyers</th><th>Sales</th><th>Total profit</th></tr></thead><tbody>`)
		for _, c := range countries {
			h.raw(`<tr><td>`)
			h.text(c.Country)
			h.printf(`</td><td>%d</td><td>%d</td><td class="num">`, c.Buyers, c.Sales)
			h.text(FormatMoney(c.Total, currency))
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

const drawScript = `
window.drawSeries = function (grid, cumulative, average) {
  const draw = function (id, label, data) {
    const el = document.getElementById(id);
    if (!el || typeof Chart === "undefined") return;
    if (el._chart) el._chart.destroy();
    el._chart = new Chart(el, {
      type: "line",
      data: { labels: grid, datasets: [{ label: label, data: data, pointRadius: 0, tension: 0.2 }] },
      options: { animation: false, scales: { x: { ticks: { maxTicksLimit: 12 } } } }
    });
  };
  draw("cumulative-chart", "Cumulative", cumulative);
  draw("average-chart", "Moving average", average);
};`

const pageStyle = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d2430}
main{max-width:1200px;margin:0 auto;padding:1.5rem}
header{display:flex;align-items:center;gap:.75rem}
.badge{background:#e3e8f0;border-radius:4px;padding:.1rem .5rem;font-size:.8rem}
form{display:flex;gap:.5rem;align-items:center;flex-wrap:wrap;margin:1rem 0}
.status{color:#b42318;margin:0}
.layout{display:grid;grid-template-columns:260px 1fr;gap:1.5rem}
#item-list{list-style:none;padding:0;max-height:60vh;overflow:auto}
.buttons{display:flex;gap:.25rem;margin:.5rem 0}
#summary{display:flex;gap:1rem;color:#556}
.charts{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.modern-table{width:100%;border-collapse:collapse;margin-top:1rem}
.modern-table th,.modern-table td{padding:.35rem .5rem;border-bottom:1px solid #e3e8f0;text-align:left}
.num{text-align:right}
.muted{color:#889}
.empty{padding:3rem;text-align:center;color:#556}`
