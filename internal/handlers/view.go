package handlers

import (
	"net/http"
	"time"

	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

// DashboardData snapshots the session for a full page or body render.
func DashboardData(s *services.Session, currency string) templates.DashboardData {
	opts := s.Options()
	d := templates.DashboardData{
		Variant:  opts.Variant.String(),
		Window:   opts.DefaultWindow,
		Currency: currency,
	}
	if s.State() == services.StateEmpty {
		return d
	}

	d.Loaded = true
	d.Names = s.Catalog().Names()
	d.Rows = s.RowCount()
	d.Items = s.Totals()
	d.Countries = s.Countries()
	return d
}

// chartSignals carries the series as plain numbers for the chart library.
type chartSignals struct {
	Grid          []string  `json:"grid"`
	Cumulative    []float64 `json:"cumulative"`
	MovingAverage []float64 `json:"movingAverage"`
	Window        string    `json:"window"`
	Message       string    `json:"message"`
}

func newChartSignals(view *services.View) chartSignals {
	cs := chartSignals{
		Grid:          make([]string, len(view.Grid)),
		Cumulative:    make([]float64, len(view.Cumulative)),
		MovingAverage: make([]float64, len(view.MovingAverage)),
		Window:        itoa(view.Window),
	}
	for i, d := range view.Grid {
		cs.Grid[i] = d.Format(time.DateOnly)
	}
	for i, p := range view.Cumulative {
		cs.Cumulative[i] = p.Value.InexactFloat64()
	}
	for i, p := range view.MovingAverage {
		cs.MovingAverage[i] = p.Value.InexactFloat64()
	}
	return cs
}

func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}
