package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/catalog"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/series"
)

type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateFiltered
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateFiltered:
		return "filtered"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

type Options struct {
	Variant       ledger.Variant
	ItemPrefix    string
	StepDays      int
	DefaultWindow int
}

// View is what the dashboard renders: a date grid, the two series sampled on
// it, and the tables for the current selection.
type View struct {
	Grid          []time.Time             `json:"grid"`
	Cumulative    []models.Point          `json:"cumulative"`
	MovingAverage []models.Point          `json:"moving_average"`
	Items         []models.ItemSummary    `json:"items"`
	Countries     []models.CountrySummary `json:"countries"`
	Selected      []string                `json:"selected"`
	Window        int                     `json:"window"`
	Rows          int                     `json:"rows"`
}

// Session holds every sale loaded during one dashboard session. Loads append;
// the catalog is rebuilt on each load and every recompute filters the full
// set again.
type Session struct {
	writeMu  sync.Mutex
	mu       sync.RWMutex
	opts     Options
	sales    []models.Sale
	catalog  *catalog.Catalog
	users    map[string]string
	state    State
	view     *View
	loads    int
	loadedAt time.Time

	loading        atomic.Bool
	rowsRecovered  atomic.Int64
	recomputeCount atomic.Int64

	logger *slog.Logger
}

func NewSession(opts Options, logger *slog.Logger) (*Session, error) {
	if _, err := opts.Variant.Schema(); err != nil {
		return nil, err
	}
	if opts.StepDays <= 0 {
		opts.StepDays = series.DefaultStepDays
	}
	if opts.DefaultWindow <= 0 {
		opts.DefaultWindow = series.DefaultWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		opts:    opts,
		catalog: &catalog.Catalog{},
		users:   map[string]string{},
		logger:  logger,
	}, nil
}

// Load reads files as one load action and appends their sales. A variant of
// ledger.Unset uses the session's configured variant. Only one load may run
// at a time; on any error the session is left as it was.
func (s *Session) Load(ctx context.Context, files []ingest.File, variant ledger.Variant) (ingest.Report, error) {
	if !s.loading.CompareAndSwap(false, true) {
		return ingest.Report{}, ledger.ErrLoadInProgress
	}
	defer s.loading.Store(false)

	ctx, span := observability.StartSpan(ctx, "session.load")
	defer span.End(ctx, s.logger)

	if variant == ledger.Unset {
		variant = s.opts.Variant
	}
	schema, err := variant.Schema()
	if err != nil {
		span.SetError(err)
		return ingest.Report{}, err
	}
	span.SetTag("variant", variant.String())

	sales, report, err := ingest.NewLoader(schema, s.logger).Load(ctx, files)
	if err != nil {
		span.SetError(err)
		return report, fmt.Errorf("load files: %w", err)
	}

	if err := s.AddSales(sales); err != nil {
		span.SetError(err)
		return report, err
	}
	s.rowsRecovered.Add(int64(report.RecoveredEarnings))

	span.SetTag("rows", strconv.Itoa(report.Rows))
	return report, nil
}

// AddSales appends already parsed sales as one load.
func (s *Session) AddSales(sales []models.Sale) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	merged := make([]models.Sale, 0, len(s.sales)+len(sales))
	merged = append(merged, s.sales...)
	s.mu.RUnlock()

	merged = append(merged, sales...)
	if len(merged) == 0 {
		return ledger.ErrEmptyDataset
	}
	series.SortByDate(merged)

	cat, err := catalog.Build(merged, s.opts.ItemPrefix)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	users := catalog.BuildUserCountries(merged)

	view, err := s.compute(merged, cat, users, catalog.SelectAll(cat), s.opts.DefaultWindow)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sales = merged
	s.catalog = cat
	s.users = users
	s.view = view
	s.state = StateLoaded
	s.loads++
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("session loaded",
		"rows", len(merged),
		"added", len(sales),
		"items", cat.Len(),
		"buyers", len(users),
	)
	return nil
}

// Recompute filters the full sale set by sel and rebuilds the grid and both
// series over the filtered bounds. It holds writeMu throughout so a load
// cannot commit between the snapshot and the stored view.
func (s *Session) Recompute(ctx context.Context, sel catalog.Selection, windowDays int) (*View, error) {
	ctx, span := observability.StartSpan(ctx, "session.recompute")
	defer span.End(ctx, s.logger)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if s.state == StateEmpty {
		s.mu.RUnlock()
		span.SetError(ledger.ErrEmptyDataset)
		return nil, ledger.ErrEmptyDataset
	}
	sales, cat, users := s.sales, s.catalog, s.users
	s.mu.RUnlock()

	start := time.Now()
	view, err := s.compute(sales, cat, users, sel, windowDays)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.mu.Lock()
	s.view = view
	s.state = StateFiltered
	s.mu.Unlock()
	s.recomputeCount.Add(1)

	s.logger.Debug("view recomputed",
		"selected", len(view.Selected),
		"rows", view.Rows,
		"grid", len(view.Grid),
		"window", windowDays,
		"duration", time.Since(start),
		"trace_id", span.TraceID,
	)
	return view, nil
}

func (s *Session) compute(sales []models.Sale, cat *catalog.Catalog, users map[string]string, sel catalog.Selection, windowDays int) (*View, error) {
	if windowDays <= 0 {
		return nil, ledger.ErrInvalidWindow
	}

	filtered := catalog.Filter(sales, cat, sel)
	view := &View{
		Grid:          []time.Time{},
		Cumulative:    []models.Point{},
		MovingAverage: []models.Point{},
		Items:         []models.ItemSummary{},
		Countries:     []models.CountrySummary{},
		Selected:      sel.Sorted(),
		Window:        windowDays,
		Rows:          len(filtered),
	}
	if len(filtered) == 0 {
		return view, nil
	}

	grid, err := series.Grid(filtered, s.opts.StepDays)
	if err != nil {
		return nil, err
	}
	avg, err := series.MovingAverage(filtered, grid, windowDays)
	if err != nil {
		return nil, err
	}

	view.Grid = grid
	view.Cumulative = series.Cumulative(filtered, grid)
	view.MovingAverage = avg
	view.Items = series.ItemTotals(cat, filtered)
	view.Countries = series.CountryTotals(users, filtered)
	return view, nil
}

// View returns the most recently computed view.
func (s *Session) View() (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateEmpty {
		return nil, ledger.ErrEmptyDataset
	}
	return s.view, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

func (s *Session) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

// Totals returns the per-item totals over every loaded sale.
func (s *Session) Totals() []models.ItemSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return series.ItemTotals(s.catalog, s.sales)
}

// Countries returns the per-country totals over every loaded sale.
func (s *Session) Countries() []models.CountrySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return series.CountryTotals(s.users, s.sales)
}

func (s *Session) Loading() bool { return s.loading.Load() }

func (s *Session) Options() Options { return s.opts }

// Utility method for monitoring
func (s *Session) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var from, to string
	if len(s.sales) > 0 {
		from = s.sales[0].Date.Format(time.DateOnly)
		to = s.sales[len(s.sales)-1].Date.Format(time.DateOnly)
	}

	return map[string]any{
		"state":              s.state.String(),
		"variant":            s.opts.Variant.String(),
		"record_count":       len(s.sales),
		"items":              s.catalog.Len(),
		"display_names":      len(s.catalog.Names()),
		"buyers":             len(s.users),
		"loads":              s.loads,
		"last_loaded":        s.loadedAt,
		"first_sale":         from,
		"last_sale":          to,
		"recovered_earnings": s.rowsRecovered.Load(),
		"recomputes":         s.recomputeCount.Load(),
		"loading":            s.loading.Load(),
	}
}

// SelectedOrAll turns a list of names from the UI into a selection; nil means
// every catalog name.
func (s *Session) SelectedOrAll(names []string) catalog.Selection {
	if names == nil {
		return catalog.SelectAll(s.Catalog())
	}
	return catalog.NewSelection(names...)
}
