package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/models"
)

const maxWorkers = 4

// File is one input of a load action.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

func OSFile(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Report summarizes a finished load.
type Report struct {
	Files             []string      `json:"files"`
	Skipped           []string      `json:"skipped,omitempty"`
	Rows              int           `json:"rows"`
	RecoveredEarnings int           `json:"recovered_earnings"`
	Duration          time.Duration `json:"duration"`
}

type Loader struct {
	schema ledger.Schema
	logger *slog.Logger
}

func NewLoader(schema ledger.Schema, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{schema: schema, logger: logger}
}

// Load reads every .csv file concurrently and returns their sales
// concatenated in file order. Any failure discards the whole load.
func (l *Loader) Load(ctx context.Context, files []File) ([]models.Sale, Report, error) {
	start := time.Now()
	var report Report

	accepted := make([]File, 0, len(files))
	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			report.Skipped = append(report.Skipped, f.Name)
			continue
		}
		accepted = append(accepted, f)
		report.Files = append(report.Files, f.Name)
	}
	if len(accepted) == 0 {
		return nil, report, ledger.ErrNoFiles
	}

	results := make([][]models.Sale, len(accepted))
	recovered := make([]int, len(accepted))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, f := range accepted {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sales, n, err := l.loadFile(f)
			if err != nil {
				return err
			}
			results[i] = sales
			recovered[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	var all []models.Sale
	for i, sales := range results {
		all = append(all, sales...)
		report.RecoveredEarnings += recovered[i]
	}
	report.Rows = len(all)
	report.Duration = time.Since(start)

	l.logger.Info("ledger files loaded",
		"files", len(report.Files),
		"skipped", len(report.Skipped),
		"rows", report.Rows,
		"recovered_earnings", report.RecoveredEarnings,
		"variant", l.schema.Variant,
		"duration", report.Duration,
	)

	return all, report, nil
}

func (l *Loader) loadFile(f File) ([]models.Sale, int, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	rows, err := ReadRows(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", f.Name, err)
	}

	sales, recovered, err := ParseSales(rows, l.schema, f.Name)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	if recovered > 0 {
		l.logger.Debug("earnings treated as zero",
			"file", f.Name,
			"rows", recovered,
			"column", l.schema.Earnings,
		)
	}
	return sales, recovered, nil
}
