package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
)

func dashboardHandler(session *services.Session, currency string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := templates.Dashboard(handlers.DashboardData(session, currency)).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newSession(cfg *config.Config, logger *slog.Logger) (*services.Session, error) {
	variant, err := cfg.Ledger.ParseVariant()
	if err != nil {
		return nil, err
	}
	return services.NewSession(services.Options{
		Variant:       variant,
		ItemPrefix:    cfg.Ledger.ItemPrefix,
		StepDays:      cfg.Ledger.GridStepDays,
		DefaultWindow: cfg.Ledger.DefaultWindow,
	}, logger)
}

// preload loads the configured CSV files as the session's first load action.
func preload(ctx context.Context, session *services.Session, paths []string) (ingest.Report, error) {
	if len(paths) == 0 {
		return ingest.Report{}, nil
	}
	files := make([]ingest.File, len(paths))
	for i, p := range paths {
		files[i] = ingest.OSFile(p)
	}
	return session.Load(ctx, files, ledger.Unset)
}

func newHandler(cfg *config.Config, session *services.Session, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(session, cfg.Ledger.Currency),
	}
	srv := server.NewServer(session, logger, cfg.Ledger.Currency, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.MaxBodySize(cfg.Ledger.MaxUploadBytes()),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"variant", cfg.Ledger.Variant,
		"addr", cfg.Address(),
	)

	session, err := newSession(cfg, logger)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	report, err := preload(ctx, session, cfg.Ledger.Preload)
	cancel()
	if err != nil {
		logger.Error("failed to preload CSV data", "error", err, "files", cfg.Ledger.Preload)
		os.Exit(1)
	}
	if len(cfg.Ledger.Preload) > 0 {
		logger.Info("CSV data preloaded", "rows", report.Rows, "duration", report.Duration)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, session, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down session", "stats", session.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
