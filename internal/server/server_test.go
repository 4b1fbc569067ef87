package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sales-dashboard/internal/catalog"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/ledger"
	"sales-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: 2 * time.Second,
		},
	}
}

func TestServer_Routes(t *testing.T) {
	session, err := services.NewSession(services.Options{Variant: ledger.Store, ItemPrefix: catalog.DefaultPrefix}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	page := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	srv := NewServer(session, quietLogger(), "USD", &TemplateHandlers{Dashboard: page})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusTeapot},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/admin/stats", http.StatusOK},
		{http.MethodGet, "/api/items", http.StatusPreconditionFailed},
		{http.MethodGet, "/api/series", http.StatusPreconditionFailed},
		{http.MethodGet, "/api/upload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	httpServer := &http.Server{Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, quietLogger(), testConfig())

	var ran atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("server not serving: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	if ran.Load() != 1 {
		t.Errorf("hook ran %d times, want 1", ran.Load())
	}
}

func TestGracefulServer_HookError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, quietLogger(), testConfig())
	boom := errors.New("boom")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gs.Serve(ctx, ln); !errors.Is(err, boom) {
		t.Errorf("Serve() error = %v, want hook error", err)
	}
}
