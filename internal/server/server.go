package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
)

type Server struct {
	session     *services.Session
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(session *services.Session, logger *slog.Logger, currency string, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		session:     session,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(session, logger, currency),
		sseHandlers: handlers.NewSSEHandlers(session, logger, currency),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// JSON API
	s.mux.HandleFunc("POST /api/upload", s.apiHandlers.HandleUpload)
	s.mux.HandleFunc("GET /api/items", s.apiHandlers.HandleItems)
	s.mux.HandleFunc("GET /api/items/search", s.apiHandlers.HandleSearch)
	s.mux.HandleFunc("GET /api/series", s.apiHandlers.HandleSeries)
	s.mux.HandleFunc("GET /api/countries", s.apiHandlers.HandleCountries)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
	s.mux.HandleFunc("GET /sse/select-all", s.sseHandlers.HandleSelectAll)
	s.mux.HandleFunc("GET /sse/select-none", s.sseHandlers.HandleSelectNone)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
