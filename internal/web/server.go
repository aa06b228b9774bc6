// Package web provides the HTTP API and result pages for lead imports.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/LeadImport/internal/config"
	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	mw "github.com/JonMunkholm/LeadImport/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthCheck reports whether a dependency, usually the lead store, is
// reachable.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP server for the lead import service.
type Server struct {
	service *leadimport.Service
	cfg     *config.Config
	health  HealthCheck
	router  *chi.Mux
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck makes /healthz report failures of check.
func WithHealthCheck(check HealthCheck) Option {
	return func(s *Server) { s.health = check }
}

// NewServer creates a server for service.
func NewServer(service *leadimport.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

func (s *Server) setupRoutes() {
	timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)

	s.router.Get("/healthz", s.handleHealth)

	s.router.With(timeout).Get("/imports/{runID}", s.handleImportPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/fields", s.handleFields)
			r.Post("/imports/preview", s.handlePreview)
			r.Get("/imports/{runID}", s.handleImportStatus)
			r.Get("/imports/{runID}/result", s.handleImportResult)

			starts := r.With()
			if s.cfg.Rate.Enabled {
				starts = r.With(mw.NewRateLimiter(s.cfg.Rate.ImportLimit).Handler)
			}
			starts.Post("/imports", s.handleStartImport)
		})

		// progress streams outlive the request timeout
		r.Get("/imports/{runID}/progress", s.handleImportProgress)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	}
	status := http.StatusOK

	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			resp["status"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSONStatus(w, status, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
