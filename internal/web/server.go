// Package web provides the HTTP API and report pages for validation runs.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/tablecheck/internal/config"
	"github.com/JonMunkholm/tablecheck/internal/core"
	"github.com/JonMunkholm/tablecheck/internal/web/middleware"
)

// DefaultMaxBodySize bounds a posted descriptor when Options leaves it zero.
const DefaultMaxBodySize = 1 << 20

// Options configure a Server.
type Options struct {
	// DataRoot confines the local data paths of posted descriptors.
	DataRoot    string
	MaxBodySize int64

	// RequestTimeout is applied to every request. Zero disables it.
	RequestTimeout time.Duration

	Rate     config.RateLimitConfig
	Security config.SecurityConfig

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// OptionsFromConfig builds server options from application configuration.
func OptionsFromConfig(cfg *config.Config, g prometheus.Gatherer) Options {
	return Options{
		DataRoot:       cfg.Validation.DataRoot,
		MaxBodySize:    cfg.Validation.MaxBodySize,
		RequestTimeout: cfg.Server.RequestTimeout,
		Rate:           cfg.Rate,
		Security:       cfg.Security,
		Gatherer:       g,
	}
}

// Server is the HTTP server for validation runs and reports.
type Server struct {
	service *core.Service
	opts    Options
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a server. ctx bounds the background work of the rate
// limiters.
func NewServer(ctx context.Context, service *core.Service, opts Options) *Server {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.DataRoot == "" {
		opts.DataRoot = "."
	}
	s := &Server{
		service: service,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware(ctx)
	s.setupRoutes(ctx)
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.opts.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	if s.opts.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.opts.RequestTimeout))
	}
	s.router.Use(middleware.SecurityHeaders)

	if s.opts.Rate.Enabled && s.opts.Rate.RequestsPerMinute > 0 {
		s.router.Use(middleware.NewRateLimiter(ctx, s.opts.Rate.RequestsPerMinute).Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Pages
	s.router.Get("/reports/{id}", s.handleReportPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.opts.Security.RequireAPIKey, s.opts.Security.APIKeys))

		validate := r.With()
		if s.opts.Rate.Enabled && s.opts.Rate.ValidateLimit > 0 {
			validate = r.With(middleware.NewRateLimiter(ctx, s.opts.Rate.ValidateLimit).Middleware)
		}
		validate.Post("/validate", s.handleValidate)

		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start(cfg config.ServerConfig) error {
	addr := cfg.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
