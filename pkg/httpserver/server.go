package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mselser95/betview/internal/scenario"
	"github.com/mselser95/betview/internal/storage"
	"github.com/mselser95/betview/internal/view"
	"github.com/mselser95/betview/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides the display API, live slot updates, metrics and health checks.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration. The scenario API is mounted when
// Orchestrator and Board are set, the viewer endpoint when Hub is set.
type Config struct {
	Port           string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	HealthChecker  *healthprobe.HealthChecker
	Orchestrator   *scenario.Orchestrator
	Board          *view.Board
	Storage        storage.Storage
	Hub            http.Handler
	// CORSOrigins lists origins allowed to call the server; empty allows any.
	CORSOrigins []string
	// RunRateLimit caps scenario invocations per RunRateWindow per client IP.
	// Zero disables the limit.
	RunRateLimit  int
	RunRateWindow time.Duration
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	return &Server{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// NewRouter builds the route tree.
func NewRouter(cfg *Config) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(newCORS(cfg.CORSOrigins).Handler)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	// The upgraded connection outlives the request, so no timeout here.
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.ServeHTTP)
	}

	if cfg.Orchestrator != nil && cfg.Board != nil {
		h := NewScenarioHandler(cfg.Orchestrator, cfg.Board, cfg.Storage, cfg.Logger)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Get("/scenarios", h.HandleList)
			r.With(h.runLimiter(cfg.RunRateLimit, cfg.RunRateWindow)).
				Post("/scenarios/{scenario}", h.HandleRun)
			r.Get("/scenarios/{scenario}/slots", h.HandleSlots)
			r.Get("/last-report", h.HandleLastReport)
			r.Get("/odds", h.HandleOdds)
			r.Delete("/odds", h.HandleDeleteOdds)
			r.Get("/matches", h.HandleMatches)
			r.Get("/history", h.HandleHistory)
		})
	}

	return r
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
