// Package core provides the HTTP chassis for the estatehub pricing API.
// It builds a chi router and enforces the cross-cutting concerns (panic
// recovery, request ids, logging, CORS, metrics and error rendering) before
// requests reach the domain handlers.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"estatehub/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
type MetricsCollector interface {
	// RecordRequest records request latency and count. endpoint is the
	// matched route pattern, not the raw path.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of routes under /v1.
type RouteRegistrar func(r chi.Router)

// Server encapsulates all dependencies of the HTTP API, allowing for easy
// injection during testing.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// V1RouteRegistrars are populated by the entry point; core never imports
	// handler packages.
	V1RouteRegistrars []RouteRegistrar

	// OnShutdown hooks release resources (connection pools) after the
	// listener has drained.
	OnShutdown []func(context.Context) error

	router *chi.Mux
}

// NewServer initializes the server and its router. The caller mounts routes
// with MountRoutes after wiring registrars.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ListenAndServe serves on the configured port until ctx is cancelled, then
// drains in-flight requests within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.Config.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.requestTimeout() + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.Logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		s.Logger.Info("shutdown requested")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.Logger.Error("HTTP server shutdown error", "error", err)
	}
	return s.Shutdown(shutdownCtx)
}

// Shutdown runs the OnShutdown hooks in reverse registration order and
// returns the first error.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var first error
	for i := len(s.OnShutdown) - 1; i >= 0; i-- {
		if err := s.OnShutdown[i](ctx); err != nil {
			s.Logger.Error("shutdown hook failed", "error", err)
			if first == nil {
				first = fmt.Errorf("shutdown hook: %w", err)
			}
		}
	}

	s.Logger.Info("server shutdown complete")
	return first
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.Config.Server.ShutdownTimeout > 0 {
		return s.Config.Server.ShutdownTimeout
	}
	return 15 * time.Second
}
