package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/latlon-grid/internal/core/config"
	"github.com/mohammed-shakir/latlon-grid/internal/core/health"
	middleware "github.com/mohammed-shakir/latlon-grid/internal/core/middleware"
	"github.com/mohammed-shakir/latlon-grid/internal/core/router"
)

// NewHandler assembles the middleware chain and every route. metrics, when
// non-nil, is served at metricsPath on the same listener.
func NewHandler(logger *slog.Logger, h *router.Handlers, checks map[string]health.Check, metricsPath string, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, checks))
	if metrics != nil {
		r.Method(http.MethodGet, metricsPath, metrics)
	}
	h.Mount(r)
	return r
}

// Run serves until ctx is canceled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
