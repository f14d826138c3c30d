package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/latlon-grid/internal/cache"
	"github.com/mohammed-shakir/latlon-grid/internal/cache/matrixcache"
	"github.com/mohammed-shakir/latlon-grid/internal/cache/redisstore"
	"github.com/mohammed-shakir/latlon-grid/internal/core/config"
	"github.com/mohammed-shakir/latlon-grid/internal/core/health"
	"github.com/mohammed-shakir/latlon-grid/internal/core/router"
	"github.com/mohammed-shakir/latlon-grid/internal/core/server"
	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
	"github.com/mohammed-shakir/latlon-grid/internal/grid"
	"github.com/mohammed-shakir/latlon-grid/internal/logger"
	"github.com/mohammed-shakir/latlon-grid/internal/metrics"
	"github.com/mohammed-shakir/latlon-grid/internal/regions"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load env file", "path", *envFile, "err", err)
		return 1
	}
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "gridd",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	provider, err := geodesy.ByName(cfg.GeodesyModel)
	if err != nil {
		appLog.Error("invalid geodesy model", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]health.Check{}

	var l2 cache.Store
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		l2 = rc
		checks["redis"] = rc.Ping
	}

	matrices, err := matrixcache.New(matrixcache.Config{
		Size:      cfg.Matrix.CacheSize,
		TTL:       cfg.Matrix.CacheTTL,
		OpTimeout: cfg.CacheOpTimeout,
	}, l2, appLog.With("component", "matrixcache"))
	if err != nil {
		appLog.Error("matrix cache setup failed", "err", err)
		return 1
	}

	reg := regions.New(appLog.With("component", "regions"),
		grid.WithProvider(provider),
		grid.WithWorkers(cfg.Matrix.Workers),
	)
	// a replaced grid's cached matrix is unreachable, drop it
	reg.OnReplace(func(name string, old *grid.Grid) {
		if err := matrices.Invalidate(ctx, old); err != nil {
			appLog.Warn("matrix invalidation failed", "region", name, "err", err)
		}
	})
	extra, err := regions.ParseDefinitions(cfg.Regions)
	if err != nil {
		appLog.Error("invalid GRID_REGIONS", "err", err)
		return 1
	}
	for _, d := range extra {
		if err := reg.Register(d); err != nil {
			appLog.Error("register region", "region", d.Name, "err", err)
			return 1
		}
	}
	// fail fast on a broken default region
	g, err := reg.Grid(cfg.Region)
	if err != nil {
		appLog.Error("default region unusable", "region", cfg.Region, "err", err)
		return 1
	}

	checks["grid"] = func(context.Context) error {
		_, err := reg.Grid(cfg.Region)
		return err
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.Metrics.Addr,
			Path:    cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		if cfg.Metrics.Addr == cfg.Addr {
			metricsHandler = p.Handler()
		} else {
			serveMetrics(ctx, cfg.Metrics, p.Handler(), appLog)
		}
	}

	appLog.Info("starting gridd",
		"addr", cfg.Addr,
		"version", Version,
		"region", cfg.Region,
		"grid", g.String(),
		"geodesy", geodesy.NameOf(provider),
		"redis", cfg.RedisAddr != "")

	handler := server.NewHandler(appLog, router.New(appLog, reg, matrices, cfg.Matrix.MaxCells), checks,
		cfg.Metrics.Path, metricsHandler)
	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// serveMetrics exposes h on its own listener until ctx is canceled.
func serveMetrics(ctx context.Context, mc config.MetricsCfg, h http.Handler, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(mc.Path, h)
	srv := &http.Server{
		Addr:              mc.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("metrics listen", "addr", mc.Addr, "path", mc.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server exited", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics shutdown", "err", err)
		}
	}()
}
