package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/latlon-grid/internal/core/config"
	"github.com/mohammed-shakir/latlon-grid/internal/core/health"
	"github.com/mohammed-shakir/latlon-grid/internal/core/router"
	"github.com/mohammed-shakir/latlon-grid/internal/logger"
	"github.com/mohammed-shakir/latlon-grid/internal/metrics"
	"github.com/mohammed-shakir/latlon-grid/internal/regions"
)

func TestNewHandler_ServesProbesRoutesAndMetrics(t *testing.T) {
	reg := regions.New(nil)
	checks := map[string]health.Check{
		"grid": func(context.Context) error {
			_, err := reg.Grid("beijing")
			return err
		},
	}
	p := metrics.Init(metrics.Config{Enabled: true})
	srv := httptest.NewServer(NewHandler(logger.Nop(), router.New(nil, reg, nil, 10), checks, "/metrics", p.Handler()))
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz", "/regions", "/regions/beijing/cells/3"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status=%d", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("%s: missing X-Request-ID", path)
		}
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{
		`http_requests_total{method="GET",route="/regions/{region}/cells/{index}",status="200"}`,
		`grid_builds_total{outcome="ok",region="beijing"}`,
		`grid_cells{region="beijing"} 575`,
		`app_build_info{`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %s", want)
		}
	}
}

func TestNewHandler_NoMetricsRouteWhenDisabled(t *testing.T) {
	h := NewHandler(logger.Nop(), router.New(nil, regions.New(nil), nil, 10), nil, "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404 with metrics disabled", rr.Code)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, config.Config{Addr: "127.0.0.1:0"}, logger.Nop(), http.NotFoundHandler())
	}()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
