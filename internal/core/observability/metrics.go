package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	gridBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_builds_total",
			Help: "Grid constructions by region and outcome.",
		},
		[]string{"region", "outcome"},
	)

	gridCells = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grid_cells",
			Help: "Number of cells in each built region grid.",
		},
		[]string{"region"},
	)

	distanceMatrixDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "distance_matrix_duration_seconds",
			Help:    "Time to compute a full cell distance matrix.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
		},
		[]string{"cells"},
	)

	matrixCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matrix_cache_results_total",
			Help: "Distance matrix cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		gridBuildsTotal,
		gridCells,
		distanceMatrixDurationSeconds,
		matrixCacheResults,
		cacheOpTotal,
		redisOpDurationSeconds,
	}
}

func init() {
	Init(prometheus.DefaultRegisterer)
}

// Init registers the service collectors on reg. Registering twice on the
// same registerer is a no-op.
func Init(reg prometheus.Registerer) {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveGridBuild(region string, cells int, err error) {
	if err != nil {
		gridBuildsTotal.WithLabelValues(region, "error").Inc()
		return
	}
	gridBuildsTotal.WithLabelValues(region, "ok").Inc()
	gridCells.WithLabelValues(region).Set(float64(cells))
}

// ObserveDistanceMatrix records a computation, bucketed by cell count order
// of magnitude to keep label cardinality flat.
func ObserveDistanceMatrix(cells int, durationSeconds float64) {
	distanceMatrixDurationSeconds.WithLabelValues(sizeClass(cells)).Observe(durationSeconds)
}

func IncMatrixCache(tier, outcome string) {
	matrixCacheResults.WithLabelValues(tier, outcome).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func sizeClass(cells int) string {
	switch {
	case cells <= 100:
		return "le_100"
	case cells <= 1000:
		return "le_1000"
	case cells <= 10000:
		return "le_10000"
	default:
		return "gt_10000"
	}
}
