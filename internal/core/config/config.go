package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type MatrixCfg struct {
	Workers   int
	MaxCells  int
	CacheSize int
	CacheTTL  time.Duration
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	Region         string
	Regions        string
	GeodesyModel   string
	RedisAddr      string
	CacheOpTimeout time.Duration
	Matrix         MatrixCfg
	Metrics        MetricsCfg
}

func FromEnv() Config {
	workers := getint("MATRIX_WORKERS", 0)
	if workers < 0 {
		workers = 0
	}
	maxCells := getint("MATRIX_MAX_CELLS", 2500)
	if maxCells < 1 {
		maxCells = 1
	}
	cacheSize := getint("MATRIX_CACHE_SIZE", 16)
	if cacheSize < 1 {
		cacheSize = 1
	}

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		LogSampleN:     getint("LOG_SAMPLE_N", 0),
		Region:         strings.ToLower(strings.TrimSpace(getenv("GRID_REGION", "beijing"))),
		Regions:        getenv("GRID_REGIONS", ""),
		GeodesyModel:   strings.ToLower(strings.TrimSpace(getenv("GEODESY_MODEL", "wgs84"))),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		Matrix: MatrixCfg{
			Workers:   workers,
			MaxCells:  maxCells,
			CacheSize: cacheSize,
			CacheTTL:  getduration("MATRIX_CACHE_TTL", 24*time.Hour),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
