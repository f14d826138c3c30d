// Package matrixcache memoizes grid distance matrices in an in-process LRU
// with an optional shared Redis tier behind it.
package matrixcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/mohammed-shakir/latlon-grid/internal/cache"
	"github.com/mohammed-shakir/latlon-grid/internal/cache/keys"
	"github.com/mohammed-shakir/latlon-grid/internal/core/observability"
	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
	"github.com/mohammed-shakir/latlon-grid/internal/grid"
)

type Config struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
}

type Cache struct {
	cfg    Config
	l1     *lru.Cache[string, *grid.Matrix]
	l2     cache.Store
	sf     singleflight.Group
	logger *slog.Logger
}

// New builds a cache. l2 may be nil, in which case only the LRU is used.
// Remote tier failures are logged and treated as misses.
func New(cfg Config, l2 cache.Store, logger *slog.Logger) (*Cache, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("matrix cache size must be positive, got %d", cfg.Size)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l1, err := lru.New[string, *grid.Matrix](cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("matrix lru: %w", err)
	}
	return &Cache{cfg: cfg, l1: l1, l2: l2, logger: logger}, nil
}

// Matrix returns g's distance matrix, computing it at most once per key
// across concurrent callers. The returned matrix is shared and read-only.
// Grids on an anonymous provider cannot be told apart by key and are always
// computed.
func (c *Cache) Matrix(ctx context.Context, g *grid.Grid) (*grid.Matrix, error) {
	if _, ok := geodesy.IsNamed(g.Provider()); !ok {
		observability.IncMatrixCache("lru", "bypass")
		return c.compute(ctx, g)
	}
	key := keys.MatrixKey(g)
	if m, ok := c.l1.Get(key); ok {
		observability.IncMatrixCache("lru", "hit")
		return m, nil
	}
	observability.IncMatrixCache("lru", "miss")

	v, err, _ := c.sf.Do(key, func() (any, error) {
		return c.fill(ctx, key, g)
	})
	if err != nil {
		return nil, err
	}
	return v.(*grid.Matrix), nil
}

func (c *Cache) fill(ctx context.Context, key string, g *grid.Grid) (*grid.Matrix, error) {
	// another flight may have landed between the lru miss and now
	if m, ok := c.l1.Get(key); ok {
		return m, nil
	}
	if m := c.fromRemote(ctx, key, g.Len()); m != nil {
		c.l1.Add(key, m)
		return m, nil
	}

	m, err := c.compute(ctx, g)
	if err != nil {
		return nil, err
	}
	c.l1.Add(key, m)
	c.toRemote(ctx, key, m)
	return m, nil
}

func (c *Cache) compute(ctx context.Context, g *grid.Grid) (*grid.Matrix, error) {
	start := time.Now()
	m, err := g.DistanceMatrix(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute distance matrix: %w", err)
	}
	took := time.Since(start)
	observability.ObserveDistanceMatrix(g.Len(), took.Seconds())
	c.logger.DebugContext(ctx, "distance matrix computed", "grid", g.String(), "cells", g.Len(), "took", took)
	return m, nil
}

func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.OpTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.OpTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Cache) fromRemote(ctx context.Context, key string, cells int) *grid.Matrix {
	if c.l2 == nil {
		return nil
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	raw, found, err := c.l2.Get(opCtx, key)
	switch {
	case err != nil:
		observability.IncMatrixCache("redis", "error")
		c.logger.WarnContext(ctx, "matrix cache get failed", "key", key, "err", err)
		return nil
	case !found:
		observability.IncMatrixCache("redis", "miss")
		return nil
	}

	m, err := Decode(raw)
	if err == nil && m.N() != cells {
		err = fmt.Errorf("%w: n=%d, grid has %d cells", errCorrupt, m.N(), cells)
	}
	if err != nil {
		observability.IncMatrixCache("redis", "error")
		c.logger.WarnContext(ctx, "discarding cached matrix", "key", key, "err", err)
		return nil
	}
	observability.IncMatrixCache("redis", "hit")
	return m
}

func (c *Cache) toRemote(ctx context.Context, key string, m *grid.Matrix) {
	if c.l2 == nil {
		return
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.l2.Set(opCtx, key, Encode(m), c.cfg.TTL); err != nil {
		c.logger.WarnContext(ctx, "matrix cache set failed", "key", key, "err", err)
	}
}

// Invalidate drops g's matrix from both tiers.
func (c *Cache) Invalidate(ctx context.Context, g *grid.Grid) error {
	if _, ok := geodesy.IsNamed(g.Provider()); !ok {
		return nil
	}
	key := keys.MatrixKey(g)
	c.l1.Remove(key)
	if c.l2 == nil {
		return nil
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.l2.Del(opCtx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// Len is the number of matrices held in process.
func (c *Cache) Len() int { return c.l1.Len() }

func IsCorrupt(err error) bool { return errors.Is(err, errCorrupt) }
