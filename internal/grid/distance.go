package grid

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
)

// largest N whose N*N float64 values fit in addressable memory
var maxMatrixCells = int(math.Sqrt(float64(math.MaxInt / 8)))

// Matrix is a dense, row-major N×N matrix of kilometers.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix wraps row-major data; len(data) must be n*n.
func NewMatrix(n int, data []float64) (*Matrix, error) {
	if n < 0 || len(data) != n*n {
		return nil, fmt.Errorf("matrix data has %d values, want %d", len(data), n*n)
	}
	return &Matrix{n: n, data: data}, nil
}

func (m *Matrix) N() int { return m.n }

func (m *Matrix) At(x, y int) float64 { return m.data[x*m.n+y] }

// Row returns row x; the slice aliases the matrix and must not be modified.
func (m *Matrix) Row(x int) []float64 { return m.data[x*m.n : (x+1)*m.n] }

// Data returns the backing row-major slice; it must not be modified.
func (m *Matrix) Data() []float64 { return m.data }

// CellDistance is the geodesic distance in km between two cells' reference
// coordinates.
func (g *Grid) CellDistance(i, j int) (float64, error) {
	if err := g.check(i); err != nil {
		return 0, err
	}
	if err := g.check(j); err != nil {
		return 0, err
	}
	return g.distanceBetween(g.LocateRaw(i), g.LocateRaw(j))
}

func (g *Grid) distanceBetween(a, b model.Coordinate) (float64, error) {
	if a == b {
		return 0, nil
	}
	d, err := g.provider.Distance(a, b)
	if err != nil {
		return 0, fmt.Errorf("geodesic %s -> %s: %w", a, b, err)
	}
	return d, nil
}

// DistanceMatrix computes CellDistance for every pair of cells. Rows are
// spread over the grid's worker limit; each unordered pair is computed once
// and mirrored. ctx is checked between rows.
func (g *Grid) DistanceMatrix(ctx context.Context) (*Matrix, error) {
	n := g.Len()
	if n > maxMatrixCells {
		return nil, fmt.Errorf("%w: %d cells, limit %d", ErrMatrixTooLarge, n, maxMatrixCells)
	}
	centers := make([]model.Coordinate, n)
	for i := range centers {
		centers[i] = g.LocateRaw(i)
	}
	data := make([]float64, n*n)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for x := 0; x < n; x++ {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for y := x + 1; y < n; y++ {
				d, err := g.distanceBetween(centers[x], centers[y])
				if err != nil {
					return fmt.Errorf("distance matrix (%d,%d): %w", x, y, err)
				}
				data[x*n+y] = d
				data[y*n+x] = d
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// a canceled parent may have stopped the loop before any row failed
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Matrix{n: n, data: data}, nil
}
