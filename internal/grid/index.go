package grid

import (
	"math"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
)

// quotients closer than this to a bin boundary snap onto it, so that a
// cell's own reference coordinate quantizes back into that cell
const snapEpsilon = 1e-9

// RowCol decodes an index with floor semantics; negative or oversized
// indices decode to rows/cols outside the grid.
func (g *Grid) RowCol(index int) (row, col int) {
	row = floorDiv(index, g.widthBins)
	col = index - row*g.widthBins
	return row, col
}

func (g *Grid) Contains(index int) bool {
	return index >= 0 && index < g.Len()
}

func (g *Grid) check(index int) error {
	if !g.Contains(index) {
		return &IndexOutOfRangeError{Index: index, Len: g.Len()}
	}
	return nil
}

// LocateRaw returns the reference coordinate of a cell without range
// checking. Indices outside the grid extrapolate past its edges. Callers
// outside this package should prefer Locate.
func (g *Grid) LocateRaw(index int) model.Coordinate {
	row, col := g.RowCol(index)
	return model.Coordinate{
		Lat: g.northwest.Lat - float64(row)*g.latRes,
		Lon: g.northwest.Lon + float64(col)*g.lonRes,
	}
}

// Locate is LocateRaw restricted to valid indices.
func (g *Grid) Locate(index int) (model.Coordinate, error) {
	if err := g.check(index); err != nil {
		return model.Coordinate{}, err
	}
	return g.LocateRaw(index), nil
}

// Index quantizes a coordinate into a row-major cell index. The result is
// not range checked: coordinates outside the grid give indices outside
// [0, Len) or alias into another row. Use CellAt when that matters.
func (g *Grid) Index(c model.Coordinate) int {
	row, col := g.quantize(c)
	return row*g.widthBins + col
}

// IndexOf is Index for any value exposing a latitude and longitude.
func (g *Grid) IndexOf(p model.LatLoner) int {
	return g.Index(model.CoordinateOf(p))
}

// CellAt returns the cell containing c and whether c falls inside the grid.
func (g *Grid) CellAt(c model.Coordinate) (int, bool) {
	row, col := g.quantize(c)
	if row < 0 || row >= g.heightBins || col < 0 || col >= g.widthBins {
		return NoCell, false
	}
	return row*g.widthBins + col, true
}

func (g *Grid) quantize(c model.Coordinate) (row, col int) {
	col = snapFloor((c.Lon - g.northwest.Lon) / g.lonRes)
	row = snapFloor((g.northwest.Lat - c.Lat) / g.latRes)
	return row, col
}

func snapFloor(q float64) int {
	if r := math.Round(q); math.Abs(q-r) < snapEpsilon {
		return int(r)
	}
	return int(math.Floor(q))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
