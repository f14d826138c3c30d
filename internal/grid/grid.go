// Package grid discretizes a northwest/southeast bounded region into a
// row-major grid of cells.
//
// Bin counts are calibrated once from the northern edge (width) and the
// western edge (height); the angular size of a bin is then uniform, so the
// physical width of a cell shrinks towards the pole side of the grid.
package grid

import (
	"fmt"
	"math"
	"runtime"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
)

// NoCell marks an absent neighbor.
const NoCell = -1

// DefaultMargin is the number of cell resolutions WithinMargin widens by.
const DefaultMargin = 2.0

// upper bound on bins per axis; keeps Len() and matrix sizing in int range
const maxBinsPerAxis = 1 << 20

// Grid is immutable once built; all methods are safe for concurrent use.
type Grid struct {
	northwest model.Coordinate
	southeast model.Coordinate

	widthResKm  float64
	heightResKm float64

	widthBins  int
	heightBins int

	latRes float64
	lonRes float64

	provider geodesy.Provider
	workers  int
}

type Option func(*Grid)

// WithProvider overrides the geodesy provider (WGS84 by default).
func WithProvider(p geodesy.Provider) Option {
	return func(g *Grid) {
		if p != nil {
			g.provider = p
		}
	}
}

// WithWorkers bounds the goroutines used by DistanceMatrix.
func WithWorkers(n int) Option {
	return func(g *Grid) {
		if n > 0 {
			g.workers = n
		}
	}
}

func New(northwest, southeast model.Coordinate, widthResKm, heightResKm float64, opts ...Option) (*Grid, error) {
	g := &Grid{
		northwest:   northwest,
		southeast:   southeast,
		widthResKm:  widthResKm,
		heightResKm: heightResKm,
		provider:    geodesy.WGS84,
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(g)
	}

	if !northwest.IsFinite() || !southeast.IsFinite() {
		return nil, degenerate("corners must be finite, got nw=%s se=%s", northwest, southeast)
	}
	if northwest.Lat <= southeast.Lat {
		return nil, degenerate("northwest latitude %v must be north of southeast latitude %v", northwest.Lat, southeast.Lat)
	}
	if northwest.Lon >= southeast.Lon {
		return nil, degenerate("northwest longitude %v must be west of southeast longitude %v", northwest.Lon, southeast.Lon)
	}
	if !positive(widthResKm) || !positive(heightResKm) {
		return nil, degenerate("resolutions must be positive, got width=%v height=%v", widthResKm, heightResKm)
	}

	widthSpan, err := g.provider.Distance(northwest, model.Coordinate{Lat: northwest.Lat, Lon: southeast.Lon})
	if err != nil {
		return nil, fmt.Errorf("grid width span: %w", err)
	}
	heightSpan, err := g.provider.Distance(northwest, model.Coordinate{Lat: southeast.Lat, Lon: northwest.Lon})
	if err != nil {
		return nil, fmt.Errorf("grid height span: %w", err)
	}

	wb := math.Floor(widthSpan / widthResKm)
	hb := math.Floor(heightSpan / heightResKm)
	if wb < 1 || hb < 1 {
		return nil, degenerate("resolution %vx%v km too coarse for %.3fx%.3f km region (bins %vx%v)",
			widthResKm, heightResKm, widthSpan, heightSpan, wb, hb)
	}
	if wb > maxBinsPerAxis || hb > maxBinsPerAxis {
		return nil, degenerate("resolution %vx%v km too fine for %.3fx%.3f km region", widthResKm, heightResKm, widthSpan, heightSpan)
	}

	g.widthBins = int(wb)
	g.heightBins = int(hb)
	g.latRes = (northwest.Lat - southeast.Lat) / float64(g.heightBins)
	g.lonRes = (southeast.Lon - northwest.Lon) / float64(g.widthBins)
	return g, nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

func (g *Grid) Northwest() model.Coordinate { return g.northwest }
func (g *Grid) Southeast() model.Coordinate { return g.southeast }

func (g *Grid) WidthResolutionKm() float64  { return g.widthResKm }
func (g *Grid) HeightResolutionKm() float64 { return g.heightResKm }

func (g *Grid) WidthBins() int  { return g.widthBins }
func (g *Grid) HeightBins() int { return g.heightBins }

// LatResolution is the angular height of a bin in degrees.
func (g *Grid) LatResolution() float64 { return g.latRes }

// LonResolution is the angular width of a bin in degrees.
func (g *Grid) LonResolution() float64 { return g.lonRes }

func (g *Grid) Provider() geodesy.Provider { return g.provider }

// Len is the number of cells.
func (g *Grid) Len() int { return g.widthBins * g.heightBins }

func (g *Grid) String() string {
	return fmt.Sprintf("Grid(w:%d, h:%d = %d)", g.widthBins, g.heightBins, g.Len())
}

// BBox returns the covered rectangle as x=lon, y=lat in EPSG:4326.
func (g *Grid) BBox() model.BBox {
	return model.BBox{
		X1:   g.northwest.Lon,
		Y1:   g.southeast.Lat,
		X2:   g.southeast.Lon,
		Y2:   g.northwest.Lat,
		SRID: "EPSG:4326",
	}
}
