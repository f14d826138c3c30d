package grid

import (
	"fmt"
	"math"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
)

// The offset scheme quantizes physical distance from the grid's western and
// northern edges instead of degrees. It reuses WidthBins as the row stride
// but otherwise disagrees with Index: cells are exactly the requested
// resolution here, while Index cells are the region divided evenly into
// floor(span/resolution) bins. The two are deliberately kept separate.

// Offset returns the distance in km from the western edge (measured along
// c's parallel) and from the northern edge (along c's meridian).
func (g *Grid) Offset(c model.Coordinate) (xKm, yKm float64, err error) {
	xKm, err = g.distanceBetween(model.Coordinate{Lat: c.Lat, Lon: g.northwest.Lon}, c)
	if err != nil {
		return 0, 0, fmt.Errorf("offset x: %w", err)
	}
	yKm, err = g.distanceBetween(model.Coordinate{Lat: g.northwest.Lat, Lon: c.Lon}, c)
	if err != nil {
		return 0, 0, fmt.Errorf("offset y: %w", err)
	}
	return xKm, yKm, nil
}

// OffsetIndex quantizes a planar offset into an index. Not range checked.
func (g *Grid) OffsetIndex(xKm, yKm float64) int {
	col := int(math.Floor(xKm / g.widthResKm))
	row := int(math.Floor(yKm / g.heightResKm))
	return col + row*g.widthBins
}
