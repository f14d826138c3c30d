package grid

import "github.com/mohammed-shakir/latlon-grid/internal/core/model"

// Within reports whether p lies strictly inside the grid's rectangle.
// Points on an edge are outside.
func (g *Grid) Within(p model.LatLoner) bool {
	return g.WithinMargin(p, 0)
}

// WithinMargin is Within with every edge pushed out by margin cell
// resolutions (LatResolution north/south, LonResolution east/west).
func (g *Grid) WithinMargin(p model.LatLoner, margin float64) bool {
	lat, lon := p.LatLon()
	dLat, dLon := margin*g.latRes, margin*g.lonRes
	return lat > g.southeast.Lat-dLat && lat < g.northwest.Lat+dLat &&
		lon > g.northwest.Lon-dLon && lon < g.southeast.Lon+dLon
}
