package grid

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CellPolygon returns the closed [lon, lat] ring of a cell: a box of one
// resolution per axis centered on the cell's reference coordinate, ordered
// NW, SW, SE, NE, NW.
func (g *Grid) CellPolygon(index int) (orb.Ring, error) {
	if err := g.check(index); err != nil {
		return nil, err
	}
	return g.cellRing(index), nil
}

func (g *Grid) cellRing(index int) orb.Ring {
	c := g.LocateRaw(index)
	hw, hh := g.lonRes/2, g.latRes/2
	west, east := c.Lon-hw, c.Lon+hw
	north, south := c.Lat+hh, c.Lat-hh
	return orb.Ring{
		{west, north},
		{west, south},
		{east, south},
		{east, north},
		{west, north},
	}
}

// GridPolygon returns the grid's outer rectangle straight from its corners,
// in the same vertex order as CellPolygon. Unlike cells it is not inset by
// half a resolution.
func (g *Grid) GridPolygon() orb.Ring {
	nw, se := g.northwest, g.southeast
	return orb.Ring{
		{nw.Lon, nw.Lat},
		{nw.Lon, se.Lat},
		{se.Lon, se.Lat},
		{se.Lon, nw.Lat},
		{nw.Lon, nw.Lat},
	}
}

// Feature wraps CellPolygon as a GeoJSON Polygon feature.
func (g *Grid) Feature(index int) (*geojson.Feature, error) {
	if err := g.check(index); err != nil {
		return nil, err
	}
	return g.cellFeature(index), nil
}

func (g *Grid) cellFeature(index int) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{g.cellRing(index)})
	row, col := g.RowCol(index)
	f.Properties["index"] = index
	f.Properties["row"] = row
	f.Properties["col"] = col
	return f
}

// OutlineFeature wraps GridPolygon as a GeoJSON Polygon feature.
func (g *Grid) OutlineFeature() *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{g.GridPolygon()})
	f.Properties["width_bins"] = g.widthBins
	f.Properties["height_bins"] = g.heightBins
	return f
}

// FeatureCollection returns every cell's feature in index order.
func (g *Grid) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, g.Len())
	for i := 0; i < g.Len(); i++ {
		fc.Append(g.cellFeature(i))
	}
	return fc
}
