// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"math"
)

// Coordinate is a (latitude, longitude) pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) LatLon() (lat, lon float64) { return c.Lat, c.Lon }

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lon)
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lon) && !math.IsInf(c.Lon, 0)
}

// LatLoner is implemented by anything that can report a latitude and longitude,
// e.g. a record from an external point collection.
type LatLoner interface {
	LatLon() (lat, lon float64)
}

func CoordinateOf(p LatLoner) Coordinate {
	if c, ok := p.(Coordinate); ok {
		return c
	}
	lat, lon := p.LatLon()
	return Coordinate{Lat: lat, Lon: lon}
}

type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
	SRID   string
}

// String representation matching wfs/wms bbox format
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}
