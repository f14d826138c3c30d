// Package keys derives cache keys for grid derived data.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
	"github.com/mohammed-shakir/latlon-grid/internal/grid"
)

// bumped whenever the encoded matrix layout changes
const matrixVersion = "v1"

// Canonical renders everything a grid's geometry depends on: both corners,
// both requested resolutions and the geodesy model. Floats use the shortest
// exact representation so equal grids always agree.
func Canonical(g *grid.Grid) string {
	nw, se := g.Northwest(), g.Southeast()
	parts := []string{
		ftoa(nw.Lat), ftoa(nw.Lon),
		ftoa(se.Lat), ftoa(se.Lon),
		ftoa(g.WidthResolutionKm()), ftoa(g.HeightResolutionKm()),
		sanitize(geodesy.NameOf(g.Provider())),
	}
	return strings.Join(parts, ",")
}

// MatrixKey is the cache key of a grid's distance matrix, e.g.
// "matrix:v1:wgs84:25x23:f=1c2d...". Bins are informational; the hash
// covers the canonical form.
func MatrixKey(g *grid.Grid) string {
	sum := xxhash.Sum64String(Canonical(g))
	return fmt.Sprintf("matrix:%s:%s:%dx%d:f=%016x",
		matrixVersion, sanitize(geodesy.NameOf(g.Provider())), g.WidthBins(), g.HeightBins(), sum)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		out := r
		if !isAlphaNum(r) && r != '-' && r != '_' {
			out = '-'
		}
		if out == '-' && prev == '-' {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
