package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
)

var (
	haidianNW = model.Coordinate{Lat: 39.987099, Lon: 116.295261}
	haidianSE = model.Coordinate{Lat: 39.945003, Lon: 116.353967}
)

func newHaidian(t *testing.T, resKm float64, opts ...Option) *Grid {
	t.Helper()
	g, err := New(haidianNW, haidianSE, resKm, resKm, opts...)
	require.NoError(t, err)
	return g
}

func TestNew_HaidianRegression(t *testing.T) {
	g := newHaidian(t, 0.2)

	assert.Equal(t, 25, g.WidthBins())
	assert.Equal(t, 23, g.HeightBins())
	assert.Equal(t, 575, g.Len())
	assert.Equal(t, "Grid(w:25, h:23 = 575)", g.String())

	assert.InDelta(t, (haidianNW.Lat-haidianSE.Lat)/23, g.LatResolution(), 1e-15)
	assert.InDelta(t, (haidianSE.Lon-haidianNW.Lon)/25, g.LonResolution(), 1e-15)

	first, err := g.Locate(0)
	require.NoError(t, err)
	assert.Equal(t, haidianNW, first, "cell 0 must sit exactly on the northwest corner")
	assert.Equal(t, 0, g.Index(haidianNW))
}

func TestNew_NewYorkRegression(t *testing.T) {
	g, err := New(model.Coordinate{Lat: 40.7513, Lon: -74.0088}, model.Coordinate{Lat: 40.7115, Lon: -73.9799}, 0.2, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 12, g.WidthBins())
	assert.Equal(t, 22, g.HeightBins())
}

func TestNew_HaversineAgreesOnBins(t *testing.T) {
	g := newHaidian(t, 0.2, WithProvider(geodesy.Haversine))
	assert.Equal(t, 25, g.WidthBins())
	assert.Equal(t, 23, g.HeightBins())
}

func TestNew_Degenerate(t *testing.T) {
	cases := []struct {
		name   string
		nw, se model.Coordinate
		w, h   float64
	}{
		{"resolution wider than region", haidianNW, haidianSE, 10, 0.2},
		{"resolution taller than region", haidianNW, haidianSE, 0.2, 10},
		{"resolution equals full span", haidianNW, haidianSE, 6, 5},
		{"corners swapped", haidianSE, haidianNW, 0.2, 0.2},
		{"northwest east of southeast", model.Coordinate{Lat: 40, Lon: 117}, model.Coordinate{Lat: 39, Lon: 116}, 0.2, 0.2},
		{"flat latitude", model.Coordinate{Lat: 40, Lon: 116}, model.Coordinate{Lat: 40, Lon: 117}, 0.2, 0.2},
		{"zero resolution", haidianNW, haidianSE, 0, 0.2},
		{"negative resolution", haidianNW, haidianSE, 0.2, -1},
		{"NaN resolution", haidianNW, haidianSE, math.NaN(), 0.2},
		{"NaN corner", model.Coordinate{Lat: math.NaN(), Lon: 116}, haidianSE, 0.2, 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := New(tc.nw, tc.se, tc.w, tc.h)
			require.Error(t, err)
			assert.Nil(t, g)
			var dg *DegenerateGridError
			assert.True(t, errors.As(err, &dg), "want DegenerateGridError, got %T: %v", err, err)
		})
	}
}

func TestNew_GeodesyErrorPropagates(t *testing.T) {
	_, err := New(model.Coordinate{Lat: 95, Lon: 10}, model.Coordinate{Lat: 80, Lon: 11}, 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, geodesy.ErrInvalidCoordinate)

	boom := errors.New("boom")
	failing := geodesy.Func(func(a, b model.Coordinate) (float64, error) { return 0, boom })
	_, err = New(haidianNW, haidianSE, 0.2, 0.2, WithProvider(failing))
	assert.ErrorIs(t, err, boom)
}

func TestIndex_RoundTripsEveryCell(t *testing.T) {
	g := newHaidian(t, 0.2)
	for i := 0; i < g.Len(); i++ {
		c, err := g.Locate(i)
		require.NoError(t, err)
		require.Equal(t, i, g.Index(c), "cell %d at %s", i, c)
		idx, ok := g.CellAt(c)
		require.True(t, ok)
		require.Equal(t, i, idx)
	}
}

func TestIndex_RowMajorLayout(t *testing.T) {
	g := newHaidian(t, 0.2)

	row, col := g.RowCol(26)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	last := g.LocateRaw(g.Len() - 1)
	assert.InDelta(t, haidianNW.Lat-22*g.LatResolution(), last.Lat, 1e-12)
	assert.InDelta(t, haidianNW.Lon+24*g.LonResolution(), last.Lon, 1e-12)

	// half a bin south-east of the corner is still cell 0
	mid := model.Coordinate{Lat: haidianNW.Lat - g.LatResolution()/2, Lon: haidianNW.Lon + g.LonResolution()/2}
	assert.Equal(t, 0, g.Index(mid))
}

type record struct {
	ID       string
	Lat, Lon float64
}

func (r record) LatLon() (float64, float64) { return r.Lat, r.Lon }

func TestIndexOf_AcceptsLatLoners(t *testing.T) {
	g := newHaidian(t, 0.2)
	c := g.LocateRaw(137)
	assert.Equal(t, 137, g.IndexOf(c))
	assert.Equal(t, 137, g.IndexOf(record{ID: "poi-1", Lat: c.Lat, Lon: c.Lon}))
}

func TestLocate_RawExtrapolatesCheckedFails(t *testing.T) {
	g := newHaidian(t, 0.2)

	for _, idx := range []int{-1, g.Len(), g.Len() + 30} {
		_, err := g.Locate(idx)
		var oor *IndexOutOfRangeError
		require.True(t, errors.As(err, &oor), "index %d: %v", idx, err)
		assert.Equal(t, idx, oor.Index)
		assert.Equal(t, g.Len(), oor.Len)

		raw := g.LocateRaw(idx)
		assert.False(t, g.Within(raw), "raw locate of %d should fall outside the grid", idx)
	}

	// one row past the last lands a full bin south of the last row
	below := g.LocateRaw(g.Len())
	assert.InDelta(t, haidianNW.Lat-23*g.LatResolution(), below.Lat, 1e-12)
	assert.InDelta(t, haidianNW.Lon, below.Lon, 1e-12)

	// -1 decodes with floor semantics to the last column of row -1
	above := g.LocateRaw(-1)
	assert.InDelta(t, haidianNW.Lat+g.LatResolution(), above.Lat, 1e-12)
	assert.InDelta(t, haidianNW.Lon+24*g.LonResolution(), above.Lon, 1e-12)
}

func TestCellAt_OutsideGrid(t *testing.T) {
	g := newHaidian(t, 0.2)
	for _, c := range []model.Coordinate{
		{Lat: haidianNW.Lat + 0.01, Lon: haidianNW.Lon + 0.01},
		{Lat: haidianNW.Lat - 0.01, Lon: haidianSE.Lon + 0.01},
		{Lat: haidianNW.Lat - 0.01, Lon: haidianNW.Lon - 0.01},
	} {
		idx, ok := g.CellAt(c)
		assert.False(t, ok, "%s", c)
		assert.Equal(t, NoCell, idx)
	}
}

func TestWithin_StrictAndMargin(t *testing.T) {
	g := newHaidian(t, 0.2)

	center := model.Coordinate{Lat: (haidianNW.Lat + haidianSE.Lat) / 2, Lon: (haidianNW.Lon + haidianSE.Lon) / 2}
	assert.True(t, g.Within(center))
	assert.False(t, g.Within(haidianNW), "edges are exclusive")
	assert.False(t, g.Within(haidianSE), "edges are exclusive")

	justNorth := model.Coordinate{Lat: haidianNW.Lat + g.LatResolution(), Lon: center.Lon}
	assert.False(t, g.Within(justNorth))
	assert.True(t, g.WithinMargin(justNorth, DefaultMargin))

	farWest := record{Lat: center.Lat, Lon: haidianNW.Lon - 3*g.LonResolution()}
	assert.False(t, g.WithinMargin(farWest, DefaultMargin))
	assert.True(t, g.WithinMargin(farWest, 4))
}

func TestBBox(t *testing.T) {
	g := newHaidian(t, 0.2)
	assert.Equal(t, "116.295261,39.945003,116.353967,39.987099,EPSG:4326", g.BBox().String())
}
