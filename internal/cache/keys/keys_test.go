package keys

import (
	"regexp"
	"testing"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
	"github.com/mohammed-shakir/latlon-grid/internal/grid"
)

var (
	nw = model.Coordinate{Lat: 39.987099, Lon: 116.295261}
	se = model.Coordinate{Lat: 39.945003, Lon: 116.353967}
)

func mustGrid(t *testing.T, res float64, opts ...grid.Option) *grid.Grid {
	t.Helper()
	g, err := grid.New(nw, se, res, res, opts...)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return g
}

func TestMatrixKey_Deterministic(t *testing.T) {
	k1 := MatrixKey(mustGrid(t, 0.2))
	k2 := MatrixKey(mustGrid(t, 0.2))
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if !regexp.MustCompile(`^matrix:v1:wgs84:25x23:f=[0-9a-f]{16}$`).MatchString(k1) {
		t.Fatalf("unexpected key shape: %s", k1)
	}
}

func TestMatrixKey_DiffersByResolutionAndModel(t *testing.T) {
	base := MatrixKey(mustGrid(t, 0.2))
	if k := MatrixKey(mustGrid(t, 0.25)); k == base {
		t.Fatalf("different resolutions must produce different keys")
	}
	hv := MatrixKey(mustGrid(t, 0.2, grid.WithProvider(geodesy.Haversine)))
	if hv == base {
		t.Fatalf("different geodesy models must produce different keys")
	}
	if !regexp.MustCompile(`^matrix:v1:haversine:`).MatchString(hv) {
		t.Fatalf("unexpected key shape: %s", hv)
	}
}

func TestMatrixKey_WorkersDoNotAffectKey(t *testing.T) {
	if MatrixKey(mustGrid(t, 0.2, grid.WithWorkers(1))) != MatrixKey(mustGrid(t, 0.2, grid.WithWorkers(32))) {
		t.Fatalf("worker count is not part of the geometry")
	}
}

func TestCanonical(t *testing.T) {
	got := Canonical(mustGrid(t, 0.2))
	want := "39.987099,116.295261,39.945003,116.353967,0.2,0.2,wgs84"
	if got != want {
		t.Fatalf("canonical=%q want %q", got, want)
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"WGS84":        "wgs84",
		" my model!! ": "my-model-",
		"":             "",
		"a__b":         "a__b",
	}
	for in, want := range cases {
		if got := sanitize(in); got != want {
			t.Fatalf("sanitize(%q)=%q want %q", in, got, want)
		}
	}
}
