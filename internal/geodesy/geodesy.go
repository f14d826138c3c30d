// Package geodesy computes distances between geographic coordinates.
package geodesy

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/tidwall/geodesic"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Provider returns the distance in kilometers between two coordinates.
// Implementations must be pure and safe for concurrent use.
type Provider interface {
	Distance(a, b model.Coordinate) (float64, error)
}

// Named is implemented by providers that can identify their earth model.
type Named interface {
	Name() string
}

// Func adapts a plain distance function to a Provider.
type Func func(a, b model.Coordinate) (float64, error)

func (f Func) Distance(a, b model.Coordinate) (float64, error) { return f(a, b) }

type namedFunc struct {
	name string
	f    Func
}

// NamedFunc is a Func that reports name. Providers without a name are
// never shared through the distance matrix cache, so two custom providers
// must carry different names to be cached side by side.
func NamedFunc(name string, f Func) Provider {
	return namedFunc{name: name, f: f}
}

func (n namedFunc) Name() string { return n.name }

func (n namedFunc) Distance(a, b model.Coordinate) (float64, error) { return n.f(a, b) }

type wgs84 struct{}

// WGS84 measures along the WGS84 ellipsoid (Karney's inverse solution).
var WGS84 Provider = wgs84{}

func (wgs84) Name() string { return "wgs84" }

func (wgs84) Distance(a, b model.Coordinate) (float64, error) {
	if err := validatePair(a, b); err != nil {
		return 0, err
	}
	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &meters, nil, nil)
	return meters / 1000, nil
}

type haversine struct{}

// Haversine measures great-circle distance on a sphere of orb.EarthRadius.
var Haversine Provider = haversine{}

func (haversine) Name() string { return "haversine" }

func (haversine) Distance(a, b model.Coordinate) (float64, error) {
	if err := validatePair(a, b); err != nil {
		return 0, err
	}
	return geo.DistanceHaversine(orb.Point{a.Lon, a.Lat}, orb.Point{b.Lon, b.Lat}) / 1000, nil
}

// ByName resolves a provider from its configured name.
func ByName(name string) (Provider, error) {
	switch name {
	case "", "wgs84":
		return WGS84, nil
	case "haversine":
		return Haversine, nil
	default:
		return nil, fmt.Errorf("unknown geodesy model %q (want wgs84|haversine)", name)
	}
}

// NameOf returns the provider's name, or "custom" for anonymous providers.
func NameOf(p Provider) string {
	if name, ok := IsNamed(p); ok {
		return name
	}
	return "custom"
}

// IsNamed reports p's name and whether it identifies its earth model. An
// empty name counts as anonymous.
func IsNamed(p Provider) (string, bool) {
	n, ok := p.(Named)
	if !ok || n.Name() == "" {
		return "", false
	}
	return n.Name(), true
}

func Validate(c model.Coordinate) error {
	if !c.IsFinite() {
		return fmt.Errorf("%w: %s is not finite", ErrInvalidCoordinate, c)
	}
	if math.Abs(c.Lat) > 90 {
		return fmt.Errorf("%w: latitude %v out of [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.Abs(c.Lon) > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

func validatePair(a, b model.Coordinate) error {
	if err := Validate(a); err != nil {
		return err
	}
	return Validate(b)
}
