// Package regions keeps named grid definitions and builds their grids on
// demand.
package regions

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
	"github.com/mohammed-shakir/latlon-grid/internal/core/observability"
	"github.com/mohammed-shakir/latlon-grid/internal/grid"
)

var ErrUnknownRegion = errors.New("unknown region")

type Definition struct {
	Name               string           `json:"name"`
	Northwest          model.Coordinate `json:"northwest"`
	Southeast          model.Coordinate `json:"southeast"`
	WidthResolutionKm  float64          `json:"width_resolution_km"`
	HeightResolutionKm float64          `json:"height_resolution_km"`
}

func (d Definition) Build(opts ...grid.Option) (*grid.Grid, error) {
	g, err := grid.New(d.Northwest, d.Southeast, d.WidthResolutionKm, d.HeightResolutionKm, opts...)
	if err != nil {
		return nil, fmt.Errorf("region %q: %w", d.Name, err)
	}
	return g, nil
}

// Beijing spans Haidian Park to Beijing North Station at 200 m cells.
func Beijing() Definition {
	return Definition{
		Name:               "beijing",
		Northwest:          model.Coordinate{Lat: 39.987099, Lon: 116.295261},
		Southeast:          model.Coordinate{Lat: 39.945003, Lon: 116.353967},
		WidthResolutionKm:  0.2,
		HeightResolutionKm: 0.2,
	}
}

// NewYork covers lower Midtown Manhattan at 200 m cells.
func NewYork() Definition {
	return Definition{
		Name:               "new-york",
		Northwest:          model.Coordinate{Lat: 40.7513, Lon: -74.0088},
		Southeast:          model.Coordinate{Lat: 40.7115, Lon: -73.9799},
		WidthResolutionKm:  0.2,
		HeightResolutionKm: 0.2,
	}
}

func Defaults() []Definition {
	return []Definition{Beijing(), NewYork()}
}

// Registry maps names to definitions and memoizes built grids. Grids are
// immutable so a memoized grid is shared by all callers.
type Registry struct {
	mu     sync.Mutex
	defs   map[string]Definition
	grids  map[string]*grid.Grid
	opts   []grid.Option
	logger *slog.Logger

	onReplace []func(name string, old *grid.Grid)
}

// New returns a registry holding the default regions; opts apply to every
// grid it builds.
func New(logger *slog.Logger, opts ...grid.Option) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		defs:   map[string]Definition{},
		grids:  map[string]*grid.Grid{},
		opts:   opts,
		logger: logger,
	}
	for _, d := range Defaults() {
		_ = r.Register(d)
	}
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// OnReplace registers fn to run after Register replaces a definition whose
// grid was already built; old is that discarded grid.
func (r *Registry) OnReplace(fn func(name string, old *grid.Grid)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReplace = append(r.onReplace, fn)
}

// Register adds or replaces a definition. The definition is not built until
// first use.
func (r *Registry) Register(d Definition) error {
	name := normalize(d.Name)
	if name == "" {
		return errors.New("region name is required")
	}
	d.Name = name

	r.mu.Lock()
	if _, ok := r.defs[name]; ok {
		r.logger.Info("replacing region definition", "region", name)
	}
	r.defs[name] = d
	old, built := r.grids[name]
	delete(r.grids, name)
	hooks := r.onReplace
	r.mu.Unlock()

	if built {
		for _, fn := range hooks {
			fn(name, old)
		}
	}
	return nil
}

func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.defs))
	for n := range r.defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Definition(name string) (Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[normalize(name)]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	return d, nil
}

// Grid builds the named region's grid on first use and returns the cached
// grid afterwards. Failed builds are not cached.
func (r *Registry) Grid(name string) (*grid.Grid, error) {
	key := normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.grids[key]; ok {
		return g, nil
	}
	d, ok := r.defs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}

	g, err := d.Build(r.opts...)
	if err != nil {
		observability.ObserveGridBuild(key, 0, err)
		r.logger.Warn("region grid build failed", "region", key, "err", err)
		return nil, err
	}
	observability.ObserveGridBuild(key, g.Len(), nil)
	r.logger.Debug("region grid built", "region", key, "grid", g.String())
	r.grids[key] = g
	return g, nil
}

// ParseDefinitions reads "name=nwLat:nwLon:seLat:seLon:res[:heightRes]"
// entries separated by ';'. A single res applies to both axes.
func ParseDefinitions(s string) ([]Definition, error) {
	var out []Definition
	for entry := range strings.SplitSeq(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, fields, ok := strings.Cut(entry, "=")
		name = normalize(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("region entry %q: want name=nwLat:nwLon:seLat:seLon:res", entry)
		}
		parts := strings.Split(fields, ":")
		if len(parts) != 5 && len(parts) != 6 {
			return nil, fmt.Errorf("region %q: want 5 or 6 ':'-separated numbers, got %d", name, len(parts))
		}
		nums := make([]float64, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("region %q field %d: %w", name, i+1, err)
			}
			nums[i] = f
		}
		d := Definition{
			Name:               name,
			Northwest:          model.Coordinate{Lat: nums[0], Lon: nums[1]},
			Southeast:          model.Coordinate{Lat: nums[2], Lon: nums[3]},
			WidthResolutionKm:  nums[4],
			HeightResolutionKm: nums[4],
		}
		if len(nums) == 6 {
			d.HeightResolutionKm = nums[5]
		}
		out = append(out, d)
	}
	return out, nil
}
