// Package router exposes region grids over HTTP.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/latlon-grid/internal/core/model"
	"github.com/mohammed-shakir/latlon-grid/internal/geodesy"
	"github.com/mohammed-shakir/latlon-grid/internal/grid"
	mylog "github.com/mohammed-shakir/latlon-grid/internal/logger"
	"github.com/mohammed-shakir/latlon-grid/internal/regions"
)

const (
	contentJSON    = "application/json"
	contentGeoJSON = "application/geo+json"

	defaultH3Res = 9
)

// Matrices supplies distance matrices, normally a *matrixcache.Cache.
type Matrices interface {
	Matrix(ctx context.Context, g *grid.Grid) (*grid.Matrix, error)
}

type Handlers struct {
	logger   *slog.Logger
	regions  *regions.Registry
	matrices Matrices
	maxCells int
}

// New wires the handlers. A nil matrices computes every matrix on demand.
func New(logger *slog.Logger, reg *regions.Registry, matrices Matrices, maxCells int) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{logger: logger, regions: reg, matrices: matrices, maxCells: maxCells}
}

// Mount registers every region route on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/regions", h.listRegions)
	r.Route("/regions/{region}", func(r chi.Router) {
		r.Get("/", h.summary)
		r.Get("/polygon", h.polygon)
		r.Get("/cells", h.cells)
		r.Get("/cells/{index}", h.cell)
		r.Get("/cells/{index}/neighbors", h.neighbors)
		r.Get("/cells/{index}/h3", h.h3)
		r.Get("/distance", h.distance)
		r.Get("/matrix", h.matrix)
		r.Get("/locate", h.locate)
	})
}

type summaryResponse struct {
	Name               string           `json:"name"`
	Northwest          model.Coordinate `json:"northwest"`
	Southeast          model.Coordinate `json:"southeast"`
	WidthResolutionKm  float64          `json:"width_resolution_km"`
	HeightResolutionKm float64          `json:"height_resolution_km"`
	WidthBins          int              `json:"width_bins"`
	HeightBins         int              `json:"height_bins"`
	LatResolution      float64          `json:"lat_resolution"`
	LonResolution      float64          `json:"lon_resolution"`
	Cells              int              `json:"cells"`
	Geodesy            string           `json:"geodesy"`
	BBox               string           `json:"bbox"`
}

type offsetResponse struct {
	XKm   float64 `json:"x_km"`
	YKm   float64 `json:"y_km"`
	Index int     `json:"index"`
}

type locateResponse struct {
	Index        int            `json:"index"`
	Row          int            `json:"row"`
	Col          int            `json:"col"`
	Inside       bool           `json:"inside"`
	Within       bool           `json:"within"`
	WithinMargin bool           `json:"within_margin"`
	Margin       float64        `json:"margin"`
	Offset       offsetResponse `json:"offset"`
}

func (h *Handlers) listRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, contentJSON, map[string][]string{"regions": h.regions.Names()})
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	g, name, ok := h.grid(w, r)
	if !ok {
		return
	}
	writeJSON(w, contentJSON, summaryResponse{
		Name:               name,
		Northwest:          g.Northwest(),
		Southeast:          g.Southeast(),
		WidthResolutionKm:  g.WidthResolutionKm(),
		HeightResolutionKm: g.HeightResolutionKm(),
		WidthBins:          g.WidthBins(),
		HeightBins:         g.HeightBins(),
		LatResolution:      g.LatResolution(),
		LonResolution:      g.LonResolution(),
		Cells:              g.Len(),
		Geodesy:            geodesy.NameOf(g.Provider()),
		BBox:               g.BBox().String(),
	})
}

func (h *Handlers) polygon(w http.ResponseWriter, r *http.Request) {
	g, _, ok := h.grid(w, r)
	if !ok {
		return
	}
	writeJSON(w, contentGeoJSON, g.OutlineFeature())
}

func (h *Handlers) cells(w http.ResponseWriter, r *http.Request) {
	g, _, ok := h.grid(w, r)
	if !ok {
		return
	}
	writeJSON(w, contentGeoJSON, g.FeatureCollection())
}

func (h *Handlers) cell(w http.ResponseWriter, r *http.Request) {
	g, idx, ok := h.gridAndIndex(w, r)
	if !ok {
		return
	}
	f, err := g.Feature(idx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, contentGeoJSON, f)
}

func (h *Handlers) neighbors(w http.ResponseWriter, r *http.Request) {
	g, idx, ok := h.gridAndIndex(w, r)
	if !ok {
		return
	}
	n, err := g.Neighbors(idx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, contentJSON, n)
}

func (h *Handlers) h3(w http.ResponseWriter, r *http.Request) {
	g, idx, ok := h.gridAndIndex(w, r)
	if !ok {
		return
	}
	res := defaultH3Res
	if raw := r.URL.Query().Get("res"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 15 {
			h.fail(w, r, badRequest("res must be an integer in 0..15, got %q", raw))
			return
		}
		res = v
	}
	cell, err := g.H3Cell(idx, res)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, contentJSON, map[string]any{"index": idx, "res": res, "h3": cell})
}

func (h *Handlers) distance(w http.ResponseWriter, r *http.Request) {
	g, _, ok := h.grid(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	from, err := parseIndex("from", q.Get("from"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := parseIndex("to", q.Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	km, err := g.CellDistance(from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, contentJSON, map[string]any{"from": from, "to": to, "km": km})
}

func (h *Handlers) matrix(w http.ResponseWriter, r *http.Request) {
	g, _, ok := h.grid(w, r)
	if !ok {
		return
	}
	if h.maxCells > 0 && g.Len() > h.maxCells {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("grid has %d cells, matrix limit is %d", g.Len(), h.maxCells))
		return
	}

	var (
		m   *grid.Matrix
		err error
	)
	if h.matrices != nil {
		m, err = h.matrices.Matrix(r.Context(), g)
	} else {
		m, err = g.DistanceMatrix(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows := make([][]float64, m.N())
	for i := range rows {
		rows[i] = m.Row(i)
	}
	writeJSON(w, contentJSON, map[string]any{"n": m.N(), "km": rows})
}

func (h *Handlers) locate(w http.ResponseWriter, r *http.Request) {
	g, _, ok := h.grid(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	lat, err := parseFloat("lat", q.Get("lat"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lon, err := parseFloat("lon", q.Get("lon"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	margin := grid.DefaultMargin
	if raw := q.Get("margin"); raw != "" {
		if margin, err = parseFloat("margin", raw); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	c := model.Coordinate{Lat: lat, Lon: lon}
	if err := geodesy.Validate(c); err != nil {
		h.fail(w, r, badRequest("%v", err))
		return
	}

	idx := g.Index(c)
	row, col := g.RowCol(idx)
	_, inside := g.CellAt(c)
	x, y, err := g.Offset(c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, contentJSON, locateResponse{
		Index:        idx,
		Row:          row,
		Col:          col,
		Inside:       inside,
		Within:       g.Within(c),
		WithinMargin: g.WithinMargin(c, margin),
		Margin:       margin,
		Offset:       offsetResponse{XKm: x, YKm: y, Index: g.OffsetIndex(x, y)},
	})
}

// grid resolves the {region} parameter, writing the error response itself
// when it cannot.
func (h *Handlers) grid(w http.ResponseWriter, r *http.Request) (*grid.Grid, string, bool) {
	name := strings.ToLower(chi.URLParam(r, "region"))
	g, err := h.regions.Grid(name)
	if err != nil {
		h.fail(w, r.WithContext(mylog.WithRegion(r.Context(), name)), err)
		return nil, name, false
	}
	return g, name, true
}

func (h *Handlers) gridAndIndex(w http.ResponseWriter, r *http.Request) (*grid.Grid, int, bool) {
	g, _, ok := h.grid(w, r)
	if !ok {
		return nil, 0, false
	}
	idx, err := parseIndex("index", chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, err)
		return nil, 0, false
	}
	return g, idx, true
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	} else {
		h.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		req *requestError
		dg  *grid.DegenerateGridError
		oor *grid.IndexOutOfRangeError
	)
	switch {
	case errors.As(err, &req):
		return http.StatusBadRequest
	case errors.Is(err, regions.ErrUnknownRegion), errors.As(err, &oor):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrMatrixTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &dg), errors.Is(err, geodesy.ErrInvalidCoordinate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseIndex(name, raw string) (int, error) {
	if raw == "" {
		return 0, badRequest("missing required parameter: %s", name)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, badRequest("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func parseFloat(name, raw string) (float64, error) {
	if raw == "" {
		return 0, badRequest("missing required parameter: %s", name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, badRequest("%s must be a number, got %q", name, raw)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
