package grid

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// H3Cell returns the H3 cell at res containing the cell's reference
// coordinate, for consumers that key their data by H3.
func (g *Grid) H3Cell(index, res int) (string, error) {
	if err := g.check(index); err != nil {
		return "", err
	}
	if res < 0 || res > 15 {
		return "", fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	c := g.LocateRaw(index)
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lon}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return cell.String(), nil
}
