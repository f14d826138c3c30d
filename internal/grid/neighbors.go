package grid

import "encoding/json"

type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Neighbors holds the adjacent cell in each Direction, or NoCell at a grid
// edge. There is no wraparound.
type Neighbors [4]int

// Present returns the existing neighbors in north, east, south, west order.
func (n Neighbors) Present() []int {
	out := make([]int, 0, len(n))
	for _, idx := range n {
		if idx != NoCell {
			out = append(out, idx)
		}
	}
	return out
}

// MarshalJSON renders absent neighbors as null.
func (n Neighbors) MarshalJSON() ([]byte, error) {
	m := make(map[string]*int, len(n))
	for d := North; d <= West; d++ {
		if n[d] == NoCell {
			m[d.String()] = nil
			continue
		}
		v := n[d]
		m[d.String()] = &v
	}
	return json.Marshal(m)
}

func (g *Grid) Neighbors(index int) (Neighbors, error) {
	if err := g.check(index); err != nil {
		return Neighbors{NoCell, NoCell, NoCell, NoCell}, err
	}
	return g.neighborsRaw(index), nil
}

// neighborsRaw computes tentative indices and drops the ones across an edge.
func (g *Grid) neighborsRaw(index int) Neighbors {
	row, col := g.RowCol(index)
	w := g.widthBins
	n := Neighbors{NoCell, NoCell, NoCell, NoCell}
	if row > 0 {
		n[North] = (row-1)*w + col
	}
	if col < w-1 {
		n[East] = row*w + col + 1
	}
	if row < g.heightBins-1 {
		n[South] = (row+1)*w + col
	}
	if col > 0 {
		n[West] = row*w + col - 1
	}
	return n
}
