package grid

import (
	"errors"
	"fmt"
)

// DegenerateGridError reports a bounding box and resolution that cannot form
// a grid: corners out of order, a non-positive resolution, or a resolution
// coarser than the region so that an axis ends up with zero bins.
type DegenerateGridError struct {
	Reason string
}

func (e *DegenerateGridError) Error() string {
	return "degenerate grid: " + e.Reason
}

func degenerate(format string, args ...any) error {
	return &DegenerateGridError{Reason: fmt.Sprintf(format, args...)}
}

// IndexOutOfRangeError is returned by the validating accessors when a cell
// index falls outside [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("cell index %d out of range [0, %d)", e.Index, e.Len)
}

// ErrMatrixTooLarge is returned by DistanceMatrix when N*N distances cannot
// be held in one slice.
var ErrMatrixTooLarge = errors.New("distance matrix too large")
