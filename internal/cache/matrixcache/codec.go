package matrixcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/mohammed-shakir/latlon-grid/internal/grid"
)

var magic = [4]byte{'L', 'G', 'M', '1'}

const headerLen = 8

var errCorrupt = errors.New("corrupt matrix payload")

// Encode lays out a matrix as magic, uint32 N, then N*N little-endian
// float64 values in row-major order.
func Encode(m *grid.Matrix) []byte {
	data := m.Data()
	buf := make([]byte, headerLen+8*len(data))
	copy(buf, magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.N()))
	off := headerLen
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}
	return buf
}

func Decode(b []byte) (*grid.Matrix, error) {
	if len(b) < headerLen || [4]byte(b[:4]) != magic {
		return nil, fmt.Errorf("%w: bad header", errCorrupt)
	}
	n := int(binary.LittleEndian.Uint32(b[4:8]))
	if want := headerLen + 8*n*n; len(b) != want {
		return nil, fmt.Errorf("%w: %d bytes for n=%d, want %d", errCorrupt, len(b), n, want)
	}
	data := make([]float64, n*n)
	off := headerLen
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
		off += 8
	}
	return grid.NewMatrix(n, data)
}
