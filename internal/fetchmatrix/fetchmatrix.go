// Package fetchmatrix implements C2: reshaping a logical 2D address stream
// into bandwidth-wide rows, padded with the sentinel. Pure and stateless,
// grounded on read_buffer.set_fetch_matrix in scale-sim-v3.
package fetchmatrix

import "github.com/scalesim-go/sram/internal/interfaces"

// Address is re-exported so callers don't need a second import for it.
type Address = interfaces.Address

// NoAddress is the sentinel padding value.
const NoAddress = interfaces.NoAddress

// Matrix is the fetch matrix F: a sequence of rows, each exactly BW wide.
type Matrix struct {
	BW   int
	Rows [][]Address
}

// NumRows reports the row count.
func (m Matrix) NumRows() int {
	return len(m.Rows)
}

// Build reshapes a logical 2D address stream (row-major) into a Matrix of
// width bw, padding the final row's tail with NoAddress. Deterministic:
// the non-sentinel entries of the result, taken row-major, always equal
// the flattened input.
func Build(logical [][]Address, bw int) Matrix {
	flat := make([]Address, 0, len(logical)*bw)
	for _, row := range logical {
		flat = append(flat, row...)
	}

	numRows := (len(flat) + bw - 1) / bw
	if numRows == 0 {
		numRows = 1
	}

	rows := make([][]Address, numRows)
	for r := range rows {
		row := make([]Address, bw)
		for c := range row {
			row[c] = NoAddress
		}
		rows[r] = row
	}
	for i, a := range flat {
		rows[i/bw][i%bw] = a
	}

	return Matrix{BW: bw, Rows: rows}
}
