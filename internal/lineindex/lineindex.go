// Package lineindex implements C3: partitioning the fetch matrix into
// fixed-size lines for O(1) address -> (line, column) lookup, grounded on
// read_buffer.prepare_hashed_buffer in scale-sim-v3.
package lineindex

import (
	"math"

	"github.com/scalesim-go/sram/internal/fetchmatrix"
	"github.com/scalesim-go/sram/internal/interfaces"
)

// Address is re-exported for convenience.
type Address = interfaces.Address

// NoAddress is the sentinel padding value.
const NoAddress = interfaces.NoAddress

// Line is an ordered set of addresses: membership is O(1) via the index
// map, but insertion order is preserved so that, in layout mode (where a
// line corresponds exactly to one fetch-matrix row), the position of an
// address within the line recovers its original column.
type Line struct {
	order []Address
	pos   map[Address]int
	added int // entries added so far, repeats included
}

func newLine() *Line {
	return &Line{pos: make(map[Address]int)}
}

func (l *Line) add(a Address) {
	col := l.added
	l.added++
	if _, ok := l.pos[a]; ok {
		return
	}
	l.pos[a] = col
	l.order = append(l.order, a)
}

// Contains reports whether a is a member of the line.
func (l *Line) Contains(a Address) bool {
	_, ok := l.pos[a]
	return ok
}

// ColumnOf returns the position at which a first appeared in the line,
// counting repeated entries before it (only meaningful in layout mode,
// where line == fetch-matrix row).
func (l *Line) ColumnOf(a Address) int {
	return l.pos[a]
}

// Len reports the number of distinct addresses in the line.
func (l *Line) Len() int {
	return len(l.order)
}

// Index maps contiguous line IDs [0, NumLines) to address sets.
type Index struct {
	Lines       []*Line
	NumLines    int
	ElemsPerSet int
}

// ElemsPerSet computes the partition size for a given total capacity and
// mode, per spec §3: ceil(total/100) normally, or BW when layout
// evaluation is enabled (one line per fetch-matrix row).
func ElemsPerSet(totalSizeElems, bw int, layoutMode bool) int {
	if layoutMode {
		return bw
	}
	return int(math.Ceil(float64(totalSizeElems) / 100))
}

// Build walks m in row-major order, sealing a new line every elemsPerSet
// non-sentinel addresses. Preserves the source's quirk of always sealing
// one extra (possibly empty) trailing line after the walk, even if the
// last line was already sealed inside the loop (spec §9, design note 2).
func Build(m fetchmatrix.Matrix, elemsPerSet int) Index {
	var lines []*Line
	cur := newLine()
	elemCtr := 0

	for _, row := range m.Rows {
		for _, a := range row {
			if a != NoAddress {
				cur.add(a)
				elemCtr++
			}
			if elemCtr >= elemsPerSet {
				lines = append(lines, cur)
				cur = newLine()
				elemCtr = 0
			}
		}
	}
	lines = append(lines, cur)

	return Index{Lines: lines, NumLines: len(lines), ElemsPerSet: elemsPerSet}
}
