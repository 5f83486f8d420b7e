// Package doublebuffer implements C4: the double-buffered window state
// machine that rotates an active line range and a prefetch line range over
// the hashed line index, servicing hits against the active window while the
// prefetch window is filled from the backing port. Grounded on
// scalesim/memory/read_buffer.py (prefetch_active_buffer, new_prefetch,
// active_buffer_set_hit_or_miss) in scale-sim-v3.
package doublebuffer

import (
	"errors"

	"github.com/scalesim-go/sram/internal/backing"
	"github.com/scalesim-go/sram/internal/fetchmatrix"
	"github.com/scalesim-go/sram/internal/interfaces"
	"github.com/scalesim-go/sram/internal/lineindex"
)

// Address and NoAddress are re-exported for convenience.
type Address = interfaces.Address

const NoAddress = interfaces.NoAddress

// State tracks whether the initial fill has run yet. Every operation other
// than PrefetchActiveBuffer requires Ready; calling them first is a usage
// error, not a panic, since it reflects caller sequencing rather than a
// broken invariant of the simulator itself.
type State int

const (
	Uninitialized State = iota
	Ready
)

// ErrNotReady is returned by NewPrefetch and ActiveBufferHit when called
// before PrefetchActiveBuffer has run.
var ErrNotReady = errors.New("doublebuffer: active buffer not yet initialized")

// TraceRow is one row of the cumulative DRAM transaction trace T: the
// address row that was fetched and the cycle at which it completed.
type TraceRow struct {
	ResponseCycle int64
	Addrs         []Address
}

// Config bundles the sizing decisions a Buffer needs, derived from
// BufferParams one layer up (elements, not bytes).
type Config struct {
	BW               int
	ActiveBufSize    int // active window capacity, in elements
	PrefetchBufSize  int // prefetch window capacity, in elements
	NumActiveLines   int // active window width, in lines
	NumPrefetchLines int // prefetch window width, in lines
	LayoutMode       bool
}

// Buffer is C4: the window rotation state machine.
type Buffer struct {
	cfg    Config
	matrix fetchmatrix.Matrix
	index  lineindex.Index
	port   interfaces.Port
	log    interfaces.Logger

	state    State
	active   lineindex.Ring
	prefetch lineindex.Ring

	nextLineIdx int
	nextColIdx  int

	lastPrefetchCycle int64
	numAccess         int64
	trace             []TraceRow
}

// New constructs a Buffer over a pre-built fetch matrix and line index.
func New(cfg Config, matrix fetchmatrix.Matrix, index lineindex.Index, port interfaces.Port, log interfaces.Logger) *Buffer {
	if log == nil {
		log = interfaces.NopLogger{}
	}
	return &Buffer{cfg: cfg, matrix: matrix, index: index, port: port, log: log.Named("doublebuffer")}
}

// State reports whether the initial fill has happened yet.
func (b *Buffer) State() State { return b.state }

// NumAccess reports the cumulative element count issued to the backing port.
func (b *Buffer) NumAccess() int64 { return b.numAccess }

// Trace returns the cumulative DRAM transaction trace, in issue order.
func (b *Buffer) Trace() []TraceRow { return b.trace }

// LastPrefetchCycle returns the completion cycle of the most recent prefetch
// row. NewPrefetch schedules its block right after it; callers compare it
// against their own cycle to work out how long a miss stalls them.
func (b *Buffer) LastPrefetchCycle() int64 { return b.lastPrefetchCycle }

// ActiveWindow and PrefetchWindow expose the current line ranges, mainly for
// tests asserting invariant 3 (disjoint, correctly sized windows).
func (b *Buffer) ActiveWindow() lineindex.Ring   { return b.active }
func (b *Buffer) PrefetchWindow() lineindex.Ring { return b.prefetch }

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxOf(vals []int64) int64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// copyRows returns pooled, mutable copies of matrix rows [start, end).
func (b *Buffer) copyRows(start, end int) [][]Address {
	n := end - start
	rows := make([][]Address, n)
	for i := 0; i < n; i++ {
		row := backing.GetRow(b.cfg.BW)
		copy(row, b.matrix.Rows[start+i])
		rows[i] = row
	}
	return rows
}

func releaseRows(rows [][]Address) {
	for _, r := range rows {
		backing.PutRow(r)
	}
}

// appendTrace records a serviced block into the cumulative trace, copying
// each row out of the (pooled, about-to-be-released) request block into an
// owned slice.
func (b *Buffer) appendTrace(responses []int64, block [][]Address) {
	for i, resp := range responses {
		addrs := make([]Address, len(block[i]))
		copy(addrs, block[i])
		b.trace = append(b.trace, TraceRow{ResponseCycle: resp, Addrs: addrs})
	}
}

// PrefetchActiveBuffer performs the initial fill (spec §4.4, "Initial
// fill"): it loads enough leading rows of the fetch matrix to cover the
// active window's capacity, schedules them against the backing port
// anchored so the active window is ready by startCycle, and returns the
// residual DRAM stall the caller should fold into its own cycle counter.
func (b *Buffer) PrefetchActiveBuffer(startCycle int64) int64 {
	rows := b.matrix.NumRows()
	numLines := ceilDiv(b.cfg.ActiveBufSize, b.cfg.BW)
	if numLines >= rows {
		numLines = rows
	}

	requestedDataSize := numLines * b.cfg.BW
	b.numAccess += int64(requestedDataSize)

	block := b.copyRows(0, numLines)

	b.nextColIdx = 0
	if requestedDataSize > b.cfg.ActiveBufSize {
		validCols := b.cfg.ActiveBufSize % b.cfg.BW
		b.nextColIdx = validCols
		last := block[len(block)-1]
		for c := validCols; c < b.cfg.BW; c++ {
			last[c] = NoAddress
		}
	}

	cycles := make([]int64, numLines)
	for i := 0; i < numLines; i++ {
		cycles[i] = startCycle + int64(i) - b.port.Latency() - int64(numLines)
	}

	responses := b.port.ServiceReads(block, cycles)
	b.lastPrefetchCycle = maxOf(responses)
	b.appendTrace(responses, block)
	releaseRows(block)

	b.active = newWindow(0, b.cfg.NumActiveLines, b.index.NumLines)
	b.prefetch = newWindow(b.cfg.NumActiveLines, b.cfg.NumPrefetchLines, b.index.NumLines)
	b.state = Ready

	if requestedDataSize > b.cfg.ActiveBufSize {
		b.nextLineIdx = numLines % rows
	} else {
		b.nextLineIdx = (numLines + 1) % rows
	}

	stall := b.lastPrefetchCycle - cycles[len(cycles)-1] - 1
	if stall < 0 {
		stall = 0
	}
	return stall
}

// newWindow builds the Ring for a window of length lines starting at start,
// mod-reducing both ends the way new_prefetch computes active_start/
// active_end/prefetch_start/prefetch_end.
func newWindow(start, length, m int) lineindex.Ring {
	s := mod(start, m)
	e := mod(start+length, m)
	return lineindex.Ring{Start: s, End: e, Mod: m}
}

// NewPrefetch rotates the windows forward by one prefetch block (spec §4.4,
// "Window rotation"): the old prefetch window becomes (part of) the new
// active window, and a fresh prefetch window is scheduled starting from
// nextLineIdx.
func (b *Buffer) NewPrefetch() error {
	if b.state != Ready {
		return ErrNotReady
	}

	L := b.index.NumLines
	newActiveStart := mod(b.active.Start+b.cfg.NumPrefetchLines, L)
	b.active = newWindow(newActiveStart, b.cfg.NumActiveLines, L)
	b.prefetch = newWindow(b.active.End, b.cfg.NumPrefetchLines, L)

	b.log.Debugf("rotating windows: active=[%d,%d) prefetch=[%d,%d) next_line=%d",
		b.active.Start, b.active.End, b.prefetch.Start, b.prefetch.End, b.nextLineIdx)

	rows := b.matrix.NumRows()
	startIdx := b.nextLineIdx
	numLines := ceilDiv(b.cfg.PrefetchBufSize, b.cfg.BW)
	endIdx := startIdx + numLines
	requestedDataSize := numLines * b.cfg.BW
	b.numAccess += int64(requestedDataSize)

	var block [][]Address
	if endIdx > rows {
		part1 := b.copyRows(startIdx, rows)
		newEndIdx := min(endIdx-rows, startIdx)
		part2 := b.copyRows(0, newEndIdx)
		block = append(part1, part2...)
	} else {
		block = b.copyRows(startIdx, endIdx)
	}

	for i := 0; i < b.nextColIdx && i < b.cfg.BW; i++ {
		block[0][i] = NoAddress
	}

	if requestedDataSize > b.cfg.ActiveBufSize {
		validCols := b.cfg.ActiveBufSize % b.cfg.BW
		last := block[len(block)-1]
		for c := validCols; c < b.cfg.BW; c++ {
			last[c] = NoAddress
		}
	}

	cycles := make([]int64, numLines)
	for i := 0; i < numLines; i++ {
		cycles[i] = b.lastPrefetchCycle + int64(i) + 1
	}

	responses := b.port.ServiceReads(block, cycles)
	b.lastPrefetchCycle = maxOf(responses)
	b.appendTrace(responses, block)
	releaseRows(block)

	if requestedDataSize > b.cfg.ActiveBufSize {
		b.nextLineIdx = numLines % rows
	} else {
		b.nextLineIdx = (numLines + 1) % rows
	}
	return nil
}

// ActiveBufferHit reports whether addr is resident in the active window. In
// layout mode it also returns addr's column within its line, recovering the
// fetch-matrix column since one line corresponds exactly to one row.
func (b *Buffer) ActiveBufferHit(addr Address) (lineID int, col int, hit bool, err error) {
	if b.state != Ready {
		return -1, -1, false, ErrNotReady
	}
	if ok, id, c := b.scanWindow(b.active, addr); ok {
		return id, c, true, nil
	}
	return -1, -1, false, nil
}

func (b *Buffer) scanWindow(w lineindex.Ring, addr Address) (bool, int, int) {
	check := func(id int) (bool, int, int) {
		line := b.index.Lines[id]
		if line.Contains(addr) {
			col := -1
			if b.cfg.LayoutMode {
				col = line.ColumnOf(addr)
			}
			return true, id, col
		}
		return false, 0, 0
	}
	if w.Start < w.End {
		for id := w.Start; id < w.End; id++ {
			if ok, i, c := check(id); ok {
				return true, i, c
			}
		}
		return false, 0, 0
	}
	for id := w.Start; id < w.Mod; id++ {
		if ok, i, c := check(id); ok {
			return true, i, c
		}
	}
	for id := 0; id < w.End; id++ {
		if ok, i, c := check(id); ok {
			return true, i, c
		}
	}
	return false, 0, 0
}

// Reset returns the buffer to its pre-fill state, discarding the trace and
// window positions so the same Buffer can be re-run from cycle 0.
func (b *Buffer) Reset() {
	b.state = Uninitialized
	b.active = lineindex.Ring{}
	b.prefetch = lineindex.Ring{}
	b.nextLineIdx = 0
	b.nextColIdx = 0
	b.lastPrefetchCycle = 0
	b.numAccess = 0
	b.trace = nil
}

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}
