// Package sram implements a cycle-accurate simulator of a double-buffered
// on-chip read SRAM sitting between a systolic compute array and a
// DRAM-like backing store. Buffer is the public entry point: configure it
// with SetParams, install a fetch matrix with SetFetchMatrix, then drive it
// with ServiceReads the way a systolic array issues one row of requests per
// cycle. Grounded on scale-sim-v3's scalesim.memory.read_buffer.read_buffer.
package sram

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/scalesim-go/sram/internal/doublebuffer"
	"github.com/scalesim-go/sram/internal/fetchmatrix"
	"github.com/scalesim-go/sram/internal/interfaces"
	"github.com/scalesim-go/sram/internal/lineindex"
)

// Address identifies a single word of the address space; NoAddress (-1)
// pads a short fetch-matrix row.
type Address = interfaces.Address

// NoAddress is the sentinel used to pad a bandwidth-wide request/fetch row.
const NoAddress = interfaces.NoAddress

// Buffer is the double-buffered read SRAM. The zero value is not usable;
// construct one with New.
type Buffer struct {
	log     interfaces.Logger
	metrics *Metrics

	params          BufferParams
	totalSizeElems  int
	activeBufSize   int
	prefetchBufSize int
	bwPerBank       int

	matrix fetchmatrix.Matrix
	index  lineindex.Index
	db     *doublebuffer.Buffer

	traceValid bool
}

// New constructs a Buffer with no params installed; call SetParams then
// SetFetchMatrix before servicing requests.
func New(log interfaces.Logger) *Buffer {
	if log == nil {
		log = interfaces.NopLogger{}
	}
	return &Buffer{log: log, metrics: NewMetrics()}
}

// Metrics returns the buffer's metrics sink.
func (b *Buffer) Metrics() *Metrics { return b.metrics }

// SetParams installs the sizing and collaborator configuration (spec §6.1).
// Rejects an active_buf_frac outside [0.5, 1.0) and a backing bandwidth not
// divisible by the bank count, matching the source's set_params asserts.
func (b *Buffer) SetParams(p BufferParams) error {
	if p.ActiveBufFrac < 0.5 || p.ActiveBufFrac >= 1.0 {
		return newError("SetParams", ErrCodeInvalidActiveFraction,
			"active_buf_frac must be in [0.5, 1.0)")
	}
	if p.NumBank <= 0 || p.BackingBW%p.NumBank != 0 {
		return newError("SetParams", ErrCodeBandwidthNotDivisible,
			"backing_bw must be evenly divisible by num_bank")
	}
	if p.Port == nil {
		return newError("SetParams", ErrCodeNotReady, "a backing Port collaborator is required")
	}
	if p.Log != nil {
		b.log = p.Log
	}

	b.params = p
	b.totalSizeElems = p.TotalSizeBytes / p.WordSize
	b.activeBufSize = int(math.Ceil(float64(b.totalSizeElems) * p.ActiveBufFrac))
	b.prefetchBufSize = b.totalSizeElems - b.activeBufSize
	b.bwPerBank = p.BackingBW / p.NumBank

	b.matrix = fetchmatrix.Matrix{}
	b.index = lineindex.Index{}
	b.db = nil
	b.traceValid = false
	return nil
}

// SetFetchMatrix installs the logical 2D address stream, reshapes it into
// the fetch matrix F at the configured bandwidth, and builds the hashed
// line index H (spec §6.1, §4.2, §4.3).
func (b *Buffer) SetFetchMatrix(logical [][]Address) error {
	if b.params.Port == nil {
		return newError("SetFetchMatrix", ErrCodeNotReady, "call SetParams before SetFetchMatrix")
	}

	m := fetchmatrix.Build(logical, b.params.BackingBW)
	elemsPerSet := lineindex.ElemsPerSet(b.totalSizeElems, b.params.BackingBW, b.params.EnableLayoutEvaluation)
	idx := lineindex.Build(m, elemsPerSet)

	maxActiveLines := ceilDivInt(b.activeBufSize, elemsPerSet)
	maxPrefetchLines := ceilDivInt(b.prefetchBufSize, elemsPerSet)

	numActiveLines := idx.NumLines
	if idx.NumLines > maxActiveLines {
		numActiveLines = maxActiveLines
	}
	remainingLines := idx.NumLines - numActiveLines
	numPrefetchLines := remainingLines
	if remainingLines > maxPrefetchLines {
		numPrefetchLines = maxPrefetchLines
	}

	cfg := doublebuffer.Config{
		BW:               b.params.BackingBW,
		ActiveBufSize:    b.activeBufSize,
		PrefetchBufSize:  b.prefetchBufSize,
		NumActiveLines:   numActiveLines,
		NumPrefetchLines: numPrefetchLines,
		LayoutMode:       b.params.EnableLayoutEvaluation,
	}

	b.matrix = m
	b.index = idx
	b.db = doublebuffer.New(cfg, m, idx, b.params.Port, b.log)
	b.traceValid = false
	return nil
}

// ServiceReads services N rows of BW requests arriving at the given cycles
// and returns their completion cycles (spec §4.5, §6.1/§6.2). On the first
// call it runs the initial fill, anchored at cycles[0].
func (b *Buffer) ServiceReads(requests [][]Address, cycles []int64) ([]int64, error) {
	if b.db == nil {
		return nil, newError("ServiceReads", ErrCodeNotReady, "call SetFetchMatrix before servicing requests")
	}
	if len(requests) == 0 {
		return nil, nil
	}

	var dramStall int64
	if b.db.State() != doublebuffer.Ready {
		dramStall = b.db.PrefetchActiveBuffer(cycles[0])
	}

	out := make([]int64, len(requests))
	offset := b.params.HitLatency
	numBank := b.params.NumBank
	if numBank <= 0 {
		numBank = 1
	}

	for i, row := range requests {
		cycle := cycles[i]
		rowHitClean := true
		var missStall, bankStall int64

		if b.params.EnableLayoutEvaluation {
			concurrent := make([][]int, numBank)

			for _, addr := range row {
				if addr == NoAddress {
					continue
				}

				lineID, col, hit, err := b.db.ActiveBufferHit(addr)
				if err != nil {
					return nil, wrapInvariant("ServiceReads", err)
				}
				for !hit {
					rowHitClean = false
					if err := b.db.NewPrefetch(); err != nil {
						return nil, wrapInvariant("ServiceReads", err)
					}
					b.metrics.recordPrefetch()
					if b.params.Observer != nil {
						b.params.Observer.ObservePrefetch()
					}
					potential := b.db.LastPrefetchCycle() - (cycle + offset)
					if potential > 0 {
						offset += potential
						missStall += potential
					}
					lineID, col, hit, err = b.db.ActiveBufferHit(addr)
					if err != nil {
						return nil, wrapInvariant("ServiceReads", err)
					}
				}

				bankID := col / b.bwPerBank
				if bankID >= numBank {
					return nil, newError("ServiceReads", ErrCodeBankOutOfRange,
						"bank id exceeds num_bank")
				}
				if !containsInt(concurrent[bankID], lineID) {
					concurrent[bankID] = append(concurrent[bankID], lineID)
				}
			}

			maxLines := 0
			for _, lines := range concurrent {
				if len(lines) > maxLines {
					maxLines = len(lines)
				}
			}
			conflict := int64(ceilDivInt(maxLines, b.params.NumPort)) - 1
			offset += conflict
			if conflict > 0 {
				bankStall = conflict
			}

			if b.params.UseRamulatorTrace {
				out[i] = cycle + offset + dramStall
			} else {
				out[i] = cycle + offset
			}
		} else {
			for _, addr := range row {
				if addr == NoAddress {
					continue
				}
				_, _, hit, err := b.db.ActiveBufferHit(addr)
				if err != nil {
					return nil, wrapInvariant("ServiceReads", err)
				}
				for !hit {
					rowHitClean = false
					if err := b.db.NewPrefetch(); err != nil {
						return nil, wrapInvariant("ServiceReads", err)
					}
					b.metrics.recordPrefetch()
					if b.params.Observer != nil {
						b.params.Observer.ObservePrefetch()
					}
					// Preserves the source's documented double-counted stall
					// addition in the non-layout path (spec §9, open question):
					// the unconditional add happens even when potential is
					// negative, and a second add follows when it was positive.
					potential := b.db.LastPrefetchCycle() - (cycle + offset)
					offset += potential
					if potential > 0 {
						offset += potential
						missStall += 2 * potential
					}
					_, _, hit, err = b.db.ActiveBufferHit(addr)
					if err != nil {
						return nil, wrapInvariant("ServiceReads", err)
					}
				}
			}

			if b.params.UseRamulatorTrace {
				out[i] = cycle + offset + dramStall
			} else {
				out[i] = cycle + offset
			}
		}

		b.metrics.recordRow(rowHitClean, missStall, bankStall)
		if b.params.Observer != nil {
			b.params.Observer.ObserveRow(rowHitClean, missStall, bankStall)
		}
	}

	b.metrics.recordServiceCall(len(requests), dramStall)
	if b.params.Observer != nil {
		b.params.Observer.ObserveServiceCall(len(requests), dramStall)
	}
	b.traceValid = true
	return out, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func ceilDivInt(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// TraceRow is one row of the persisted trace matrix: the cycle a
// prefetched line's DRAM transaction completed, and the BW addresses it
// carried (sentinel written literally, per spec §6.3).
type TraceRow struct {
	ResponseCycle int64
	Addrs         []Address
}

// GetTraceMatrix returns the cumulative DRAM transaction trace recorded by
// every prefetch so far.
func (b *Buffer) GetTraceMatrix() ([]TraceRow, error) {
	if !b.traceValid {
		return nil, newError("GetTraceMatrix", ErrCodeTraceNotReady, "no service call has produced a trace yet")
	}
	rows := b.db.Trace()
	out := make([]TraceRow, len(rows))
	for i, r := range rows {
		out[i] = TraceRow{ResponseCycle: r.ResponseCycle, Addrs: r.Addrs}
	}
	return out, nil
}

// GetNumAccesses returns the cumulative element count issued to the backing
// port; always equal to BW times the number of trace rows (invariant 5).
func (b *Buffer) GetNumAccesses() (int64, error) {
	if !b.traceValid {
		return 0, newError("GetNumAccesses", ErrCodeTraceNotReady, "no service call has produced a trace yet")
	}
	return b.db.NumAccess(), nil
}

// GetExternalAccessStartStopCycles returns the minimum and maximum response
// cycle across the trace matrix (get_external_access_start_stop_cycles in
// the source; present there but dropped from the distilled operation list).
func (b *Buffer) GetExternalAccessStartStopCycles() (int64, int64, error) {
	if !b.traceValid {
		return 0, 0, newError("GetExternalAccessStartStopCycles", ErrCodeTraceNotReady, "no service call has produced a trace yet")
	}
	trace := b.db.Trace()
	if len(trace) == 0 {
		return 0, 0, nil
	}
	lo, hi := trace[0].ResponseCycle, trace[0].ResponseCycle
	for _, r := range trace[1:] {
		if r.ResponseCycle < lo {
			lo = r.ResponseCycle
		}
		if r.ResponseCycle > hi {
			hi = r.ResponseCycle
		}
	}
	return lo, hi, nil
}

// GetHitLatency returns the configured hit latency.
func (b *Buffer) GetHitLatency() int64 { return b.params.HitLatency }

// GetLatency is a synonym for GetHitLatency, kept for source parity: the
// original read_buffer exposes both get_hit_latency and get_latency as
// near-duplicate accessors returning the same field.
func (b *Buffer) GetLatency() int64 { return b.params.HitLatency }

// PrintTrace writes the trace matrix to filename as CSV: one row per
// prefetched line, response_cycle followed by BW addresses, sentinel (-1)
// written literally (spec §6.3).
func (b *Buffer) PrintTrace(filename string) error {
	if !b.traceValid {
		return newError("PrintTrace", ErrCodeTraceNotReady, "no service call has produced a trace yet")
	}

	f, err := os.Create(filename)
	if err != nil {
		return newError("PrintTrace", ErrCodeMissingTraceFile, err.Error())
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range b.db.Trace() {
		rec := make([]string, 0, len(row.Addrs)+1)
		rec = append(rec, strconv.FormatInt(row.ResponseCycle, 10))
		for _, a := range row.Addrs {
			rec = append(rec, strconv.FormatInt(a, 10))
		}
		if err := w.Write(rec); err != nil {
			return newError("PrintTrace", ErrCodeMissingTraceFile, err.Error())
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return newError("PrintTrace", ErrCodeMissingTraceFile, err.Error())
	}
	return nil
}

// Reset restores the buffer to its just-constructed state: defaults are
// genuine per-instance defaults, not shared global state, so a reset buffer
// behaves like a freshly New'd one (spec §9, "global mutable state"). The
// one thing Reset keeps is the logger: a logger installed through
// BufferParams.Log stays in place.
func (b *Buffer) Reset() {
	b.params = BufferParams{}
	b.totalSizeElems = 0
	b.activeBufSize = 0
	b.prefetchBufSize = 0
	b.bwPerBank = 0
	b.matrix = fetchmatrix.Matrix{}
	b.index = lineindex.Index{}
	b.db = nil
	b.traceValid = false
	b.metrics = NewMetrics()
}
