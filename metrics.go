package sram

import "sync/atomic"

// Metrics tracks operational statistics for a Buffer: hit/miss counts,
// prefetch activity, and the cycles each source of stall contributed.
// Adapted from the teacher's atomic-counter Metrics, repurposed from
// device I/O counters to cache-simulation counters.
type Metrics struct {
	ServiceCalls atomic.Uint64
	RowsServiced atomic.Uint64

	Hits   atomic.Uint64
	Misses atomic.Uint64

	Prefetches atomic.Uint64

	// BankConflictCycles accumulates the offset added by the bank-conflict
	// term (layout mode only); MissStallCycles accumulates the offset added
	// while waiting on a miss-triggered prefetch.
	BankConflictCycles atomic.Int64
	MissStallCycles    atomic.Int64

	// DramStallCycles accumulates the residual stall returned by the
	// initial fill, folded into completions only in Ramulator mode.
	DramStallCycles atomic.Int64
}

// NewMetrics returns a zeroed Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// recordRow updates the per-request-row counters once ServiceReads has
// computed a completion.
func (m *Metrics) recordRow(hit bool, missStall, bankStall int64) {
	m.RowsServiced.Add(1)
	if hit {
		m.Hits.Add(1)
	} else {
		m.Misses.Add(1)
	}
	if missStall > 0 {
		m.MissStallCycles.Add(missStall)
	}
	if bankStall > 0 {
		m.BankConflictCycles.Add(bankStall)
	}
}

func (m *Metrics) recordPrefetch() {
	m.Prefetches.Add(1)
}

func (m *Metrics) recordServiceCall(rows int, dramStall int64) {
	m.ServiceCalls.Add(1)
	if dramStall > 0 {
		m.DramStallCycles.Add(dramStall)
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to pass around
// without further synchronization.
type MetricsSnapshot struct {
	ServiceCalls       uint64
	RowsServiced       uint64
	Hits               uint64
	Misses             uint64
	Prefetches         uint64
	BankConflictCycles int64
	MissStallCycles    int64
	DramStallCycles    int64
}

// Snapshot takes a consistent-enough point-in-time copy for reporting; like
// the teacher's MetricsSnapshot, individual fields may be read at slightly
// different instants under concurrent use.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ServiceCalls:       m.ServiceCalls.Load(),
		RowsServiced:       m.RowsServiced.Load(),
		Hits:               m.Hits.Load(),
		Misses:             m.Misses.Load(),
		Prefetches:         m.Prefetches.Load(),
		BankConflictCycles: m.BankConflictCycles.Load(),
		MissStallCycles:    m.MissStallCycles.Load(),
		DramStallCycles:    m.DramStallCycles.Load(),
	}
}

// Observer receives per-row servicing events as they happen. *Metrics
// implements it too, so it can itself serve as a caller-supplied sink; Buffer
// updates its own built-in *Metrics directly. A caller who wants a custom sink (e.g.
// forwarding into an external metrics system) supplies their own
// implementation via BufferParams.Observer, which Buffer calls in addition
// to its own *Metrics, not instead of it.
type Observer interface {
	ObserveRow(hit bool, missStallCycles, bankConflictCycles int64)
	ObservePrefetch()
	ObserveServiceCall(rows int, dramStallCycles int64)
}

// ObserveRow implements Observer.
func (m *Metrics) ObserveRow(hit bool, missStallCycles, bankConflictCycles int64) {
	m.recordRow(hit, missStallCycles, bankConflictCycles)
}

// ObservePrefetch implements Observer.
func (m *Metrics) ObservePrefetch() {
	m.recordPrefetch()
}

// ObserveServiceCall implements Observer.
func (m *Metrics) ObserveServiceCall(rows int, dramStallCycles int64) {
	m.recordServiceCall(rows, dramStallCycles)
}
