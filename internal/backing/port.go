// Package backing implements the backing-store side of the double-buffered
// SRAM simulator (component C1 in the design): the DRAM-like read port the
// buffer prefetches through, and the symmetric write port collaborator
// (spec §6.4). Grounded on scale-sim-v3's read_port.py / write_port.py.
package backing

import "github.com/scalesim-go/sram/internal/interfaces"

// Mode selects how a Port derives per-transaction latency.
type Mode int

const (
	// ModeConstant adds a fixed latency to every request, vectorised, with
	// no queue/stall state.
	ModeConstant Mode = iota
	// ModeTrace draws latency from a recorded trace, subject to the queue
	// and clamp behavior in §4.1.
	ModeTrace
)

// Config configures a read Port.
type Config struct {
	Mode Mode

	// Latency is the constant-mode latency, and the trace-mode fallback
	// used both for clamped entries and for double-buffer scheduling
	// arithmetic (Port.Latency()).
	Latency int64

	// QueueSize is the in-flight transaction queue depth (trace mode
	// only); when it fills, the issuer stalls or drains per §4.1.
	QueueSize int

	// Trace is the recorded per-transaction latency vector (trace mode
	// only). Entries above constants.TraceLatencyClamp are treated as
	// invalid data and replaced by Latency.
	Trace []int64

	// ClampThreshold overrides the default trace-latency clamp (mostly
	// for tests); zero means "use the package default".
	ClampThreshold int64

	Log interfaces.Logger
}

// Port implements C1: it resolves when a row of prefetch requests
// completes, optionally simulating DRAM queue contention from a recorded
// trace.
type Port struct {
	mode    Mode
	latency int64
	clamp   int64
	trace   []int64
	count   int
	queue   *pendingQueue
	log     interfaces.Logger
}

// NewPort constructs a read Port from cfg.
func NewPort(cfg Config) *Port {
	clamp := cfg.ClampThreshold
	if clamp == 0 {
		clamp = defaultClampThreshold
	}
	log := cfg.Log
	if log == nil {
		log = interfaces.NopLogger{}
	}
	log = log.Named("backing")
	p := &Port{
		mode:    cfg.Mode,
		latency: cfg.Latency,
		clamp:   clamp,
		trace:   cfg.Trace,
		log:     log,
	}
	if cfg.Mode == ModeTrace {
		queueSize := cfg.QueueSize
		if queueSize <= 0 {
			queueSize = defaultQueueSize
		}
		p.queue = newPendingQueue(queueSize)
	}
	return p
}

// Latency returns the port's configured constant latency.
func (p *Port) Latency() int64 {
	return p.latency
}

// ServiceReads implements interfaces.Port.
func (p *Port) ServiceReads(requests [][]Address, cycles []int64) []int64 {
	out := make([]int64, len(cycles))

	if p.mode == ModeConstant {
		for i, c := range cycles {
			out[i] = c + p.latency
		}
		return out
	}

	for i, c := range cycles {
		lat := p.nextLatency()
		stall := p.queue.currentStall()
		completion := c + stall + lat
		out[i] = completion
		p.queue.record(completion, c)
	}
	p.queue.takeStall()
	return out
}

// nextLatency draws the next trace entry, clamping invalid (too large)
// entries back to the port's constant latency.
func (p *Port) nextLatency() int64 {
	if p.count >= len(p.trace) {
		return p.latency
	}
	lat := p.trace[p.count]
	p.count++
	if lat > p.clamp {
		p.log.Warnf("trace latency %d exceeds clamp %d, substituting constant latency %d", lat, p.clamp, p.latency)
		return p.latency
	}
	return lat
}

const (
	defaultQueueSize      = 100
	defaultClampThreshold = 10000
)
