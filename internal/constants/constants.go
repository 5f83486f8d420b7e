// Package constants holds the default sizing knobs for the double-buffered
// read SRAM simulator, mirroring the read_buffer/read_port defaults from
// scale-sim-v3.
package constants

// Buffer defaults (scalesim.memory.read_buffer.read_buffer.__init__).
const (
	// DefaultTotalSizeBytes is the default combined active+prefetch capacity.
	DefaultTotalSizeBytes = 128

	// DefaultWordSize is the default word width in bytes.
	DefaultWordSize = 1

	// DefaultActiveBufFrac is the default fraction of capacity given to the
	// active half of the double buffer.
	DefaultActiveBufFrac = 0.9

	// DefaultHitLatency is the default number of cycles an active-buffer hit
	// takes to service.
	DefaultHitLatency = 1

	// DefaultBackingBW is the default request-generation bandwidth in words
	// per cycle (also the fetch-matrix row width).
	DefaultBackingBW = 10

	// DefaultNumBank is the default number of banks backing the SRAM.
	DefaultNumBank = 1

	// DefaultNumPort is the default number of ports per bank.
	DefaultNumPort = 2
)

// Backing port defaults (scalesim.memory.read_port.read_port.__init__).
const (
	// DefaultPortLatency is the default constant-mode round-trip latency.
	DefaultPortLatency = 1

	// DefaultWritePortLatency is the default write-port latency; writes
	// have no hit-latency analogue so this defaults to 0.
	DefaultWritePortLatency = 0

	// DefaultRequestQueueSize is the default in-flight transaction queue
	// depth before the issuer starts stalling.
	DefaultRequestQueueSize = 100

	// TraceLatencyClamp is the threshold above which a recorded trace
	// latency is treated as invalid data and replaced by the port's
	// constant latency (scale-sim-v3's "> 10000" guard).
	TraceLatencyClamp = 10000
)

// NoAddress is the sentinel written into fetch-matrix padding columns.
const NoAddress = -1
