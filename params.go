package sram

import (
	"github.com/scalesim-go/sram/internal/constants"
	"github.com/scalesim-go/sram/internal/interfaces"
)

// BufferParams mirrors the fields scale-sim-v3's read_buffer.set_params
// takes, plus the backing-port collaborator and ambient logging/metrics
// hooks a Go caller wires explicitly instead of reaching for module
// globals.
type BufferParams struct {
	TotalSizeBytes int
	WordSize       int
	ActiveBufFrac  float64
	HitLatency     int64
	BackingBW      int
	NumBank        int
	NumPort        int

	EnableLayoutEvaluation bool
	UseRamulatorTrace      bool

	// Port is the backing-store collaborator reads are prefetched through
	// (internal/backing.Port or a test double). Required.
	Port interfaces.Port

	// WritePort is the symmetric write-side collaborator (spec §6.4). It
	// does not feed the double-buffer state machine; a Buffer only holds
	// it so callers have one place to route writes through the same
	// queue/stall model as reads. Optional.
	WritePort interfaces.Port

	Log interfaces.Logger

	// Observer, if set, additionally receives every per-row, per-prefetch,
	// and per-call event a Buffer reports to its own built-in *Metrics —
	// for forwarding into an external metrics system without giving up
	// Buffer.Metrics(). Optional.
	Observer Observer
}

// DefaultParams returns the same defaults as scale-sim-v3's read_buffer
// __init__/reset: 128-byte total size, 1-byte words, 0.9 active fraction,
// hit latency 1, bandwidth 10 words/cycle, 1 bank, 2 ports per bank.
func DefaultParams() BufferParams {
	return BufferParams{
		TotalSizeBytes: constants.DefaultTotalSizeBytes,
		WordSize:       constants.DefaultWordSize,
		ActiveBufFrac:  constants.DefaultActiveBufFrac,
		HitLatency:     constants.DefaultHitLatency,
		BackingBW:      constants.DefaultBackingBW,
		NumBank:        constants.DefaultNumBank,
		NumPort:        constants.DefaultNumPort,
	}
}
