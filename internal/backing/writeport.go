package backing

import "github.com/scalesim-go/sram/internal/interfaces"

// NewWritePort builds the symmetric write-side collaborator (spec §6.4):
// identical queue/stall arithmetic to a read Port, but it never feeds the
// double-buffer state machine and the zero value of Config.Latency (0) is
// already its natural default. NewPort applies no latency default either:
// a read Port also uses Config.Latency as given.
// Grounded on scale-sim-v3's write_port.py, which differs from
// read_port.py only in that default.
func NewWritePort(cfg Config) *Port {
	return NewPort(cfg)
}

var _ interfaces.Port = (*Port)(nil)
