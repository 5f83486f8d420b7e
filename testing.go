package sram

import "github.com/scalesim-go/sram/internal/interfaces"

// MockPort is a test double for interfaces.Port: every request completes at
// arrival cycle plus a fixed Latency, and every serviced row is recorded so
// a test can assert on exactly what the buffer prefetched. Adapted from the
// teacher's style of shipping a lightweight in-package fake alongside the
// production backend rather than a separate mocking framework.
type MockPort struct {
	Latency_ int64
	Calls    [][][]Address
	Cycles   [][]int64
}

// NewMockPort returns a MockPort with the given constant latency.
func NewMockPort(latency int64) *MockPort {
	return &MockPort{Latency_: latency}
}

// ServiceReads implements interfaces.Port.
func (p *MockPort) ServiceReads(requests [][]Address, cycles []int64) []int64 {
	block := make([][]Address, len(requests))
	for i, row := range requests {
		r := make([]Address, len(row))
		copy(r, row)
		block[i] = r
	}
	p.Calls = append(p.Calls, block)
	p.Cycles = append(p.Cycles, append([]int64(nil), cycles...))

	out := make([]int64, len(cycles))
	for i, c := range cycles {
		out[i] = c + p.Latency_
	}
	return out
}

// Latency implements interfaces.Port.
func (p *MockPort) Latency() int64 { return p.Latency_ }

var _ interfaces.Port = (*MockPort)(nil)
