package sram

import "testing"

func TestMetricsSnapshotCountsHitsAndMisses(t *testing.T) {
	m := NewMetrics()
	m.ObserveRow(true, 0, 0)
	m.ObserveRow(false, 3, 2)
	m.ObservePrefetch()
	m.ObserveServiceCall(2, 5)

	s := m.Snapshot()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Hits=%d Misses=%d, want 1/1", s.Hits, s.Misses)
	}
	if s.MissStallCycles != 3 {
		t.Errorf("MissStallCycles = %d, want 3", s.MissStallCycles)
	}
	if s.BankConflictCycles != 2 {
		t.Errorf("BankConflictCycles = %d, want 2", s.BankConflictCycles)
	}
	if s.Prefetches != 1 {
		t.Errorf("Prefetches = %d, want 1", s.Prefetches)
	}
	if s.DramStallCycles != 5 {
		t.Errorf("DramStallCycles = %d, want 5", s.DramStallCycles)
	}
	if s.ServiceCalls != 1 {
		t.Errorf("ServiceCalls = %d, want 1", s.ServiceCalls)
	}
}

func TestMetricsIgnoresNonPositiveStalls(t *testing.T) {
	m := NewMetrics()
	m.ObserveRow(false, -1, 0)
	m.ObserveServiceCall(1, 0)

	s := m.Snapshot()
	if s.MissStallCycles != 0 {
		t.Errorf("expected non-positive stall to be ignored, got %d", s.MissStallCycles)
	}
	if s.DramStallCycles != 0 {
		t.Errorf("expected zero dram stall to be ignored, got %d", s.DramStallCycles)
	}
}
