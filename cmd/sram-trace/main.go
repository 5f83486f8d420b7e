// Command sram-trace drives a sram.Buffer over a synthetic address stream
// and writes the resulting DRAM prefetch trace to a CSV file. It exists
// only to exercise the library end to end for manual inspection; topology
// loading, layer configuration, and report formatting are out of scope.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scalesim-go/sram"
	"github.com/scalesim-go/sram/internal/backing"
	"github.com/scalesim-go/sram/internal/logging"
)

func main() {
	var (
		numAddrs    = flag.Int("addresses", 4096, "number of distinct addresses in the synthetic stream")
		bw          = flag.Int("bw", 10, "backing bandwidth, words per cycle")
		totalBytes  = flag.Int("total-size", 128, "combined active+prefetch capacity, in bytes")
		wordSize    = flag.Int("word-size", 1, "word size, in bytes")
		activeFrac  = flag.Float64("active-frac", 0.9, "fraction of capacity given to the active window")
		hitLatency  = flag.Int64("hit-latency", 1, "cycles to service an active-buffer hit")
		numBank     = flag.Int("num-bank", 1, "number of banks")
		numPort     = flag.Int64("num-port", 2, "ports per bank")
		layout      = flag.Bool("layout", false, "enable layout evaluation (bank-conflict modeling)")
		ramulator   = flag.Bool("ramulator", false, "fold the initial DRAM stall into every completion")
		portLatency = flag.Int64("port-latency", 1, "constant backing-port latency")
		out         = flag.String("out", "trace.csv", "output CSV trace path")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	port := backing.NewPort(backing.Config{
		Mode:    backing.ModeConstant,
		Latency: *portLatency,
		Log:     logger,
	})

	buf := sram.New(logger)
	params := sram.DefaultParams()
	params.TotalSizeBytes = *totalBytes
	params.WordSize = *wordSize
	params.ActiveBufFrac = *activeFrac
	params.HitLatency = *hitLatency
	params.BackingBW = *bw
	params.NumBank = *numBank
	params.NumPort = int(*numPort)
	params.EnableLayoutEvaluation = *layout
	params.UseRamulatorTrace = *ramulator
	params.Port = port
	params.WritePort = backing.NewWritePort(backing.Config{Mode: backing.ModeConstant, Log: logger})

	if err := buf.SetParams(params); err != nil {
		log.Fatalf("set params: %v", err)
	}

	logger.Info("building synthetic fetch matrix", "addresses", *numAddrs, "bw", *bw)
	if err := buf.SetFetchMatrix(syntheticMatrix(*numAddrs, *bw)); err != nil {
		log.Fatalf("set fetch matrix: %v", err)
	}

	requests, cycles := syntheticRequests(*numAddrs, *bw)
	logger.Info("servicing requests", "rows", len(requests))
	completions, err := buf.ServiceReads(requests, cycles)
	if err != nil {
		log.Fatalf("service reads: %v", err)
	}

	lo, hi, err := buf.GetExternalAccessStartStopCycles()
	if err != nil {
		log.Fatalf("get external access cycles: %v", err)
	}
	numAccess, err := buf.GetNumAccesses()
	if err != nil {
		log.Fatalf("get num accesses: %v", err)
	}

	if err := buf.PrintTrace(*out); err != nil {
		log.Fatalf("print trace: %v", err)
	}

	snap := buf.Metrics().Snapshot()
	fmt.Printf("serviced %d rows, last completion at cycle %d\n", len(completions), completions[len(completions)-1])
	fmt.Printf("DRAM accesses: %d words, response cycles [%d, %d]\n", numAccess, lo, hi)
	fmt.Printf("hits=%d misses=%d prefetches=%d bank_conflict_cycles=%d\n",
		snap.Hits, snap.Misses, snap.Prefetches, snap.BankConflictCycles)
	fmt.Printf("trace written to %s\n", *out)

	if _, err := os.Stat(*out); err != nil {
		log.Fatalf("trace file missing after write: %v", err)
	}
}

// syntheticMatrix lays out numAddrs sequential addresses bw-wide, one
// logical row per bw addresses, so the fetch matrix needs no padding in
// the common case.
func syntheticMatrix(numAddrs, bw int) [][]sram.Address {
	rows := make([][]sram.Address, 0, (numAddrs+bw-1)/bw)
	for start := 0; start < numAddrs; start += bw {
		end := start + bw
		if end > numAddrs {
			end = numAddrs
		}
		row := make([]sram.Address, 0, bw)
		for a := start; a < end; a++ {
			row = append(row, sram.Address(a))
		}
		rows = append(rows, row)
	}
	return rows
}

// syntheticRequests replays the same addresses back as one request row per
// cycle, each bw wide, starting at cycle 0.
func syntheticRequests(numAddrs, bw int) ([][]sram.Address, []int64) {
	m := syntheticMatrix(numAddrs, bw)
	cycles := make([]int64, len(m))
	for i := range m {
		cycles[i] = int64(i)
	}
	return m, cycles
}
