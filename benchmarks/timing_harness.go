// Package benchmarks provides timing benchmark infrastructure and the
// test-directory regression runner for the scoreboard simulator.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/xid"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/latency"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

// Version is reported in benchmark metadata.
const Version = "0.1.0"

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// RunID identifies the harness run that produced the result
	RunID string `json:"run_id"`

	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the total of all stall events
	StallCycles uint64 `json:"stall_cycles"`

	StructuralStalls uint64 `json:"structural_stalls"`
	WAWStalls        uint64 `json:"waw_stalls"`
	RAWStalls        uint64 `json:"raw_stalls"`
	WARStalls        uint64 `json:"war_stalls"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Verified is true if the final state matches the sequential emulator
	Verified bool `json:"verified"`

	// Mismatch describes how the final state differs from the emulator
	Mismatch string `json:"mismatch,omitempty"`

	// Error is set if the simulation failed
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares memory beyond the program (e.g., input data)
	Setup func(memory *emu.Memory)

	// Program is the instruction sequence, loaded from address 0
	Program []insts.Instruction
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data cache simulation
	EnableDCache bool

	// Latency is the functional unit configuration (default if nil)
	Latency *latency.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
// Some benchmarks are longer than the instruction queue, so fetch stalls
// instead of aborting.
func DefaultConfig() HarnessConfig {
	unitConfig := latency.DefaultConfig()
	unitConfig.QueueFullPolicy = latency.QueueFullStall

	return HarnessConfig{
		EnableDCache: true,
		Latency:      unitConfig,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
	runID      string
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Latency == nil {
		config.Latency = latency.DefaultConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
		runID:      xid.New().String(),
	}
}

// RunID returns the identifier stamped on every result of this harness.
func (h *Harness) RunID() string {
	return h.runID
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// BuildMemory loads the benchmark program and data into a fresh memory.
func BuildMemory(bench Benchmark) *emu.Memory {
	memory := emu.NewMemory()
	for i := range bench.Program {
		memory.WriteWord(uint16(i), bench.Program[i].Encode())
	}
	if bench.Setup != nil {
		bench.Setup(memory)
	}
	return memory
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		RunID:       h.runID,
		Name:        bench.Name,
		Description: bench.Description,
	}

	regFile := emu.NewRegFile()
	memory := BuildMemory(bench)

	opts := []pipeline.PipelineOption{
		pipeline.WithLatencyTable(latency.NewTableWithConfig(h.config.Latency.Clone())),
	}
	if h.config.EnableDCache {
		opts = append(opts, pipeline.WithDataCache(cache.DefaultConfig()))
	}

	c, err := core.NewCore(regFile, memory, opts...)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// Run simulation and measure time
	start := time.Now()
	err = c.Run()
	result.WallTime = time.Since(start)

	stats := c.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.StallCycles = stats.Stalls
	result.StructuralStalls = stats.StructuralStalls
	result.WAWStalls = stats.WAWStalls
	result.RAWStalls = stats.RAWStalls
	result.WARStalls = stats.WARStalls
	result.DCacheHits = stats.DCache.Hits
	result.DCacheMisses = stats.DCache.Misses

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Mismatch = verify(bench, regFile, memory)
	result.Verified = result.Mismatch == ""

	return result
}

// verify runs the benchmark on the sequential emulator and diffs the final
// state against the scoreboard's.
func verify(bench Benchmark, regFile *emu.RegFile, memory *emu.Memory) string {
	ref := emu.NewEmulator(emu.WithMemory(BuildMemory(bench)))
	if err := ref.Run(); err != nil {
		return fmt.Sprintf("emulator failed: %v", err)
	}

	if diff := cmp.Diff(ref.RegFile().F, regFile.F); diff != "" {
		return "registers (-emulator +scoreboard):\n" + diff
	}
	if diff := cmp.Diff(ref.Memory().Words(), memory.Words()); diff != "" {
		return "memory (-emulator +scoreboard):\n" + diff
	}
	return ""
}

// PrintResults writes one table row per benchmark, followed by emulator
// diffs of unverified runs when Verbose is set.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintf(out, "=== Scoreboard Timing Benchmark Results (run %s) ===\n\n", h.runID)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Benchmark\tCycles\tInsts\tCPI\tStruct\tWAW\tRAW\tWAR\tD$ hit/miss\tVerified\tWall")
	for _, r := range results {
		cacheCol := "-"
		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			cacheCol = fmt.Sprintf("%d/%d", r.DCacheHits, r.DCacheMisses)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\t%d\t%d\t%d\t%d\t%s\t%t\t%v\n",
			r.Name, r.SimulatedCycles, r.InstructionsRetired, r.CPI,
			r.StructuralStalls, r.WAWStalls, r.RAWStalls, r.WARStalls,
			cacheCol, r.Verified, r.WallTime.Round(time.Microsecond))
	}
	_ = tw.Flush()

	for _, r := range results {
		switch {
		case r.Error != "":
			_, _ = fmt.Fprintf(out, "\n%s: error: %s\n", r.Name, r.Error)
		case h.config.Verbose && r.Mismatch != "":
			_, _ = fmt.Fprintf(out, "\n%s: %s\n", r.Name, r.Mismatch)
		}
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"run_id,name,cycles,instructions,cpi,stalls,structural,waw,raw,war,dcache_hits,dcache_misses,verified")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%t\n",
			r.RunID,
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.StructuralStalls,
			r.WAWStalls,
			r.RAWStalls,
			r.WARStalls,
			r.DCacheHits,
			r.DCacheMisses,
			r.Verified,
		)
	}
}

// BenchmarkReport is the JSON document written by PrintJSON.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata identifies a harness run and its machine configuration.
type ReportMetadata struct {
	RunID     string          `json:"run_id"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Config    BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	DCacheEnabled bool            `json:"dcache_enabled"`
	Latency       *latency.Config `json:"latency"`
}

// ReportSummary aggregates all results of a run. AverageCPI is total
// cycles over total retired instructions.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Verified          int           `json:"verified"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	verified := 0
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
		if r.Verified {
			verified++
		}
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			RunID:     h.runID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config: BenchmarkConfig{
				DCacheEnabled: h.config.EnableDCache,
				Latency:       h.config.Latency,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			Verified:          verified,
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
