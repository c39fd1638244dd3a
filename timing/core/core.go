// Package core provides the cycle-accurate scoreboard core model.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the total of all hazard and fetch stall events.
	Stalls uint64

	StructuralStalls uint64
	WAWStalls        uint64
	RAWStalls        uint64
	WARStalls        uint64
	FetchStalls      uint64

	// DCache holds data cache statistics when a data cache is in use.
	DCache cache.Statistics
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core represents a cycle-accurate scoreboard core.
type Core struct {
	// Pipeline is the underlying scoreboard pipeline.
	Pipeline *pipeline.Pipeline

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewCore creates a new Core over the given register file and memory.
func NewCore(regFile *emu.RegFile, memory *emu.Memory, opts ...pipeline.PipelineOption) (*Core, error) {
	p, err := pipeline.NewPipeline(regFile, memory, opts...)
	if err != nil {
		return nil, err
	}

	return &Core{
		Pipeline: p,
		regFile:  regFile,
		memory:   memory,
	}, nil
}

// RegFile returns the register file the core writes.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the memory the core reads and writes.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() error {
	return c.Pipeline.Tick()
}

// Halted returns true once HALT has been fetched.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Done returns true once the core has drained or failed.
func (c *Core) Done() bool {
	return c.Pipeline.Done()
}

// Recorder returns the per-instruction and traced-unit records.
func (c *Core) Recorder() *pipeline.Recorder {
	return c.Pipeline.Recorder()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	ps := c.Pipeline.Stats()
	return Stats{
		Cycles:           ps.Cycles,
		Instructions:     ps.Instructions,
		Stalls:           ps.StructuralStalls + ps.WAWStalls + ps.RAWStalls + ps.WARStalls + ps.FetchStalls,
		StructuralStalls: ps.StructuralStalls,
		WAWStalls:        ps.WAWStalls,
		RAWStalls:        ps.RAWStalls,
		WARStalls:        ps.WARStalls,
		FetchStalls:      ps.FetchStalls,
		DCache:           c.Pipeline.DCacheStats(),
	}
}

// Run executes the core until it drains or fails.
func (c *Core) Run() error {
	return c.Pipeline.Run()
}

// RunCycles executes the core for at most the specified number of cycles.
// Returns true if still running.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	return c.Pipeline.RunCycles(cycles)
}
