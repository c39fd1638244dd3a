// Package main provides a profiling wrapper for the scoreboard simulator to
// identify performance bottlenecks in the cycle loop.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/sbsim/benchmarks"
	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
	"github.com/sarchlab/sbsim/loader"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/latency"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	configPath = flag.String("config", "", "functional unit configuration (default units if empty)")
	iterations = flag.Int("n", 1000, "number of simulations to run")
	dcache     = flag.Bool("dcache", false, "enable the data cache model")
)

func main() {
	flag.Parse()

	config := latency.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Profile the memory image given on the command line, or a synthetic
	// program that keeps every unit class busy.
	image := syntheticImage()
	config.QueueFullPolicy = latency.QueueFullStall
	if flag.NArg() > 0 {
		prog, err := loader.Load(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading memory image: %v\n", err)
			os.Exit(1)
		}
		image = emu.NewMemory()
		prog.LoadIntoMemory(image)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()

	var cycles, instructions uint64
	for i := 0; i < *iterations; i++ {
		opts := []pipeline.PipelineOption{
			pipeline.WithLatencyTable(latency.NewTableWithConfig(config)),
		}
		if *dcache {
			opts = append(opts, pipeline.WithDataCache(cache.DefaultConfig()))
		}

		c, err := core.NewCore(emu.NewRegFile(), image.Clone(), opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating simulator: %v\n", err)
			os.Exit(1)
		}
		if err := c.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error in run %d: %v\n", i, err)
			os.Exit(1)
		}

		stats := c.Stats()
		cycles += stats.Cycles
		instructions += stats.Instructions
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("Profiling Results:\n")
	fmt.Printf("Runs: %d\n", *iterations)
	fmt.Printf("Simulated cycles: %d\n", cycles)
	fmt.Printf("Instructions retired: %d\n", instructions)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("Cycles/second: %.0f\n", float64(cycles)/elapsed.Seconds())
	}
}

// syntheticImage builds a program of 15 load/compute/store rounds that
// stays within the default queue and register budget.
func syntheticImage() *emu.Memory {
	prog := []insts.Instruction{}
	for i := uint16(0); i < 15; i++ {
		reg := uint8(4 + i%8)
		prog = append(prog,
			benchmarks.LD(reg, 500+i),
			benchmarks.MULT(reg, reg, 2),
			benchmarks.ADD(reg, reg, 1),
			benchmarks.DIV(reg, reg, 3),
			benchmarks.ST(600+i, reg),
		)
	}
	prog = append(prog, benchmarks.HALT())

	return benchmarks.BuildMemory(benchmarks.Benchmark{
		Name:    "profile",
		Program: prog,
		Setup: func(memory *emu.Memory) {
			for i := uint16(0); i < 15; i++ {
				memory.WriteFloat(500+i, float32(i)+0.25)
			}
		},
	})
}
