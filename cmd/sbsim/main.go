// Package main provides the command-line entry point of the scoreboard
// simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/loader"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/latency"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

var (
	verbosity = flag.Int("v", 0, "Log verbosity on stderr (1: issue/retire, 2: every stage)")
	dcache    = flag.Bool("dcache", false, "Model a data cache in front of memory for LD/ST")
	queueFull = flag.String("queue-full", "", "Override the queue-full policy: abort or stall")
	showStats = flag.Bool("stats", false, "Print cycle and stall statistics to stdout")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: sbsim [options] <cfg> <memin> <memout> <regout> <traceinst> <traceunit>\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 6 {
		usage()
		os.Exit(1)
	}

	config, err := latency.LoadConfig(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *queueFull != "" {
		config.QueueFullPolicy = latency.QueueFullPolicy(*queueFull)
		if err := config.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	prog, err := loader.Load(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading memory image: %v\n", err)
		os.Exit(1)
	}

	memory := emu.NewMemory()
	prog.LoadIntoMemory(memory)

	opts := []pipeline.PipelineOption{
		pipeline.WithLatencyTable(latency.NewTableWithConfig(config)),
		pipeline.WithLogger(newLogger(*verbosity)),
	}
	if *dcache {
		opts = append(opts, pipeline.WithDataCache(cache.DefaultConfig()))
	}

	c, err := core.NewCore(emu.NewRegFile(), memory, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating simulator: %v\n", err)
		os.Exit(1)
	}

	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in cycle %d: %v\n", c.Stats().Cycles, err)
		os.Exit(1)
	}

	out := loader.Outputs{
		MemOut:    flag.Arg(2),
		RegOut:    flag.Arg(3),
		TraceInst: flag.Arg(4),
		TraceUnit: flag.Arg(5),
	}
	if err := loader.WriteFiles(out, c); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing outputs: %v\n", err)
		os.Exit(1)
	}

	if *showStats {
		printStats(c)
	}
}

func newLogger(v int) logr.Logger {
	if v <= 0 {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: v})
}

func printStats(c *core.Core) {
	stats := c.Stats()

	fmt.Printf("Cycles:                %d\n", stats.Cycles)
	fmt.Printf("Instructions:          %d\n", stats.Instructions)
	fmt.Printf("CPI:                   %.3f\n", stats.CPI())
	fmt.Printf("Structural stalls:     %d\n", stats.StructuralStalls)
	fmt.Printf("WAW stalls:            %d\n", stats.WAWStalls)
	fmt.Printf("RAW stalls:            %d\n", stats.RAWStalls)
	fmt.Printf("WAR stalls:            %d\n", stats.WARStalls)
	fmt.Printf("Fetch stalls:          %d\n", stats.FetchStalls)

	if *dcache {
		fmt.Printf("D-cache hits/misses:   %d/%d (%.1f%%)\n",
			stats.DCache.Hits, stats.DCache.Misses, stats.DCache.HitRate()*100)
		fmt.Printf("D-cache writebacks:    %d\n", stats.DCache.Writebacks)
	}
}
