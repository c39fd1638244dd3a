// Command benchmark runs the scoreboard timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-format     Output format: text, csv or json (default: text)
//	-no-dcache  Disable data cache simulation
//	-core       Run only the 3 core benchmarks
//	-config     Functional unit configuration (cfg, .json or .yaml)
//	-v          Print emulator diffs for benchmarks that fail to verify
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -format csv > results.csv
//
// Every benchmark is checked against the sequential emulator, so a run
// doubles as a correctness check of the scoreboard.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/sbsim/benchmarks"
	"github.com/sarchlab/sbsim/timing/latency"
)

func main() {
	format := flag.String("format", "text", "Output format: text, csv or json")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache simulation")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	configPath := flag.String("config", "", "Path to functional unit configuration")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.EnableDCache = !*noDCache
	config.Output = os.Stdout
	config.Verbose = *verbose

	if *configPath != "" {
		unitConfig, err := latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		unitConfig.QueueFullPolicy = latency.QueueFullStall
		config.Latency = unitConfig
	}

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if *format == "text" {
		fmt.Println("Scoreboard Timing Benchmark Harness")
		fmt.Println("===================================")
		fmt.Printf("D-Cache: %v\n", config.EnableDCache)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch *format {
	case "text":
		harness.PrintResults(results)
	case "csv":
		harness.PrintCSV(results)
	case "json":
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown format %q\n", *format)
		os.Exit(1)
	}

	for _, r := range results {
		if !r.Verified {
			os.Exit(1)
		}
	}
}
