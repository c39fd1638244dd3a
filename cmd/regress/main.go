// Command regress simulates every test directory under a root and compares
// the outputs with the expected files stored next to the inputs.
//
// Usage:
//
//	go run ./cmd/regress [flags] <root>
//
// Each test directory holds cfg.txt, memin.txt, memout.txt, regout.txt,
// traceinst.txt and traceunit.txt. The command exits with status 1 if any
// directory fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/sbsim/benchmarks"
)

var (
	parallel = flag.Int("j", 0, "Number of parallel simulations (default: GOMAXPROCS)")
	dcache   = flag.Bool("dcache", false, "Run with the data cache model")
	showDiff = flag.Bool("diff", false, "Print the full diff of each mismatching file")
	verbose  = flag.Bool("v", false, "Log each finished directory")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: regress [options] <root>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	dirs, err := benchmarks.FindTestDirs(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logr.Discard()
	if *verbose {
		logger = funcr.New(func(_, args string) {
			fmt.Fprintln(os.Stderr, args)
		}, funcr.Options{Verbosity: 1})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := benchmarks.RunRegression(ctx, dirs, benchmarks.RegressionOptions{
		Parallelism: *parallel,
		DataCache:   *dcache,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if r.Passed() {
			fmt.Printf("PASS %s (%d cycles)\n", r.Name, r.Cycles)
			continue
		}

		failed++
		fmt.Printf("FAIL %s\n", r.Name)
		if r.Err != nil {
			fmt.Printf("  %v\n", r.Err)
		}
		for _, m := range r.Mismatches {
			fmt.Printf("  %s\n", m)
			if *showDiff {
				fmt.Println(m.Diff)
			}
		}
	}

	fmt.Printf("\n%d/%d passed\n", len(results)-failed, len(results))
	if failed > 0 {
		os.Exit(1)
	}
}
