// Package main provides the entry point for sbsim.
// sbsim is a cycle-accurate scoreboard floating-point pipeline simulator.
//
// For the full CLI, use: go run ./cmd/sbsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("sbsim - Scoreboard Pipeline Simulator")
	fmt.Println("")
	fmt.Println("Usage: sbsim [options] <cfg> <memin> <memout> <regout> <traceinst> <traceunit>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -v N          Log pipeline events to stderr at verbosity N")
	fmt.Println("  -dcache       Model a data cache for LD/ST")
	fmt.Println("  -queue-full   Override the queue-full policy (abort or stall)")
	fmt.Println("  -stats        Print cycle and stall statistics")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/sbsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/regress <root>' to check test directories.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/sbsim' instead.")
	}
}
