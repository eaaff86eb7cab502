// Package main provides the entry point for Ternsim.
// Ternsim is a cycle-level simulator of a wavelength-multiplexed ternary
// systolic accelerator.
//
// For the full CLI, use: go run ./cmd/ternsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Ternsim - Ternary Systolic Accelerator Simulator")
	fmt.Println("")
	fmt.Println("Usage: ternsim [options] <program.tasm>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config         Path to run configuration JSON file")
	fmt.Println("  -timing-config  Path to timing configuration JSON file")
	fmt.Println("  -input          Path to input word file")
	fmt.Println("  -report         Write the run report JSON to this path")
	fmt.Println("  -golden         Compare the run against a golden report")
	fmt.Println("  -v              Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ternsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ternsim' instead.")
	}
}
