// Package main provides the entry point for Ternsim.
// Ternsim is a cycle-level simulator of a wavelength-multiplexed ternary
// systolic accelerator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/emu"
	"github.com/sarchlab/ternsim/loader"
	"github.com/sarchlab/ternsim/report"
	"github.com/sarchlab/ternsim/timing/latency"
)

var (
	configPath = flag.String("config", "", "Path to run configuration JSON file")
	timingPath = flag.String("timing-config", "", "Path to timing configuration JSON file")
	inputPath  = flag.String("input", "", "Path to input word file")
	reportPath = flag.String("report", "", "Write the run report JSON to this path")
	goldenPath = flag.String("golden", "", "Compare the run report against this golden report")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: ternsim [options] <program.tasm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	programPath := flag.Arg(0)

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fail("Error loading config: %v", err)
		}
	}

	prog, err := loader.LoadProgram(programPath)
	if err != nil {
		fail("Error loading program: %v", err)
	}
	if *verbose {
		fmt.Printf("Loaded: %s (%d instructions)\n", programPath, len(prog.Instructions))
	}

	opts := []emu.MachineOption{}
	if *timingPath != "" {
		tc, err := latency.LoadConfig(*timingPath)
		if err != nil {
			fail("Error loading timing config: %v", err)
		}
		opts = append(opts, emu.WithTimingConfig(tc))
	}
	if *inputPath != "" {
		words, err := loader.LoadWords(*inputPath)
		if err != nil {
			fail("Error loading input: %v", err)
		}
		opts = append(opts, emu.WithInput(words))
		if *verbose {
			fmt.Printf("Input: %s (%d words)\n", *inputPath, len(words))
		}
	}

	m, err := emu.NewMachine(cfg, opts...)
	if err != nil {
		fail("Error building machine: %v", err)
	}
	m.LoadProgram(prog.Instructions)

	r, err := m.Run()
	if err != nil {
		fail("Run failed: %v", err)
	}

	printSummary(r)

	if *reportPath != "" {
		if err := r.Save(*reportPath); err != nil {
			fail("Error writing report: %v", err)
		}
		if *verbose {
			fmt.Printf("Report written to %s\n", *reportPath)
		}
	}

	if *goldenPath != "" {
		golden, err := report.Load(*goldenPath)
		if err != nil {
			fail("Error loading golden report: %v", err)
		}
		mismatches := r.Compare(golden)
		if len(mismatches) > 0 {
			fmt.Fprintf(os.Stderr, "Golden comparison failed:\n")
			for _, msg := range mismatches {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
			atexit.Exit(2)
		}
		fmt.Printf("Golden comparison passed\n")
	}

	atexit.Exit(0)
}

func printSummary(r *report.Report) {
	fmt.Printf("\n")
	fmt.Printf("Total Instructions: %d\n", r.Instructions)
	fmt.Printf("Total Cycles: %d\n", r.TotalCycles)
	if r.Instructions > 0 {
		fmt.Printf("CPI: %.2f\n", float64(r.TotalCycles)/float64(r.Instructions))
	}
	fmt.Printf("Halted: %v  Interrupted: %v\n", r.Halted, r.Interrupted)
	fmt.Printf("Skew: %.4f (threshold %.4f, pass=%v)\n",
		r.Skew.Skew, r.Skew.Threshold, r.Skew.Pass)
	for _, v := range r.TimingViolations {
		fmt.Printf("Timing violation: %s\n", v)
	}

	if *verbose {
		fmt.Printf("\nLanes (%d effective channels):\n", r.EffectiveChannels)
		for _, lt := range r.Lanes {
			fmt.Printf("  lane %d: %d words over %d sub-channels\n",
				lt.Lane, lt.Words, lt.SubChannels)
		}
		fmt.Printf("\nBranch: %d predictions, %.1f%% accurate\n",
			r.Branch.Predictions, r.Branch.Accuracy())
		fmt.Printf("Overflows: %d engine, %d ALU\n",
			len(r.EngineOverflows), len(r.ALUOverflows))
		if r.LogDomain {
			fmt.Printf("Log-domain ADD/SUB throughput: %d effective ops\n",
				r.EffectiveAddSubOps)
		}
		fmt.Printf("\nOutputs:\n")
		for i, w := range r.Outputs {
			fmt.Printf("  %d: %s\n", i, w)
		}
		fmt.Printf("\nRegisters:\n")
		for name, val := range r.Registers {
			fmt.Printf("  %-4s tier %d  %s\n", name, r.Tiers[name], val)
		}
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	atexit.Exit(1)
}
