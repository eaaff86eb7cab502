// Package benchmarks provides the scenario harness for exercising the
// simulator end to end and reporting cycle and throughput figures.
package benchmarks

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/emu"
	"github.com/sarchlab/ternsim/insts"
	"github.com/sarchlab/ternsim/trit"
)

// BenchmarkResult holds the outcome of a single scenario run.
type BenchmarkResult struct {
	// Name identifies the scenario.
	Name string `json:"name"`

	// Description explains what the scenario exercises.
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count of the run.
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions.
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction.
	CPI float64 `json:"cpi"`

	// OutputWords is the number of words the run emitted.
	OutputWords int `json:"output_words"`

	// EngineOverflows counts accumulator carry-outs in the systolic engine.
	EngineOverflows int `json:"engine_overflows"`

	// Branch predictor stats.
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// Failure is empty on success; otherwise it describes what went wrong,
	// including an output mismatch against the scenario's expectation.
	Failure string `json:"failure,omitempty"`

	// WallTime is the host time the simulation took.
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single scenario.
type Benchmark struct {
	// Name identifies the scenario.
	Name string

	// Description explains what the scenario exercises.
	Description string

	// Config is the run configuration; nil uses the default.
	Config *config.Config

	// Program is the instruction sequence to run.
	Program []*insts.Instruction

	// Input is the word stream the program consumes.
	Input []trit.Word

	// ExpectedOutputs optionally pins the exact output stream.
	ExpectedOutputs []string
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Output is where to write results (default: os.Stdout).
	Output io.Writer

	// Verbose enables per-scenario result lines.
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs scenarios and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config: config,
	}
}

// AddBenchmark adds a scenario to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple scenarios to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every scenario and returns the results in order.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)

		if h.config.Verbose {
			fmt.Fprintf(h.config.Output,
				"%-16s cycles=%d insts=%d cpi=%.3f outputs=%d\n",
				result.Name, result.SimulatedCycles,
				result.InstructionsRetired, result.CPI, result.OutputWords)
		}
	}
	return results
}

func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	cfg := bench.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m, err := emu.NewMachine(cfg, emu.WithInput(bench.Input))
	if err != nil {
		result.Failure = err.Error()
		return result
	}
	m.LoadProgram(bench.Program)

	start := time.Now()
	r, err := m.Run()
	result.WallTime = time.Since(start)
	if err != nil {
		result.Failure = err.Error()
		return result
	}

	result.SimulatedCycles = r.TotalCycles
	result.InstructionsRetired = r.Instructions
	if r.Instructions > 0 {
		result.CPI = float64(r.TotalCycles) / float64(r.Instructions)
	}
	result.OutputWords = len(r.Outputs)
	result.EngineOverflows = len(r.EngineOverflows)
	result.BranchPredictions = r.Branch.Predictions
	result.BranchCorrect = r.Branch.Correct
	result.BranchMispredictions = r.Branch.Mispredictions
	result.BranchAccuracyPercent = r.Branch.Accuracy()

	if bench.ExpectedOutputs != nil {
		if len(r.Outputs) != len(bench.ExpectedOutputs) {
			result.Failure = fmt.Sprintf(
				"expected %d outputs, got %d",
				len(bench.ExpectedOutputs), len(r.Outputs))
			return result
		}
		for i, want := range bench.ExpectedOutputs {
			if r.Outputs[i] != want {
				result.Failure = fmt.Sprintf(
					"output %d: expected %s, got %s", i, want, r.Outputs[i])
				return result
			}
		}
	}
	return result
}
