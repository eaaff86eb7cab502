// Package report defines the machine-comparable run report.
//
// A report captures everything a run is judged by: final register and tier
// contents, total cycles, the skew verdict, per-lane throughput, overflow
// events, and instruction and branch statistics. Reports serialize to JSON
// and compare field-by-field against a golden report.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/ternsim/mem"
	"github.com/sarchlab/ternsim/systolic"
	"github.com/sarchlab/ternsim/timing/clock"
	"github.com/sarchlab/ternsim/timing/predictor"
)

// LaneThroughput is one lane's contribution to the run.
type LaneThroughput struct {
	Lane        int    `json:"lane"`
	SubChannels int    `json:"sub_channels"`
	Words       uint64 `json:"words"`
}

// ALUOverflow records a carry-out from a sequencer arithmetic instruction.
// Like engine overflows it is informational: the result is never clamped.
type ALUOverflow struct {
	PC    int    `json:"pc"`
	Op    string `json:"op"`
	Cycle uint64 `json:"cycle"`
}

// Report is the full outcome of a run.
type Report struct {
	TotalCycles  uint64 `json:"total_cycles"`
	Instructions uint64 `json:"instructions"`
	Halted       bool   `json:"halted"`
	Interrupted  bool   `json:"interrupted"`

	// Registers maps register names to balanced-ternary value strings;
	// Tiers maps the same names to the tier each register ended in.
	Registers map[string]string `json:"registers"`
	Tiers     map[string]int    `json:"tiers"`

	// Outputs is the store stream, in emission order.
	Outputs []string `json:"outputs"`

	Skew             clock.SkewResult `json:"skew"`
	TimingViolations []string         `json:"timing_violations,omitempty"`

	EffectiveChannels int              `json:"effective_channels"`
	Lanes             []LaneThroughput `json:"lanes"`

	EngineOverflows []systolic.OverflowEvent `json:"engine_overflows,omitempty"`
	ALUOverflows    []ALUOverflow            `json:"alu_overflows,omitempty"`

	Branch predictor.Stats `json:"branch"`
	Memory mem.Stats       `json:"memory"`

	// AddSubOps counts combine-unit ADD/SUB instructions retired.
	// EffectiveAddSubOps applies the 9x log-domain multiplier when the run
	// used the 3^3 encoding; otherwise it equals AddSubOps.
	AddSubOps          uint64 `json:"add_sub_ops"`
	LogDomain          bool   `json:"log_domain"`
	EffectiveAddSubOps uint64 `json:"effective_add_sub_ops"`
}

// Save writes the report to a JSON file.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Load reads a report from a JSON file.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	r := &Report{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return r, nil
}

// Compare checks this report against a golden reference and returns one
// message per mismatching field. An empty slice means the run reproduced the
// golden outcome.
func (r *Report) Compare(golden *Report) []string {
	var mismatches []string

	if r.TotalCycles != golden.TotalCycles {
		mismatches = append(mismatches, fmt.Sprintf(
			"total cycles: got %d, want %d", r.TotalCycles, golden.TotalCycles))
	}
	if r.Instructions != golden.Instructions {
		mismatches = append(mismatches, fmt.Sprintf(
			"instructions: got %d, want %d", r.Instructions, golden.Instructions))
	}
	if r.Halted != golden.Halted {
		mismatches = append(mismatches, fmt.Sprintf(
			"halted: got %v, want %v", r.Halted, golden.Halted))
	}
	if r.Interrupted != golden.Interrupted {
		mismatches = append(mismatches, fmt.Sprintf(
			"interrupted: got %v, want %v", r.Interrupted, golden.Interrupted))
	}

	for name, want := range golden.Registers {
		if got, ok := r.Registers[name]; !ok {
			mismatches = append(mismatches, fmt.Sprintf(
				"register %s: absent, want %s", name, want))
		} else if got != want {
			mismatches = append(mismatches, fmt.Sprintf(
				"register %s: got %s, want %s", name, got, want))
		}
	}
	for name := range r.Registers {
		if _, ok := golden.Registers[name]; !ok {
			mismatches = append(mismatches, fmt.Sprintf(
				"register %s: present, golden has none", name))
		}
	}
	for name, want := range golden.Tiers {
		if got, ok := r.Tiers[name]; !ok {
			mismatches = append(mismatches, fmt.Sprintf(
				"tier of %s: absent, want %d", name, want))
		} else if got != want {
			mismatches = append(mismatches, fmt.Sprintf(
				"tier of %s: got %d, want %d", name, got, want))
		}
	}
	for name := range r.Tiers {
		if _, ok := golden.Tiers[name]; !ok {
			mismatches = append(mismatches, fmt.Sprintf(
				"tier of %s: present, golden has none", name))
		}
	}

	if len(r.Outputs) != len(golden.Outputs) {
		mismatches = append(mismatches, fmt.Sprintf(
			"outputs: got %d words, want %d", len(r.Outputs), len(golden.Outputs)))
	} else {
		for i := range golden.Outputs {
			if r.Outputs[i] != golden.Outputs[i] {
				mismatches = append(mismatches, fmt.Sprintf(
					"output %d: got %s, want %s", i, r.Outputs[i], golden.Outputs[i]))
			}
		}
	}

	if r.Skew.Pass != golden.Skew.Pass {
		mismatches = append(mismatches, fmt.Sprintf(
			"skew pass: got %v, want %v", r.Skew.Pass, golden.Skew.Pass))
	}
	if len(r.EngineOverflows) != len(golden.EngineOverflows) {
		mismatches = append(mismatches, fmt.Sprintf(
			"engine overflows: got %d, want %d",
			len(r.EngineOverflows), len(golden.EngineOverflows)))
	}
	if len(r.ALUOverflows) != len(golden.ALUOverflows) {
		mismatches = append(mismatches, fmt.Sprintf(
			"alu overflows: got %d, want %d",
			len(r.ALUOverflows), len(golden.ALUOverflows)))
	}
	if r.Branch != golden.Branch {
		mismatches = append(mismatches, fmt.Sprintf(
			"branch stats: got %+v, want %+v", r.Branch, golden.Branch))
	}
	if r.EffectiveAddSubOps != golden.EffectiveAddSubOps {
		mismatches = append(mismatches, fmt.Sprintf(
			"effective add/sub ops: got %d, want %d",
			r.EffectiveAddSubOps, golden.EffectiveAddSubOps))
	}

	return mismatches
}
