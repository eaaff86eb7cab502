package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds cycle counts for the instruction classes of the
// ternary core.
type TimingConfig struct {
	// ALULatency is the execution latency for single-pass combine-unit
	// operations (ADD, SUB, MOV, LDI). Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MultiplyLatency is the latency for trit-serial multiply.
	// Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the latency for trit-serial divide.
	// Default: 5 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// BranchLatency is the base latency for BR3 and JMP, not counting
	// misprediction penalty. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchMispredictPenalty is the extra cycles lost when the three-way
	// predictor picks the wrong arm. Default: 0 cycles (the short pipeline
	// refills behind the redirect).
	BranchMispredictPenalty uint64 `json:"branch_mispredict_penalty"`

	// Tier1AccessLatency is the cycle count for LD1/ST1 when the register
	// lives in tier 1. Default: 2 cycles.
	Tier1AccessLatency uint64 `json:"tier1_access_latency"`

	// Tier2AccessLatency is the cycle count for LD2/ST2 when the register
	// lives in tier 2. Default: 4 cycles.
	Tier2AccessLatency uint64 `json:"tier2_access_latency"`

	// Tier3AccessLatency is the cycle count for LD3/ST3 when the register
	// lives in tier 3. Default: 8 cycles.
	Tier3AccessLatency uint64 `json:"tier3_access_latency"`
}

// DefaultTimingConfig returns the architectural cycle counts. The tier
// access latencies double per decade of tier access time.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:              1,
		MultiplyLatency:         3,
		DivideLatency:           5,
		BranchLatency:           1,
		BranchMispredictPenalty: 0,
		Tier1AccessLatency:      2,
		Tier2AccessLatency:      4,
		Tier3AccessLatency:      8,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Missing fields keep
// their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are usable.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.Tier1AccessLatency == 0 || c.Tier2AccessLatency == 0 || c.Tier3AccessLatency == 0 {
		return fmt.Errorf("tier access latencies must be > 0")
	}
	if c.Tier1AccessLatency > c.Tier2AccessLatency ||
		c.Tier2AccessLatency > c.Tier3AccessLatency {
		return fmt.Errorf("tier access latencies must be non-decreasing outward")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
