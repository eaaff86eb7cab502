// Package config holds the run configuration consumed by the simulator core.
// The core derives nothing from physics: clock period, skew threshold, and
// per-tier access latencies arrive here as externally supplied constants.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ConfigurationError reports an invalid configuration. It is fatal to a run
// and must surface before any cycle is charged.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// LaneConfig describes one wavelength lane.
type LaneConfig struct {
	// ID identifies the lane. IDs must be unique.
	ID int `json:"id"`
	// BaseWavelength is the lane's center wavelength in nanometers. Output
	// labels occupy fixed offsets from this base.
	BaseWavelength float64 `json:"base_wavelength"`
	// SubChannels is the number of sub-channels the lane carries.
	SubChannels int `json:"sub_channels"`
	// Enabled lanes contribute to throughput; disabled lanes contribute zero.
	Enabled bool `json:"enabled"`
}

// TierConfig describes one level of the register hierarchy.
type TierConfig struct {
	// Capacity is the number of register slots in the tier.
	Capacity int `json:"capacity"`
	// LatencyUnits is the access latency in time units.
	LatencyUnits uint64 `json:"latency_units"`
}

// Config is the full run configuration.
type Config struct {
	// Rows and Cols size the systolic array.
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// Lanes lists the wavelength lanes sharing the systolic substrate.
	Lanes []LaneConfig `json:"lanes"`

	// ClockPeriodPS is the clock period in picoseconds.
	ClockPeriodPS float64 `json:"clock_period_ps"`
	// SkewThreshold is the maximum tolerable H-tree skew fraction.
	SkewThreshold float64 `json:"skew_threshold"`

	// Tiers configures the register hierarchy, innermost first.
	Tiers []TierConfig `json:"tiers"`

	// WeightWriteUnits is the duration of one weight-write cycle: the time
	// to write one row of stationary weights into the PEs' bistable stores.
	WeightWriteUnits uint64 `json:"weight_write_units"`

	// LogDomain enables the 3^3 log-domain encoding, a post-hoc 9x
	// throughput multiplier on ADD/SUB cycle accounting. The arithmetic
	// truth table is unaffected.
	LogDomain bool `json:"log_domain"`

	// MispredictPenalty is the extra cycle charge for a BR3 misprediction.
	MispredictPenalty uint64 `json:"mispredict_penalty"`

	// MaxCycles bounds a run; 0 means no limit.
	MaxCycles uint64 `json:"max_cycles"`
}

// DefaultConfig returns the architectural configuration: a 9x9 array, six
// lanes of three sub-channels, three tiers of 4/16/32 slots at 1/10/100 time
// units, and a 5% skew threshold.
func DefaultConfig() *Config {
	lanes := make([]LaneConfig, 6)
	for i := range lanes {
		lanes[i] = LaneConfig{
			ID:             i,
			BaseWavelength: 1530 + 10*float64(i),
			SubChannels:    3,
			Enabled:        true,
		}
	}

	return &Config{
		Rows:          9,
		Cols:          9,
		Lanes:         lanes,
		ClockPeriodPS: 100,
		SkewThreshold: 0.05,
		Tiers: []TierConfig{
			{Capacity: 4, LatencyUnits: 1},
			{Capacity: 16, LatencyUnits: 10},
			{Capacity: 32, LatencyUnits: 100},
		},
		WeightWriteUnits:  10,
		MispredictPenalty: 0,
	}
}

// Load reads a Config from a JSON file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks structural invariants. Violations are ConfigurationErrors
// and abort the run before any cycle is charged.
func (c *Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return &ConfigurationError{
			Field:  "rows/cols",
			Reason: fmt.Sprintf("array must be at least 1x1, got %dx%d", c.Rows, c.Cols),
		}
	}
	if len(c.Lanes) == 0 {
		return &ConfigurationError{
			Field:  "lanes",
			Reason: "at least one lane is required",
		}
	}
	seen := map[int]bool{}
	for _, l := range c.Lanes {
		if seen[l.ID] {
			return &ConfigurationError{
				Field:  "lanes",
				Reason: fmt.Sprintf("duplicate lane id %d", l.ID),
			}
		}
		seen[l.ID] = true
		if l.SubChannels <= 0 {
			return &ConfigurationError{
				Field:  "lanes",
				Reason: fmt.Sprintf("lane %d must carry at least one sub-channel", l.ID),
			}
		}
	}
	if len(c.Tiers) == 0 {
		return &ConfigurationError{
			Field:  "tiers",
			Reason: "at least one tier is required",
		}
	}
	for i, t := range c.Tiers {
		if t.Capacity <= 0 {
			return &ConfigurationError{
				Field:  "tiers",
				Reason: fmt.Sprintf("tier %d capacity must be > 0, got %d", i+1, t.Capacity),
			}
		}
		if t.LatencyUnits == 0 {
			return &ConfigurationError{
				Field:  "tiers",
				Reason: fmt.Sprintf("tier %d latency must be > 0", i+1),
			}
		}
	}
	if c.SkewThreshold <= 0 {
		return &ConfigurationError{
			Field:  "skew_threshold",
			Reason: "threshold must be a positive fraction",
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Lanes = append([]LaneConfig(nil), c.Lanes...)
	clone.Tiers = append([]TierConfig(nil), c.Tiers...)
	return &clone
}

// EnabledLanes returns the enabled lane configurations.
func (c *Config) EnabledLanes() []LaneConfig {
	var out []LaneConfig
	for _, l := range c.Lanes {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}
