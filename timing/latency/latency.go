// Package latency provides instruction timing for the cycle-level model.
//
// Compute latencies are fixed per instruction class. Memory instruction
// latencies are charged by the tier the target register currently lives in,
// not the tier named by the opcode, so a demoted register pays the outer
// tier's cost even through LD1.
package latency

import (
	"github.com/sarchlab/ternsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a latency table with the default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a latency table with custom timing values.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// instruction. Memory operations are charged by the tier the opcode names;
// callers that know the register's current tier should use TierLatency
// instead. Engine operations (LDW, STRM, DRN) report 1 here because their
// true occupancy comes from the systolic array.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpADD, insts.OpSUB, insts.OpMOV, insts.OpLDI:
		return t.config.ALULatency

	case insts.OpMUL:
		return t.config.MultiplyLatency

	case insts.OpDIV:
		return t.config.DivideLatency

	case insts.OpBR3, insts.OpJMP:
		return t.config.BranchLatency

	case insts.OpLD1, insts.OpST1:
		return t.config.Tier1AccessLatency

	case insts.OpLD2, insts.OpST2:
		return t.config.Tier2AccessLatency

	case insts.OpLD3, insts.OpST3:
		return t.config.Tier3AccessLatency

	default:
		return 1
	}
}

// TierLatency returns the access cycle count for a register resident in the
// given tier (1-based).
func (t *Table) TierLatency(tier int) uint64 {
	switch tier {
	case 1:
		return t.config.Tier1AccessLatency
	case 2:
		return t.config.Tier2AccessLatency
	case 3:
		return t.config.Tier3AccessLatency
	default:
		return t.config.Tier3AccessLatency
	}
}

// MispredictPenalty returns the extra cycles charged when BR3 resolves
// against the predicted arm.
func (t *Table) MispredictPenalty() uint64 {
	return t.config.BranchMispredictPenalty
}

// IsMemoryOp returns true if the instruction accesses the register file
// through the tiered memory path.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return t.IsLoadOp(inst) || t.IsStoreOp(inst)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpLD1, insts.OpLD2, insts.OpLD3:
		return true
	default:
		return false
	}
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpST1, insts.OpST2, insts.OpST3:
		return true
	default:
		return false
	}
}

// IsBranchOp returns true if the instruction redirects control flow.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpBR3 || inst.Op == insts.OpJMP
}

// IsEngineOp returns true if the instruction drives the systolic engine.
func (t *Table) IsEngineOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpLDW, insts.OpSTRM, insts.OpDRN:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
