// Package mem provides the tiered register file.
//
// The hierarchy holds three tiers with fixed capacities and access latencies.
// Values are placed in the innermost tier first; a full tier spills its
// least-recently-used occupant one tier down before the new value is placed.
// A value lives in exactly one tier at a time, and only Promote/Demote (or a
// spill, which is a forced demotion) ever change a value's tier.
//
// Tier occupancy and LRU tracking reuse the Akita cache directory: each tier
// is a one-set directory with one way per register slot, so the directory's
// LRU victim finder yields the spill candidate directly.
package mem

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/insts"
	"github.com/sarchlab/ternsim/trit"
)

// AccessResult reports the cost of one register access.
type AccessResult struct {
	// Tier is the 1-based tier the value resided in.
	Tier int
	// LatencyUnits is the tier's access latency in time units.
	LatencyUnits uint64
	// StallCycles is the cycle charge implied by the tier's access
	// latency: the stall doubles with every decade, so the architectural
	// tiers at 1/10/100 time units cost 2/4/8 cycles. The default timing
	// table mirrors this derivation; the sequencer charges memory ops
	// through the table so a custom timing config can override it.
	StallCycles uint64
}

// StallCycles converts a tier access latency to a cycle charge: base 2,
// doubling per decade of latency.
func StallCycles(latencyUnits uint64) uint64 {
	c := uint64(2)
	for latencyUnits >= 10 {
		latencyUnits /= 10
		c *= 2
	}
	return c
}

// Stats holds register-file statistics.
type Stats struct {
	// Reads and Writes count accesses through the contract.
	Reads  uint64
	Writes uint64
	// Spills counts forced demotions out of a full tier.
	Spills uint64
	// Promotes and Demotes count explicit tier moves.
	Promotes uint64
	Demotes  uint64
}

// Slot describes where a register currently lives, for the run report.
type Slot struct {
	Reg   insts.Reg
	Tier  int
	Value trit.Word
}

type tier struct {
	index        int
	capacity     int
	latencyUnits uint64
	directory    *akitacache.DirectoryImpl
}

// Memory is the tiered register file. It exclusively owns every register
// slot; the sequencer and the array engine only go through
// Allocate/Read/Write/Promote/Demote.
type Memory struct {
	tiers  []*tier
	values [insts.NumRegs]trit.Word
	stats  Stats
}

// New builds a register file from the tier configuration, innermost first.
func New(tiers []config.TierConfig) (*Memory, error) {
	if len(tiers) == 0 {
		return nil, &config.ConfigurationError{
			Field:  "tiers",
			Reason: "at least one tier is required",
		}
	}

	m := &Memory{}
	for i, tc := range tiers {
		if tc.Capacity <= 0 {
			return nil, &config.ConfigurationError{
				Field:  "tiers",
				Reason: fmt.Sprintf("tier %d capacity must be > 0", i+1),
			}
		}
		m.tiers = append(m.tiers, &tier{
			index:        i + 1,
			capacity:     tc.Capacity,
			latencyUnits: tc.LatencyUnits,
			directory: akitacache.NewDirectory(
				1, tc.Capacity, 1,
				akitacache.NewLRUVictimFinder(),
			),
		})
	}
	return m, nil
}

// lookup finds the tier currently holding the register.
func (m *Memory) lookup(r insts.Reg) (*tier, *akitacache.Block) {
	for _, t := range m.tiers {
		if b := t.directory.Lookup(0, uint64(r)); b != nil && b.IsValid {
			return t, b
		}
	}
	return nil, nil
}

// place inserts the register into the given tier, spilling the tier's LRU
// occupant downward first when the tier is full. Spills cascade.
func (m *Memory) place(tierIdx int, r insts.Reg) error {
	if tierIdx >= len(m.tiers) {
		return fmt.Errorf("register hierarchy exhausted placing %v", r)
	}

	t := m.tiers[tierIdx]
	victim := t.directory.FindVictim(uint64(r))
	if victim == nil {
		return fmt.Errorf("tier %d has no victim slot", t.index)
	}
	if victim.IsValid {
		spilled := insts.Reg(victim.Tag)
		victim.IsValid = false
		m.stats.Spills++
		if err := m.place(tierIdx+1, spilled); err != nil {
			return err
		}
	}

	victim.Tag = uint64(r)
	victim.IsValid = true
	t.directory.Visit(victim)
	return nil
}

// Allocate places a register in the innermost tier, spilling as needed, and
// zeroes its value. Allocating an already-resident register resets it in
// place.
func (m *Memory) Allocate(r insts.Reg) error {
	if !r.Valid() {
		return fmt.Errorf("invalid register %d", r)
	}
	if t, b := m.lookup(r); t != nil {
		m.values[r] = trit.Word{}
		t.directory.Visit(b)
		return nil
	}
	m.values[r] = trit.Word{}
	return m.place(0, r)
}

// ensure places an absent register into the innermost tier on first touch.
func (m *Memory) ensure(r insts.Reg) (*tier, *akitacache.Block, error) {
	if t, b := m.lookup(r); t != nil {
		return t, b, nil
	}
	if err := m.place(0, r); err != nil {
		return nil, nil, err
	}
	t, b := m.lookup(r)
	return t, b, nil
}

// Read returns the register's value and the access cost of its current tier.
// Reading refreshes the register's LRU position.
func (m *Memory) Read(r insts.Reg) (trit.Word, AccessResult, error) {
	if !r.Valid() {
		return trit.Word{}, AccessResult{}, fmt.Errorf("invalid register %d", r)
	}
	t, b, err := m.ensure(r)
	if err != nil {
		return trit.Word{}, AccessResult{}, err
	}
	t.directory.Visit(b)
	m.stats.Reads++
	return m.values[r], m.access(t), nil
}

// Write stores a value into the register's current slot, charging the cost
// of the tier the register resides in.
func (m *Memory) Write(r insts.Reg, w trit.Word) (AccessResult, error) {
	if !r.Valid() {
		return AccessResult{}, fmt.Errorf("invalid register %d", r)
	}
	t, b, err := m.ensure(r)
	if err != nil {
		return AccessResult{}, err
	}
	m.values[r] = w
	t.directory.Visit(b)
	m.stats.Writes++
	return m.access(t), nil
}

func (m *Memory) access(t *tier) AccessResult {
	return AccessResult{
		Tier:         t.index,
		LatencyUnits: t.latencyUnits,
		StallCycles:  StallCycles(t.latencyUnits),
	}
}

// Promote moves a register one tier inward. Promoting out of the innermost
// tier is a no-op. The destination tier spills its LRU occupant if full.
func (m *Memory) Promote(r insts.Reg) error {
	t, b, err := m.ensure(r)
	if err != nil {
		return err
	}
	if t.index == 1 {
		return nil
	}
	b.IsValid = false
	m.stats.Promotes++
	return m.place(t.index-2, r)
}

// Demote moves a register one tier outward. Demoting out of the outermost
// tier is an error: there is nowhere left to spill to.
func (m *Memory) Demote(r insts.Reg) error {
	t, b, err := m.ensure(r)
	if err != nil {
		return err
	}
	if t.index == len(m.tiers) {
		return fmt.Errorf("cannot demote %v below tier %d", r, t.index)
	}
	b.IsValid = false
	m.stats.Demotes++
	return m.place(t.index, r)
}

// TierOf reports which tier currently holds the register, or false if the
// register has never been touched.
func (m *Memory) TierOf(r insts.Reg) (int, bool) {
	if t, _ := m.lookup(r); t != nil {
		return t.index, true
	}
	return 0, false
}

// Stats returns the register-file statistics.
func (m *Memory) Stats() Stats {
	return m.stats
}

// Snapshot lists every resident register with its tier and value, ordered by
// register index. Used by the run report.
func (m *Memory) Snapshot() []Slot {
	var out []Slot
	for r := insts.Reg(0); r < insts.NumRegs; r++ {
		if tierIdx, ok := m.TierOf(r); ok {
			out = append(out, Slot{Reg: r, Tier: tierIdx, Value: m.values[r]})
		}
	}
	return out
}
