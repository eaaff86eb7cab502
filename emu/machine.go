// Package emu provides the sequencer that drives the accelerator model.
//
// A Machine owns the clock, the tiered register file, the lane multiplexer,
// the systolic engine, the branch predictor, and the latency table, and runs
// one decoded program to completion under a single cooperative time base.
package emu

import (
	"fmt"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/insts"
	"github.com/sarchlab/ternsim/lane"
	"github.com/sarchlab/ternsim/mem"
	"github.com/sarchlab/ternsim/report"
	"github.com/sarchlab/ternsim/systolic"
	"github.com/sarchlab/ternsim/timing/clock"
	"github.com/sarchlab/ternsim/timing/latency"
	"github.com/sarchlab/ternsim/timing/predictor"
	"github.com/sarchlab/ternsim/trit"
)

// Machine is the sequencer plus every unit it schedules.
type Machine struct {
	cfg *config.Config

	clock   *clock.Clock
	memory  *mem.Memory
	mux     *lane.Mux
	array   *systolic.Array
	pred    *predictor.Predictor
	latency *latency.Table
	decoder *insts.Decoder

	validator lane.Validator
	handles   map[int]*lane.Handle

	program []*insts.Instruction
	pc      int

	input   []trit.Word
	inPos   int
	outputs []trit.Word

	skew         clock.SkewResult
	violations   []string
	aluOverflows []report.ALUOverflow

	instructionCount uint64
	addSubOps        uint64
	halted           bool
	interrupted      bool
}

// MachineOption is a functional option for configuring the Machine.
type MachineOption func(*Machine)

// WithValidator sets the physics collaborator consulted for the lane
// assignment. Defaults to the analytic validator.
func WithValidator(v lane.Validator) MachineOption {
	return func(m *Machine) {
		m.validator = v
	}
}

// WithTimingConfig sets custom instruction timing values.
func WithTimingConfig(tc *latency.TimingConfig) MachineOption {
	return func(m *Machine) {
		m.latency = latency.NewTableWithConfig(tc)
	}
}

// WithInput sets the input word stream consumed by loads and engine
// operations.
func WithInput(words []trit.Word) MachineOption {
	return func(m *Machine) {
		m.input = append([]trit.Word(nil), words...)
	}
}

// laneSink collects drained engine outputs into the machine output stream.
type laneSink struct {
	m *Machine
}

func (s *laneSink) Dispatch(laneID int, words []trit.Word) error {
	s.m.outputs = append(s.m.outputs, words...)
	return nil
}

// NewMachine builds a machine from the configuration. Configuration errors,
// including a rejected lane assignment and an invalid skew geometry, surface
// here, before any cycle is charged.
func NewMachine(cfg *config.Config, opts ...MachineOption) (*Machine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:     cfg.Clone(),
		clock:   clock.New(cfg.ClockPeriodPS),
		latency: latency.NewTable(),
		decoder: insts.NewDecoder(),
		pred:    predictor.New(predictor.DefaultConfig()),
		handles: map[int]*lane.Handle{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.validator == nil {
		m.validator = lane.AnalyticValidator{}
	}
	if m.cfg.MispredictPenalty != 0 {
		tc := m.latency.Config().Clone()
		tc.BranchMispredictPenalty = m.cfg.MispredictPenalty
		m.latency = latency.NewTableWithConfig(tc)
	}

	mux, err := lane.NewMux(m.cfg.Lanes, m.validator)
	if err != nil {
		return nil, err
	}
	m.mux = mux

	nPEs := m.cfg.Rows * m.cfg.Cols * len(mux.EnabledIDs())
	skew, err := clock.ValidateSkew(nPEs, m.cfg.SkewThreshold)
	if err != nil {
		return nil, err
	}
	m.skew = skew
	if !skew.Pass {
		m.violations = append(m.violations, fmt.Sprintf(
			"clock skew %.4f exceeds threshold %.4f across %d PEs",
			skew.Skew, skew.Threshold, skew.PEs))
	}

	m.array, err = systolic.NewArray(
		m.cfg.Rows, m.cfg.Cols, mux.EnabledIDs(), m.cfg.WeightWriteUnits)
	if err != nil {
		return nil, err
	}

	m.memory, err = mem.New(m.cfg.Tiers)
	if err != nil {
		return nil, err
	}

	sink := &laneSink{m: m}
	for _, id := range mux.EnabledIDs() {
		h, err := mux.Bind(id, sink)
		if err != nil {
			return nil, err
		}
		m.handles[id] = h
	}

	return m, nil
}

// LoadProgram installs an already-decoded program.
func (m *Machine) LoadProgram(program []*insts.Instruction) {
	m.program = program
	m.pc = 0
}

// LoadProgramWords decodes a program of instruction words up front. A single
// undecodable word rejects the whole program; nothing runs and no cycle is
// charged.
func (m *Machine) LoadProgramWords(words []trit.Word) error {
	program := make([]*insts.Instruction, len(words))
	for i, w := range words {
		inst, err := m.decoder.Decode(w)
		if err != nil {
			return fmt.Errorf("word %d: %w", i, err)
		}
		program[i] = inst
	}
	m.LoadProgram(program)
	return nil
}

// SetInput replaces the input word stream.
func (m *Machine) SetInput(words []trit.Word) {
	m.input = append([]trit.Word(nil), words...)
	m.inPos = 0
}

// Outputs returns the store stream emitted so far.
func (m *Machine) Outputs() []trit.Word {
	return m.outputs
}

// Clock exposes the shared time base.
func (m *Machine) Clock() *clock.Clock {
	return m.clock
}

func (m *Machine) popInput() (trit.Word, error) {
	if m.inPos >= len(m.input) {
		return trit.Word{}, fmt.Errorf("input stream exhausted at position %d", m.inPos)
	}
	w := m.input[m.inPos]
	m.inPos++
	return w, nil
}

// rowFromWord extracts the leading Cols trits of a word as one array row.
func (m *Machine) rowFromWord(w trit.Word) []trit.Trit {
	row := make([]trit.Trit, m.cfg.Cols)
	for c := 0; c < m.cfg.Cols; c++ {
		row[c] = w.Trit(c)
	}
	return row
}

func (m *Machine) resolveLane(inst *insts.Instruction) (*lane.Handle, error) {
	id := inst.Lane
	if id < 0 {
		ids := m.mux.EnabledIDs()
		if len(ids) == 0 {
			return nil, fmt.Errorf("no enabled lane to default to")
		}
		id = ids[0]
	}
	h, ok := m.handles[id]
	if !ok {
		return nil, fmt.Errorf("lane %d is not bound", id)
	}
	return h, nil
}

// Run executes the loaded program to completion: HALT, falling off the end
// of the program, or the MaxCycles interrupt. One fill cycle is charged when
// the sequencer starts; each instruction then charges its full latency
// atomically, so the interrupt check only fires at fetch boundaries.
func (m *Machine) Run() (*report.Report, error) {
	if len(m.program) == 0 {
		return nil, fmt.Errorf("no program loaded")
	}

	// Initial pipeline fill: the first fetch/decode overlaps nothing.
	m.clock.Advance(1)

	for !m.halted {
		if m.cfg.MaxCycles > 0 && m.clock.Now() >= m.cfg.MaxCycles {
			m.interrupted = true
			break
		}
		if m.pc < 0 || m.pc >= len(m.program) {
			break
		}

		inst := m.program[m.pc]
		cycles, next, err := m.execute(inst)
		if err != nil {
			return nil, fmt.Errorf("pc %d (%s): %w", m.pc, inst.Op, err)
		}
		m.clock.Advance(cycles)
		m.instructionCount++
		m.pc = next
	}

	return m.buildReport(), nil
}

// execute performs one instruction and returns its cycle charge and the next
// program counter.
func (m *Machine) execute(inst *insts.Instruction) (uint64, int, error) {
	next := m.pc + 1

	switch inst.Op {
	case insts.OpNOP:
		return 1, next, nil

	case insts.OpHALT:
		m.halted = true
		return 1, next, nil

	case insts.OpLDI:
		_, err := m.memory.Write(inst.Dst, trit.FromInt64(inst.Imm))
		if err != nil {
			return 0, 0, err
		}
		return m.latency.GetLatency(inst), next, nil

	case insts.OpLD1, insts.OpLD2, insts.OpLD3:
		w, err := m.popInput()
		if err != nil {
			return 0, 0, err
		}
		res, err := m.memory.Write(inst.Dst, w)
		if err != nil {
			return 0, 0, err
		}
		return m.latency.TierLatency(res.Tier), next, nil

	case insts.OpST1, insts.OpST2, insts.OpST3:
		w, res, err := m.memory.Read(inst.Dst)
		if err != nil {
			return 0, 0, err
		}
		m.outputs = append(m.outputs, w)
		return m.latency.TierLatency(res.Tier), next, nil

	case insts.OpMOV:
		w, _, err := m.memory.Read(inst.Src1)
		if err != nil {
			return 0, 0, err
		}
		if _, err := m.memory.Write(inst.Dst, w); err != nil {
			return 0, 0, err
		}
		return m.latency.GetLatency(inst), next, nil

	case insts.OpADD, insts.OpSUB:
		return m.executeAddSub(inst, next)

	case insts.OpMUL, insts.OpDIV:
		return m.executeMulDiv(inst, next)

	case insts.OpBR3:
		return m.executeBR3(inst)

	case insts.OpJMP:
		return m.latency.GetLatency(inst), inst.TargetZero, nil

	case insts.OpLDW:
		return m.executeLoadWeights(inst, next)

	case insts.OpSTRM:
		return m.executeStream(inst, next)

	case insts.OpDRN:
		return m.executeDrain(inst, next)

	case insts.OpPRM:
		if err := m.memory.Promote(inst.Dst); err != nil {
			return 0, 0, err
		}
		return 1, next, nil

	case insts.OpDMT:
		if err := m.memory.Demote(inst.Dst); err != nil {
			return 0, 0, err
		}
		return 1, next, nil

	default:
		return 0, 0, fmt.Errorf("unimplemented op %s", inst.Op)
	}
}

func (m *Machine) executeAddSub(inst *insts.Instruction, next int) (uint64, int, error) {
	a, _, err := m.memory.Read(inst.Src1)
	if err != nil {
		return 0, 0, err
	}
	b, _, err := m.memory.Read(inst.Src2)
	if err != nil {
		return 0, 0, err
	}

	var sum trit.Word
	var carry trit.Trit
	if inst.Op == insts.OpADD {
		sum, carry = trit.Add(a, b)
	} else {
		sum, carry = trit.Sub(a, b)
	}
	if carry != trit.Zero {
		m.aluOverflows = append(m.aluOverflows, report.ALUOverflow{
			PC:    m.pc,
			Op:    inst.Op.String(),
			Cycle: m.clock.Now(),
		})
	}
	if _, err := m.memory.Write(inst.Dst, sum); err != nil {
		return 0, 0, err
	}
	m.addSubOps++
	return m.latency.GetLatency(inst), next, nil
}

func (m *Machine) executeMulDiv(inst *insts.Instruction, next int) (uint64, int, error) {
	a, _, err := m.memory.Read(inst.Src1)
	if err != nil {
		return 0, 0, err
	}
	b, _, err := m.memory.Read(inst.Src2)
	if err != nil {
		return 0, 0, err
	}

	av, aok := a.Int64()
	bv, bok := b.Int64()
	var result trit.Word
	overflow := !aok || !bok

	switch {
	case overflow:
	case inst.Op == insts.OpMUL:
		prod := av * bv
		if av != 0 && prod/av != bv {
			overflow = true
		} else {
			result = trit.FromInt64(prod)
		}
	case bv == 0:
		overflow = true
	default:
		result = trit.FromInt64(av / bv)
	}

	if overflow {
		m.aluOverflows = append(m.aluOverflows, report.ALUOverflow{
			PC:    m.pc,
			Op:    inst.Op.String(),
			Cycle: m.clock.Now(),
		})
	}
	if _, err := m.memory.Write(inst.Dst, result); err != nil {
		return 0, 0, err
	}
	return m.latency.GetLatency(inst), next, nil
}

func (m *Machine) executeBR3(inst *insts.Instruction) (uint64, int, error) {
	w, _, err := m.memory.Read(inst.Cond)
	if err != nil {
		return 0, 0, err
	}
	resolved := w.Sign()

	predicted := m.pred.Predict(uint64(m.pc))
	m.pred.Update(uint64(m.pc), resolved)

	cycles := m.latency.GetLatency(inst)
	if predicted != resolved {
		cycles += m.latency.MispredictPenalty()
	}

	var next int
	switch resolved {
	case trit.Neg:
		next = inst.TargetNeg
	case trit.Zero:
		next = inst.TargetZero
	default:
		next = inst.TargetPos
	}
	return cycles, next, nil
}

func (m *Machine) executeLoadWeights(inst *insts.Instruction, next int) (uint64, int, error) {
	h, err := m.resolveLane(inst)
	if err != nil {
		return 0, 0, err
	}

	weights := make([][]trit.Trit, m.cfg.Rows)
	for r := range weights {
		w, err := m.popInput()
		if err != nil {
			return 0, 0, err
		}
		weights[r] = m.rowFromWord(w)
	}

	cycles, err := m.array.LoadWeights(h.Lane().ID, weights, m.clock.Now())
	if err != nil {
		return 0, 0, err
	}
	return cycles, next, nil
}

func (m *Machine) executeStream(inst *insts.Instruction, next int) (uint64, int, error) {
	h, err := m.resolveLane(inst)
	if err != nil {
		return 0, 0, err
	}
	w, err := m.popInput()
	if err != nil {
		return 0, 0, err
	}

	cycles, err := m.array.Stream(
		h.Lane().ID, [][]trit.Trit{m.rowFromWord(w)}, m.clock.Now())
	if err != nil {
		return 0, 0, err
	}
	return cycles, next, nil
}

func (m *Machine) executeDrain(inst *insts.Instruction, next int) (uint64, int, error) {
	h, err := m.resolveLane(inst)
	if err != nil {
		return 0, 0, err
	}

	words, cycles, err := m.array.Drain(h.Lane().ID, m.clock.Now())
	if err != nil {
		return 0, 0, err
	}
	if err := h.Dispatch(words); err != nil {
		return 0, 0, err
	}
	return cycles, next, nil
}

func (m *Machine) buildReport() *report.Report {
	r := &report.Report{
		TotalCycles:       m.clock.Now(),
		Instructions:      m.instructionCount,
		Halted:            m.halted,
		Interrupted:       m.interrupted,
		Registers:         map[string]string{},
		Tiers:             map[string]int{},
		Skew:              m.skew,
		TimingViolations:  m.violations,
		EffectiveChannels: m.mux.EffectiveChannels(),
		EngineOverflows:   m.array.Events(),
		ALUOverflows:      m.aluOverflows,
		Branch:            m.pred.Stats(),
		Memory:            m.memory.Stats(),
		AddSubOps:         m.addSubOps,
		LogDomain:         m.cfg.LogDomain,
	}

	for _, slot := range m.memory.Snapshot() {
		name := slot.Reg.String()
		r.Registers[name] = slot.Value.String()
		r.Tiers[name] = slot.Tier
	}
	for _, w := range m.outputs {
		r.Outputs = append(r.Outputs, w.String())
	}
	for _, id := range m.mux.EnabledIDs() {
		l, _ := m.mux.Lane(id)
		r.Lanes = append(r.Lanes, report.LaneThroughput{
			Lane:        id,
			SubChannels: l.SubChannels,
			Words:       m.mux.Dispatched(id),
		})
	}

	r.EffectiveAddSubOps = r.AddSubOps
	if m.cfg.LogDomain {
		// The 3^3 encoding folds nine trit additions into one carry-free
		// operation; accounting applies post hoc, the table is untouched.
		r.EffectiveAddSubOps = r.AddSubOps * 9
	}
	return r
}
