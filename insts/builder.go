package insts

// InstBuilder constructs instructions fluently. The zero value is unusable;
// start from NewInst.
type InstBuilder struct {
	inst Instruction
}

// NewInst starts building an instruction with the given opcode.
func NewInst(op Op) InstBuilder {
	return InstBuilder{inst: Instruction{Op: op, Lane: -1}}
}

// WithDst sets the destination register.
func (b InstBuilder) WithDst(r Reg) InstBuilder {
	b.inst.Dst = r
	return b
}

// WithSrcs sets the two source registers.
func (b InstBuilder) WithSrcs(s1, s2 Reg) InstBuilder {
	b.inst.Src1 = s1
	b.inst.Src2 = s2
	return b
}

// WithSrc sets the single source register of MOV.
func (b InstBuilder) WithSrc(r Reg) InstBuilder {
	b.inst.Src1 = r
	return b
}

// WithImm sets the immediate operand.
func (b InstBuilder) WithImm(v int64) InstBuilder {
	b.inst.Imm = v
	return b
}

// WithCond sets the BR3 condition register.
func (b InstBuilder) WithCond(r Reg) InstBuilder {
	b.inst.Cond = r
	return b
}

// WithTargets sets the three BR3 successor addresses.
func (b InstBuilder) WithTargets(neg, zero, pos int) InstBuilder {
	b.inst.TargetNeg = neg
	b.inst.TargetZero = zero
	b.inst.TargetPos = pos
	return b
}

// WithTarget sets the JMP target.
func (b InstBuilder) WithTarget(t int) InstBuilder {
	b.inst.TargetZero = t
	return b
}

// WithLane sets the lane of a systolic operation. A negative lane leaves the
// choice to the sequencer, which uses the first enabled lane.
func (b InstBuilder) WithLane(lane int) InstBuilder {
	b.inst.Lane = lane
	return b
}

// Build returns the constructed instruction.
func (b InstBuilder) Build() *Instruction {
	i := b.inst
	return &i
}
