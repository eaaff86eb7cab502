// Package insts provides the ternary instruction set: opcode definitions,
// the trit-level instruction encoding, decoding, and a small assembler.
//
// An opcode is a 3-trit tuple, giving a 27-encoding opcode space. Operand
// fields follow the opcode inside an 81-trit instruction word.
package insts

import "fmt"

// Op represents a ternary opcode.
type Op uint8

// Opcodes. The numeric order is internal; the wire encoding is the 3-trit
// tuple assigned in the encoding table.
const (
	OpUnknown Op = iota
	OpNOP
	OpHALT
	OpLDI
	OpLD1
	OpLD2
	OpLD3
	OpST1
	OpST2
	OpST3
	OpMOV
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpBR3
	OpJMP
	OpLDW
	OpSTRM
	OpDRN
	OpPRM
	OpDMT
)

var opNames = map[Op]string{
	OpNOP:  "NOP",
	OpHALT: "HALT",
	OpLDI:  "LDI",
	OpLD1:  "LD1",
	OpLD2:  "LD2",
	OpLD3:  "LD3",
	OpST1:  "ST1",
	OpST2:  "ST2",
	OpST3:  "ST3",
	OpMOV:  "MOV",
	OpADD:  "ADD",
	OpSUB:  "SUB",
	OpMUL:  "MUL",
	OpDIV:  "DIV",
	OpBR3:  "BR3",
	OpJMP:  "JMP",
	OpLDW:  "LDW",
	OpSTRM: "STRM",
	OpDRN:  "DRN",
	OpPRM:  "PRM",
	OpDMT:  "DMT",
}

// String returns the mnemonic.
func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// Reg names a register slot in the tiered hierarchy. The global register
// space is ACC/TMP/A/B (tier 1 home), R0-R15 (tier 2), P0-P31 (tier 3).
type Reg uint8

// Tier-1 registers.
const (
	RegACC Reg = iota
	RegTMP
	RegA
	RegB
)

// Register file geometry.
const (
	NumTier1Regs = 4
	NumTier2Regs = 16
	NumTier3Regs = 32
	NumRegs      = NumTier1Regs + NumTier2Regs + NumTier3Regs
)

// R returns the tier-2 register Rn.
func R(n int) Reg {
	return Reg(NumTier1Regs + n)
}

// P returns the tier-3 register Pn.
func P(n int) Reg {
	return Reg(NumTier1Regs + NumTier2Regs + n)
}

// Valid reports whether the register index is in the architectural space.
func (r Reg) Valid() bool {
	return r < NumRegs
}

// HomeTier returns the tier (1-based) the register's name belongs to. A
// value may be demoted out of its home tier; the tiered memory tracks where
// it currently resides.
func (r Reg) HomeTier() int {
	switch {
	case r < NumTier1Regs:
		return 1
	case r < NumTier1Regs+NumTier2Regs:
		return 2
	default:
		return 3
	}
}

// String returns the register name.
func (r Reg) String() string {
	switch {
	case r == RegACC:
		return "ACC"
	case r == RegTMP:
		return "TMP"
	case r == RegA:
		return "A"
	case r == RegB:
		return "B"
	case r < NumTier1Regs+NumTier2Regs:
		return fmt.Sprintf("R%d", r-NumTier1Regs)
	case r < NumRegs:
		return fmt.Sprintf("P%d", r-NumTier1Regs-NumTier2Regs)
	default:
		return fmt.Sprintf("REG?%d", uint8(r))
	}
}

// ParseReg resolves a register name.
func ParseReg(name string) (Reg, error) {
	switch name {
	case "ACC":
		return RegACC, nil
	case "TMP":
		return RegTMP, nil
	case "A":
		return RegA, nil
	case "B":
		return RegB, nil
	}
	var n int
	if _, err := fmt.Sscanf(name, "R%d", &n); err == nil {
		if n >= 0 && n < NumTier2Regs {
			return R(n), nil
		}
		return 0, fmt.Errorf("register %q out of range", name)
	}
	if _, err := fmt.Sscanf(name, "P%d", &n); err == nil {
		if n >= 0 && n < NumTier3Regs {
			return P(n), nil
		}
		return 0, fmt.Errorf("register %q out of range", name)
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

// Instruction is one decoded instruction. Instructions are immutable once
// fetched; the sequencer never patches a decoded stream.
type Instruction struct {
	Op Op

	// Dst, Src1, Src2 are register operands. Which fields an opcode uses
	// is fixed by the ISA: three-operand arithmetic reads Src1/Src2 and
	// writes Dst; loads, stores, and promote/demote use Dst only.
	Dst  Reg
	Src1 Reg
	Src2 Reg

	// Imm is the immediate operand of LDI.
	Imm int64

	// Cond is the condition register of BR3.
	Cond Reg
	// TargetNeg, TargetZero, TargetPos are the three BR3 successor
	// addresses, selected by the sign of the condition register. JMP uses
	// TargetZero alone.
	TargetNeg  int
	TargetZero int
	TargetPos  int

	// Lane is the lane index of the systolic operations LDW/STRM/DRN.
	// A negative lane leaves the choice to the sequencer, which uses the
	// first enabled lane.
	Lane int
}

// String formats the instruction in assembly syntax.
func (i *Instruction) String() string {
	switch i.Op {
	case OpNOP, OpHALT:
		return i.Op.String()
	case OpLDI:
		return fmt.Sprintf("LDI %v, #%d", i.Dst, i.Imm)
	case OpLD1, OpLD2, OpLD3, OpST1, OpST2, OpST3, OpPRM, OpDMT:
		return fmt.Sprintf("%v %v", i.Op, i.Dst)
	case OpMOV:
		return fmt.Sprintf("MOV %v, %v", i.Dst, i.Src1)
	case OpADD, OpSUB, OpMUL, OpDIV:
		return fmt.Sprintf("%v %v, %v, %v", i.Op, i.Src1, i.Src2, i.Dst)
	case OpBR3:
		return fmt.Sprintf("BR3 %v, %d, %d, %d",
			i.Cond, i.TargetNeg, i.TargetZero, i.TargetPos)
	case OpJMP:
		return fmt.Sprintf("JMP %d", i.TargetZero)
	case OpLDW, OpSTRM, OpDRN:
		if i.Lane < 0 {
			return fmt.Sprintf("%v *", i.Op)
		}
		return fmt.Sprintf("%v %d", i.Op, i.Lane)
	default:
		return "UNKNOWN"
	}
}
