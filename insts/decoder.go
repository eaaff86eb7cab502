package insts

import (
	"fmt"

	"github.com/sarchlab/ternsim/trit"
)

// Instruction word layout, in trit positions (little endian). The opcode
// tuple occupies the three least significant trits; operand fields are
// signed balanced-ternary integers.
const (
	opcodeWidth = 3

	fieldWidth = 5
	fieldAPos  = 3
	fieldBPos  = 8
	fieldCPos  = 13
	fieldDPos  = 18

	immPos   = 23
	immWidth = 27
)

// DecodeError reports an instruction word that does not decode to a valid
// instruction. It is fatal to the run and surfaces before any cycle is
// charged: programs are decoded in full before sequencing starts.
type DecodeError struct {
	Word   trit.Word
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s (word %v)", e.Reason, e.Word)
}

// opEncodings maps each opcode to the value of its 3-trit tuple
// (t0 + 3*t1 + 9*t2, range -13..+13). Unassigned tuple values decode to
// DecodeError.
var opEncodings = map[Op]int{
	OpNOP:  0,
	OpLDI:  1,
	OpLD1:  2,
	OpLD2:  3,
	OpLD3:  4,
	OpST1:  5,
	OpST2:  6,
	OpST3:  7,
	OpMOV:  8,
	OpADD:  9,
	OpSUB:  10,
	OpMUL:  11,
	OpDIV:  12,
	OpHALT: 13,
	OpBR3:  -1,
	OpJMP:  -2,
	OpLDW:  -3,
	OpSTRM: -4,
	OpDRN:  -5,
	OpPRM:  -6,
	OpDMT:  -7,
}

var opDecodings = func() map[int]Op {
	m := make(map[int]Op, len(opEncodings))
	for op, v := range opEncodings {
		m[v] = op
	}
	return m
}()

// fieldRange is the magnitude bound of a signed field of the given width:
// (3^width - 1) / 2.
func fieldRange(width int) int64 {
	r := int64(1)
	for i := 0; i < width; i++ {
		r *= 3
	}
	return (r - 1) / 2
}

// encodeInt writes v as a signed balanced-ternary field.
func encodeInt(w trit.Word, pos, width int, v int64) (trit.Word, error) {
	if bound := fieldRange(width); v > bound || v < -bound {
		return w, fmt.Errorf("value %d exceeds %d-trit field range", v, width)
	}
	for i := 0; i < width; i++ {
		rem := v % 3
		v /= 3
		switch rem {
		case 2, -1:
			w = w.WithTrit(pos+i, trit.Neg)
			if rem == 2 {
				v++
			}
		case -2, 1:
			w = w.WithTrit(pos+i, trit.Pos)
			if rem == -2 {
				v--
			}
		}
	}
	return w, nil
}

// decodeInt reads a signed balanced-ternary field.
func decodeInt(w trit.Word, pos, width int) int64 {
	var v int64
	for i := width - 1; i >= 0; i-- {
		v = v*3 + int64(w.Trit(pos+i))
	}
	return v
}

// Decoder decodes ternary instruction words.
type Decoder struct{}

// NewDecoder creates an instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode converts an instruction word into a structured instruction.
// Unknown opcode tuples and out-of-range operand fields fail with a
// DecodeError.
func (d *Decoder) Decode(w trit.Word) (*Instruction, error) {
	tuple := int(decodeInt(w, 0, opcodeWidth))
	op, ok := opDecodings[tuple]
	if !ok {
		return nil, &DecodeError{
			Word:   w,
			Reason: fmt.Sprintf("unknown opcode tuple %d", tuple),
		}
	}

	inst := &Instruction{Op: op}
	a := decodeInt(w, fieldAPos, fieldWidth)
	b := decodeInt(w, fieldBPos, fieldWidth)
	c := decodeInt(w, fieldCPos, fieldWidth)
	e := decodeInt(w, fieldDPos, fieldWidth)

	reg := func(v int64, name string) (Reg, error) {
		if v < 0 || v >= NumRegs {
			return 0, &DecodeError{
				Word:   w,
				Reason: fmt.Sprintf("%s register field %d out of range", name, v),
			}
		}
		return Reg(v), nil
	}
	target := func(v int64, name string) (int, error) {
		if v < 0 {
			return 0, &DecodeError{
				Word:   w,
				Reason: fmt.Sprintf("%s branch target %d is negative", name, v),
			}
		}
		return int(v), nil
	}

	var err error
	switch op {
	case OpNOP, OpHALT:

	case OpLDI:
		if inst.Dst, err = reg(a, "destination"); err != nil {
			return nil, err
		}
		inst.Imm = decodeInt(w, immPos, immWidth)

	case OpLD1, OpLD2, OpLD3, OpST1, OpST2, OpST3, OpPRM, OpDMT:
		if inst.Dst, err = reg(a, "destination"); err != nil {
			return nil, err
		}

	case OpMOV:
		if inst.Dst, err = reg(a, "destination"); err != nil {
			return nil, err
		}
		if inst.Src1, err = reg(b, "source"); err != nil {
			return nil, err
		}

	case OpADD, OpSUB, OpMUL, OpDIV:
		if inst.Src1, err = reg(a, "first source"); err != nil {
			return nil, err
		}
		if inst.Src2, err = reg(b, "second source"); err != nil {
			return nil, err
		}
		if inst.Dst, err = reg(c, "destination"); err != nil {
			return nil, err
		}

	case OpBR3:
		if inst.Cond, err = reg(a, "condition"); err != nil {
			return nil, err
		}
		if inst.TargetNeg, err = target(b, "negative"); err != nil {
			return nil, err
		}
		if inst.TargetZero, err = target(c, "zero"); err != nil {
			return nil, err
		}
		if inst.TargetPos, err = target(e, "positive"); err != nil {
			return nil, err
		}

	case OpJMP:
		if inst.TargetZero, err = target(b, "jump"); err != nil {
			return nil, err
		}

	case OpLDW, OpSTRM, OpDRN:
		inst.Lane = int(a)
	}

	return inst, nil
}

// Encode converts a structured instruction into its instruction word.
func Encode(inst *Instruction) (trit.Word, error) {
	var w trit.Word
	tuple, ok := opEncodings[inst.Op]
	if !ok {
		return w, fmt.Errorf("cannot encode unknown opcode %v", inst.Op)
	}

	var err error
	if w, err = encodeInt(w, 0, opcodeWidth, int64(tuple)); err != nil {
		return w, err
	}

	put := func(pos int, v int64) {
		if err == nil {
			w, err = encodeInt(w, pos, fieldWidth, v)
		}
	}

	switch inst.Op {
	case OpNOP, OpHALT:

	case OpLDI:
		put(fieldAPos, int64(inst.Dst))
		if err == nil {
			w, err = encodeInt(w, immPos, immWidth, inst.Imm)
		}

	case OpLD1, OpLD2, OpLD3, OpST1, OpST2, OpST3, OpPRM, OpDMT:
		put(fieldAPos, int64(inst.Dst))

	case OpMOV:
		put(fieldAPos, int64(inst.Dst))
		put(fieldBPos, int64(inst.Src1))

	case OpADD, OpSUB, OpMUL, OpDIV:
		put(fieldAPos, int64(inst.Src1))
		put(fieldBPos, int64(inst.Src2))
		put(fieldCPos, int64(inst.Dst))

	case OpBR3:
		put(fieldAPos, int64(inst.Cond))
		put(fieldBPos, int64(inst.TargetNeg))
		put(fieldCPos, int64(inst.TargetZero))
		put(fieldDPos, int64(inst.TargetPos))

	case OpJMP:
		put(fieldBPos, int64(inst.TargetZero))

	case OpLDW, OpSTRM, OpDRN:
		put(fieldAPos, int64(inst.Lane))
	}

	return w, err
}
