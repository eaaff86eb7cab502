package trit

// Op selects the arithmetic operation performed by Combine.
type Op uint8

// Arithmetic operations. Multiplication and division have no native primitive
// at this layer; the sequencer decomposes them into repeated add sub-cycles
// with fixed cycle counts charged by the timing model.
const (
	ADD Op = iota
	SUB
)

// Class classifies the result of combining two trits. The two overflow
// classes indicate a result of -2 or +2 that must be propagated as a carry
// by the caller.
type Class int8

// Result classes, ordered by the value they represent.
const (
	ClassOverflowNeg Class = -2
	ClassNeg         Class = -1
	ClassZero        Class = 0
	ClassPos         Class = +1
	ClassOverflowPos Class = +2
)

// Overflow reports whether the class represents a value outside {-1, 0, +1}.
func (c Class) Overflow() bool {
	return c == ClassOverflowNeg || c == ClassOverflowPos
}

// Split decomposes the class into a result digit and a carry trit such that
// value = carry*3 + digit. Non-overflow classes carry nothing.
func (c Class) Split() (digit, carry Trit) {
	switch c {
	case ClassOverflowNeg: // -2 = -1*3 + 1
		return Pos, Neg
	case ClassOverflowPos: // +2 = +1*3 - 1
		return Neg, Pos
	default:
		return Trit(c), Zero
	}
}

// String names the class.
func (c Class) String() string {
	switch c {
	case ClassOverflowNeg:
		return "OVERFLOW_NEG"
	case ClassNeg:
		return "NEG"
	case ClassZero:
		return "ZERO"
	case ClassPos:
		return "POS"
	case ClassOverflowPos:
		return "OVERFLOW_POS"
	default:
		return "INVALID"
	}
}

// Label identifies the arithmetic-output wavelength of a combine result.
// One detector resolves one label. The zero label is deliberately shared by
// the (-1,+1) and (0,0) input pairs: the harmonic-mean output frequency of
// both pairs lands on the same line, so a single detector covers both.
type Label uint8

// Output labels, one per detector line.
const (
	LabelOverflowNeg Label = iota
	LabelNeg
	LabelZero
	LabelPos
	LabelOverflowPos

	// NumLabels is the number of distinct output labels a lane must carry.
	NumLabels = 5
)

// String names the label.
func (l Label) String() string {
	switch l {
	case LabelOverflowNeg:
		return "ovf-"
	case LabelNeg:
		return "neg"
	case LabelZero:
		return "zero"
	case LabelPos:
		return "pos"
	case LabelOverflowPos:
		return "ovf+"
	default:
		return "invalid"
	}
}

// LabelForClass maps a result class to its detector label. The mapping is
// total: every class has exactly one label, and the designed zero collision
// falls out of the class mapping rather than special casing.
func LabelForClass(c Class) Label {
	return Label(int8(c) + 2)
}

// Combine mixes two trits under the given operation and returns the result
// class plus the output label the detector observes. The unit is commutative
// by construction: inputs are put in canonical order before the table lookup,
// so commuted pairs share one table row instead of mirrored casework.
func Combine(a, b Trit, op Op) (Class, Label) {
	if op == SUB {
		b = -b
	}
	if a > b {
		a, b = b, a
	}

	var c Class
	switch {
	case a == Neg && b == Neg:
		c = ClassOverflowNeg
	case a == Neg && b == Zero:
		c = ClassNeg
	case a == Neg && b == Pos:
		c = ClassZero
	case a == Zero && b == Zero:
		c = ClassZero
	case a == Zero && b == Pos:
		c = ClassPos
	default: // (+1, +1)
		c = ClassOverflowPos
	}

	return c, LabelForClass(c)
}
