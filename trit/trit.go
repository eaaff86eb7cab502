// Package trit provides balanced-ternary values and the sum-frequency-mixing
// arithmetic unit of the accelerator.
//
// A Trit is a balanced-ternary digit in {-1, 0, +1}. Combining two trits may
// produce a value outside that range (-2 or +2); such results are classified
// as overflow carries and reported to the caller, never wrapped.
package trit

import "fmt"

// Trit is a balanced-ternary digit. Only -1, 0, and +1 are representable.
type Trit int8

// The three trit values.
const (
	Neg  Trit = -1
	Zero Trit = 0
	Pos  Trit = +1
)

// New converts an integer to a Trit. Values outside {-1, 0, +1} are rejected.
func New(v int) (Trit, error) {
	if v < -1 || v > 1 {
		return Zero, fmt.Errorf("value %d is not a balanced-ternary digit", v)
	}
	return Trit(v), nil
}

// Valid reports whether t is one of the three representable trit values.
func (t Trit) Valid() bool {
	return t >= Neg && t <= Pos
}

// Sign returns the trit encoding the sign of v: Neg for negative values,
// Zero for zero, Pos for positive values.
func Sign(v int64) Trit {
	switch {
	case v < 0:
		return Neg
	case v > 0:
		return Pos
	default:
		return Zero
	}
}

// String renders the trit in the conventional -/0/+ notation.
func (t Trit) String() string {
	switch t {
	case Neg:
		return "-"
	case Pos:
		return "+"
	default:
		return "0"
	}
}

// Mul returns the exact ternary product of two trits. Physically this is the
// sum-frequency mixing product; it never leaves {-1, 0, +1} and carries no
// cycle cost at this layer.
func Mul(a, b Trit) Trit {
	return Trit(int8(a) * int8(b))
}
