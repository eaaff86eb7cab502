package trit

import (
	"fmt"
	"strings"
)

// WordLen is the architectural word width in trits.
const WordLen = 81

// Word is an ordered, fixed-length sequence of trits representing one
// operand, address, or instruction. Trit 0 is the least significant digit.
// Words are immutable: operations return new Words and never mutate in place.
type Word struct {
	trits [WordLen]Trit
}

// FromInt64 encodes an integer in balanced ternary. Every int64 fits in an
// 81-trit word.
func FromInt64(v int64) Word {
	var w Word
	for i := 0; v != 0 && i < WordLen; i++ {
		rem := v % 3
		v /= 3
		switch rem {
		case 2, -1:
			w.trits[i] = Neg
			if rem == 2 {
				v++
			}
		case -2, 1:
			w.trits[i] = Pos
			if rem == -2 {
				v--
			}
		}
	}
	return w
}

// FromTrits builds a word from a little-endian trit slice. Slices longer than
// the word width or containing non-trit values are rejected.
func FromTrits(ts []Trit) (Word, error) {
	var w Word
	if len(ts) > WordLen {
		return w, fmt.Errorf("%d trits exceed word width %d", len(ts), WordLen)
	}
	for i, t := range ts {
		if !t.Valid() {
			return w, fmt.Errorf("trit %d holds invalid value %d", i, t)
		}
		w.trits[i] = t
	}
	return w, nil
}

// Trit returns the digit at position i. Positions outside the word read zero.
func (w Word) Trit(i int) Trit {
	if i < 0 || i >= WordLen {
		return Zero
	}
	return w.trits[i]
}

// WithTrit returns a copy of the word with position i replaced.
func (w Word) WithTrit(i int, t Trit) Word {
	if i >= 0 && i < WordLen && t.Valid() {
		w.trits[i] = t
	}
	return w
}

// Int64 decodes the word. ok is false when the value does not fit in an
// int64; the returned value is then meaningless.
func (w Word) Int64() (v int64, ok bool) {
	// Walk from the most significant digit so overflow is caught by the
	// multiply, not masked by later additions.
	for i := WordLen - 1; i >= 0; i-- {
		if v > (1<<62)/3 || v < -((1<<62)/3) {
			return 0, false
		}
		v = v*3 + int64(w.trits[i])
	}
	return v, true
}

// IsZero reports whether every digit is zero.
func (w Word) IsZero() bool {
	for _, t := range w.trits {
		if t != Zero {
			return false
		}
	}
	return true
}

// Sign returns the sign trit of the word: the most significant nonzero digit
// determines the sign in balanced ternary.
func (w Word) Sign() Trit {
	for i := WordLen - 1; i >= 0; i-- {
		if w.trits[i] != Zero {
			return w.trits[i]
		}
	}
	return Zero
}

// Neg returns the digit-wise negation, which is exact in balanced ternary.
func (w Word) Neg() Word {
	var r Word
	for i, t := range w.trits {
		r.trits[i] = -t
	}
	return r
}

// Add sums two words with a full ternary ripple through the combine unit.
// Each digit position mixes the two operand trits, splits the resulting class
// into digit and carry, then folds in the incoming carry the same way. The
// returned carry trit is nonzero when the sum overflows the word width; the
// caller decides whether that is an event worth reporting. Nothing is ever
// clamped or wrapped.
func Add(a, b Word) (sum Word, carryOut Trit) {
	carry := Zero
	for i := 0; i < WordLen; i++ {
		c1, _ := Combine(a.trits[i], b.trits[i], ADD)
		d1, carry1 := c1.Split()

		c2, _ := Combine(d1, carry, ADD)
		d2, carry2 := c2.Split()

		sum.trits[i] = d2
		// carry1 and carry2 can never be nonzero with the same sign, so the
		// running carry stays a single trit.
		carry = Trit(int8(carry1) + int8(carry2))
	}
	return sum, carry
}

// Sub computes a - b via negation, matching the physical SUB path which
// reuses the ADD mixing with an inverted operand.
func Sub(a, b Word) (Word, Trit) {
	return Add(a, b.Neg())
}

// ParseWord decodes the -/0/+ digit notation produced by String. The digits
// arrive most-significant-first.
func ParseWord(s string) (Word, error) {
	var w Word
	if s == "" {
		return w, fmt.Errorf("empty word literal")
	}
	if len(s) > WordLen {
		return w, fmt.Errorf("%d digits exceed word width %d", len(s), WordLen)
	}
	for i, ch := range s {
		var t Trit
		switch ch {
		case '-':
			t = Neg
		case '0':
			t = Zero
		case '+':
			t = Pos
		default:
			return Word{}, fmt.Errorf("invalid trit digit %q at position %d", ch, i)
		}
		w.trits[len(s)-1-i] = t
	}
	return w, nil
}

// String renders the word most-significant-first with leading zeros trimmed,
// using -/0/+ digit notation. The zero word renders as "0".
func (w Word) String() string {
	top := -1
	for i := WordLen - 1; i >= 0; i-- {
		if w.trits[i] != Zero {
			top = i
			break
		}
	}
	if top < 0 {
		return "0"
	}
	var sb strings.Builder
	for i := top; i >= 0; i-- {
		sb.WriteString(w.trits[i].String())
	}
	return sb.String()
}
