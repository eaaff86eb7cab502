package clock

import (
	"math"

	"github.com/sarchlab/ternsim/config"
)

// H-tree skew calibration: a 729-PE array measures 2.4% skew, and skew grows
// with the logarithm of the PE count because each doubling of the array adds
// one level to the distribution tree.
const (
	SkewBaselinePEs  = 729
	SkewBaselineFrac = 0.024
)

// SkewResult is the outcome of validating an array size against the skew
// budget. A failed result is a timing violation of the configuration, not a
// runtime fault; it is surfaced in the run report.
type SkewResult struct {
	PEs       int     `json:"pes"`
	Skew      float64 `json:"skew"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
}

// Skew returns the fractional clock skew across an array of n PEs. The model
// is purely analytical and is evaluated once per configuration, never per
// cycle. Arrays of one PE or fewer have no distribution tree and are invalid.
func Skew(n int) (float64, error) {
	if n <= 1 {
		return 0, &config.ConfigurationError{
			Field:  "array size",
			Reason: "skew model requires more than one PE",
		}
	}
	return SkewBaselineFrac * math.Log2(float64(n)) / math.Log2(SkewBaselinePEs), nil
}

// ValidateSkew evaluates the skew budget for an n-PE array against a
// threshold fraction.
func ValidateSkew(n int, threshold float64) (SkewResult, error) {
	s, err := Skew(n)
	if err != nil {
		return SkewResult{}, err
	}
	return SkewResult{
		PEs:       n,
		Skew:      s,
		Threshold: threshold,
		Pass:      s <= threshold,
	}, nil
}
