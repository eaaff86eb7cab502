// Package predictor implements the three-way branch predictor for BR3.
//
// A ternary branch resolves to one of three arms by the sign of its
// condition register, so the predictor tracks a sign bias per table entry
// instead of a taken/not-taken counter.
package predictor

import (
	"github.com/sarchlab/ternsim/trit"
)

// Config holds configuration for the three-way predictor.
type Config struct {
	// TableSize is the number of bias entries.
	// Must be a power of 2. Default is 256.
	TableSize uint32
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		TableSize: 256,
	}
}

// Stats holds statistics for the three-way predictor.
type Stats struct {
	// Predictions is the total number of branch predictions made.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

const maxConfidence = 3

// entry is one bias cell: a predicted sign plus a saturating confidence.
// A mispredict at confidence 0 flips the bias toward the observed sign.
type entry struct {
	bias       trit.Trit
	confidence uint8
}

// Predictor predicts the resolved arm of BR3 instructions by PC.
type Predictor struct {
	table     []entry
	tableSize uint32
	stats     Stats
}

// New creates a three-way predictor with the given configuration.
func New(config Config) *Predictor {
	size := config.TableSize
	if size == 0 {
		size = DefaultConfig().TableSize
	}

	p := &Predictor{
		table:     make([]entry, size),
		tableSize: size,
	}
	p.Reset()
	return p
}

func (p *Predictor) index(pc uint64) uint32 {
	return uint32(pc & uint64(p.tableSize-1))
}

// Predict returns the predicted sign of the condition register for the
// branch at pc.
func (p *Predictor) Predict(pc uint64) trit.Trit {
	p.stats.Predictions++
	return p.table[p.index(pc)].bias
}

// Update trains the predictor with the resolved sign. The confidence
// counter saturates at 3; a mispredict drains confidence first and only
// flips the bias once confidence reaches 0.
func (p *Predictor) Update(pc uint64, resolved trit.Trit) {
	e := &p.table[p.index(pc)]

	if e.bias == resolved {
		p.stats.Correct++
		if e.confidence < maxConfidence {
			e.confidence++
		}
		return
	}

	p.stats.Mispredictions++
	if e.confidence > 0 {
		e.confidence--
		return
	}
	e.bias = resolved
	e.confidence = 1
}

// Stats returns the predictor statistics.
func (p *Predictor) Stats() Stats {
	return p.stats
}

// Reset clears all predictor state and statistics. Entries start with a
// zero bias at low confidence, matching the common fall-through case.
func (p *Predictor) Reset() {
	for i := range p.table {
		p.table[i] = entry{bias: trit.Zero, confidence: 1}
	}
	p.stats = Stats{}
}
