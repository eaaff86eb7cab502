// Package lane models the wavelength-division lanes that share the systolic
// substrate. A lane owns nothing but its identity, its wavelength triplet
// parameters, and an enablement flag; per-lane compute state lives in the
// array engine, which gives every lane its own accumulator slice. Lane
// isolation is therefore structural, not lock-based.
package lane

import (
	"fmt"
	"math"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/trit"
)

// labelSpacingNM is the wavelength spacing between adjacent arithmetic
// output labels within one lane, in nanometers.
const labelSpacingNM = 0.8

// Lane identifies one collision-free wavelength channel.
type Lane struct {
	ID             int
	BaseWavelength float64
	SubChannels    int
	Enabled        bool
}

// OutputWavelength returns the physical wavelength the given arithmetic
// output label occupies on this lane.
func (l Lane) OutputWavelength(label trit.Label) float64 {
	return l.BaseWavelength + labelSpacingNM*float64(label)
}

// Verdict is the physics collaborator's answer for a proposed assignment.
type Verdict struct {
	// CollisionFree is the pass/fail answer.
	CollisionFree bool
	// Confidence is an optional margin in [0, 1]; zero means the
	// collaborator offered none.
	Confidence float64
}

// Validator is the external physics-validation collaborator. The core sends
// a proposed lane assignment and receives a collision verdict. The core
// never proceeds optimistically: a missing validator, an error, or a failing
// verdict is a hard ConfigurationError.
type Validator interface {
	Validate(lanes []Lane) (Verdict, error)
}

// AnalyticValidator is the built-in collaborator. It checks that no two
// enabled lanes place any arithmetic output label on the same wavelength,
// which is the sum-frequency-generation collision-free property.
type AnalyticValidator struct{}

// Validate implements Validator.
func (AnalyticValidator) Validate(lanes []Lane) (Verdict, error) {
	minGap := math.Inf(1)
	for i, a := range lanes {
		if !a.Enabled {
			continue
		}
		for _, b := range lanes[i+1:] {
			if !b.Enabled {
				continue
			}
			for la := trit.Label(0); la < trit.NumLabels; la++ {
				for lb := trit.Label(0); lb < trit.NumLabels; lb++ {
					gap := math.Abs(a.OutputWavelength(la) - b.OutputWavelength(lb))
					if gap < labelSpacingNM/2 {
						return Verdict{CollisionFree: false}, nil
					}
					if gap < minGap {
						minGap = gap
					}
				}
			}
		}
	}

	confidence := 1.0
	if !math.IsInf(minGap, 1) {
		// Confidence shrinks as the tightest inter-lane gap
		// approaches the detector linewidth.
		confidence = math.Min(1, minGap/(2*labelSpacingNM))
	}
	return Verdict{CollisionFree: true, Confidence: confidence}, nil
}

// Sink receives the word streams dispatched on a lane. The array engine
// implements it.
type Sink interface {
	Dispatch(laneID int, words []trit.Word) error
}

// Handle is a bound lane ready for dispatch.
type Handle struct {
	lane Lane
	mux  *Mux
	sink Sink
}

// Lane returns the bound lane's identity.
func (h *Handle) Lane() Lane {
	return h.lane
}

// Dispatch streams words down the bound lane, recording throughput.
func (h *Handle) Dispatch(words []trit.Word) error {
	if err := h.sink.Dispatch(h.lane.ID, words); err != nil {
		return err
	}
	h.mux.dispatched[h.lane.ID] += uint64(len(words))
	return nil
}

// Mux is the lane multiplexer. It validates the lane assignment once at
// construction and never again per dispatch.
type Mux struct {
	lanes      []Lane
	byID       map[int]int
	verdict    Verdict
	dispatched map[int]uint64
}

// NewMux builds the multiplexer from configuration and clears the lane
// assignment with the physics collaborator. Construction fails with a
// ConfigurationError when the collaborator is absent, errors out, or rejects
// the assignment.
func NewMux(cfgs []config.LaneConfig, v Validator) (*Mux, error) {
	if v == nil {
		return nil, &config.ConfigurationError{
			Field:  "lanes",
			Reason: "no physics validator supplied",
		}
	}

	m := &Mux{
		byID:       map[int]int{},
		dispatched: map[int]uint64{},
	}
	for _, c := range cfgs {
		if _, dup := m.byID[c.ID]; dup {
			return nil, &config.ConfigurationError{
				Field:  "lanes",
				Reason: fmt.Sprintf("duplicate lane id %d", c.ID),
			}
		}
		m.byID[c.ID] = len(m.lanes)
		m.lanes = append(m.lanes, Lane{
			ID:             c.ID,
			BaseWavelength: c.BaseWavelength,
			SubChannels:    c.SubChannels,
			Enabled:        c.Enabled,
		})
	}

	verdict, err := v.Validate(m.lanes)
	if err != nil {
		return nil, &config.ConfigurationError{
			Field:  "lanes",
			Reason: fmt.Sprintf("physics validation failed: %v", err),
		}
	}
	if !verdict.CollisionFree {
		return nil, &config.ConfigurationError{
			Field:  "lanes",
			Reason: "lane assignment is not collision-free",
		}
	}
	m.verdict = verdict
	return m, nil
}

// Verdict returns the collaborator's verdict recorded at construction.
func (m *Mux) Verdict() Verdict {
	return m.verdict
}

// Lane looks up a lane by ID.
func (m *Mux) Lane(id int) (Lane, bool) {
	i, ok := m.byID[id]
	if !ok {
		return Lane{}, false
	}
	return m.lanes[i], true
}

// EnabledIDs lists the enabled lane IDs in configuration order.
func (m *Mux) EnabledIDs() []int {
	var ids []int
	for _, l := range m.lanes {
		if l.Enabled {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// EffectiveChannels is the total throughput capacity: each enabled lane
// contributes its sub-channel count; disabled lanes contribute zero.
func (m *Mux) EffectiveChannels() int {
	n := 0
	for _, l := range m.lanes {
		if l.Enabled {
			n += l.SubChannels
		}
	}
	return n
}

// Bind attaches a sink to an enabled lane.
func (m *Mux) Bind(id int, s Sink) (*Handle, error) {
	l, ok := m.Lane(id)
	if !ok {
		return nil, fmt.Errorf("unknown lane %d", id)
	}
	if !l.Enabled {
		return nil, fmt.Errorf("lane %d is disabled", id)
	}
	if s == nil {
		return nil, fmt.Errorf("nil sink for lane %d", id)
	}
	return &Handle{lane: l, mux: m, sink: s}, nil
}

// Dispatched returns the number of words dispatched on a lane so far.
func (m *Mux) Dispatched(id int) uint64 {
	return m.dispatched[id]
}
