// Package systolic provides the weight-stationary processing-element array.
//
// The array is an RxC grid of PEs replicated once per enabled wavelength
// lane: every lane owns a private accumulator grid, so operations on
// distinct lanes cannot observe each other's state. Weights load
// row-sequentially; activation wavefronts flow row to row monotonically, and
// a row may begin accumulating while later rows are still loading, provided
// its own weights finished writing.
package systolic

import (
	"fmt"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/trit"
)

// State is the lifecycle state of a processing element.
type State int

// PE lifecycle. LOADING and DRAINING are transient within an engine
// operation; between operations a PE rests in IDLE, READY, or ACCUMULATING.
const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateAccumulating
	StateDraining
)

// String names the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateAccumulating:
		return "ACCUMULATING"
	case StateDraining:
		return "DRAINING"
	default:
		return "INVALID"
	}
}

// StateError reports a protocol violation against the load/stream/drain
// contract: draining before accumulation completed, streaming on top of an
// undrained pass, or reloading weights over an undrained accumulation.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error in %s: %s", e.Op, e.Reason)
}

// OverflowEvent records an accumulator carry-out observed during streaming.
// Overflows are surfaced in the run report; they never clamp the result.
type OverflowEvent struct {
	Lane  int        `json:"lane"`
	Row   int        `json:"row"`
	Cycle uint64     `json:"cycle"`
	Carry trit.Trit  `json:"carry"`
	Class trit.Class `json:"class"`
}

type phase int

const (
	phaseIdle phase = iota
	phaseReady
	phaseAccumulated
)

type pe struct {
	weight trit.Trit
	acc    trit.Word
}

type grid struct {
	pes   [][]pe
	phase phase

	// rowReady[r] is the tick at which row r's stationary weights finished
	// writing; a row never accumulates before it.
	rowReady []uint64
	// firstAccum[r] is the tick row r first accumulated in the current
	// pass, kept for pipelining verification.
	firstAccum []uint64

	// drainStart and drainEnd bound the most recent drain window: row
	// sums shift out one row per tick between them.
	drainStart uint64
	drainEnd   uint64
}

// Array is the systolic engine.
type Array struct {
	rows, cols int
	// rowLoadCycles is the duration of one weight-write cycle: the time to
	// write one row of stationary weights.
	rowLoadCycles uint64

	grids  map[int]*grid
	events []OverflowEvent
}

// NewArray builds an engine with one PE grid per lane.
func NewArray(rows, cols int, laneIDs []int, rowLoadCycles uint64) (*Array, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &config.ConfigurationError{
			Field:  "rows/cols",
			Reason: fmt.Sprintf("array must be at least 1x1, got %dx%d", rows, cols),
		}
	}
	if len(laneIDs) == 0 {
		return nil, &config.ConfigurationError{
			Field:  "lanes",
			Reason: "systolic engine needs at least one lane",
		}
	}
	if rowLoadCycles == 0 {
		rowLoadCycles = 1
	}

	a := &Array{
		rows:          rows,
		cols:          cols,
		rowLoadCycles: rowLoadCycles,
		grids:         map[int]*grid{},
	}
	for _, id := range laneIDs {
		pes := make([][]pe, rows)
		for r := range pes {
			pes[r] = make([]pe, cols)
		}
		a.grids[id] = &grid{
			pes:        pes,
			rowReady:   make([]uint64, rows),
			firstAccum: make([]uint64, rows),
		}
	}
	return a, nil
}

// Rows returns the row count.
func (a *Array) Rows() int { return a.rows }

// Cols returns the column count.
func (a *Array) Cols() int { return a.cols }

// Lanes lists the lane IDs the engine was built for.
func (a *Array) Lanes() []int {
	ids := make([]int, 0, len(a.grids))
	for id := range a.grids {
		ids = append(ids, id)
	}
	return ids
}

func (a *Array) grid(laneID int) (*grid, error) {
	g, ok := a.grids[laneID]
	if !ok {
		return nil, fmt.Errorf("no grid for lane %d", laneID)
	}
	return g, nil
}

// LoadWeights writes an RxC stationary weight matrix into the lane's grid,
// one row per weight-write cycle. The call itself occupies only the first
// weight-write cycle: later rows keep loading while streaming may already
// run on earlier rows. The returned cycle count is that first-row charge;
// per-row readiness is tracked so streaming can never consume a partially
// written weight.
func (a *Array) LoadWeights(laneID int, weights [][]trit.Trit, startTick uint64) (uint64, error) {
	g, err := a.grid(laneID)
	if err != nil {
		return 0, err
	}
	if g.phase == phaseAccumulated {
		return 0, &StateError{
			Op:     "LoadWeights",
			Reason: "undrained accumulation would be corrupted by a reload",
		}
	}
	if len(weights) != a.rows {
		return 0, fmt.Errorf("weight matrix has %d rows, array has %d", len(weights), a.rows)
	}
	for r, row := range weights {
		if len(row) != a.cols {
			return 0, fmt.Errorf("weight row %d has %d columns, array has %d", r, len(row), a.cols)
		}
		for _, w := range row {
			if !w.Valid() {
				return 0, fmt.Errorf("weight row %d holds an invalid trit", r)
			}
		}
	}

	for r := 0; r < a.rows; r++ {
		for c := 0; c < a.cols; c++ {
			g.pes[r][c].weight = weights[r][c]
			g.pes[r][c].acc = trit.Word{}
		}
		// Row r is addressed and written in weight-write cycle r.
		g.rowReady[r] = startTick + uint64(r+1)*a.rowLoadCycles
		g.firstAccum[r] = 0
	}
	g.phase = phaseReady
	g.drainStart, g.drainEnd = 0, 0
	return a.rowLoadCycles, nil
}

// Stream runs one accumulation pass: each activation vector enters row 0 and
// flows row to row, one row per cycle; every PE folds weight x input into its
// accumulator through the combine unit. A row whose weights are still being
// written stalls the wavefront until its weight-write cycle completes.
// Returns the cycles the pass occupied.
func (a *Array) Stream(laneID int, vectors [][]trit.Trit, startTick uint64) (uint64, error) {
	g, err := a.grid(laneID)
	if err != nil {
		return 0, err
	}
	switch g.phase {
	case phaseIdle:
		return 0, &StateError{
			Op:     "Stream",
			Reason: "no stationary weights loaded",
		}
	case phaseAccumulated:
		return 0, &StateError{
			Op:     "Stream",
			Reason: "undrained accumulation would be corrupted by more input",
		}
	}
	if len(vectors) == 0 {
		return 0, fmt.Errorf("empty activation stream")
	}
	for k, v := range vectors {
		if len(v) != a.cols {
			return 0, fmt.Errorf("activation vector %d has %d elements, array has %d columns", k, len(v), a.cols)
		}
		for _, t := range v {
			if !t.Valid() {
				return 0, fmt.Errorf("activation vector %d holds an invalid trit", k)
			}
		}
	}

	// rowTick[r] is the tick row r last accumulated; the wavefront for a
	// vector reaches row r one cycle after row r-1, never before the row's
	// weights are ready, and never twice in one cycle.
	rowTick := make([]uint64, a.rows)
	var last uint64
	for k, v := range vectors {
		enter := startTick + uint64(k)
		for r := 0; r < a.rows; r++ {
			t := enter + uint64(r)
			if r > 0 && rowTick[r-1]+1 > t {
				t = rowTick[r-1] + 1
			}
			if rowTick[r] >= t && k > 0 {
				t = rowTick[r] + 1
			}
			if g.rowReady[r] > t {
				t = g.rowReady[r]
			}
			rowTick[r] = t
			if k == 0 {
				g.firstAccum[r] = t
			}

			for c := 0; c < a.cols; c++ {
				p := &g.pes[r][c]
				product := trit.FromInt64(int64(trit.Mul(p.weight, v[c])))
				sum, carry := trit.Add(p.acc, product)
				if carry != trit.Zero {
					a.events = append(a.events, OverflowEvent{
						Lane:  laneID,
						Row:   r,
						Cycle: t,
						Carry: carry,
						Class: trit.Class(carry) * 2,
					})
				}
				p.acc = sum
			}
			if t > last {
				last = t
			}
		}
	}

	g.phase = phaseAccumulated
	g.drainStart, g.drainEnd = 0, 0
	return last - startTick + 1, nil
}

// Drain collects the accumulated row sums at the trailing edge, resets the
// accumulators, and returns the grid to READY with its weights retained.
// Draining before a pass completed is a protocol violation.
func (a *Array) Drain(laneID int, startTick uint64) ([]trit.Word, uint64, error) {
	g, err := a.grid(laneID)
	if err != nil {
		return nil, 0, err
	}
	if g.phase != phaseAccumulated {
		return nil, 0, &StateError{
			Op:     "Drain",
			Reason: "no completed accumulation to drain",
		}
	}

	outputs := make([]trit.Word, a.rows)
	for r := 0; r < a.rows; r++ {
		var rowSum trit.Word
		for c := 0; c < a.cols; c++ {
			var carry trit.Trit
			rowSum, carry = trit.Add(rowSum, g.pes[r][c].acc)
			if carry != trit.Zero {
				a.events = append(a.events, OverflowEvent{
					Lane:  laneID,
					Row:   r,
					Cycle: startTick + uint64(r),
					Carry: carry,
					Class: trit.Class(carry) * 2,
				})
			}
			g.pes[r][c].acc = trit.Word{}
		}
		outputs[r] = rowSum
	}
	g.phase = phaseReady
	g.drainStart = startTick
	g.drainEnd = startTick + uint64(a.rows)

	// Row sums shift out row-sequentially at the trailing edge.
	return outputs, uint64(a.rows), nil
}

// PEState reports the lifecycle state of one PE as observed at a tick. A PE
// whose row's stationary weights are still being written is LOADING; during
// the drain window the row sums shift out and the PE is DRAINING.
func (a *Array) PEState(laneID, row, col int, tick uint64) State {
	g, ok := a.grids[laneID]
	if !ok || row < 0 || row >= a.rows || col < 0 || col >= a.cols {
		return StateIdle
	}
	if g.phase == phaseIdle {
		return StateIdle
	}
	if tick < g.rowReady[row] {
		return StateLoading
	}
	if g.drainEnd > g.drainStart && tick >= g.drainStart && tick < g.drainEnd {
		return StateDraining
	}
	if g.phase == phaseAccumulated {
		return StateAccumulating
	}
	return StateReady
}

// RowReadyTick reports when a row's stationary weights finished writing in
// the current load.
func (a *Array) RowReadyTick(laneID, row int) uint64 {
	if g, ok := a.grids[laneID]; ok && row >= 0 && row < a.rows {
		return g.rowReady[row]
	}
	return 0
}

// FirstAccumTick reports when a row first accumulated in the current pass.
func (a *Array) FirstAccumTick(laneID, row int) uint64 {
	if g, ok := a.grids[laneID]; ok && row >= 0 && row < a.rows {
		return g.firstAccum[row]
	}
	return 0
}

// Events returns the overflow events recorded so far.
func (a *Array) Events() []OverflowEvent {
	return a.events
}
