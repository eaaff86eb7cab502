// Package clock provides the shared time base and the H-tree skew model.
//
// The accelerator's central clock is modeled as an explicit tick counter
// owned by the top-level machine. Every component reads the same counter;
// there is no hidden global time.
package clock

// Clock is the shared discrete time base. All components advance in lockstep
// against one Clock instance; ticks only move forward.
type Clock struct {
	// PeriodPS is the clock period in picoseconds, supplied by configuration.
	PeriodPS float64

	tick uint64
}

// New creates a clock with the given period.
func New(periodPS float64) *Clock {
	return &Clock{PeriodPS: periodPS}
}

// Now returns the current tick.
func (c *Clock) Now() uint64 {
	return c.tick
}

// Advance moves time forward by n ticks and returns the new tick.
func (c *Clock) Advance(n uint64) uint64 {
	c.tick += n
	return c.tick
}

// TimePS returns the elapsed simulated time in picoseconds.
func (c *Clock) TimePS() float64 {
	return float64(c.tick) * c.PeriodPS
}
