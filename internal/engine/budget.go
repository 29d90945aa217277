package engine

import "time"

// Budget allocates wall-clock time for one search. The optimum is a
// soft target consulted between iterations; the maximum is the hard
// deadline enforced mid-search. A zero move time disarms both, and the
// search then runs until another limit or the caller stops it.
type Budget struct {
	start       time.Time
	baseOptimum time.Duration
	optimum     time.Duration
	maximum     time.Duration
}

// Init arms the budget for a search starting now.
func (b *Budget) Init(moveTime time.Duration) {
	b.start = time.Now()
	if moveTime <= 0 {
		b.baseOptimum = 0
		b.optimum = 0
		b.maximum = 0
		return
	}

	// Keep a sliver in reserve so the best move reaches the caller
	// before the deadline.
	b.maximum = moveTime * 95 / 100
	if b.maximum < 10*time.Millisecond {
		b.maximum = 10 * time.Millisecond
	}
	b.baseOptimum = b.maximum / 2
	b.optimum = b.baseOptimum
}

// Armed reports whether a time limit is in force.
func (b *Budget) Armed() bool {
	return b.maximum > 0
}

// Elapsed returns the time since the search started.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.start)
}

// Expired reports whether the hard deadline has passed.
func (b *Budget) Expired() bool {
	return b.Armed() && b.Elapsed() >= b.maximum
}

// PastOptimum reports whether the soft target has passed. The driver
// then declines to start another iteration.
func (b *Budget) PastOptimum() bool {
	return b.Armed() && b.Elapsed() >= b.optimum
}

// Remaining returns the time left before the hard deadline.
func (b *Budget) Remaining() time.Duration {
	if !b.Armed() {
		return time.Hour
	}
	left := b.maximum - b.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// AdjustForStability shrinks the soft target when the best move has
// held for several consecutive iterations. Adjustments are relative to
// the original allocation, so repeated calls do not compound.
func (b *Budget) AdjustForStability(stability int) {
	if !b.Armed() {
		return
	}
	switch {
	case stability >= 6:
		b.optimum = b.baseOptimum * 40 / 100
	case stability >= 4:
		b.optimum = b.baseOptimum * 60 / 100
	case stability >= 2:
		b.optimum = b.baseOptimum * 80 / 100
	default:
		b.optimum = b.baseOptimum
	}
}

// AdjustForInstability grows the soft target when the best move keeps
// flipping between iterations, capped at the hard deadline.
func (b *Budget) AdjustForInstability(changes int) {
	if !b.Armed() {
		return
	}
	switch {
	case changes >= 4:
		b.optimum = b.baseOptimum * 2
	case changes >= 2:
		b.optimum = b.baseOptimum * 3 / 2
	default:
		return
	}
	if b.optimum > b.maximum {
		b.optimum = b.maximum
	}
}
