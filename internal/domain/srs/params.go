package srs

import (
	"errors"
)

// Params defines the configurable parameters of the Leitner scheduler.
type Params struct {
	// TotalBoxes is the number of boxes in the system.
	TotalBoxes int

	// intervalDays maps box index (1-based) to the number of days until a
	// card in that box becomes due again. Built once at construction; the
	// intervals are strictly increasing in box index, which is what makes
	// higher boxes "longer memory".
	intervalDays []int
}

// ErrInvalidBoxCount is returned when a Params instance is requested for a
// box count the interval table cannot represent.
var ErrInvalidBoxCount = errors.New("total boxes must be between 1 and 16")

// NewDefaultParams creates a Params instance for the system default box count.
func NewDefaultParams() *Params {
	params, err := NewParams(defaultTotalBoxes)
	if err != nil {
		// defaultTotalBoxes is a compile-time constant within bounds.
		panic(err)
	}
	return params
}

const defaultTotalBoxes = 7

// NewParams creates a Params instance for the given box count. The interval
// for box n is 2^(n-1) days: 1, 2, 4, 8, ... which guarantees strict
// monotonic growth. Box counts above 16 are rejected to keep intervals
// within a human-meaningful range.
func NewParams(totalBoxes int) (*Params, error) {
	if totalBoxes < 1 || totalBoxes > 16 {
		return nil, ErrInvalidBoxCount
	}

	intervals := make([]int, totalBoxes)
	days := 1
	for i := range intervals {
		intervals[i] = days
		days *= 2
	}

	return &Params{
		TotalBoxes:   totalBoxes,
		intervalDays: intervals,
	}, nil
}

// IntervalDays returns the review interval, in days, for a card in the given
// box. The box must be in [1, TotalBoxes]; out-of-range boxes are clamped to
// the nearest valid box.
func (p *Params) IntervalDays(box int) int {
	if box < 1 {
		box = 1
	}
	if box > p.TotalBoxes {
		box = p.TotalBoxes
	}
	return p.intervalDays[box-1]
}
