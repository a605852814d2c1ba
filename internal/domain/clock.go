package domain

import "github.com/jonboulle/clockwork"

// now backs Clock. Stage timings and message timestamps read it, so a test
// can pin both with a fake.
var now clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the time source; nil restores the wall clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	now = c
}

// Clock returns the time source used for stage durations and for the
// produced_at header of published rows.
func Clock() clockwork.Clock { return now }
