package epidemic

import "fmt"

// ledger holds the population-level counters. Every individual transition
// mutates it; the conservation law below must hold after each mutation.
type ledger struct {
	initial int

	susceptibles int
	infects      int
	immunes      int

	newborns       int
	naturalDeaths  int
	epidemicDeaths int
}

// dec removes one individual from the live counter of the given state.
func (l *ledger) dec(h Health) {
	switch h {
	case Susceptible:
		l.susceptibles--
	case Infect:
		l.infects--
	case Immune:
		l.immunes--
	}
}

// inc adds one individual to the live counter of the given state.
func (l *ledger) inc(h Health) {
	switch h {
	case Susceptible:
		l.susceptibles++
	case Infect:
		l.infects++
	case Immune:
		l.immunes++
	}
}

// checkConservation verifies initial + newborns - naturalDeaths -
// epidemicDeaths == susceptibles + infects + immunes. A mismatch is a
// fatal internal-consistency error.
func (l *ledger) checkConservation() error {
	expected := l.initial + l.newborns - l.naturalDeaths - l.epidemicDeaths
	got := l.susceptibles + l.infects + l.immunes
	if expected != got {
		return fmt.Errorf("%w: expected %d live individuals, counters sum to %d "+
			"(initial=%d newborns=%d natural_deaths=%d epidemic_deaths=%d)",
			ErrInvariant, expected, got,
			l.initial, l.newborns, l.naturalDeaths, l.epidemicDeaths)
	}
	return nil
}
