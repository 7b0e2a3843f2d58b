package epidemic

import (
	"fmt"
	"math/rand"
)

// sampler draws the stochastic timing of the model: exponential waiting
// times and races between competing rated events. All randomness of a run
// flows through the one *rand.Rand it wraps.
type sampler struct {
	rng *rand.Rand
}

// wait samples an exponential waiting time for an event with the given
// rate (mean 1/rate). The rate must be strictly positive.
func (s sampler) wait(rate float64) float64 {
	if rate <= 0 {
		panic(fmt.Sprintf("epidemic: wait called with rate %g", rate))
	}
	return s.rng.ExpFloat64() / rate
}

// ratedEvent is one entry of a race: a candidate event and its rate.
// Races take a slice, not a map, so the enumeration order is fixed.
type ratedEvent struct {
	kind eventKind
	rate float64
}

// race resolves which of several competing exponential clocks fires first.
// Entries with zero rate are omitted. The winner is drawn with probability
// rate/sum(rates); the delay is a single draw from Exponential(sum(rates)),
// the distribution of the minimum of the competing clocks, regardless of
// which event won.
func (s sampler) race(entries []ratedEvent) (eventKind, float64, error) {
	var total float64
	for _, e := range entries {
		if e.rate > 0 {
			total += e.rate
		}
	}
	if total <= 0 {
		return 0, 0, fmt.Errorf("%w: race with no positive rates", ErrPrecondition)
	}

	u := s.rng.Float64()
	winner := eventKind(0)
	found := false
	var cum float64
	for _, e := range entries {
		if e.rate <= 0 {
			continue
		}
		cum += e.rate
		if u <= cum/total {
			winner = e.kind
			found = true
			break
		}
	}
	if !found {
		// u landed past the last cumulative step by rounding; the last
		// positive entry wins.
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].rate > 0 {
				winner = entries[i].kind
				break
			}
		}
	}
	return winner, s.wait(total), nil
}
