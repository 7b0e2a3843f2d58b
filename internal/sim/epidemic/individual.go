package epidemic

// individual is one agent of the population. Identities are assigned
// monotonically, newborns included, and are never reused. liveIdx is the
// individual's slot in the live registry, maintained by swap-remove; it is
// -1 once the individual is dead.
type individual struct {
	id      uint64
	state   Health
	liveIdx int
}
