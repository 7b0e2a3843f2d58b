package epidemic

import "errors"

var (
	// ErrInvariant marks a population-conservation mismatch. It is fatal:
	// the run aborts immediately and is never silently corrected.
	ErrInvariant = errors.New("population invariant violated")

	// ErrPrecondition marks a programming-contract violation, such as
	// racing with no positive rates or resolving a contact when fewer
	// than two individuals are alive.
	ErrPrecondition = errors.New("precondition failed")
)
