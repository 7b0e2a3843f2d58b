package epidemic

import "time"

// StopReason says why a run ended. Early termination is a normal outcome,
// reported distinctly from exhausting the configured run time.
type StopReason uint8

const (
	StopNone StopReason = iota
	// StopTimeElapsed: simulated time reached run_time.
	StopTimeElapsed
	// StopNoInfects: the infection ended, no infects remain.
	StopNoInfects
	// StopAllInfect: the infection saturated a population with no
	// replenishment path for susceptibles.
	StopAllInfect
	// StopAllImmune: permanent immunization saturated a population
	// without vital dynamics.
	StopAllImmune
	// StopCanceled: the caller's context was canceled mid-run.
	StopCanceled
)

func (r StopReason) String() string {
	switch r {
	case StopTimeElapsed:
		return "run time elapsed"
	case StopNoInfects:
		return "infection ended, no more infects"
	case StopAllInfect:
		return "infection extended to the whole population"
	case StopAllImmune:
		return "permanent immunization extended to the whole population"
	case StopCanceled:
		return "canceled"
	}
	return "still running"
}

// Sample is one observation of the population counters, emitted every time
// any of them changes.
type Sample struct {
	Time         float64 `json:"time"`
	Susceptibles int     `json:"susceptibles"`
	Infects      int     `json:"infects"`
	Immunes      int     `json:"immunes"`
}

// Observer receives counter samples. Implementations must not block the
// simulation; anything slow should hand off to its own goroutine.
type Observer interface {
	Observe(s Sample)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Sample)

func (f ObserverFunc) Observe(s Sample) { f(s) }

// Report is the run-end summary exposed for external formatting.
type Report struct {
	Susceptibles int `json:"susceptibles"`
	Infects      int `json:"infects"`
	Immunes      int `json:"immunes"`

	Newborns       int `json:"newborns"`
	NaturalDeaths  int `json:"natural_deaths"`
	EpidemicDeaths int `json:"epidemic_deaths"`

	SimTime float64       `json:"sim_time"`
	Wall    time.Duration `json:"wall"`

	Reason StopReason `json:"reason"`
}
