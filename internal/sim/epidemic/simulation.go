// Package epidemic is the discrete-event engine simulating the spread of
// an infectious disease through a finite population. Individuals move
// between compartments driven by competing exponentially-distributed event
// clocks; a time-ordered scheduler advances simulated time one wake at a
// time, so all shared state is mutated from a single goroutine.
package epidemic

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"epidemia.dev/internal/sim/params"
)

// Simulation owns the clock, the event queue, the population ledger and
// the live registry for one run. All state must be accessed only from the
// goroutine calling Run; Progress is the one concurrency-safe reader.
type Simulation struct {
	p     params.Params
	model params.Model
	smp   sampler

	led    ledger
	live   []*individual
	nextID uint64

	queue eventQueue
	seq   uint64
	now   float64

	reason    StopReason
	observers []Observer

	progressBits atomic.Uint64
}

// New builds a simulation at time 0 from a validated parameter set. The
// initial cohort is partitioned into susceptibles, immunes and infects,
// identities assigned in that order, and every individual is scheduled to
// begin its lifecycle immediately.
func New(p params.Params) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Simulation{
		p:     p,
		model: params.DeriveModel(p),
		smp:   sampler{rng: rand.New(rand.NewSource(seed))},
	}
	s.led.initial = p.NrIndividuals
	s.led.susceptibles = p.NrIndividuals - p.InitialInfects - p.InitialImmunes
	s.led.immunes = p.InitialImmunes
	s.led.infects = p.InitialInfects

	s.live = make([]*individual, 0, p.NrIndividuals)
	for i := 0; i < p.NrIndividuals; i++ {
		st := Susceptible
		switch {
		case i >= p.NrIndividuals-p.InitialInfects:
			st = Infect
		case i >= p.NrIndividuals-p.InitialInfects-p.InitialImmunes:
			st = Immune
		}
		ind := &individual{id: uint64(i), state: st, liveIdx: len(s.live)}
		s.live = append(s.live, ind)
		s.push(ind, evBegin, 0)
	}
	s.nextID = uint64(p.NrIndividuals)
	return s, nil
}

// Model reports the feature flags derived from the run's parameters.
func (s *Simulation) Model() params.Model { return s.model }

// AddObserver registers a sink for counter samples. Observers are invoked
// synchronously, in registration order, on every counter change.
func (s *Simulation) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Progress returns elapsed simulated time as a fraction of run_time. It
// may be read concurrently with Run.
func (s *Simulation) Progress() float64 {
	return math.Float64frombits(s.progressBits.Load())
}

// Run advances the simulation until run_time elapses, a termination
// condition fires, the context is canceled, or an invariant is violated.
// ErrInvariant and ErrPrecondition failures abort the run and are returned.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	s.observe()

	var runErr error
	for s.queue.Len() > 0 && s.reason == StopNone {
		if err := ctx.Err(); err != nil {
			s.reason = StopCanceled
			runErr = err
			break
		}
		ev := heap.Pop(&s.queue).(scheduledEvent)
		if ev.at >= s.p.RunTime {
			s.now = s.p.RunTime
			s.reason = StopTimeElapsed
			break
		}
		if err := s.step(ev); err != nil {
			runErr = err
			break
		}
		s.setProgress()
	}
	if s.reason == StopNone && runErr == nil {
		// Queue drained before run_time: nothing left to happen.
		s.now = s.p.RunTime
		s.reason = StopTimeElapsed
	}
	s.setProgress()

	return Report{
		Susceptibles:   s.led.susceptibles,
		Infects:        s.led.infects,
		Immunes:        s.led.immunes,
		Newborns:       s.led.newborns,
		NaturalDeaths:  s.led.naturalDeaths,
		EpidemicDeaths: s.led.epidemicDeaths,
		SimTime:        s.now,
		Wall:           time.Since(start),
		Reason:         s.reason,
	}, runErr
}

// step runs one wake of an individual: the natural-death check first, then
// the matured event for its current state, then arming of the next event.
func (s *Simulation) step(ev scheduledEvent) error {
	ind := ev.ind
	s.now = ev.at

	if s.p.NaturalDeathProb > 0 && s.smp.rng.Float64() <= s.p.NaturalDeathProb {
		return s.die(ind, true)
	}

	switch ev.kind {
	case evBegin:
		// Lifecycle starts; the first event is armed below.
	case evContact:
		if err := s.contact(ind); err != nil {
			return err
		}
	case evRecover:
		to := Susceptible
		if s.p.ImmuneAfterRecovery {
			to = Immune
		}
		if err := s.transition(ind, to); err != nil {
			return err
		}
	case evEpidemicDeath:
		return s.die(ind, false)
	case evImmunityLoss:
		if err := s.transition(ind, Susceptible); err != nil {
			return err
		}
	}

	if s.reason != StopNone {
		return nil
	}
	return s.arm(ind)
}

// arm samples the individual's next event and schedules its wake. A
// permanently immune individual has no self-scheduled events left; it only
// remains reachable as a contact partner.
func (s *Simulation) arm(ind *individual) error {
	switch ind.state {
	case Susceptible:
		s.push(ind, evContact, s.now+s.smp.wait(s.p.ContactRate))
	case Infect:
		kind, delay, err := s.smp.race([]ratedEvent{
			{evContact, s.p.ContactRate},
			{evRecover, s.p.RecoverRate},
			{evEpidemicDeath, s.p.DeathRate},
		})
		if err != nil {
			return err
		}
		s.push(ind, kind, s.now+delay)
	case Immune:
		if s.p.ImmunizationVanishRate > 0 {
			s.push(ind, evImmunityLoss, s.now+s.smp.wait(s.p.ImmunizationVanishRate))
		}
	}
	return nil
}

func (s *Simulation) push(ind *individual, k eventKind, at float64) {
	s.seq++
	heap.Push(&s.queue, scheduledEvent{at: at, seq: s.seq, ind: ind, kind: k})
}

// contact resolves one contact event: pick a distinct partner uniformly
// from the live registry, apply the infection rule, then the birth rule.
// The registry must hold at least two live individuals.
func (s *Simulation) contact(ind *individual) error {
	if len(s.live) < 2 {
		return fmt.Errorf("%w: contact requires 2 live individuals, have %d",
			ErrPrecondition, len(s.live))
	}
	partner := s.chooseContact(ind)

	if s.smp.rng.Float64() <= s.p.InfectProb {
		switch {
		case ind.state == Susceptible && partner.state == Infect:
			if err := s.transition(ind, Infect); err != nil {
				return err
			}
		case ind.state == Infect && partner.state == Susceptible:
			if err := s.transition(partner, Infect); err != nil {
				return err
			}
		}
	}
	if s.reason != StopNone {
		return nil
	}

	// Only one contact in two counts as a reproductive pairing.
	if s.p.NewbornProb > 0 && s.smp.rng.Float64() <= 0.5 &&
		s.smp.rng.Float64() <= s.p.NewbornProb {
		return s.birth(s.newbornState(ind, partner))
	}
	return nil
}

// chooseContact picks a live partner uniformly at random, excluding the
// acting individual, with a single draw.
func (s *Simulation) chooseContact(ind *individual) *individual {
	j := s.smp.rng.Intn(len(s.live) - 1)
	if j >= ind.liveIdx {
		j++
	}
	return s.live[j]
}

// newbornState resolves vertical transmission. Exactly one outcome is
// chosen, infect checked before immune.
func (s *Simulation) newbornState(a, b *individual) Health {
	if s.p.NewbornCanBeInfect &&
		((a.state == Infect && b.state != Immune) ||
			(b.state == Infect && a.state != Immune)) {
		return Infect
	}
	// Immunity passes vertically only through the mother, one case in two.
	if s.p.NewbornCanBeImmune && s.smp.rng.Float64() <= 0.5 &&
		(a.state == Immune || b.state == Immune) {
		return Immune
	}
	return Susceptible
}

// birth registers a newborn with a fresh identity and schedules it to
// begin its lifecycle at the current time, with no initial delay.
func (s *Simulation) birth(st Health) error {
	ind := &individual{id: s.nextID, state: st, liveIdx: len(s.live)}
	s.nextID++
	s.live = append(s.live, ind)
	s.led.newborns++
	s.led.inc(st)
	s.push(ind, evBegin, s.now)
	return s.afterMutation()
}

// transition moves an individual between live compartments and runs the
// mandatory post-mutation sequence.
func (s *Simulation) transition(ind *individual, to Health) error {
	s.led.dec(ind.state)
	s.led.inc(to)
	ind.state = to
	return s.afterMutation()
}

// die removes an individual permanently: counters updated, registry slot
// swap-removed, no further transitions.
func (s *Simulation) die(ind *individual, natural bool) error {
	if natural {
		s.led.naturalDeaths++
	} else {
		s.led.epidemicDeaths++
	}
	s.led.dec(ind.state)
	s.unregister(ind)
	ind.state = Dead
	return s.afterMutation()
}

func (s *Simulation) unregister(ind *individual) {
	i := ind.liveIdx
	last := len(s.live) - 1
	s.live[i] = s.live[last]
	s.live[i].liveIdx = i
	s.live = s.live[:last]
	ind.liveIdx = -1
}

// afterMutation is the fixed sequence every counter change goes through:
// conservation check, then observation, then termination check.
func (s *Simulation) afterMutation() error {
	if err := s.led.checkConservation(); err != nil {
		return err
	}
	s.observe()
	s.checkTermination()
	return nil
}

func (s *Simulation) observe() {
	smp := Sample{
		Time:         s.now,
		Susceptibles: s.led.susceptibles,
		Infects:      s.led.infects,
		Immunes:      s.led.immunes,
	}
	for _, o := range s.observers {
		o.Observe(smp)
	}
}

// checkTermination evaluates the early-stopping conditions in order; the
// first match ends the run.
func (s *Simulation) checkTermination() {
	switch {
	case s.led.infects == 0:
		s.reason = StopNoInfects
	case !s.model.HasNewSusceptibles &&
		s.led.susceptibles == 0 && s.led.immunes == 0:
		s.reason = StopAllInfect
	case s.model.ImmunizationIsPermanent && !s.model.HasVitalDynamics &&
		s.led.susceptibles == 0 && s.led.immunes == 0:
		s.reason = StopAllImmune
	}
}

func (s *Simulation) setProgress() {
	f := s.now / s.p.RunTime
	if f > 1 {
		f = 1
	}
	s.progressBits.Store(math.Float64bits(f))
}
