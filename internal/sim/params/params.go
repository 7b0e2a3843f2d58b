// Package params holds the typed parameter set of an epidemic run, its
// defaults and validation, and the model feature flags derived from it.
package params

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors. All validation failures wrap it,
// so callers can tell bad parameters from runtime failures with errors.Is.
var ErrInvalid = errors.New("invalid epidemic parameters")

// Params is the full parameter set of one simulation run. Rates are events
// per unit of simulated time, probabilities are in [0,1].
type Params struct {
	NrIndividuals  int `yaml:"nr_individuals" json:"nr_individuals"`
	InitialInfects int `yaml:"initial_infects" json:"initial_infects"`
	InitialImmunes int `yaml:"initial_immunes" json:"initial_immunes"`

	InfectProb  float64 `yaml:"infect_prob" json:"infect_prob"`
	ContactRate float64 `yaml:"contact_rate" json:"contact_rate"`

	RecoverRate            float64 `yaml:"recover_rate" json:"recover_rate"`
	ImmuneAfterRecovery    bool    `yaml:"immune_after_recovery" json:"immune_after_recovery"`
	ImmunizationVanishRate float64 `yaml:"immunization_vanish_rate" json:"immunization_vanish_rate"`
	DeathRate              float64 `yaml:"death_rate" json:"death_rate"`

	NewbornProb        float64 `yaml:"newborn_prob" json:"newborn_prob"`
	NewbornCanBeInfect bool    `yaml:"newborn_can_be_infect" json:"newborn_can_be_infect"`
	NewbornCanBeImmune bool    `yaml:"newborn_can_be_immune" json:"newborn_can_be_immune"`
	NaturalDeathProb   float64 `yaml:"natural_death_prob" json:"natural_death_prob"`

	RunTime float64 `yaml:"run_time" json:"run_time"`

	// Seed selects the random stream; 0 means derive one from the clock.
	Seed int64 `yaml:"seed" json:"seed"`

	// Presentation flags, consumed by the CLI, not by the engine.
	Progress bool `yaml:"progress" json:"progress"`
	Stats    bool `yaml:"stats" json:"stats"`
	Plot     bool `yaml:"plot" json:"plot"`
	Debug    bool `yaml:"debug" json:"debug"`
}

// Defaults returns the parameter set with every optional value at its
// default: numeric options off (0), booleans false, except the three
// presentation flags which default to on. Loading a document on top of
// Defaults leaves unset keys at these values.
func Defaults() Params {
	return Params{
		Progress: true,
		Stats:    true,
		Plot:     true,
	}
}

// requiredKeys are the parameters a scenario document must spell out.
var requiredKeys = []string{
	"nr_individuals",
	"initial_infects",
	"infect_prob",
	"contact_rate",
	"run_time",
}

// Load reads a YAML parameter document on top of Defaults and validates it.
// The required keys must be present in the document, not merely valid.
func Load(path string) (Params, error) {
	p := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return p, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	for _, k := range requiredKeys {
		if _, ok := doc[k]; !ok {
			return p, fmt.Errorf("%w: missing required parameter %q", ErrInvalid, k)
		}
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects parameter sets the engine cannot run. It fails fast,
// before any simulation step, and every failure wraps ErrInvalid.
func (p Params) Validate() error {
	if p.NrIndividuals < 2 {
		return fmt.Errorf("%w: nr_individuals must be >= 2, got %d", ErrInvalid, p.NrIndividuals)
	}
	if p.InitialInfects < 0 || p.InitialImmunes < 0 {
		return fmt.Errorf("%w: initial cohort counts must be >= 0", ErrInvalid)
	}
	if p.InitialInfects+p.InitialImmunes > p.NrIndividuals {
		return fmt.Errorf("%w: initial_infects + initial_immunes (%d) exceeds nr_individuals (%d)",
			ErrInvalid, p.InitialInfects+p.InitialImmunes, p.NrIndividuals)
	}
	if p.ContactRate <= 0 {
		return fmt.Errorf("%w: contact_rate must be > 0, got %g", ErrInvalid, p.ContactRate)
	}
	if p.RunTime <= 0 {
		return fmt.Errorf("%w: run_time must be > 0, got %g", ErrInvalid, p.RunTime)
	}
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"recover_rate", p.RecoverRate},
		{"immunization_vanish_rate", p.ImmunizationVanishRate},
		{"death_rate", p.DeathRate},
	} {
		if r.v < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %g", ErrInvalid, r.name, r.v)
		}
	}
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"infect_prob", p.InfectProb},
		{"newborn_prob", p.NewbornProb},
		{"natural_death_prob", p.NaturalDeathProb},
	} {
		if r.v < 0 || r.v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %g", ErrInvalid, r.name, r.v)
		}
	}
	return nil
}
