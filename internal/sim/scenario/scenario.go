// Package scenario bundles named parameter presets for the classic
// compartmental models, plus loading of user-written scenario files.
package scenario

import (
	"fmt"
	"sort"

	"epidemia.dev/internal/sim/params"
)

// Scenario is a named, ready-to-run parameter set.
type Scenario struct {
	Name        string
	Description string
	Params      params.Params
}

// presets are the stock models. All of them leave the presentation flags
// at their defaults.
var presets = map[string]Scenario{
	"si": {
		Name:        "si",
		Description: "SI: no recovery, no immunization, no vital dynamics",
		Params: withDefaults(params.Params{
			NrIndividuals:  100,
			InitialInfects: 10,
			InfectProb:     0.003,
			ContactRate:    3,
			RunTime:        1000,
		}),
	},
	"sis": {
		Name:        "sis",
		Description: "SIS: recovery back to susceptible, no immunization",
		Params: withDefaults(params.Params{
			NrIndividuals:  100,
			InitialInfects: 10,
			InfectProb:     0.002,
			ContactRate:    1,
			RecoverRate:    0.003,
			RunTime:        5000,
		}),
	},
	"sir-permanent": {
		Name:        "sir-permanent",
		Description: "SIR: recovery grants permanent immunity",
		Params: withDefaults(params.Params{
			NrIndividuals:       100,
			InitialInfects:      10,
			InfectProb:          0.003,
			ContactRate:         1,
			RecoverRate:         0.003,
			ImmuneAfterRecovery: true,
			RunTime:             5000,
		}),
	},
	"sir-permanent-death": {
		Name:        "sir-permanent-death",
		Description: "SIR: permanent immunity, epidemic death",
		Params: withDefaults(params.Params{
			NrIndividuals:       100,
			InitialInfects:      10,
			InfectProb:          0.003,
			ContactRate:         1,
			RecoverRate:         0.003,
			ImmuneAfterRecovery: true,
			DeathRate:           0.0001,
			RunTime:             5000,
		}),
	},
	"sir-temporary": {
		Name:        "sir-temporary",
		Description: "SIR: immunity vanishes over time",
		Params: withDefaults(params.Params{
			NrIndividuals:          100,
			InitialInfects:         10,
			InfectProb:             0.003,
			ContactRate:            1,
			RecoverRate:            0.003,
			ImmuneAfterRecovery:    true,
			ImmunizationVanishRate: 0.001,
			RunTime:                5000,
		}),
	},
	"sir-vital": {
		Name:        "sir-vital",
		Description: "SIR: temporary immunity, births and natural deaths",
		Params: withDefaults(params.Params{
			NrIndividuals:          100,
			InitialInfects:         10,
			InfectProb:             0.003,
			ContactRate:            1,
			RecoverRate:            0.003,
			ImmuneAfterRecovery:    true,
			ImmunizationVanishRate: 0.001,
			DeathRate:              0.0001,
			NewbornProb:            0.0001,
			NaturalDeathProb:       0.01,
			RunTime:                5000,
		}),
	},
	"sir-vital-vertical": {
		Name:        "sir-vital-vertical",
		Description: "SIR: vital dynamics with vertical infection and immunization",
		Params: withDefaults(params.Params{
			NrIndividuals:          100,
			InitialInfects:         10,
			InfectProb:             0.003,
			ContactRate:            3,
			RecoverRate:            0.003,
			ImmuneAfterRecovery:    true,
			ImmunizationVanishRate: 0.001,
			DeathRate:              0.0001,
			NewbornProb:            0.0001,
			NewbornCanBeInfect:     true,
			NewbornCanBeImmune:     true,
			NaturalDeathProb:       0.01,
			RunTime:                5000,
		}),
	},
}

func withDefaults(p params.Params) params.Params {
	d := params.Defaults()
	p.Progress = d.Progress
	p.Stats = d.Stats
	p.Plot = d.Plot
	return p
}

// ByName looks up a preset.
func ByName(name string) (Scenario, bool) {
	sc, ok := presets[name]
	return sc, ok
}

// Names lists the preset names, sorted.
func Names() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load reads a scenario from a YAML parameter file.
func Load(path string) (Scenario, error) {
	p, err := params.Load(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return Scenario{Name: path, Description: "user scenario", Params: p}, nil
}
