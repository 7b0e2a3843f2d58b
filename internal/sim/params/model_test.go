package params

import "testing"

func TestDeriveModel(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
		want   Model
	}{
		{
			"si",
			func(p *Params) {},
			Model{},
		},
		{
			"sis",
			func(p *Params) { p.RecoverRate = 0.003 },
			Model{HasRecovering: true, HasNewSusceptibles: true},
		},
		{
			"sir permanent",
			func(p *Params) { p.RecoverRate = 0.003; p.ImmuneAfterRecovery = true },
			Model{
				HasRecovering:           true,
				HasImmunization:         true,
				ImmunizationIsPermanent: true,
				HasNewSusceptibles:      true,
			},
		},
		{
			"sir temporary",
			func(p *Params) {
				p.RecoverRate = 0.003
				p.ImmuneAfterRecovery = true
				p.ImmunizationVanishRate = 0.001
			},
			Model{
				HasRecovering:      true,
				HasImmunization:    true,
				HasNewSusceptibles: true,
			},
		},
		{
			"epidemic death only",
			func(p *Params) { p.DeathRate = 0.0001 },
			Model{HasDeath: true},
		},
		{
			"natural deaths only",
			func(p *Params) { p.NaturalDeathProb = 0.01 },
			Model{
				HasVitalDynamics:          true,
				NewbornsAlwaysSusceptible: true,
				HasNewSusceptibles:        true,
			},
		},
		{
			"births with vertical immunity",
			func(p *Params) { p.NewbornProb = 0.0001; p.NewbornCanBeImmune = true },
			Model{
				HasImmunization:           true,
				ImmunizationIsPermanent:   true,
				HasVitalDynamics:          true,
				NewbornsAlwaysSusceptible: true,
				HasNewSusceptibles:        true,
			},
		},
		{
			"full vertical transmission",
			func(p *Params) {
				p.RecoverRate = 0.003
				p.ImmuneAfterRecovery = true
				p.ImmunizationVanishRate = 0.001
				p.DeathRate = 0.0001
				p.NewbornProb = 0.0001
				p.NewbornCanBeInfect = true
				p.NewbornCanBeImmune = true
				p.NaturalDeathProb = 0.01
			},
			Model{
				HasRecovering:               true,
				HasImmunization:             true,
				HasDeath:                    true,
				HasVitalDynamics:            true,
				HasNewSusceptibles:          true,
				HasNewInfectsOutsideContact: true,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(&p)
			got := DeriveModel(p)
			if got != tc.want {
				t.Fatalf("DeriveModel mismatch:\n got  %+v\n want %+v", got, tc.want)
			}
		})
	}
}

func TestDeriveModel_Idempotent(t *testing.T) {
	p := valid()
	p.RecoverRate = 0.003
	p.ImmuneAfterRecovery = true
	p.NewbornProb = 0.0001
	p.NewbornCanBeImmune = true

	first := DeriveModel(p)
	for i := 0; i < 10; i++ {
		if got := DeriveModel(p); got != first {
			t.Fatalf("derivation not stable on pass %d: %+v vs %+v", i, got, first)
		}
	}
}
