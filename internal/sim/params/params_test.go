package params

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func valid() Params {
	p := Defaults()
	p.NrIndividuals = 100
	p.InitialInfects = 10
	p.InfectProb = 0.003
	p.ContactRate = 3
	p.RunTime = 1000
	return p
}

func TestDefaults_PresentationFlagsOn(t *testing.T) {
	d := Defaults()
	if !d.Progress || !d.Stats || !d.Plot {
		t.Fatalf("presentation flags should default on: %+v", d)
	}
	if d.Debug || d.ImmuneAfterRecovery || d.NewbornCanBeInfect || d.NewbornCanBeImmune {
		t.Fatalf("other booleans should default off: %+v", d)
	}
	if d.RecoverRate != 0 || d.DeathRate != 0 || d.NewbornProb != 0 {
		t.Fatalf("numeric options should default to 0: %+v", d)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
		ok     bool
	}{
		{"valid", func(p *Params) {}, true},
		{"too few individuals", func(p *Params) { p.NrIndividuals = 1 }, false},
		{"negative infects", func(p *Params) { p.InitialInfects = -1 }, false},
		{"cohort exceeds population", func(p *Params) { p.InitialInfects = 60; p.InitialImmunes = 50 }, false},
		{"zero contact rate", func(p *Params) { p.ContactRate = 0 }, false},
		{"zero run time", func(p *Params) { p.RunTime = 0 }, false},
		{"negative recover rate", func(p *Params) { p.RecoverRate = -0.1 }, false},
		{"negative vanish rate", func(p *Params) { p.ImmunizationVanishRate = -1 }, false},
		{"infect prob above one", func(p *Params) { p.InfectProb = 1.5 }, false},
		{"negative newborn prob", func(p *Params) { p.NewbornProb = -0.2 }, false},
		{"natural death prob above one", func(p *Params) { p.NaturalDeathProb = 2 }, false},
		{"boundary probabilities", func(p *Params) { p.InfectProb = 1; p.NewbornProb = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(&p)
			err := p.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("error should wrap ErrInvalid: %v", err)
				}
			}
		})
	}
}

func writeTemp(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTemp(t, `
nr_individuals: 100
initial_infects: 10
infect_prob: 0.003
contact_rate: 3
run_time: 1000
recover_rate: 0.01
progress: false
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.NrIndividuals != 100 || p.RecoverRate != 0.01 {
		t.Fatalf("unexpected params: %+v", p)
	}
	if p.Progress {
		t.Fatal("progress=false in document should override the default")
	}
	if !p.Stats || !p.Plot {
		t.Fatal("unset presentation flags must keep their true defaults")
	}
	if p.DeathRate != 0 || p.NewbornProb != 0 {
		t.Fatalf("unset numeric options must stay 0: %+v", p)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	path := writeTemp(t, `
nr_individuals: 100
infect_prob: 0.003
contact_rate: 3
run_time: 1000
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing initial_infects")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("error should wrap ErrInvalid: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeTemp(t, `
nr_individuals: 100
initial_infects: 10
infect_prob: 7
contact_rate: 3
run_time: 1000
`)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
