package params

// Model describes which dynamics a parameter set actually enables. The
// flags gate reachable transitions and which early-termination conditions
// are meaningful. They are pure functions of Params: derive once at
// construction and never mutate.
type Model struct {
	HasRecovering               bool
	HasImmunization             bool
	ImmunizationIsPermanent     bool
	HasDeath                    bool
	HasVitalDynamics            bool
	NewbornsAlwaysSusceptible   bool
	HasNewSusceptibles          bool
	HasNewInfectsOutsideContact bool
}

// DeriveModel computes the feature flags. The intermediate flags feed the
// later ones, so the assignments below are order-sensitive.
func DeriveModel(p Params) Model {
	var m Model
	m.HasRecovering = p.RecoverRate > 0
	m.HasImmunization = (m.HasRecovering && p.ImmuneAfterRecovery) ||
		(p.NewbornProb > 0 && p.NewbornCanBeImmune)
	m.ImmunizationIsPermanent = m.HasImmunization && p.ImmunizationVanishRate == 0
	m.HasDeath = p.DeathRate > 0
	m.HasVitalDynamics = p.NewbornProb > 0 || p.NaturalDeathProb > 0
	m.NewbornsAlwaysSusceptible = m.HasVitalDynamics &&
		!(p.NewbornCanBeImmune && p.NewbornCanBeInfect)
	m.HasNewSusceptibles = m.HasRecovering ||
		(m.HasImmunization && !m.ImmunizationIsPermanent) ||
		m.HasVitalDynamics
	m.HasNewInfectsOutsideContact = m.HasVitalDynamics && !m.NewbornsAlwaysSusceptible
	return m
}
