package epidemic

// Health is the compartment an individual currently occupies.
type Health uint8

const (
	Susceptible Health = iota
	Infect
	Immune
	Dead
)

func (h Health) String() string {
	switch h {
	case Susceptible:
		return "susceptible"
	case Infect:
		return "infect"
	case Immune:
		return "immune"
	case Dead:
		return "dead"
	}
	return "unknown"
}
