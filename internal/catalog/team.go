package catalog

import "strings"

// Team is one of the six fixed factions a character belongs to.
type Team string

const (
	TeamTownsfolk Team = "townsfolk"
	TeamOutsider  Team = "outsider"
	TeamMinion    Team = "minion"
	TeamDemon     Team = "demon"
	TeamTraveller Team = "traveller"
	TeamFabled    Team = "fabled"
)

var displayOrder = []Team{
	TeamTownsfolk,
	TeamOutsider,
	TeamMinion,
	TeamDemon,
	TeamTraveller,
	TeamFabled,
}

// Teams returns every team in display order.
func Teams() []Team {
	out := make([]Team, len(displayOrder))
	copy(out, displayOrder)
	return out
}

// ParseTeam maps a raw team tag onto the closed set. Matching ignores case and
// surrounding whitespace.
func ParseTeam(raw string) (Team, bool) {
	t := Team(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range displayOrder {
		if t == known {
			return known, true
		}
	}
	return "", false
}

// Rank is the team's position in display order, or -1.
func (t Team) Rank() int {
	for i, known := range displayOrder {
		if t == known {
			return i
		}
	}
	return -1
}

func (t Team) Valid() bool { return t.Rank() >= 0 }

func (t Team) String() string { return string(t) }

// Title is the heading used when rendering a team section.
func (t Team) Title() string {
	switch t {
	case TeamTownsfolk:
		return "Townsfolk"
	case TeamOutsider:
		return "Outsiders"
	case TeamMinion:
		return "Minions"
	case TeamDemon:
		return "Demons"
	case TeamTraveller:
		return "Travellers"
	case TeamFabled:
		return "Fabled"
	default:
		return string(t)
	}
}
