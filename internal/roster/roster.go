// Package roster turns a canonical configuration into the card layout shown
// on the viewer panel.
package roster

import (
	"fmt"

	"clocktower/internal/catalog"
	"clocktower/internal/script"
)

// Card is one character tile. Placeholder cards stand in for ids the current
// catalog no longer knows.
type Card struct {
	Key         string       `json:"key"`
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Team        catalog.Team `json:"team"`
	Ability     string       `json:"ability,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Placeholder bool         `json:"placeholder,omitempty"`
}

type Section struct {
	Team  catalog.Team `json:"team"`
	Title string       `json:"title"`
	Cards []Card       `json:"cards"`
}

type Panel struct {
	Name     string    `json:"name"`
	Author   string    `json:"author"`
	Sections []Section `json:"sections"`
	Count    int       `json:"count"`
}

func (p Panel) Empty() bool { return p.Count == 0 }

// Icons resolves an icon path for a role; "" means no icon.
type Icons interface {
	Icon(id string, team catalog.Team) string
}

// Render lays out cfg in team display order, skipping empty buckets.
func Render(cfg script.Config, roles script.Roles, icons Icons) Panel {
	p := Panel{Name: cfg.Name, Author: cfg.Author}
	for _, team := range catalog.Teams() {
		ids := cfg.Roles[team]
		if len(ids) == 0 {
			continue
		}
		sec := Section{Team: team, Title: team.Title(), Cards: make([]Card, 0, len(ids))}
		for i, id := range ids {
			role, ok := roles.Lookup(id)
			if !ok {
				sec.Cards = append(sec.Cards, Card{
					Key:         fmt.Sprintf("unknown-%d", i),
					Team:        team,
					Placeholder: true,
				})
				continue
			}
			card := Card{
				Key:     fmt.Sprintf("%s-%d", role.ID, i),
				ID:      role.ID,
				Name:    role.Name,
				Team:    role.Team,
				Ability: role.Ability,
			}
			if icons != nil {
				card.Icon = icons.Icon(role.ID, role.Team)
			}
			sec.Cards = append(sec.Cards, card)
		}
		p.Count += len(sec.Cards)
		p.Sections = append(p.Sections, sec)
	}
	return p
}
