package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCatalog = errors.New("catalog has no roles")
	ErrRoleID       = errors.New("role id must be lowercase letters only")
	ErrRoleName     = errors.New("role name is required")
	ErrRoleTeam     = errors.New("role team is not one of the six teams")
	ErrDuplicateID  = errors.New("duplicate role id")
)

// Role is one catalog entry.
type Role struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Team    Team   `json:"team" yaml:"team"`
	Ability string `json:"ability" yaml:"ability"`
}

// Catalog is an immutable id -> role table. The zero value is empty; build one
// with New.
type Catalog struct {
	version int64
	byID    map[string]Role
	ordered []Role
}

// New validates roles and builds a Catalog. Role order inside a team follows
// the input order.
func New(roles []Role) (*Catalog, error) {
	return newVersioned(roles, 1)
}

func newVersioned(roles []Role, version int64) (*Catalog, error) {
	if len(roles) == 0 {
		return nil, ErrEmptyCatalog
	}
	byID := make(map[string]Role, len(roles))
	ordered := make([]Role, 0, len(roles))
	for i, r := range roles {
		r.Name = strings.TrimSpace(r.Name)
		r.Ability = strings.TrimSpace(r.Ability)
		if !isRoleID(r.ID) {
			return nil, fmt.Errorf("role #%d %q: %w", i+1, r.ID, ErrRoleID)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("role %s: %w", r.ID, ErrRoleName)
		}
		team, ok := ParseTeam(string(r.Team))
		if !ok {
			return nil, fmt.Errorf("role %s team %q: %w", r.ID, r.Team, ErrRoleTeam)
		}
		r.Team = team
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("role %s: %w", r.ID, ErrDuplicateID)
		}
		byID[r.ID] = r
		ordered = append(ordered, r)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Team.Rank() < ordered[j].Team.Rank()
	})
	return &Catalog{version: version, byID: byID, ordered: ordered}, nil
}

func isRoleID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 'a' || id[i] > 'z' {
			return false
		}
	}
	return true
}

// Lookup returns the role for a normalized id.
func (c *Catalog) Lookup(id string) (Role, bool) {
	if c == nil {
		return Role{}, false
	}
	r, ok := c.byID[id]
	return r, ok
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// Version increments every time the registry swaps in a reloaded catalog.
func (c *Catalog) Version() int64 {
	if c == nil {
		return 0
	}
	return c.version
}

// Roles returns a copy of all roles in display order.
func (c *Catalog) Roles() []Role {
	if c == nil {
		return nil
	}
	out := make([]Role, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ByTeam returns the roles of one team in catalog order.
func (c *Catalog) ByTeam(team Team) []Role {
	if c == nil {
		return nil
	}
	var out []Role
	for _, r := range c.ordered {
		if r.Team == team {
			out = append(out, r)
		}
	}
	return out
}
