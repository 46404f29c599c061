package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 100)
	assert.Equal(t, int64(1), c.Version())

	for _, tc := range []struct {
		id   string
		team Team
	}{
		{"washerwoman", TeamTownsfolk},
		{"grandmother", TeamTownsfolk},
		{"drunk", TeamOutsider},
		{"scarletwoman", TeamMinion},
		{"imp", TeamDemon},
		{"scapegoat", TeamTraveller},
		{"doomsayer", TeamFabled},
	} {
		role, ok := c.Lookup(tc.id)
		if assert.True(t, ok, tc.id) {
			assert.Equal(t, tc.team, role.Team, tc.id)
			assert.NotEmpty(t, role.Name, tc.id)
		}
	}
	assert.False(t, c.Has("zzinvalid"))

	// every team is represented and Roles() is grouped in display order
	last := -1
	for _, r := range c.Roles() {
		assert.GreaterOrEqual(t, r.Team.Rank(), last)
		last = r.Team.Rank()
	}
	for _, team := range Teams() {
		assert.NotEmpty(t, c.ByTeam(team), team)
	}
}

func TestNewRejectsBadRoles(t *testing.T) {
	cases := []struct {
		name  string
		roles []Role
		want  error
	}{
		{"empty", nil, ErrEmptyCatalog},
		{"uppercase id", []Role{{ID: "Imp", Name: "Imp", Team: TeamDemon}}, ErrRoleID},
		{"missing id", []Role{{Name: "Imp", Team: TeamDemon}}, ErrRoleID},
		{"missing name", []Role{{ID: "imp", Team: TeamDemon}}, ErrRoleName},
		{"unknown team", []Role{{ID: "legion", Name: "Legion", Team: "horde"}}, ErrRoleTeam},
		{"duplicate", []Role{
			{ID: "imp", Name: "Imp", Team: TeamDemon},
			{ID: "imp", Name: "Imp Again", Team: TeamDemon},
		}, ErrDuplicateID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.roles)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestNewNormalizesTeamCase(t *testing.T) {
	c, err := New([]Role{{ID: "imp", Name: " Imp ", Team: "Demon"}})
	require.NoError(t, err)
	role, ok := c.Lookup("imp")
	require.True(t, ok)
	assert.Equal(t, TeamDemon, role.Team)
	assert.Equal(t, "Imp", role.Name)
}

func TestDecodeSchemaErrors(t *testing.T) {
	_, err := Decode([]byte(`{"id":"imp"}`), FormatJSON)
	assert.Error(t, err, "root must be an array")

	_, err = Decode([]byte(`[{"id":"imp","name":"Imp","team":"horde"}]`), FormatJSON)
	assert.ErrorContains(t, err, "catalog schema")

	_, err = Decode([]byte(`[{"id":"imp","team":"demon"}]`), FormatJSON)
	assert.ErrorContains(t, err, "catalog schema")

	roles, err := Decode([]byte(`[{"id":"imp","name":"Imp","team":"demon","reminders":["Dead"]}]`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []Role{{ID: "imp", Name: "Imp", Team: TeamDemon}}, roles)
}

func TestDecodeValidatesPlainJSONValues(t *testing.T) {
	_, err := Decode([]byte(`[{"id":"imp",`), FormatJSON)
	assert.ErrorContains(t, err, "parse catalog failed")

	roles, err := Decode([]byte(`[{"id":"imp","name":"Imp","team":"demon","firstNight":0,"otherNight":24.5,"setup":false}]`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "imp", roles[0].ID)

	_, err = Decode([]byte(`[{"id":7,"name":"Imp","team":"demon"}]`), FormatJSON)
	assert.ErrorContains(t, err, "catalog schema")
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	content := `roles:
  - id: chef
    name: Chef
    team: townsfolk
    ability: You start knowing how many pairs of evil players there are.
  - id: imp
    name: Imp
    team: demon
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Has("chef"))
	assert.Equal(t, []Role{{ID: "imp", Name: "Imp", Team: TeamDemon}}, c.ByTeam(TeamDemon))
}

func TestParseTeam(t *testing.T) {
	team, ok := ParseTeam(" Traveller ")
	assert.True(t, ok)
	assert.Equal(t, TeamTraveller, team)

	_, ok = ParseTeam("traveler")
	assert.False(t, ok)
	assert.Equal(t, -1, Team("horde").Rank())
	assert.Equal(t, "Outsiders", TeamOutsider.Title())
}
