package script

import (
	"bytes"
	"encoding/json"
	"fmt"

	"clocktower/internal/catalog"

	"github.com/tidwall/gjson"
)

// TeamRoles buckets ids by team. A Config built by Canonicalize always carries all
// six teams.
type TeamRoles map[catalog.Team][]NormalizedID

// Config is the canonical, persisted form of a script.
type Config struct {
	Name   string    `json:"name"`
	Author string    `json:"author"`
	Roles  TeamRoles `json:"roles"`
}

// Canonicalize partitions a validated list into team buckets and attaches the
// header metadata. name and author are taken only when they are JSON strings.
func Canonicalize(list ValidatedList, header gjson.Result, roles Roles) Config {
	cfg := Config{
		Name:   headerString(header, "name"),
		Author: headerString(header, "author"),
		Roles:  emptyTeamRoles(),
	}
	for _, id := range list {
		role, ok := roles.Lookup(id)
		if !ok {
			continue
		}
		if _, known := cfg.Roles[role.Team]; !known {
			continue
		}
		cfg.Roles[role.Team] = append(cfg.Roles[role.Team], id)
	}
	return cfg
}

func headerString(header gjson.Result, key string) string {
	if !header.IsObject() {
		return ""
	}
	v := field(header, key)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func emptyTeamRoles() TeamRoles {
	out := make(TeamRoles, len(catalog.Teams()))
	for _, team := range catalog.Teams() {
		out[team] = []NormalizedID{}
	}
	return out
}

// Count is the number of ids across every bucket.
func (c Config) Count() int {
	n := 0
	for _, ids := range c.Roles {
		n += len(ids)
	}
	return n
}

// IDs flattens the buckets in display order.
func (c Config) IDs() []NormalizedID {
	var out []NormalizedID
	for _, team := range catalog.Teams() {
		out = append(out, c.Roles[team]...)
	}
	return out
}

// Encode renders the canonical JSON stored in the host configuration.
func (c Config) Encode() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(raw), nil
}

// MarshalJSON writes teams in display order with empty buckets as [], so the
// same config always encodes to the same bytes.
func (r TeamRoles) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, team := range catalog.Teams() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(team))
		buf.Write(key)
		buf.WriteByte(':')
		ids := r[team]
		if ids == nil {
			ids = []NormalizedID{}
		}
		val, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
