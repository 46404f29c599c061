package script

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// DecodeStored reads configuration content written to the host store. It
// accepts the canonical object and the older flat list of ids, which is
// bucketed by team with unknown ids dropped. Blank or unparsable content is
// reported as "no configuration".
func DecodeStored(content string, roles Roles) (Config, bool) {
	content = strings.TrimSpace(content)
	if content == "" || !gjson.Valid(content) {
		return Config{}, false
	}
	root := gjson.Parse(content)
	switch {
	case root.IsObject():
		var cfg Config
		if err := json.Unmarshal([]byte(content), &cfg); err != nil {
			return Config{}, false
		}
		filled := emptyTeamRoles()
		for team, ids := range cfg.Roles {
			if _, ok := filled[team]; ok && ids != nil {
				filled[team] = ids
			}
		}
		cfg.Roles = filled
		return cfg, true
	case root.IsArray():
		var list ValidatedList
		for _, item := range root.Array() {
			if item.Type != gjson.String {
				continue
			}
			id := NormalizeToken(item.Str)
			if _, ok := roles.Lookup(id); ok {
				list = append(list, id)
			}
		}
		return Canonicalize(list, gjson.Result{}, roles), true
	default:
		return Config{}, false
	}
}
