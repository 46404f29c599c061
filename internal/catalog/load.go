package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed data/roles.json
var defaultRoles []byte

// roleSchema accepts the exported roles.json shape: extra per-role keys such as
// reminders or night order are allowed and ignored.
const roleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["id", "name", "team"],
    "properties": {
      "id":      {"type": "string", "pattern": "^[a-z]+$"},
      "name":    {"type": "string", "minLength": 1},
      "team":    {"enum": ["townsfolk", "outsider", "minion", "demon", "traveller", "fabled"]},
      "ability": {"type": "string"}
    }
  }
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("roles.schema.json", strings.NewReader(roleSchema)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("roles.schema.json")
	})
	return schemaCompiled, schemaErr
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	roles, err := Decode(defaultRoles, FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return New(roles)
}

// Format selects the decoder used for a catalog file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor guesses the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads, schema-checks and builds a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	roles, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(roles)
}

// ReadFile decodes the roles in path without building a Catalog.
func ReadFile(path string) ([]Role, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog failed: %w", err)
	}
	roles, err := Decode(raw, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", filepath.Base(path), err)
	}
	return roles, nil
}

// Decode parses raw catalog bytes and validates them against the role schema.
func Decode(raw []byte, format Format) ([]Role, error) {
	doc, err := toJSON(raw, format)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return nil, fmt.Errorf("parse catalog failed: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema failed: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	var roles []Role
	if err := json.Unmarshal(doc, &roles); err != nil {
		return nil, fmt.Errorf("decode catalog roles failed: %w", err)
	}
	return roles, nil
}

func toJSON(raw []byte, format Format) ([]byte, error) {
	if format != FormatYAML {
		return raw, nil
	}
	var node any
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&node); err != nil {
		return nil, fmt.Errorf("parse catalog yaml failed: %w", err)
	}
	// A top-level "roles:" key is accepted as well as a bare list.
	if m, ok := node.(map[string]any); ok {
		if roles, ok := m["roles"]; ok {
			node = roles
		}
	}
	out, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("convert catalog yaml failed: %w", err)
	}
	return out, nil
}
