package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides: CLOCKTOWER_STORE_DRIVER sets
// store.driver.
const EnvPrefix = "CLOCKTOWER"

const includeKey = "include"

// Load reads path plus its include files, layers CLOCKTOWER_* environment
// overrides on top, expands ${VAR} references in every string value, applies
// defaults for absent keys and validates the result.
func Load(path string) (*Config, error) {
	files, err := resolveIncludes(path)
	if err != nil {
		return nil, err
	}
	v := newViper()
	for _, f := range files {
		if err := v.MergeConfigMap(f.settings); err != nil {
			return nil, fmt.Errorf("merge config %s: %w", f.path, err)
		}
	}
	settings := v.AllSettings()
	delete(settings, includeKey)
	settings = expandEnv(settings).(map[string]any)

	keys := make(keySet)
	markKeys("", settings, keys)

	var cfg Config
	if err := decode(settings, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults(keys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Bound keys only surface in AllSettings when the variable is set, so an
	// unset variable never counts as an explicit key.
	for _, key := range configKeys(reflect.TypeOf(Config{}), "") {
		_ = v.BindEnv(key)
	}
	return v
}

func decode(settings map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "toml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(settings); err != nil {
		return fmt.Errorf("parsing config failed: %w", err)
	}
	return nil
}

// configKeys lists the dotted key of every leaf field, following toml tags.
func configKeys(t reflect.Type, prefix string) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("toml")
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if field.Type.Kind() == reflect.Struct {
			out = append(out, configKeys(field.Type, name)...)
			continue
		}
		out = append(out, name)
	}
	return out
}

// expandEnv resolves ${VAR} references in every string of a settings tree so
// credentials can live in .env.
func expandEnv(node any) any {
	switch val := node.(type) {
	case string:
		return os.ExpandEnv(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = expandEnv(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expandEnv(item)
		}
		return out
	default:
		return node
	}
}

// markKeys records the dotted path of every leaf present in settings.
func markKeys(prefix string, node any, dest keySet) {
	m, ok := node.(map[string]any)
	if !ok {
		dest.mark(prefix)
		return
	}
	for k, item := range m {
		next := strings.ToLower(strings.TrimSpace(k))
		if next == "" {
			continue
		}
		if prefix != "" {
			next = prefix + "." + next
		}
		markKeys(next, item, dest)
	}
}

// configFile is one parsed YAML file of the include graph.
type configFile struct {
	path     string
	settings map[string]any
}

// resolveIncludes returns path and everything it includes, depth first, so
// later files override earlier ones and the root file wins.
func resolveIncludes(path string) ([]configFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var out []configFile
	seen := make(map[string]bool)
	stack := make(map[string]bool)
	if err := walkIncludes(abs, seen, stack, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkIncludes(path string, seen, stack map[string]bool, out *[]configFile) error {
	path = filepath.Clean(path)
	if stack[path] {
		return fmt.Errorf("include cycle detected: %s", path)
	}
	if seen[path] {
		return nil
	}
	settings, err := readFile(path)
	if err != nil {
		return fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	includes, err := includeList(settings[includeKey])
	if err != nil {
		return fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	stack[path] = true
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := walkIncludes(inc, seen, stack, out); err != nil {
			return err
		}
	}
	delete(stack, path)
	seen[path] = true
	delete(settings, includeKey)
	*out = append(*out, configFile{path: path, settings: settings})
	return nil
}

func readFile(path string) (map[string]any, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

func includeList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("include must be a string array")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include only supports strings")
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}
