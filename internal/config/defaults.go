package config

import "strings"

const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":8080"
	defaultAppLogPath     = "data/logs/clocktower.log"
	defaultStoreDriver    = StoreDriverSQLite
	defaultStorePath      = "data/db/config.db"
	defaultAuditPath      = "data/db/audit.db"
	defaultHelixAPI       = "https://api.twitch.tv/helix"
	defaultHelixTimeout   = 10
	defaultPollIntervalMS = 100
	defaultReadyTimeoutMS = 10000
	defaultHostTheme      = "light"
	defaultHostMode       = "panel"
	defaultPanelCacheSize = 64
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Catalog.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Host.applyDefaults(keys)
	c.Panel.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (c *CatalogConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	c.Path = strings.TrimSpace(c.Path)
	applyFieldDefaults(keys,
		boolFieldDefault("catalog.watch", &c.Watch, c.Path != ""),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	applyFieldDefaults(keys,
		stringFieldDefault("store.driver", &s.Driver, defaultStoreDriver),
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
		stringFieldDefault("store.audit_path", &s.AuditPath, defaultAuditPath),
	)
	s.Helix.applyDefaults(keys)
}

func (h *HelixConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.helix.api_url", &h.APIURL, defaultHelixAPI),
		fieldDefault{
			key:   "store.helix.timeout_seconds",
			need:  func() bool { return h.TimeoutSeconds <= 0 },
			apply: func() { h.TimeoutSeconds = defaultHelixTimeout },
		},
	)
}

func (h *HostConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	h.Theme = strings.ToLower(strings.TrimSpace(h.Theme))
	h.Mode = strings.ToLower(strings.TrimSpace(h.Mode))
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "host.poll_interval_ms",
			need:  func() bool { return h.PollIntervalMS <= 0 },
			apply: func() { h.PollIntervalMS = defaultPollIntervalMS },
		},
		fieldDefault{
			key:   "host.ready_timeout_ms",
			need:  func() bool { return h.ReadyTimeoutMS <= 0 },
			apply: func() { h.ReadyTimeoutMS = defaultReadyTimeoutMS },
		},
		stringFieldDefault("host.theme", &h.Theme, defaultHostTheme),
		stringFieldDefault("host.mode", &h.Mode, defaultHostMode),
	)
}

func (p *PanelConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "panel.cache_size",
			need:  func() bool { return p.CacheSize <= 0 },
			apply: func() { p.CacheSize = defaultPanelCacheSize },
		},
	)
}

// Defaults returns a config with every default applied, used when no config
// file exists.
func Defaults() *Config {
	var cfg Config
	cfg.applyDefaults(nil)
	return &cfg
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
