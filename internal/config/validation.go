package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Host.validate(); err != nil {
		return err
	}
	if err := c.Panel.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug|info|warn|error, got %s", a.LogLevel)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverSQLite:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("store.path cannot be empty for the sqlite driver")
		}
	case StoreDriverHelix:
		return s.Helix.validate()
	case StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver only supports sqlite|helix|memory, got %s", s.Driver)
	}
	return nil
}

func (h *HelixConfig) validate() error {
	if strings.TrimSpace(h.APIURL) == "" {
		return fmt.Errorf("store.helix.api_url cannot be empty")
	}
	if strings.TrimSpace(h.ClientID) == "" || strings.TrimSpace(h.ExtensionID) == "" {
		return fmt.Errorf("store.helix requires client_id and extension_id")
	}
	if strings.TrimSpace(h.ExtensionSecret) == "" {
		return fmt.Errorf("store.helix.extension_secret cannot be empty")
	}
	if strings.TrimSpace(h.BroadcasterID) == "" {
		return fmt.Errorf("store.helix.broadcaster_id cannot be empty")
	}
	return nil
}

func (h *HostConfig) validate() error {
	if h.PollIntervalMS <= 0 {
		return fmt.Errorf("host.poll_interval_ms must be > 0")
	}
	if h.ReadyTimeoutMS < h.PollIntervalMS {
		return fmt.Errorf("host.ready_timeout_ms must be >= host.poll_interval_ms")
	}
	switch h.Theme {
	case "light", "dark":
	default:
		return fmt.Errorf("host.theme must be light or dark, got %s", h.Theme)
	}
	switch h.Mode {
	case "panel", "mobile", "video_overlay":
	default:
		return fmt.Errorf("host.mode must be panel|mobile|video_overlay, got %s", h.Mode)
	}
	return nil
}

func (p *PanelConfig) validate() error {
	if p.CacheSize <= 0 {
		return fmt.Errorf("panel.cache_size must be > 0")
	}
	return nil
}
