package config

import (
	"strings"
	"time"
)

// Config is the root configuration of the clocktower service.
type Config struct {
	App     AppConfig     `toml:"app"`
	Catalog CatalogConfig `toml:"catalog"`
	Store   StoreConfig   `toml:"store"`
	Host    HostConfig    `toml:"host"`
	Panel   PanelConfig   `toml:"panel"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// CatalogConfig points at an optional role catalog override. An empty path
// keeps the embedded catalog.
type CatalogConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverHelix  = "helix"
	StoreDriverMemory = "memory"
)

type StoreConfig struct {
	Driver    string      `toml:"driver"`
	Path      string      `toml:"path"`
	AuditPath string      `toml:"audit_path"`
	Helix     HelixConfig `toml:"helix"`
}

// HelixConfig configures the Twitch Extensions configuration service client.
type HelixConfig struct {
	APIURL          string `toml:"api_url"`
	ClientID        string `toml:"client_id"`
	ExtensionID     string `toml:"extension_id"`
	ExtensionSecret string `toml:"extension_secret"`
	OwnerID         string `toml:"owner_id"`
	BroadcasterID   string `toml:"broadcaster_id"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	VerifyFrontend  bool   `toml:"verify_frontend"`
}

type HostConfig struct {
	PollIntervalMS int    `toml:"poll_interval_ms"`
	ReadyTimeoutMS int    `toml:"ready_timeout_ms"`
	Theme          string `toml:"theme"`
	Mode           string `toml:"mode"`
}

func (h HostConfig) PollInterval() time.Duration {
	return time.Duration(h.PollIntervalMS) * time.Millisecond
}

func (h HostConfig) ReadyTimeout() time.Duration {
	return time.Duration(h.ReadyTimeoutMS) * time.Millisecond
}

type PanelConfig struct {
	IconDir   string `toml:"icon_dir"`
	CacheSize int    `toml:"cache_size"`
}

// keySet tracks the key paths explicitly set in the config files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes how one field gets its default.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
