package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "app:\n  env: prod\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, defaultAppHTTPAddr, cfg.App.HTTPAddr)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 100*time.Millisecond, cfg.Host.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.Host.ReadyTimeout())
	assert.Equal(t, "light", cfg.Host.Theme)
	assert.Equal(t, defaultPanelCacheSize, cfg.Panel.CacheSize)
	assert.False(t, cfg.Catalog.Watch)
}

func TestLoadIncludesAndExplicitKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "store.yaml", "store:\n  driver: memory\n")
	path := writeFile(t, dir, "config.yaml", `include:
  - store.yaml
catalog:
  path: roles.yaml
  watch: false
host:
  theme: Dark
  mode: mobile
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "roles.yaml", cfg.Catalog.Path)
	assert.False(t, cfg.Catalog.Watch)
	assert.Equal(t, "dark", cfg.Host.Theme)
	assert.Equal(t, "mobile", cfg.Host.Mode)
}

func TestLoadWatchDefaultsOnWithPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "catalog:\n  path: roles.json\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Catalog.Watch)
}

func TestLoadHelixExpandsEnv(t *testing.T) {
	t.Setenv("TEST_EXT_SECRET", "c2VjcmV0")
	t.Setenv("TEST_EXT_ID", "extabc")
	t.Setenv("TEST_HELIX_HOST", "helix.example.test")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `store:
  driver: helix
  helix:
    api_url: https://${TEST_HELIX_HOST}/helix
    client_id: cid
    extension_id: ${TEST_EXT_ID}
    extension_secret: ${TEST_EXT_SECRET}
    broadcaster_id: "42"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "c2VjcmV0", cfg.Store.Helix.ExtensionSecret)
	assert.Equal(t, "extabc", cfg.Store.Helix.ExtensionID)
	assert.Equal(t, "https://helix.example.test/helix", cfg.Store.Helix.APIURL)
	assert.Equal(t, "42", cfg.Store.Helix.BroadcasterID)
}

func TestLoadHelixUnsetVariableFailsValidation(t *testing.T) {
	t.Setenv("TEST_EXT_ID_UNSET", "")
	path := writeFile(t, t.TempDir(), "config.yaml", `store:
  driver: helix
  helix:
    client_id: cid
    extension_id: ${TEST_EXT_ID_UNSET}
    extension_secret: c2VjcmV0
    broadcaster_id: "42"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLOCKTOWER_STORE_DRIVER", "memory")
	t.Setenv("CLOCKTOWER_HOST_POLL_INTERVAL_MS", "250")
	t.Setenv("CLOCKTOWER_CATALOG_WATCH", "false")
	path := writeFile(t, t.TempDir(), "config.yaml", "store:\n  driver: sqlite\ncatalog:\n  path: roles.json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Host.PollInterval())
	assert.False(t, cfg.Catalog.Watch)
	assert.Equal(t, defaultReadyTimeoutMS, cfg.Host.ReadyTimeoutMS)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "app:\n  http_adr: \":9000\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http_adr")
}

func TestLoadRootOverridesInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "app:\n  env: base\n  http_addr: \":9000\"\n")
	path := writeFile(t, dir, "config.yaml", "include:\n  - base.yaml\napp:\n  env: prod\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, ":9000", cfg.App.HTTPAddr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"driver":    "store:\n  driver: redis\n",
		"helix":     "store:\n  driver: helix\n",
		"theme":     "host:\n  theme: neon\n",
		"mode":      "host:\n  mode: desktop\n",
		"timeout":   "host:\n  poll_interval_ms: 500\n  ready_timeout_ms: 100\n",
		"log level": "app:\n  log_level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	path := writeFile(t, dir, "b.yaml", "include:\n  - a.yaml\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestDefaultsValidate(t *testing.T) {
	assert.NoError(t, validate(Defaults()))
}
