package panelhttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"clocktower/internal/catalog"
	"clocktower/internal/configsvc"
	"clocktower/internal/host"
	"clocktower/internal/roster"
	"clocktower/internal/store"
	"clocktower/internal/store/helix"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tbScript = `[{"id":"_meta","name":"Trouble Brewing","author":"TPI"},{"id":"washerwoman"},{"id":"imp"}]`

type fixture struct {
	server *Server
	hub    *store.Hub
	mem    *store.MemoryStore
}

func newFixture(t *testing.T, mutate func(*ServerConfig)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cat, err := catalog.Default()
	require.NoError(t, err)
	mem := store.NewMemoryStore()
	hub := store.NewHub(mem)
	svc := configsvc.New(host.NewLocal(hub, host.Context{}), catalog.NewStaticRegistry(cat, "embedded"), configsvc.Options{
		PollInterval: time.Millisecond,
		ReadyTimeout: 20 * time.Millisecond,
	})
	cfg := ServerConfig{
		Service: svc,
		History: mem,
		Changes: hub,
		Host:    host.Context{Theme: host.ThemeLight, Mode: host.ModePanel},
		Icons: roster.NewIconResolver(fstest.MapFS{
			"imp.png": {Data: []byte("png")},
		}),
		Heartbeat: time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return &fixture{server: srv, hub: hub, mem: mem}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestSaveRawTextThenRead(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(tbScript))
	req.Header.Set("Content-Type", "text/plain")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Configuration saved successfully! (2 characters)", body["message"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, body["version"], got["version"])
	cfg := got["config"].(map[string]any)
	assert.Equal(t, "Trouble Brewing", cfg["name"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/config/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode(t, w)
	assert.Len(t, hist["versions"], 1)
}

func TestSaveJSONEnvelopeFailure(t *testing.T) {
	f := newFixture(t, nil)
	payload, _ := json.Marshal(map[string]string{"script": `["grandmother","zzInvalid!!"]`})
	req := httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unknown_characters", body["outcome"])
	assert.Equal(t, "Invalid character found in script: zzinvalid", body["message"])

	_, ok, err := f.mem.Get(context.Background(), store.ScopeBroadcaster)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveBareJSONBody(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader(`{"id":"imp"}`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Script must be a JSON array", decode(t, w)["message"])
}

func multipartRequest(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadFile(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(multipartRequest(t, "/api/config/validate", "tb.json", tbScript))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["dry_run"])

	w = f.do(multipartRequest(t, "/api/config", "tb.png", tbScript))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// repeatedScript builds a valid script of n imps.
func repeatedScript(n int) string {
	return "[{}" + strings.Repeat(`,"imp"`, n) + "]"
}

func TestOversizedScriptRejectedNotTruncated(t *testing.T) {
	f := newFixture(t, nil)
	big := repeatedScript(180000)
	require.Greater(t, len(big), maxScriptBytes)

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(big))
	req.Header.Set("Content-Type", "text/plain")
	w := f.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, decode(t, w)["message"], "exceeds")

	payload, _ := json.Marshal(map[string]string{"script": big})
	req = httptest.NewRequest(http.MethodPost, "/api/config/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w = f.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = f.do(multipartRequest(t, "/api/config", "big.json", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	_, ok, err := f.mem.Get(context.Background(), store.ScopeBroadcaster)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLargeScriptUnderLimitSaves(t *testing.T) {
	f := newFixture(t, nil)
	script := repeatedScript(150000)
	require.Less(t, len(script), maxScriptBytes)

	req := httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader(script))
	req.Header.Set("Content-Type", "text/plain")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(150000), decode(t, w)["count"])
}

func TestRoles(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/roles?team=Demon", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	for _, r := range body["roles"].([]any) {
		assert.Equal(t, "demon", r.(map[string]any)["team"])
	}
	w = f.do(httptest.NewRequest(http.MethodGet, "/api/roles?team=horde", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPages(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/config?theme=dark", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "extension-container dark")
	assert.Contains(t, w.Body.String(), "Test Validation")

	w = f.do(httptest.NewRequest(http.MethodGet, "/panel", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "state-empty")

	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(tbScript))
	require.Equal(t, http.StatusOK, f.do(req).Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/panel?mode=mobile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	assert.Contains(t, html, "mode-mobile")
	assert.Contains(t, html, "state-roster")
	assert.Contains(t, html, "Washerwoman")
	assert.Contains(t, html, "/icons/imp.png")

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/panel", nil))
	require.Equal(t, http.StatusOK, w.Code)
	panel := decode(t, w)["panel"].(map[string]any)
	assert.EqualValues(t, 2, panel["count"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/icons/imp.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWritesRequireBroadcasterToken(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("panel-secret"))
	signer, err := helix.NewSigner(secret, "owner")
	require.NoError(t, err)
	f := newFixture(t, func(cfg *ServerConfig) { cfg.Verifier = signer })

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(tbScript)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	viewer, err := signer.Sign(helix.Claims{Role: helix.RoleViewer})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(tbScript))
	req.Header.Set("Authorization", "Bearer "+viewer)
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)

	owner, err := signer.Sign(helix.Claims{Role: helix.RoleBroadcaster, ChannelID: "42"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(tbScript))
	req.Header.Set("Authorization", "Bearer "+owner)
	assert.Equal(t, http.StatusOK, f.do(req).Code)

	// reads stay public
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/api/config", nil)).Code)
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/panel/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return f.hub.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, f.hub.Set(ctx, store.Segment{Scope: store.ScopeBroadcaster, Version: "7", Content: "{}"}))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event:config", lines[0])
	assert.Equal(t, `data:{"scope":"broadcaster","version":"7"}`, lines[1])
}
