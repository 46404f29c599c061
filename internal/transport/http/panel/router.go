package panelhttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clocktower/internal/catalog"
	"clocktower/internal/host"
	"clocktower/internal/logger"
	"clocktower/internal/roster"
	"clocktower/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	maxScriptBytes = 1 << 20
	// room for multipart boundaries and headers around the script itself
	maxRequestBytes = maxScriptBytes + 64<<10
)

var (
	errUnsupportedUpload = errors.New("only .json and .txt files are supported")
	errScriptTooLarge    = fmt.Errorf("script exceeds %d bytes", maxScriptBytes)
)

// Router holds the page and API handlers.
type Router struct {
	cfg ServerConfig
}

func NewRouter(cfg ServerConfig) *Router {
	return &Router{cfg: cfg}
}

func (r *Router) Register(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/panel") })
	router.GET("/config", r.handleConfigPage)
	router.GET("/panel", r.handlePanelPage)

	api := router.Group("/api")
	write := api.Group("/config", r.requireBroadcaster())
	write.POST("", r.handleSave)
	write.POST("/validate", r.handleValidate)
	api.GET("/config", r.handleCurrent)
	api.GET("/config/history", r.handleHistory)
	api.GET("/roles", r.handleRoles)
	api.GET("/panel", r.handlePanelJSON)
	api.GET("/panel/events", r.handleEvents)
}

// presentation resolves theme and mode: query parameters override the host
// context.
func (r *Router) presentation(c *gin.Context) host.Context {
	theme := string(r.cfg.Host.Theme)
	mode := string(r.cfg.Host.Mode)
	if q := c.Query("theme"); q != "" {
		theme = q
	}
	if q := c.Query("mode"); q != "" {
		mode = q
	}
	return host.ParseContext(theme, mode)
}

func (r *Router) handleConfigPage(c *gin.Context) {
	cat := r.cfg.Service.Catalog()
	c.HTML(http.StatusOK, "config.html", gin.H{
		"Host":          r.presentation(c),
		"ExampleObject": exampleObjects,
		"ExampleString": exampleStrings,
		"RoleCount":     cat.Len(),
	})
}

func (r *Router) handleSave(c *gin.Context) {
	text, err := readScript(c)
	if err != nil {
		c.JSON(readErrorStatus(err), gin.H{"ok": false, "message": err.Error()})
		return
	}
	res := r.cfg.Service.Save(c.Request.Context(), text)
	c.JSON(res.StatusCode(), res)
}

func (r *Router) handleValidate(c *gin.Context) {
	text, err := readScript(c)
	if err != nil {
		c.JSON(readErrorStatus(err), gin.H{"ok": false, "message": err.Error()})
		return
	}
	res := r.cfg.Service.Validate(c.Request.Context(), text)
	c.JSON(res.StatusCode(), res)
}

func (r *Router) handleCurrent(c *gin.Context) {
	loaded, ok := r.cfg.Service.Load(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no configuration"})
		return
	}
	c.JSON(http.StatusOK, loaded)
}

func (r *Router) handleHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	ctx := c.Request.Context()
	resp := gin.H{"versions": []store.Segment{}, "attempts": []any{}}
	if r.cfg.History != nil {
		versions, err := r.cfg.History.History(ctx, store.ScopeBroadcaster, limit)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if versions != nil {
			resp["versions"] = versions
		}
	}
	if r.cfg.Audit != nil {
		attempts, err := r.cfg.Audit.Recent(ctx, limit)
		if err != nil {
			logger.Warnf("panel: read audit log failed: %v", err)
		} else if attempts != nil {
			resp["attempts"] = attempts
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleRoles(c *gin.Context) {
	cat := r.cfg.Service.Catalog()
	roles := cat.Roles()
	if q := c.Query("team"); q != "" {
		team, ok := catalog.ParseTeam(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown team %q", q)})
			return
		}
		roles = cat.ByTeam(team)
	}
	c.JSON(http.StatusOK, gin.H{"version": cat.Version(), "count": len(roles), "roles": roles})
}

// currentPanel renders the stored configuration; ok is false when there is
// nothing to show.
func (r *Router) currentPanel(c *gin.Context) (roster.Panel, string, bool) {
	loaded, ok := r.cfg.Service.Load(c.Request.Context())
	if !ok {
		return roster.Panel{}, "", false
	}
	p := r.cfg.Cache.Render(loaded.Version, loaded.Config, r.cfg.Service.Catalog(), r.cfg.Icons)
	return p, loaded.Version, !p.Empty()
}

func (r *Router) handlePanelPage(c *gin.Context) {
	p, version, ok := r.currentPanel(c)
	state := "empty"
	if ok {
		state = "roster"
	}
	c.HTML(http.StatusOK, "panel.html", gin.H{
		"Host":    r.presentation(c),
		"State":   state,
		"Panel":   p,
		"Version": version,
	})
}

func (r *Router) handlePanelJSON(c *gin.Context) {
	p, version, ok := r.currentPanel(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no configuration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version, "panel": p})
}

func (r *Router) handleEvents(c *gin.Context) {
	if r.cfg.Changes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "change stream disabled"})
		return
	}
	changes, cancel := r.cfg.Changes.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(r.cfg.Heartbeat)
	defer heartbeat.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ch, ok := <-changes:
			if !ok {
				return false
			}
			if ch.Scope != store.ScopeBroadcaster {
				return true
			}
			c.SSEvent("config", ch)
			return true
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
}

// readScript accepts a multipart file, a JSON body {"script": "..."} or the
// raw request body. Scripts over maxScriptBytes are rejected, never cut.
func readScript(c *gin.Context) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
	ct := c.ContentType()
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if text := c.PostForm("script"); text != "" {
			return checkedText(text)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("missing file or script field: %w", err)
		}
		switch strings.ToLower(filepath.Ext(fh.Filename)) {
		case ".json", ".txt":
		default:
			return "", errUnsupportedUpload
		}
		if fh.Size > maxScriptBytes {
			return "", errScriptTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		raw, err := readLimited(f)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case ct == "application/json":
		raw, err := readLimited(c.Request.Body)
		if err != nil {
			return "", err
		}
		if text, ok := scriptField(raw); ok {
			return text, nil
		}
		// a bare script posted as JSON
		return string(raw), nil
	case ct == "application/x-www-form-urlencoded":
		return checkedText(c.PostForm("script"))
	default:
		raw, err := readLimited(c.Request.Body)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// readLimited reads at most maxScriptBytes and fails when there is more.
func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxScriptBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxScriptBytes {
		return nil, errScriptTooLarge
	}
	return raw, nil
}

func checkedText(text string) (string, error) {
	if len(text) > maxScriptBytes {
		return "", errScriptTooLarge
	}
	return text, nil
}

func readErrorStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.Is(err, errScriptTooLarge) || errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
