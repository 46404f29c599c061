package panelhttp

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"clocktower/internal/catalog"
	"clocktower/internal/configsvc"
	"clocktower/internal/host"
	"clocktower/internal/logger"
	"clocktower/internal/roster"
	"clocktower/internal/store"
	"clocktower/internal/store/auditlog"
	"clocktower/internal/store/helix"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConfigService is the save/load surface the handlers drive.
// *configsvc.Service satisfies it.
type ConfigService interface {
	Save(ctx context.Context, text string) configsvc.SaveResult
	Validate(ctx context.Context, text string) configsvc.SaveResult
	Load(ctx context.Context) (configsvc.Loaded, bool)
	Catalog() *catalog.Catalog
}

type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]auditlog.Entry, error)
}

// ChangeFeed delivers store changes; *store.Hub satisfies it.
type ChangeFeed interface {
	Subscribe() (<-chan store.Change, func())
}

// TokenVerifier checks extension JWTs; *helix.Signer satisfies it.
type TokenVerifier interface {
	Verify(raw string) (*helix.Claims, error)
}

// Server serves the configuration page, the viewer panel and the JSON API.
type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr      string
	Service   ConfigService
	History   store.HistoryStore
	Audit     AuditReader
	Changes   ChangeFeed
	Host      host.Context
	Icons     *roster.IconResolver
	Cache     *roster.Cache
	Verifier  TokenVerifier
	Heartbeat time.Duration
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("panel http server requires a config service")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Cache == nil {
		cache, err := roster.NewCache(0)
		if err != nil {
			return nil, err
		}
		cfg.Cache = cache
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 15 * time.Second
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if err := loadTemplates(router); err != nil {
		return nil, err
	}
	if err := serveStatic(router, cfg.Icons); err != nil {
		return nil, err
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewRouter(cfg).Register(router)

	return &Server{addr: cfg.Addr, router: router}, nil
}

func loadTemplates(router *gin.Engine) error {
	tmpl, err := template.New("panel").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}

// requestLogger logs every request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path = path + "?" + query
		}
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
