package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"clocktower/internal/catalog"
	"clocktower/internal/config"
	"clocktower/internal/configsvc"
	"clocktower/internal/host"
	"clocktower/internal/logger"
	"clocktower/internal/roster"
	"clocktower/internal/store"
	"clocktower/internal/store/auditlog"
	"clocktower/internal/store/gormstore"
	"clocktower/internal/store/helix"
	panelhttp "clocktower/internal/transport/http/panel"
)

// storeBundle is what a driver contributes besides the ConfigStore itself.
type storeBundle struct {
	Store    store.ConfigStore
	History  store.HistoryStore
	Verifier panelhttp.TokenVerifier
	Closer   io.Closer
}

type AppBuilder struct {
	cfg *config.Config

	registryFn func(config.CatalogConfig) (*catalog.Registry, error)
	storeFn    func(config.StoreConfig) (*storeBundle, error)
	auditFn    func(string) (*auditlog.Log, error)
	httpFn     func(panelhttp.ServerConfig) (*panelhttp.Server, error)

	storeOverride store.ConfigStore
}

type AppBuilderOption func(*AppBuilder)

// WithStore replaces the configured driver, e.g. with an in-memory store.
func WithStore(s store.ConfigStore) AppBuilderOption {
	return func(b *AppBuilder) { b.storeOverride = s }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		registryFn: buildRegistry,
		storeFn:    buildStore,
		auditFn:    auditlog.Open,
		httpFn:     panelhttp.NewServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)
	app := &App{cfg: cfg}

	registry, err := b.registryFn(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load role catalog: %w", err)
	}
	app.registry = registry
	snap := registry.Snapshot()
	logger.Infof("✓ role catalog v%d: %d roles (%s)", snap.Catalog.Version(), snap.Catalog.Len(), snap.Source)

	bundle := &storeBundle{Store: b.storeOverride}
	if b.storeOverride == nil {
		bundle, err = b.storeFn(cfg.Store)
		if err != nil {
			return nil, err
		}
	} else if hs, ok := b.storeOverride.(store.HistoryStore); ok {
		bundle.History = hs
	}
	if bundle.Closer != nil {
		app.closers = append(app.closers, bundle.Closer)
	}
	hub := store.NewHub(bundle.Store)
	presentation := host.ParseContext(cfg.Host.Theme, cfg.Host.Mode)
	platform := host.NewLocal(hub, presentation)
	app.platform = platform

	var audit *auditlog.Log
	if path := strings.TrimSpace(cfg.Store.AuditPath); path != "" {
		audit, err = b.auditFn(path)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		app.closers = append(app.closers, audit)
	}

	opts := configsvc.Options{
		PollInterval: cfg.Host.PollInterval(),
		ReadyTimeout: cfg.Host.ReadyTimeout(),
	}
	if audit != nil {
		opts.Audit = audit
	}
	app.service = configsvc.New(platform, registry, opts)

	cache, err := roster.NewCache(cfg.Panel.CacheSize)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.cache = cache

	serverCfg := panelhttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Service: app.service,
		History: bundle.History,
		Changes: hub,
		Host:    presentation,
		Icons:   buildIcons(cfg.Panel.IconDir),
		Cache:   cache,
	}
	if audit != nil {
		serverCfg.Audit = audit
	}
	if cfg.Store.Helix.VerifyFrontend && bundle.Verifier != nil {
		serverCfg.Verifier = bundle.Verifier
	}
	app.http, err = b.httpFn(serverCfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build http server: %w", err)
	}

	app.Summary = &StartupSummary{
		Env:            cfg.App.Env,
		HTTPAddr:       cfg.App.HTTPAddr,
		CatalogSource:  snap.Source,
		CatalogRoles:   snap.Catalog.Len(),
		CatalogWatched: cfg.Catalog.Watch && cfg.Catalog.Path != "",
		StoreDriver:    driverName(cfg.Store, b.storeOverride != nil),
		AuditPath:      cfg.Store.AuditPath,
		Theme:          string(presentation.Theme),
		Mode:           string(presentation.Mode),
		PollInterval:   cfg.Host.PollInterval(),
		ReadyTimeout:   cfg.Host.ReadyTimeout(),
		FrontendAuth:   serverCfg.Verifier != nil,
	}
	return app, nil
}

func buildRegistry(cfg config.CatalogConfig) (*catalog.Registry, error) {
	return catalog.NewRegistry(cfg.Path, cfg.Watch)
}

func buildStore(cfg config.StoreConfig) (*storeBundle, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite:
		s, err := gormstore.NewSegmentStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &storeBundle{Store: s, History: s, Closer: s}, nil
	case config.StoreDriverHelix:
		c, err := helix.NewClient(cfg.Helix)
		if err != nil {
			return nil, fmt.Errorf("build helix client: %w", err)
		}
		return &storeBundle{Store: c, Verifier: c.Signer()}, nil
	case config.StoreDriverMemory:
		m := store.NewMemoryStore()
		return &storeBundle{Store: m, History: m}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func buildIcons(dir string) *roster.IconResolver {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		logger.Warnf("panel.icon_dir %s is not a directory, icons disabled", dir)
		return nil
	}
	return roster.NewIconResolver(os.DirFS(dir))
}

func driverName(cfg config.StoreConfig, overridden bool) string {
	if overridden {
		return "override"
	}
	return cfg.Driver
}
