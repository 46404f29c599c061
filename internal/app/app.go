package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"clocktower/internal/catalog"
	"clocktower/internal/config"
	"clocktower/internal/configsvc"
	"clocktower/internal/host"
	"clocktower/internal/logger"
	"clocktower/internal/roster"
	panelhttp "clocktower/internal/transport/http/panel"

	"golang.org/x/sync/errgroup"
)

// App owns the long-running pieces: the HTTP surface and the catalog
// registry.
type App struct {
	cfg      *config.Config
	registry *catalog.Registry
	service  *configsvc.Service
	platform host.Platform
	http     *panelhttp.Server
	cache    *roster.Cache
	closers  []io.Closer
	Summary  *StartupSummary

	hostReady atomic.Bool
}

// NewApp builds the application from config without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves HTTP and follows catalog reloads until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.http != nil {
		group.Go(func() error {
			if err := a.http.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	reloads := make(chan catalog.Snapshot, 1)
	a.registry.Subscribe(func(s catalog.Snapshot) {
		select {
		case reloads <- s:
		default:
		}
	})
	ready := host.Await(ctx, a.platform, a.cfg.Host.PollInterval(), a.cfg.Host.ReadyTimeout())
	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-ready:
				ready = nil
				a.reportReadiness(err)
			case snap := <-reloads:
				if a.cache != nil {
					a.cache.Purge()
				}
				logger.Infof("catalog v%d active (%d roles from %s)", snap.Catalog.Version(), snap.Catalog.Len(), snap.Source)
			}
		}
	})

	return group.Wait()
}

// reportReadiness logs the first readiness result. Saves keep waiting on
// their own, so a slow host is only a warning here.
func (a *App) reportReadiness(err error) {
	switch {
	case err == nil:
		a.hostReady.Store(true)
		logger.Infof("✓ host ready, configuration store answering")
	case errors.Is(err, context.Canceled):
	default:
		logger.Warnf("host not ready at startup: %v", err)
	}
}

// HostReady reports whether the host answered since Run started.
func (a *App) HostReady() bool {
	return a != nil && a.hostReady.Load()
}

// Service exposes the configuration service, used by the CLI.
func (a *App) Service() *configsvc.Service {
	if a == nil {
		return nil
	}
	return a.service
}

func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warnf("close: %v", err)
		}
	}
	a.closers = nil
}
