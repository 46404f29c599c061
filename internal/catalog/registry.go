package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clocktower/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Snapshot is the catalog currently served plus where it came from.
type Snapshot struct {
	Catalog  *Catalog
	Source   string
	LoadedAt time.Time
}

// ChangeListener runs after every successful reload.
type ChangeListener func(Snapshot)

// Registry holds the active catalog and, when backed by a file, reloads it on
// change. A failed reload keeps the previous catalog.
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewStaticRegistry serves a fixed catalog.
func NewStaticRegistry(c *Catalog, source string) *Registry {
	return &Registry{snapshot: Snapshot{Catalog: c, Source: source, LoadedAt: time.Now()}}
}

// NewRegistry loads path, or the embedded catalog when path is empty. With
// watch set the file is watched through viper and reloaded on write.
func NewRegistry(path string, watch bool) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		c, err := Default()
		if err != nil {
			return nil, err
		}
		return NewStaticRegistry(c, "embedded"), nil
	}
	r := &Registry{path: path}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if !watch {
		return r, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if FormatFor(path) == FormatJSON {
		v.SetConfigType("json")
	}
	r.v = v
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("catalog reload failed (%s): %v", evt.Name, err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Catalog returns the active catalog.
func (r *Registry) Catalog() *Catalog {
	return r.Snapshot().Catalog
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Subscribe registers fn for future reloads.
func (r *Registry) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Reload forces a re-read of the backing file.
func (r *Registry) Reload() error {
	if r.path == "" {
		return fmt.Errorf("catalog registry has no backing file")
	}
	if err := r.reload(); err != nil {
		return err
	}
	r.notifyListeners()
	return nil
}

func (r *Registry) reload() error {
	roles, err := ReadFile(r.path)
	if err != nil {
		return err
	}
	r.mu.RLock()
	next := r.snapshot.Catalog.Version() + 1
	r.mu.RUnlock()
	c, err := newVersioned(roles, next)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", filepath.Base(r.path), err)
	}
	r.mu.Lock()
	r.snapshot = Snapshot{Catalog: c, Source: r.path, LoadedAt: time.Now()}
	r.mu.Unlock()
	logger.Infof("Role catalog v%d loaded %d roles from %s", c.Version(), c.Len(), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := r.snapshot
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("catalog listener")
			cb(snap)
		}(fn)
	}
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}
