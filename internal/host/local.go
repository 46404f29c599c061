package host

import (
	"context"
	"fmt"

	"clocktower/internal/store"
)

// Local is a self-hosted platform: readiness is the configured store
// answering Ping.
type Local struct {
	store store.ConfigStore
	ctx   Context
}

var _ Platform = (*Local)(nil)

func NewLocal(s store.ConfigStore, ctx Context) *Local {
	return &Local{store: s, ctx: ctx}
}

func (l *Local) Ready(ctx context.Context) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("no configuration store: %w", store.ErrUnavailable)
	}
	return l.store.Ping(ctx)
}

func (l *Local) Configuration() store.ConfigStore {
	return l.store
}

func (l *Local) Context() Context {
	return l.ctx
}

// WithContext returns a copy presenting a different theme/mode, used when a
// request carries its own.
func (l *Local) WithContext(c Context) *Local {
	cp := *l
	cp.ctx = c
	return &cp
}
