// Package host models the extension host: the platform that owns the
// configuration store, reports readiness and supplies the presentation
// context of the page.
package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clocktower/internal/store"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultReadyTimeout = 10 * time.Second
)

// ErrUnready means the host did not become ready before the timeout. It is a
// StoreUnavailable condition.
var ErrUnready = fmt.Errorf("extension not ready: %w", store.ErrUnavailable)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Mode string

const (
	ModePanel        Mode = "panel"
	ModeMobile       Mode = "mobile"
	ModeVideoOverlay Mode = "video_overlay"
)

// Context is presentation-only data supplied by the host.
type Context struct {
	Theme Theme `json:"theme"`
	Mode  Mode  `json:"mode"`
}

// ParseContext falls back to light/panel for unknown values.
func ParseContext(theme, mode string) Context {
	c := Context{Theme: ThemeLight, Mode: ModePanel}
	if Theme(strings.ToLower(strings.TrimSpace(theme))) == ThemeDark {
		c.Theme = ThemeDark
	}
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeMobile:
		c.Mode = ModeMobile
	case ModeVideoOverlay:
		c.Mode = ModeVideoOverlay
	}
	return c
}

func (c Context) Dark() bool { return c.Theme == ThemeDark }

// Platform is the host capability handed to services.
type Platform interface {
	Ready(ctx context.Context) error
	Configuration() store.ConfigStore
	Context() Context
}

// WaitReady polls p.Ready every interval until it succeeds, the timeout
// elapses (ErrUnready) or ctx is done. Zero values use the defaults.
func WaitReady(ctx context.Context, p Platform, interval, timeout time.Duration) error {
	if p == nil {
		return fmt.Errorf("host platform is nil: %w", store.ErrUnavailable)
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	lastErr := p.Ready(ctx)
	if lastErr == nil {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w (waited %s): %v", ErrUnready, timeout, lastErr)
		case <-ticker.C:
			if lastErr = p.Ready(ctx); lastErr == nil {
				return nil
			}
		}
	}
}

// Await runs WaitReady in the background and delivers its result once.
func Await(ctx context.Context, p Platform, interval, timeout time.Duration) <-chan error {
	out := make(chan error, 1)
	go func() {
		out <- WaitReady(ctx, p, interval, timeout)
	}()
	return out
}
