package store

import (
	"context"
	"errors"
	"time"
)

// ScopeBroadcaster is the configuration segment written by the channel owner
// and read by every viewer session.
const ScopeBroadcaster = "broadcaster"

// ErrUnavailable marks failures of the host configuration store: not ready,
// unreachable, or a rejected write.
var ErrUnavailable = errors.New("configuration store unavailable")

// Segment is one versioned configuration blob.
type Segment struct {
	Scope     string    `json:"scope"`
	Version   string    `json:"version"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConfigStore is the host-owned key/value configuration service.
type ConfigStore interface {
	// Set writes content under scope and version. Content is opaque.
	Set(ctx context.Context, seg Segment) error
	// Get returns the current segment of a scope; ok is false when nothing
	// has been written yet.
	Get(ctx context.Context, scope string) (seg Segment, ok bool, err error)
	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
}

// HistoryStore is implemented by drivers that keep superseded versions.
type HistoryStore interface {
	History(ctx context.Context, scope string, limit int) ([]Segment, error)
}
