package store

import (
	"context"
	"sync"
)

// Change is published after a segment is written.
type Change struct {
	Scope   string `json:"scope"`
	Version string `json:"version"`
}

// Hub wraps a ConfigStore and fans out a Change to subscribers after every
// successful Set. Slow subscribers miss events rather than block writers.
type Hub struct {
	ConfigStore

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Change
}

func NewHub(inner ConfigStore) *Hub {
	return &Hub{ConfigStore: inner, subs: make(map[int]chan Change)}
}

func (h *Hub) Set(ctx context.Context, seg Segment) error {
	if err := h.ConfigStore.Set(ctx, seg); err != nil {
		return err
	}
	h.Publish(Change{Scope: seg.Scope, Version: seg.Version})
	return nil
}

// Publish delivers c to every subscriber without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribe returns a channel of changes and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 8)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
