package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps every segment version in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]Segment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]Segment)}
}

func (m *MemoryStore) Set(ctx context.Context, seg Segment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if seg.UpdatedAt.IsZero() {
		seg.UpdatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[seg.Scope] = append(m.data[seg.Scope], seg)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, scope string) (Segment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Segment{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.data[scope]
	if len(versions) == 0 {
		return Segment{}, false, nil
	}
	latest := versions[0]
	for _, seg := range versions[1:] {
		if CompareVersions(seg.Version, latest.Version) >= 0 {
			latest = seg
		}
	}
	return latest, true, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// History lists versions newest first.
func (m *MemoryStore) History(ctx context.Context, scope string, limit int) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := append([]Segment(nil), m.data[scope]...)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVersions(out[i].Version, out[j].Version) > 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
