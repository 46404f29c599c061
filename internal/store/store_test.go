package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionClockMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	clock := &VersionClock{nowFn: func() time.Time { return fixed }}

	a := clock.Next()
	b := clock.Next()
	c := clock.Next()
	assert.Equal(t, "1700000000000", a)
	assert.Equal(t, "1700000000001", b)
	assert.Equal(t, "1700000000002", c)

	// clock going backwards still yields increasing stamps
	fixed = fixed.Add(-time.Hour)
	assert.Equal(t, 1, CompareVersions(clock.Next(), c))
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, CompareVersions("9", "10"))
	assert.Equal(t, 0, CompareVersions("10", "10"))
	assert.Equal(t, -1, CompareVersions("1", "1700000000000"))
	assert.Equal(t, -1, CompareVersions("beta", "1"))
	assert.Equal(t, 1, CompareVersions("b", "a"))
}

func TestMemoryStoreLatestVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, ok, err := m.Get(ctx, ScopeBroadcaster)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, Segment{Scope: ScopeBroadcaster, Version: "10", Content: "a"}))
	require.NoError(t, m.Set(ctx, Segment{Scope: ScopeBroadcaster, Version: "9", Content: "old"}))
	require.NoError(t, m.Set(ctx, Segment{Scope: "developer", Version: "99", Content: "dev"}))

	seg, ok, err := m.Get(ctx, ScopeBroadcaster)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", seg.Content)
	assert.False(t, seg.UpdatedAt.IsZero())

	hist, err := m.History(ctx, ScopeBroadcaster, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "10", hist[0].Version)
}

func TestHubPublishesOnSuccessfulSet(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(NewMemoryStore())
	events, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Set(ctx, Segment{Scope: ScopeBroadcaster, Version: "1", Content: "{}"}))
	select {
	case ch := <-events:
		assert.Equal(t, Change{Scope: ScopeBroadcaster, Version: "1"}, ch)
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}

	cctx, stop := context.WithCancel(ctx)
	stop()
	assert.Error(t, hub.Set(cctx, Segment{Scope: ScopeBroadcaster, Version: "2"}))
	select {
	case ch := <-events:
		t.Fatalf("unexpected change %+v", ch)
	default:
	}

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers())
}
