package auditlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTemp(t)
	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)

	first, err := l.Record(ctx, Entry{Outcome: "success", Message: "Configuration saved successfully! (2 characters)", Version: "1700000000000", Count: 2, CreatedAt: base})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = l.Record(ctx, Entry{Outcome: "unknown_characters", Unknown: []string{"nobody", ""}, DryRun: true, CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	got, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "unknown_characters", got[0].Outcome)
	assert.Equal(t, []string{"nobody", ""}, got[0].Unknown)
	assert.True(t, got[0].DryRun)
	assert.Empty(t, got[0].Version)

	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, 2, got[1].Count)
	assert.Nil(t, got[1].Unknown)
	assert.Equal(t, base.UnixMilli(), got[1].CreatedAt.UnixMilli())

	got, err = l.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecordRequiresOutcome(t *testing.T) {
	l := openTemp(t)
	_, err := l.Record(t.Context(), Entry{})
	assert.Error(t, err)
}

func TestClosedLog(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	_, err = l.Recent(t.Context(), 1)
	assert.Error(t, err)
	_, err = Open("  ")
	assert.Error(t, err)
}
