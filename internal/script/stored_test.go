package script

import (
	"testing"

	"clocktower/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStoredCanonical(t *testing.T) {
	roles := testCatalog(t)
	res, err := Ingest(`[{"id":"_meta","name":"TB","author":"TPI"},"washerwoman","imp"]`, roles)
	require.NoError(t, err)
	content, err := res.Config.Encode()
	require.NoError(t, err)

	got, ok := DecodeStored(content, roles)
	require.True(t, ok)
	assert.Equal(t, res.Config, got)
}

func TestDecodeStoredFillsMissingBuckets(t *testing.T) {
	roles := testCatalog(t)
	got, ok := DecodeStored(`{"name":"partial","roles":{"demon":["imp"],"horde":["x"]}}`, roles)
	require.True(t, ok)
	assert.Equal(t, "partial", got.Name)
	assert.Len(t, got.Roles, len(catalog.Teams()))
	assert.Equal(t, []string{"imp"}, got.Roles[catalog.TeamDemon])
	assert.Equal(t, []string{}, got.Roles[catalog.TeamFabled])
	_, hasHorde := got.Roles["horde"]
	assert.False(t, hasHorde)
}

func TestDecodeStoredLegacyList(t *testing.T) {
	roles := testCatalog(t)
	got, ok := DecodeStored(`["noble","librarian","pixie","Village Idiot","nobody"]`, roles)
	require.True(t, ok)
	assert.Equal(t, []string{"noble", "librarian", "pixie", "villageidiot"}, got.Roles[catalog.TeamTownsfolk])
	assert.Equal(t, 4, got.Count())
}

func TestDecodeStoredNoConfiguration(t *testing.T) {
	roles := testCatalog(t)
	for _, content := range []string{"", "   ", "{broken", `"text"`, `12`} {
		_, ok := DecodeStored(content, roles)
		assert.False(t, ok, content)
	}
}
