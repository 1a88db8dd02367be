package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/reception/internal/models"
)

func TestTokenStore_InMemory(t *testing.T) {
	ctx := context.Background()

	s, err := NewTokenStore(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	cred, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())

	require.NoError(t, s.Save(ctx, "xyz"))
	require.NoError(t, s.Save(ctx, "abc"))

	cred, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Credential("abc"), cred)

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))

	cred, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())
}

func TestTokenStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewTokenStore(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "tok-123"))
	require.NoError(t, s.Close())

	reopened, err := NewTokenStore(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()

	cred, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Credential("tok-123"), cred)
}
