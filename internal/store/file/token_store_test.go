package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/reception/internal/models"
)

func TestNewTokenStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "state")

		s, err := NewTokenStore(dir)
		require.NoError(t, err)
		assert.NotNil(t, s)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("uses default directory when baseDir is empty", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		s, err := NewTokenStore("")
		require.NoError(t, err)
		assert.Contains(t, s.Path(), ".reception")
	})
}

func TestTokenStore_LoadMissing(t *testing.T) {
	s, err := NewTokenStore(t.TempDir())
	require.NoError(t, err)

	cred, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cred.IsZero())
}

func TestTokenStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewTokenStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "xyz"))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Survives a restart
	reopened, err := NewTokenStore(dir)
	require.NoError(t, err)
	cred, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Credential("xyz"), cred)

	require.NoError(t, reopened.Delete(ctx))
	cred, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())

	// Deleting twice is not an error
	require.NoError(t, reopened.Delete(ctx))

	assertNoTempFiles(t, dir)
}

func TestTokenStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Two handles on the same directory stand in for two processes
	first, err := NewTokenStore(dir)
	require.NoError(t, err)
	second, err := NewTokenStore(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		s := first
		if i%2 == 1 {
			s = second
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Save(ctx, models.Credential(fmt.Sprintf("tok-%d", i))))
		}()
	}
	wg.Wait()

	cred, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^tok-\d+$`, string(cred))

	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestTokenStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewTokenStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token file")
}
