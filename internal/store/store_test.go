package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/store"
	"github.com/wolfeidau/reception/internal/store/memory"
)

func next(t *testing.T, ch <-chan models.Credential) models.Credential {
	t.Helper()
	select {
	case cred := <-ch:
		return cred
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for credential")
	}
	return ""
}

func TestOpen(t *testing.T) {
	t.Run("seeds current from backend", func(t *testing.T) {
		tokens, err := store.Open(context.Background(), memory.NewTokenStore("tok-123"))
		require.NoError(t, err)
		assert.Equal(t, models.Credential("tok-123"), tokens.Current())
	})

	t.Run("load failure is a storage error", func(t *testing.T) {
		cause := errors.New("disk on fire")
		backend := memory.NewTokenStore("")
		backend.SetErr(cause)

		_, err := store.Open(context.Background(), backend)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrStorage)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "disk on fire")
	})
}

func TestTokenStore_SaveAndClear(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := memory.NewTokenStore("")
	tokens, err := store.Open(ctx, backend)
	require.NoError(t, err)

	ch := tokens.Observe(ctx)
	assert.Equal(t, models.Credential(""), next(t, ch))

	require.NoError(t, tokens.Save(ctx, "xyz"))
	assert.Equal(t, models.Credential("xyz"), next(t, ch))
	assert.Equal(t, models.Credential("xyz"), tokens.Current())

	persisted, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Credential("xyz"), persisted)

	require.NoError(t, tokens.Clear(ctx))
	assert.Equal(t, models.Credential(""), next(t, ch))

	persisted, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.IsZero())

	// Clearing again is fine
	require.NoError(t, tokens.Clear(ctx))
}

func TestTokenStore_ObserveReplaysToNewSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens, err := store.Open(ctx, memory.NewTokenStore(""))
	require.NoError(t, err)
	require.NoError(t, tokens.Save(ctx, "xyz"))

	assert.Equal(t, models.Credential("xyz"), next(t, tokens.Observe(ctx)))
	assert.Equal(t, models.Credential("xyz"), next(t, tokens.Observe(ctx)))
}

func TestTokenStore_SaveFailure(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewTokenStore("old")
	tokens, err := store.Open(ctx, backend)
	require.NoError(t, err)

	cause := errors.New("read-only filesystem")
	backend.SetErr(cause)

	err = tokens.Save(ctx, "new")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, models.Credential("old"), tokens.Current())

	err = tokens.Clear(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, models.Credential("old"), tokens.Current())

	err = tokens.Reload(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, models.Credential("old"), tokens.Current())
}

func TestTokenStore_SaveEmptyRejected(t *testing.T) {
	tokens, err := store.Open(context.Background(), memory.NewTokenStore(""))
	require.NoError(t, err)

	err = tokens.Save(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrStorage)
}

func TestTokenStore_Reload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := memory.NewTokenStore("tok-123")
	tokens, err := store.Open(ctx, backend)
	require.NoError(t, err)

	ch := tokens.Observe(ctx)
	next(t, ch)

	// Another process logs out
	require.NoError(t, backend.Delete(ctx))
	require.NoError(t, tokens.Reload(ctx))

	assert.Equal(t, models.Credential(""), next(t, ch))
	assert.True(t, tokens.Current().IsZero())
}

// gatedBackend blocks Load once armed until release is closed.
type gatedBackend struct {
	*memory.TokenStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Load(ctx context.Context) (models.Credential, error) {
	cred, err := g.TokenStore.Load(ctx)
	if g.armed.Load() {
		close(g.entered)
		<-g.release
	}
	return cred, err
}

func TestTokenStore_ReloadDoesNotResurrectClearedCredential(t *testing.T) {
	ctx := context.Background()

	backend := &gatedBackend{
		TokenStore: memory.NewTokenStore("tok-123"),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	tokens, err := store.Open(ctx, backend)
	require.NoError(t, err)

	backend.armed.Store(true)

	var wg sync.WaitGroup
	wg.Add(2)

	// Reload reads the old credential and stalls before publishing it
	go func() {
		defer wg.Done()
		assert.NoError(t, tokens.Reload(ctx))
	}()
	<-backend.entered
	backend.armed.Store(false)

	go func() {
		defer wg.Done()
		assert.NoError(t, tokens.Clear(ctx))
	}()

	// Give Clear a chance to contend for the store before Reload resumes
	time.Sleep(20 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	persisted, err := backend.TokenStore.Load(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.IsZero())
	assert.True(t, tokens.Current().IsZero(), "cleared credential was republished")
}

func TestTokenStore_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := memory.NewTokenStore("tok-123")
	tokens, err := store.Open(ctx, backend)
	require.NoError(t, err)

	go tokens.Watch(ctx, 5*time.Millisecond)

	require.NoError(t, backend.Save(ctx, "tok-456"))

	require.Eventually(t, func() bool {
		return tokens.Current() == "tok-456"
	}, time.Second, 5*time.Millisecond)
}
