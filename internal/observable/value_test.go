package observable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equalString(a, b string) bool { return a == b }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestValue_SubscribeReplaysCurrent(t *testing.T) {
	v := New("tok-123", equalString)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	assert.Equal(t, "tok-123", receive(t, ch))

	// A second subscriber gets its own replay
	other := v.Subscribe(ctx)
	assert.Equal(t, "tok-123", receive(t, other))
	assert.Equal(t, 2, v.Subscribers())
}

func TestValue_SetPublishes(t *testing.T) {
	v := New("", equalString)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	assert.Equal(t, "", receive(t, ch))

	assert.True(t, v.Set("xyz"))
	assert.Equal(t, "xyz", receive(t, ch))
	assert.Equal(t, "xyz", v.Get())
}

func TestValue_SetEqualIsNoop(t *testing.T) {
	v := New("xyz", equalString)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)
	receive(t, ch)

	assert.False(t, v.Set("xyz"))

	select {
	case got := <-ch:
		t.Fatalf("unexpected value %q", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestValue_SlowSubscriberSeesLatest(t *testing.T) {
	v := New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Subscribe(ctx)

	for i := 1; i <= 10; i++ {
		v.Set(i)
	}

	assert.Equal(t, 10, receive(t, ch))
}

func TestValue_Swap(t *testing.T) {
	v := New("a", equalString)

	got := v.Swap(func(current string) (string, bool) {
		return current + "b", true
	})
	assert.Equal(t, "ab", got)

	got = v.Swap(func(current string) (string, bool) {
		return "ignored", false
	})
	assert.Equal(t, "ab", got)
	assert.Equal(t, "ab", v.Get())
}

func TestValue_UnsubscribeOnCancel(t *testing.T) {
	v := New("a", equalString)
	ctx, cancel := context.WithCancel(context.Background())

	ch := v.Subscribe(ctx)
	receive(t, ch)
	cancel()

	require.Eventually(t, func() bool {
		return v.Subscribers() == 0
	}, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok)
}
