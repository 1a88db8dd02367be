// Package observable provides a value holder that replays its latest value
// to every new subscriber and pushes subsequent changes.
package observable

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Value holds the latest value of T and fans changes out to subscribers.
//
// Each subscriber channel has room for exactly one pending value. When a
// subscriber falls behind, the pending value is replaced by the newer one, so
// slow subscribers may miss intermediate values but always observe the latest.
type Value[T any] struct {
	mu          sync.Mutex
	current     T
	equal       func(a, b T) bool
	subscribers map[uuid.UUID]chan T
}

// New creates a Value seeded with initial. equal decides whether a Set is a
// change worth publishing; nil publishes every Set.
func New[T any](initial T, equal func(a, b T) bool) *Value[T] {
	return &Value[T]{
		current:     initial,
		equal:       equal,
		subscribers: make(map[uuid.UUID]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores next and publishes it. It returns false if next equals the
// current value and nothing was published.
func (v *Value[T]) Set(next T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.equal != nil && v.equal(v.current, next) {
		return false
	}
	v.current = next

	for _, ch := range v.subscribers {
		offer(ch, next)
	}
	return true
}

// Swap calls fn with the current value under the lock and stores its result
// if ok is true. It returns the resulting value.
func (v *Value[T]) Swap(fn func(current T) (next T, ok bool)) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	next, ok := fn(v.current)
	if !ok || (v.equal != nil && v.equal(v.current, next)) {
		return v.current
	}
	v.current = next

	for _, ch := range v.subscribers {
		offer(ch, next)
	}
	return next
}

// Subscribe returns a channel that immediately yields the current value and
// then every change. The channel is closed once ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	id := uuid.New()
	ch := make(chan T, 1)

	v.mu.Lock()
	ch <- v.current
	v.subscribers[id] = ch
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.unsubscribe(id)
	}()

	return ch
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subscribers)
}

func (v *Value[T]) unsubscribe(id uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch, ok := v.subscribers[id]
	if !ok {
		return
	}
	delete(v.subscribers, id)
	close(ch)
}

// offer replaces any pending value in ch with val. Callers hold v.mu, so no
// other sender can interleave.
func offer[T any](ch chan T, val T) {
	select {
	case <-ch:
	default:
	}
	ch <- val
}
