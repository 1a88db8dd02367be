package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/observable"
)

// TokenKey is the fixed key the bearer token is persisted under.
const TokenKey = "auth_token"

// Sentinel errors
var (
	// ErrStorage is returned when the persistence layer fails.
	ErrStorage = errors.New("token storage error")
)

// Backend persists a single credential durably.
// Load returns an empty credential when none is stored. Delete of an absent
// credential is not an error.
type Backend interface {
	Load(ctx context.Context) (models.Credential, error)
	Save(ctx context.Context, cred models.Credential) error
	Delete(ctx context.Context) error
	Close() error
}

// TokenStore persists the current credential through a Backend and exposes
// it as an observable value.
type TokenStore struct {
	// mu is held across each backend call and the publish that follows it.
	mu      sync.Mutex
	backend Backend
	value   *observable.Value[models.Credential]
}

// Open reads the persisted credential once and returns a TokenStore seeded
// with it.
func Open(ctx context.Context, backend Backend) (*TokenStore, error) {
	cred, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load credential: %w", ErrStorage, err)
	}

	log.Debug().Bool("present", !cred.IsZero()).Msg("token store opened")

	return &TokenStore{
		backend: backend,
		value:   observable.New(cred, equalCredential),
	}, nil
}

// Current returns the current credential, empty if none.
func (s *TokenStore) Current() models.Credential {
	return s.value.Get()
}

// Observe yields the current credential immediately and again whenever it
// changes. The channel is closed when ctx is done.
func (s *TokenStore) Observe(ctx context.Context) <-chan models.Credential {
	return s.value.Subscribe(ctx)
}

// Save persists cred and publishes it to observers.
func (s *TokenStore) Save(ctx context.Context, cred models.Credential) error {
	if cred.IsZero() {
		return fmt.Errorf("%w: refusing to save empty credential", ErrStorage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, cred); err != nil {
		return fmt.Errorf("%w: failed to save credential: %w", ErrStorage, err)
	}

	s.value.Set(cred)
	log.Debug().Msg("credential saved")
	return nil
}

// Clear removes the persisted credential and publishes the empty value.
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx); err != nil {
		return fmt.Errorf("%w: failed to clear credential: %w", ErrStorage, err)
	}

	s.value.Set("")
	log.Debug().Msg("credential cleared")
	return nil
}

// Reload re-reads the backend and publishes the credential if it changed
// outside this process.
func (s *TokenStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to reload credential: %w", ErrStorage, err)
	}

	if s.value.Set(cred) {
		log.Debug().Bool("present", !cred.IsZero()).Msg("credential changed in storage")
	}
	return nil
}

// Watch reloads the backend every interval until ctx is done.
func (s *TokenStore) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to reload credential")
			}
		}
	}
}

// Close releases the backend.
func (s *TokenStore) Close() error {
	return s.backend.Close()
}

func equalCredential(a, b models.Credential) bool {
	return a == b
}
