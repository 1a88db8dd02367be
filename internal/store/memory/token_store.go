package memory

import (
	"context"
	"sync"

	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/store"
)

var _ store.Backend = (*TokenStore)(nil)

// TokenStore implements store.Backend using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type TokenStore struct {
	mu   sync.RWMutex
	cred models.Credential
	err  error
}

// NewTokenStore creates a new in-memory token backend holding cred.
func NewTokenStore(cred models.Credential) *TokenStore {
	return &TokenStore{cred: cred}
}

func (s *TokenStore) Load(ctx context.Context) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return "", s.err
	}
	return s.cred, nil
}

func (s *TokenStore) Save(ctx context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.cred = cred
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.cred = ""
	return nil
}

// SetErr makes every subsequent operation fail with err, nil restores.
func (s *TokenStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *TokenStore) Close() error {
	return nil
}
