package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/store"
)

const (
	fileName       = "token.json"
	currentVersion = 1
)

var _ store.Backend = (*TokenStore)(nil)

// document is the on-disk format of the token file.
type document struct {
	Version int               `json:"version"`
	Tokens  map[string]string `json:"tokens"`
	SavedAt time.Time         `json:"saved_at"`
}

// TokenStore persists the credential as a JSON file on the local filesystem.
type TokenStore struct {
	baseDir string
}

// DefaultDir returns ~/.reception, the default directory for client state.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".reception"), nil
}

// NewTokenStore creates a file backed token store.
// If baseDir is empty, uses ~/.reception/
func NewTokenStore(baseDir string) (*TokenStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("file token store initialized")

	return &TokenStore{baseDir: baseDir}, nil
}

// Path returns the location of the token file.
func (s *TokenStore) Path() string {
	return filepath.Join(s.baseDir, fileName)
}

func (s *TokenStore) Load(ctx context.Context) (models.Credential, error) {
	doc, err := s.read()
	if err != nil {
		return "", err
	}
	return models.Credential(doc.Tokens[store.TokenKey]), nil
}

func (s *TokenStore) Save(ctx context.Context, cred models.Credential) error {
	doc, err := s.read()
	if err != nil {
		return err
	}

	doc.Tokens[store.TokenKey] = cred.Token()
	doc.SavedAt = time.Now().UTC()

	return s.write(doc)
}

func (s *TokenStore) Delete(ctx context.Context) error {
	doc, err := s.read()
	if err != nil {
		return err
	}

	if _, ok := doc.Tokens[store.TokenKey]; !ok {
		return nil
	}

	delete(doc.Tokens, store.TokenKey)
	doc.SavedAt = time.Now().UTC()

	return s.write(doc)
}

func (s *TokenStore) Close() error {
	return nil
}

// read loads the token file, returning an empty document if it doesn't exist.
func (s *TokenStore) read() (*document, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Version: currentVersion, Tokens: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	if doc.Tokens == nil {
		doc.Tokens = make(map[string]string)
	}

	return &doc, nil
}

// write saves the token file atomically.
func (s *TokenStore) write(doc *document) error {
	doc.Version = currentVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	// Each writer gets its own temp file so concurrent processes never share one
	tmp, err := os.CreateTemp(s.baseDir, "token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write token file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, s.Path()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save token file: %w", err)
	}

	return nil
}
