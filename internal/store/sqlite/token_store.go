package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/store"

	_ "modernc.org/sqlite"
)

const dbFileName = "reception.db"

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

var _ store.Backend = (*TokenStore)(nil)

// TokenStore persists the credential in a SQLite key-value table.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore opens (creating if needed) the database in baseDir.
// dsn ":memory:" is accepted as baseDir for tests.
func NewTokenStore(ctx context.Context, baseDir string) (*TokenStore, error) {
	dsn := baseDir
	if baseDir != ":memory:" {
		if err := os.MkdirAll(baseDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token directory: %w", err)
		}
		dsn = filepath.Join(baseDir, dbFileName)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debug().Str("dsn", dsn).Msg("sqlite token store initialized")

	return &TokenStore{db: db}, nil
}

func (s *TokenStore) Load(ctx context.Context) (models.Credential, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, store.TokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata[%s]: %w", store.TokenKey, err)
	}
	return models.Credential(value), nil
}

func (s *TokenStore) Save(ctx context.Context, cred models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, store.TokenKey, []byte(cred.Token()))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", store.TokenKey, err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, store.TokenKey)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", store.TokenKey, err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}
