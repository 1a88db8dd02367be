// Package config loads the optional YAML profile that sits under the command
// line flags. Values are layered defaults, then profile, then flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// ErrInvalidConfig is returned when a profile cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Profile holds the settings shared by every command.
type Profile struct {
	Server        string        `yaml:"server,omitempty"`
	Store         string        `yaml:"store,omitempty"`
	StoreDir      string        `yaml:"store_dir,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	LoginTimeout  time.Duration `yaml:"login_timeout,omitempty"`
	MaxRetries    *uint         `yaml:"max_retries,omitempty"`
	WatchInterval time.Duration `yaml:"watch_interval,omitempty"`
	Tracing       bool          `yaml:"tracing,omitempty"`
}

// Defaults returns the built in profile.
func Defaults() Profile {
	retries := uint(2)
	return Profile{
		Server:        "http://localhost:8000",
		Store:         StoreFile,
		Timeout:       30 * time.Second,
		LoginTimeout:  30 * time.Second,
		MaxRetries:    &retries,
		WatchInterval: 30 * time.Second,
	}
}

// DefaultPath returns ~/.reception/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".reception", "config.yaml"), nil
}

// Load reads the profile at path. A missing file yields an empty profile.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML profile, rejecting unknown keys.
func Parse(data []byte) (Profile, error) {
	var p Profile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return p, nil
}

// Merge returns p with every non-zero field of override applied.
func (p Profile) Merge(override Profile) Profile {
	if override.Server != "" {
		p.Server = override.Server
	}
	if override.Store != "" {
		p.Store = override.Store
	}
	if override.StoreDir != "" {
		p.StoreDir = override.StoreDir
	}
	if override.Timeout != 0 {
		p.Timeout = override.Timeout
	}
	if override.LoginTimeout != 0 {
		p.LoginTimeout = override.LoginTimeout
	}
	if override.MaxRetries != nil {
		retries := *override.MaxRetries
		p.MaxRetries = &retries
	}
	if override.WatchInterval != 0 {
		p.WatchInterval = override.WatchInterval
	}
	if override.Tracing {
		p.Tracing = true
	}
	return p
}

// Retries returns MaxRetries, zero when unset.
func (p Profile) Retries() uint {
	if p.MaxRetries == nil {
		return 0
	}
	return *p.MaxRetries
}

// Validate checks a merged profile.
func (p Profile) Validate() error {
	u, err := url.Parse(p.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: server %q must be an http or https url", ErrInvalidConfig, p.Server)
	}

	switch p.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, p.Store)
	}

	if p.Timeout < 0 || p.LoginTimeout < 0 || p.WatchInterval < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Save writes p to path, creating the directory if needed.
func Save(path string, p Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
