// Package client calls the reception API on behalf of the current session.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfeidau/reception/internal/logger"
	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/telemetry"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrServer           = errors.New("server error")
	ErrNetwork          = errors.New("network error")
	ErrDecode           = errors.New("unable to decode response")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Session supplies the credential for each call and is told when the server
// rejects it.
type Session interface {
	Credential() (models.Credential, bool)
	Invalidate(ctx context.Context, cred models.Credential, cause error) error
}

// Config holds common client configuration
type Config struct {
	ServerURL     string
	Timeout       time.Duration
	MaxRetries    uint
	RetryInterval time.Duration

	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:     "http://localhost:8000",
		Timeout:       30 * time.Second,
		MaxRetries:    2,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Client performs authenticated calls against the API.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	session       Session
	maxRetries    uint
	retryInterval time.Duration
	logger        zerolog.Logger
	metrics       *telemetry.Metrics
}

// New creates a client for cfg.ServerURL which takes credentials from session.
func New(cfg Config, session Session) (*Client, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}

	base, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", cfg.ServerURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultConfig().RetryInterval
	}

	return &Client{
		baseURL:       base,
		httpClient:    NewHTTPClient(cfg, log.Logger),
		session:       session,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        log.Logger,
		metrics:       telemetry.GetMetrics(),
	}, nil
}

// NewHTTPClient builds the traced and logged HTTP client shared by the API
// client and the login transport.
func NewHTTPClient(cfg Config, reqLog zerolog.Logger) *http.Client {
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(logger.NewRequestLogger(cfg.Transport, reqLog)),
	}
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}
