package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/reception/internal/devserver"
	"github.com/wolfeidau/reception/internal/logger"
	"github.com/wolfeidau/reception/internal/telemetry"
)

type ServeCmd struct {
	Listen      string        `help:"HTTP server listen address" default:"localhost:8000" env:"RECEPTION_LISTEN"`
	TokenSecret string        `help:"secret key for HMAC signing of access tokens" env:"RECEPTION_TOKEN_SECRET"`
	TokenTTL    time.Duration `help:"access token lifetime" default:"1h" env:"RECEPTION_TOKEN_TTL"`
	CORSOrigins []string      `help:"allowed CORS origins" env:"RECEPTION_CORS_ORIGINS"`
	Tracing     bool          `help:"enable tracing" default:"false" env:"RECEPTION_TRACING"`
}

func (c *ServeCmd) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("token secret is required (--token-secret or RECEPTION_TOKEN_SECRET)")
	}
	if len(c.TokenSecret) < 32 {
		return errors.New("token secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	return nil
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting devserver")

	shutdown := telemetry.Setup(ctx, c.Tracing, "reception-devserver", globals.Version)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}()

	srv, err := devserver.New(devserver.Config{
		Secret:      []byte(c.TokenSecret),
		TokenTTL:    c.TokenTTL,
		CORSOrigins: c.CORSOrigins,
		Tracing:     c.Tracing,
		Logger:      &log,
	})
	if err != nil {
		return fmt.Errorf("failed to create devserver: %w", err)
	}

	httpServer := configureHTTPServer(c.Listen, srv.Handler())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Dur("token_ttl", c.TokenTTL).Msg("Listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
