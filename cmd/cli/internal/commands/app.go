package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/reception/internal/client"
	"github.com/wolfeidau/reception/internal/config"
	"github.com/wolfeidau/reception/internal/login"
	"github.com/wolfeidau/reception/internal/session"
	"github.com/wolfeidau/reception/internal/store"
	"github.com/wolfeidau/reception/internal/store/file"
	"github.com/wolfeidau/reception/internal/store/memory"
	"github.com/wolfeidau/reception/internal/store/sqlite"
	"github.com/wolfeidau/reception/internal/telemetry"
)

// app is the session core wired for one command invocation.
type app struct {
	profile  config.Profile
	tokens   *store.TokenStore
	session  *session.Controller
	api      *client.Client
	shutdown telemetry.ShutdownFunc
}

func openApp(ctx context.Context, globals *Globals) (*app, error) {
	profile, err := globals.Profile()
	if err != nil {
		return nil, err
	}

	l := log.Logger

	shutdown := telemetry.Setup(ctx, profile.Tracing, "reception-cli", globals.Version)

	backend, err := openBackend(ctx, profile)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	tokens, err := store.Open(ctx, backend)
	if err != nil {
		_ = backend.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	clientCfg := client.Config{
		ServerURL:  profile.Server,
		Timeout:    profile.Timeout,
		MaxRetries: profile.Retries(),
	}

	auth, err := login.New(profile.Server, client.NewHTTPClient(clientCfg, l))
	if err != nil {
		_ = tokens.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	ctrl := session.New(ctx, auth, tokens,
		session.WithLoginTimeout(profile.LoginTimeout),
		session.WithLogger(l),
	)

	api, err := client.New(clientCfg, ctrl)
	if err != nil {
		ctrl.Close()
		_ = tokens.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	return &app{
		profile:  profile,
		tokens:   tokens,
		session:  ctrl,
		api:      api,
		shutdown: shutdown,
	}, nil
}

func (a *app) Close() {
	a.session.Close()

	if err := a.tokens.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close token store")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown telemetry")
	}
}

func openBackend(ctx context.Context, profile config.Profile) (store.Backend, error) {
	if profile.Store == config.StoreMemory {
		return memory.NewTokenStore(""), nil
	}

	dir := profile.StoreDir
	if dir == "" {
		var err error
		dir, err = file.DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	switch profile.Store {
	case config.StoreSQLite:
		backend, err := sqlite.NewTokenStore(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite token store: %w", err)
		}
		return backend, nil
	default:
		backend, err := file.NewTokenStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
		return backend, nil
	}
}
