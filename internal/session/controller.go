// Package session owns the authentication state machine of the client.
//
// A Controller moves between Unauthenticated, Authenticating, Authenticated
// and Failed. It is the only writer of the persisted credential and treats the
// token store as the source of truth: when the stored credential changes
// outside the controller, the state follows.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/reception/internal/models"
	"github.com/wolfeidau/reception/internal/observable"
	"github.com/wolfeidau/reception/internal/telemetry"
)

// DefaultLoginTimeout bounds a credential exchange so the controller never
// stays in Authenticating.
const DefaultLoginTimeout = 30 * time.Second

var (
	// ErrLoginInProgress is returned when another transition is running.
	ErrLoginInProgress = errors.New("login already in progress")

	// ErrAlreadyAuthenticated is returned by Login when a session exists.
	ErrAlreadyAuthenticated = errors.New("already authenticated")

	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// Authenticator exchanges a username and password for a credential.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Credential, error)
}

// TokenStore persists the credential and reports changes.
type TokenStore interface {
	Current() models.Credential
	Observe(ctx context.Context) <-chan models.Credential
	Save(ctx context.Context, cred models.Credential) error
	Clear(ctx context.Context) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLoginTimeout overrides DefaultLoginTimeout.
func WithLoginTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.loginTimeout = d
		}
	}
}

// WithLogger sets the logger, the global zerolog logger is used otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller owns the session state machine.
type Controller struct {
	auth   Authenticator
	tokens TokenStore
	state  *observable.Value[models.SessionState]

	// transition serialises login, logout and store driven changes. Login
	// only ever try-locks it so a concurrent attempt is rejected, never queued.
	transition sync.Mutex

	loginTimeout time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
	metrics      *telemetry.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller whose initial state is derived from the credential
// already held by tokens, without any network call. It watches tokens until
// ctx is done or Close is called.
func New(ctx context.Context, auth Authenticator, tokens TokenStore, opts ...Option) *Controller {
	c := &Controller{
		auth:         auth,
		tokens:       tokens,
		loginTimeout: DefaultLoginTimeout,
		logger:       log.Logger,
		tracer:       telemetry.Tracer(),
		metrics:      telemetry.GetMetrics(),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	initial := models.Unauthenticated()
	if cred := tokens.Current(); !cred.IsZero() {
		initial = models.Authenticated(cred)
	}
	c.state = observable.New(initial, equalState)

	c.logger.Debug().Stringer("state", initial).Msg("session restored")

	watchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.watch(watchCtx)

	return c
}

// State returns the current session state.
func (c *Controller) State() models.SessionState {
	return c.state.Get()
}

// Observe yields the current state immediately and then every transition.
// Slow observers may miss intermediate states but always see the latest one.
func (c *Controller) Observe(ctx context.Context) <-chan models.SessionState {
	return c.state.Subscribe(ctx)
}

// Credential returns the current credential when authenticated.
func (c *Controller) Credential() (models.Credential, bool) {
	s := c.state.Get()
	if !s.IsAuthenticated() {
		return "", false
	}
	return s.Credential, true
}

// Login exchanges username and password for a credential, persists it and
// moves to Authenticated. It is only valid from Unauthenticated or Failed.
// Any exchange or storage failure moves the state to Failed and is returned.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if !c.transition.TryLock() {
		c.logger.Debug().Msg("login rejected, transition in progress")
		return ErrLoginInProgress
	}
	defer c.transition.Unlock()

	if c.state.Get().Status == models.StatusAuthenticated {
		return ErrAlreadyAuthenticated
	}

	if username == "" || password == "" {
		c.fail(ErrMissingCredentials)
		return ErrMissingCredentials
	}

	ctx, span := c.tracer.Start(ctx, "session.Login")
	defer span.End()

	c.state.Set(models.Authenticating())
	c.logger.Info().Str("username", username).Msg("logging in")

	started := time.Now()
	cred, err := c.exchange(ctx, username, password)
	c.metrics.LoginDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if err == nil {
		err = c.tokens.Save(ctx, cred)
	}

	if err != nil {
		c.fail(err)
		c.metrics.LoginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultOf(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, Reason(err))
		return err
	}

	c.state.Set(models.Authenticated(cred))
	c.metrics.LoginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	c.logger.Info().Str("username", username).Msg("logged in")

	return nil
}

// exchange calls the authenticator under the login timeout. A result that
// arrives after the caller gave up is discarded.
func (c *Controller) exchange(ctx context.Context, username, password string) (models.Credential, error) {
	loginCtx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	cred, err := c.auth.Login(loginCtx, username, password)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if cred.IsZero() {
		return "", errEmptyCredential
	}

	return cred, nil
}

// Logout clears the stored credential and moves to Unauthenticated. It is
// valid from any state and waits for an in-flight login to resolve first.
// Logging out without a session is a no-op.
func (c *Controller) Logout(ctx context.Context) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.metrics.LogoutsTotal.Add(ctx, 1)
	return c.clear(ctx, "logged out")
}

// Invalidate logs out because the server rejected cred. It does nothing if
// cred is no longer the current credential, so a stale rejection cannot end a
// newer session.
func (c *Controller) Invalidate(ctx context.Context, cred models.Credential, cause error) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	if current := c.tokens.Current(); !current.IsZero() && current != cred {
		c.logger.Debug().Msg("ignoring rejection of a superseded credential")
		return nil
	}

	c.metrics.InvalidationsTotal.Add(ctx, 1)
	c.logger.Warn().Err(cause).Msg("server rejected credential, logging out")

	return c.clear(ctx, "session invalidated")
}

// Close stops watching the token store.
func (c *Controller) Close() {
	c.cancel()
	<-c.done
}

// clear must be called with transition held. The in-memory state always
// moves to Unauthenticated, a storage failure is returned to the caller.
func (c *Controller) clear(ctx context.Context, msg string) error {
	err := c.tokens.Clear(ctx)
	c.state.Set(models.Unauthenticated())

	if err != nil {
		c.logger.Error().Err(err).Msg("failed to clear stored credential")
		return err
	}

	c.logger.Info().Msg(msg)
	return nil
}

func (c *Controller) fail(err error) {
	reason := Reason(err)
	c.state.Set(models.Failed(reason, err))
	c.logger.Warn().Err(err).Str("reason", reason).Msg("login failed")
}

// watch follows the token store until ctx is done.
func (c *Controller) watch(ctx context.Context) {
	defer close(c.done)

	for range c.tokens.Observe(ctx) {
		c.syncWithStore()
	}
}

// syncWithStore aligns the state with the stored credential.
func (c *Controller) syncWithStore() {
	c.transition.Lock()
	defer c.transition.Unlock()

	cred := c.tokens.Current()

	c.state.Swap(func(current models.SessionState) (models.SessionState, bool) {
		switch {
		case cred.IsZero() && current.Status == models.StatusAuthenticated:
			c.logger.Info().Msg("stored credential removed, session ended")
			return models.Unauthenticated(), true
		case !cred.IsZero() && current.Credential != cred:
			c.logger.Info().Msg("stored credential changed, session updated")
			return models.Authenticated(cred), true
		}
		return current, false
	})
}

func equalState(a, b models.SessionState) bool {
	return a.Status == b.Status && a.Credential == b.Credential && a.Reason == b.Reason
}
