package session

import (
	"context"
	"errors"

	"github.com/wolfeidau/reception/internal/login"
	"github.com/wolfeidau/reception/internal/store"
)

var errEmptyCredential = errors.New("server returned an empty credential")

// Reason maps a login failure onto the message shown to the user.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "login cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "login timed out"
	case errors.Is(err, ErrMissingCredentials):
		return "username and password are required"
	case errors.Is(err, login.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, login.ErrNetwork):
		return "unable to reach the server"
	case errors.Is(err, login.ErrUnexpectedResponse), errors.Is(err, errEmptyCredential):
		return "unexpected response from the server"
	case errors.Is(err, store.ErrStorage):
		return "unable to store the credential"
	default:
		return "login failed: " + err.Error()
	}
}

// resultOf labels a login failure for metrics.
func resultOf(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, login.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, login.ErrNetwork):
		return "network_error"
	case errors.Is(err, store.ErrStorage):
		return "storage_error"
	default:
		return "unexpected_response"
	}
}
