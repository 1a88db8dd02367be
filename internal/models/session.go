package models

import "fmt"

// SessionStatus is the tag of a SessionState.
type SessionStatus int

const (
	StatusUnauthenticated SessionStatus = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusFailed
)

func (s SessionStatus) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionState is the process's current authentication status.
// Credential is only set when Authenticated, Reason and Err only when Failed.
type SessionState struct {
	Status     SessionStatus
	Credential Credential
	Reason     string
	Err        error
}

func Unauthenticated() SessionState {
	return SessionState{Status: StatusUnauthenticated}
}

func Authenticating() SessionState {
	return SessionState{Status: StatusAuthenticating}
}

func Authenticated(cred Credential) SessionState {
	return SessionState{Status: StatusAuthenticated, Credential: cred}
}

func Failed(reason string, err error) SessionState {
	return SessionState{Status: StatusFailed, Reason: reason, Err: err}
}

// IsAuthenticated returns true if the state carries a usable credential.
func (s SessionState) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && !s.Credential.IsZero()
}

func (s SessionState) String() string {
	if s.Status == StatusFailed {
		return fmt.Sprintf("%s: %s", s.Status, s.Reason)
	}
	return s.Status.String()
}
