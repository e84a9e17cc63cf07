package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no current user; the operation is blocked
	// before any remote call.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrClientUnavailable means a required remote collaborator was not
	// initialized or reachable.
	ErrClientUnavailable = errors.New("client unavailable")

	// ErrNotJoined is returned for in-meeting interactions attempted
	// before the session is fully joined.
	ErrNotJoined = errors.New("meeting not joined yet")
)

// ValidationError is a local input failure. It is always raised before
// any remote call is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteError wraps a failed remote operation so the caller can surface
// the underlying reason.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
