package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrAuthenticationRequired is returned when a call demands signing but
	// no credential is bound to the client.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrInvalidCredential is returned when a credential is constructed from
	// an invalid combination of values.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrLoginFailed is returned when a user login is rejected by the server.
	ErrLoginFailed = errors.New("login failed")
)

// AuthError carries the reason an authentication step failed.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return ErrAuthenticationRequired }
