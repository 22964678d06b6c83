package api

import (
	"fmt"
	"strings"
)

type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialKeyPair
	credentialBearerToken
	credentialSessionCookie
)

func (k credentialKind) String() string {
	switch k {
	case credentialKeyPair:
		return "keypair"
	case credentialBearerToken:
		return "token"
	case credentialSessionCookie:
		return "session"
	default:
		return "none"
	}
}

// Credential identifies one of three mutually exclusive authentication
// strategies. The zero value is unbound. A Credential is immutable once
// constructed; switching modes means constructing a new one.
type Credential struct {
	kind credentialKind

	accessKeyID     string
	accessKeySecret string

	token string

	sessionID string
	csrfToken string
}

// NewKeyPair builds a long-lived service identity credential.
func NewKeyPair(accessKeyID, accessKeySecret string) (Credential, error) {
	if strings.TrimSpace(accessKeyID) == "" || strings.TrimSpace(accessKeySecret) == "" {
		return Credential{}, fmt.Errorf("%w: access key id and secret are both required", ErrInvalidCredential)
	}
	return Credential{
		kind:            credentialKeyPair,
		accessKeyID:     accessKeyID,
		accessKeySecret: accessKeySecret,
	}, nil
}

// NewBearerToken builds a credential from a short-lived session token
// issued after login.
func NewBearerToken(token string) (Credential, error) {
	if strings.TrimSpace(token) == "" {
		return Credential{}, fmt.Errorf("%w: token is required", ErrInvalidCredential)
	}
	return Credential{kind: credentialBearerToken, token: token}, nil
}

// NewSessionCookie builds a browser-session credential from the session id
// and CSRF token a browser would round-trip.
func NewSessionCookie(sessionID, csrfToken string) (Credential, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(csrfToken) == "" {
		return Credential{}, fmt.Errorf("%w: session id and csrf token are both required", ErrInvalidCredential)
	}
	return Credential{
		kind:      credentialSessionCookie,
		sessionID: sessionID,
		csrfToken: csrfToken,
	}, nil
}

// NewCredential builds a credential from whichever values are set, in
// precedence order: token, then session id + csrf token, then key pair.
// All empty is an error.
func NewCredential(token, sessionID, csrfToken, accessKeyID, accessKeySecret string) (Credential, error) {
	switch {
	case token != "":
		return NewBearerToken(token)
	case sessionID != "" && csrfToken != "":
		return NewSessionCookie(sessionID, csrfToken)
	case accessKeyID != "" && accessKeySecret != "":
		return NewKeyPair(accessKeyID, accessKeySecret)
	default:
		return Credential{}, fmt.Errorf("%w: token, session_id+csrf_token, or access key pair required", ErrInvalidCredential)
	}
}

// IsZero reports whether the credential is unbound.
func (c Credential) IsZero() bool { return c.kind == credentialNone }

// Kind returns a short name for the active variant, "none" when unbound.
func (c Credential) Kind() string { return c.kind.String() }

// AccessKeyID returns the key id for keypair credentials, "" otherwise.
func (c Credential) AccessKeyID() string { return c.accessKeyID }
