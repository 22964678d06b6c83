package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SignatureScheme computes and injects the keypair signature headers for a
// request. The canonicalization and algorithm are a pluggable contract: the
// server and client must agree on a scheme, and swapping it must not reshape
// the rest of the client. Implementations mutate headers only.
type SignatureScheme interface {
	SignRequest(r *Request, accessKeyID, accessKeySecret string) error
}

// HMACSignatureScheme is the default scheme: HMAC-SHA256 over
// "method\npath\ndate", emitted as "Authorization: Sign <keyID>:<base64>"
// alongside the Date header it signed.
type HMACSignatureScheme struct {
	// Now is the clock for the Date header. Defaults to time.Now.
	Now func() time.Time
}

func (s HMACSignatureScheme) SignRequest(r *Request, accessKeyID, accessKeySecret string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	date := now().UTC().Format(http.TimeFormat)
	canonical := strings.Join([]string{r.Method.String(), r.Path(), date}, "\n")

	mac := hmac.New(sha256.New, []byte(accessKeySecret))
	if _, err := mac.Write([]byte(canonical)); err != nil {
		return fmt.Errorf("failed to compute signature: %w", err)
	}
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	r.Headers.Set("Date", date)
	r.Headers.Set("Authorization", fmt.Sprintf("Sign %s:%s", accessKeyID, signature))
	return nil
}

// SignRequest applies cred to the request's headers. It never touches the
// body or the URL path. Signing with an unbound credential fails with
// ErrAuthenticationRequired; callers must raise it before dispatch.
func SignRequest(r *Request, cred Credential, scheme SignatureScheme) error {
	switch cred.kind {
	case credentialKeyPair:
		if scheme == nil {
			scheme = HMACSignatureScheme{}
		}
		return scheme.SignRequest(r, cred.accessKeyID, cred.accessKeySecret)
	case credentialBearerToken:
		r.Headers.Set("Authorization", "Bearer "+cred.token)
		return nil
	case credentialSessionCookie:
		r.Headers.Set("Cookie", fmt.Sprintf("sessionid=%s; csrftoken=%s", cred.sessionID, cred.csrfToken))
		r.Headers.Set("X-CSRFToken", cred.csrfToken)
		return nil
	default:
		return ErrAuthenticationRequired
	}
}
