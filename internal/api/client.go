package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yyqs2008/jms-sdk-go/internal/debug"
)

const DefaultTimeout = 30 * time.Second

// Client turns a logical operation name plus payload into a signed HTTP
// request and a normalized Result. Each call performs at most one dispatch:
// no retry, no backoff, no caching.
//
// A Client is safe for concurrent use as long as the bound credential is not
// rebound while calls are in flight. Rebinding after a login is the caller's
// hazard to serialize; nothing else is mutated during a call.
type Client struct {
	Endpoint string
	AppName  string
	HTTP     *http.Client

	routes *RouteTable
	scheme SignatureScheme
	cred   Credential
}

// New creates a client for the given endpoint base URL using the default
// route table and signature scheme.
func New(endpoint, appName string) *Client {
	return &Client{
		Endpoint: endpoint,
		AppName:  appName,
		HTTP:     &http.Client{Timeout: DefaultTimeout},
		routes:   MustRouteTable(DefaultRoutes),
		scheme:   HMACSignatureScheme{},
	}
}

// SetRoutes replaces the route table. Call before issuing requests; the
// table is read-only once calls begin.
func (c *Client) SetRoutes(t *RouteTable) { c.routes = t }

// Routes returns the route table.
func (c *Client) Routes() *RouteTable { return c.routes }

// SetSignatureScheme replaces the keypair signing scheme.
func (c *Client) SetSignatureScheme(s SignatureScheme) { c.scheme = s }

// SetCredential binds the credential used for authenticated calls. Must not
// race with in-flight calls on the same client.
func (c *Client) SetCredential(cred Credential) { c.cred = cred }

// Credential returns the bound credential, the zero Credential when unbound.
func (c *Client) Credential() Credential { return c.cred }

// CallOptions carries the per-call knobs of a routed request.
type CallOptions struct {
	PK          any               // fills the route template's slot, nil for none
	Body        any               // JSON-serializable payload
	Query       map[string]string // URL query parameters
	Headers     map[string]string // extra headers, case-insensitive
	ContentType string            // defaults to application/json
	NoAuth      bool              // skip credential signing
}

// Call performs one logical API call. Transport connection errors and
// HTTP statuses above 500 are downgraded into an empty degraded Result and a
// warning log, never an error: callers apply uniform StatusCode checks.
// The only hard failures are building the request and a missing credential
// when authentication is required.
func (c *Client) Call(ctx context.Context, method Method, opName string, opts *CallOptions) (Result, error) {
	if opts == nil {
		opts = &CallOptions{}
	}

	url := strings.TrimRight(c.Endpoint, "/") + c.routes.Resolve(opName, opts.PK)
	req, err := NewRequest(method, url, opts.Body, opts.Query, opts.Headers, opts.ContentType, c.AppName)
	if err != nil {
		return Result{}, err
	}

	if !opts.NoAuth {
		if c.cred.IsZero() {
			return Result{}, ErrAuthenticationRequired
		}
		if err := SignRequest(req, c.cred, c.scheme); err != nil {
			return Result{}, err
		}
	}

	httpReq, err := req.httpRequest(ctx)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		slog.Warn("connect endpoint error", "endpoint", c.Endpoint, "op", opName, "error", err)
		return Result{}, nil
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		slog.Warn("failed to read response body", "endpoint", c.Endpoint, "op", opName, "error", err)
		return Result{}, nil
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "method", method, "op", opName, "status", resp.StatusCode)
	}
	if resp.StatusCode > 500 {
		slog.Warn("server internal error", "status", resp.StatusCode, "op", opName)
		return Result{}, nil
	}

	return parseResult(resp.StatusCode, body), nil
}

// Get performs a routed GET request.
func (c *Client) Get(ctx context.Context, opName string, opts *CallOptions) (Result, error) {
	return c.Call(ctx, GET, opName, opts)
}

// Post performs a routed POST request.
func (c *Client) Post(ctx context.Context, opName string, opts *CallOptions) (Result, error) {
	return c.Call(ctx, POST, opName, opts)
}

// Put performs a routed PUT request.
func (c *Client) Put(ctx context.Context, opName string, opts *CallOptions) (Result, error) {
	return c.Call(ctx, PUT, opName, opts)
}

// Patch performs a routed PATCH request.
func (c *Client) Patch(ctx context.Context, opName string, opts *CallOptions) (Result, error) {
	return c.Call(ctx, PATCH, opName, opts)
}
