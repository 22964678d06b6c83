package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const userAgentBase = "jms-sdk-go"

// Method is the finite set of HTTP verbs a routed call may use.
type Method int

const (
	GET Method = iota
	POST
	PUT
	PATCH
)

func (m Method) String() string {
	switch m {
	case GET:
		return http.MethodGet
	case POST:
		return http.MethodPost
	case PUT:
		return http.MethodPut
	case PATCH:
		return http.MethodPatch
	default:
		return "UNKNOWN"
	}
}

// ParseMethod maps a verb name (any case) onto a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return GET, nil
	case http.MethodPost:
		return POST, nil
	case http.MethodPut:
		return PUT, nil
	case http.MethodPatch:
		return PATCH, nil
	default:
		return GET, fmt.Errorf("unsupported method %q", s)
	}
}

// Request describes one HTTP call before it is sent. It is created fresh per
// call and discarded after dispatch.
type Request struct {
	Method  Method
	URL     string
	Headers *Headers
	Query   map[string]string
	Body    []byte // serialized JSON
}

// NewRequest builds a well-formed Request. The body is JSON-serialized; a
// body that does not serialize to a JSON object is replaced with an empty
// object. Content-Type is force-set (default application/json) and
// User-Agent is set only when the caller did not supply one.
func NewRequest(method Method, rawURL string, body any, query map[string]string, headers map[string]string, contentType, appName string) (*Request, error) {
	if contentType == "" {
		contentType = "application/json"
	}

	data, err := marshalBody(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	h := NewHeaders(headers)
	h.Set("Content-Type", contentType)
	if !h.Has("User-Agent") {
		ua := userAgentBase
		if appName != "" {
			ua = userAgentBase + "/" + appName
		}
		h.Set("User-Agent", ua)
	}

	q := make(map[string]string, len(query))
	for k, v := range query {
		q[k] = v
	}

	return &Request{
		Method:  method,
		URL:     rawURL,
		Headers: h,
		Query:   q,
		Body:    data,
	}, nil
}

// marshalBody serializes body, coercing anything that is not a JSON object
// to {}. The coercion mirrors the server contract: routed endpoints only
// accept object payloads, so scalars and arrays are dropped rather than sent.
func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	if !isJSONObject(data) {
		return []byte("{}"), nil
	}
	return data, nil
}

func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Path returns the URL path component, "/" when the URL has none or does
// not parse. Signing canonicalizes over the path, never the full URL.
func (r *Request) Path() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// httpRequest converts the Request into an *http.Request with the query
// encoded and headers applied.
func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method.String(), r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(r.Query) > 0 {
		q := req.URL.Query()
		for k, v := range r.Query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	r.Headers.Apply(req.Header)
	return req, nil
}
