package api

import (
	"net/http"
	"net/textproto"
	"strings"
)

// Headers is a case-insensitive header map. Keys are stored lower-cased and
// normalized on every read and write, so "Content-Type", "content-type" and
// "CONTENT-TYPE" all address the same entry.
type Headers struct {
	m map[string]string
}

// NewHeaders builds a header map, copying any initial values.
func NewHeaders(init map[string]string) *Headers {
	h := &Headers{m: make(map[string]string, len(init))}
	for k, v := range init {
		h.Set(k, v)
	}
	return h
}

func headerKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// Set stores a value, replacing any existing entry under the same key
// regardless of case.
func (h *Headers) Set(key, value string) {
	h.m[headerKey(key)] = value
}

// Get returns the value for key, "" when absent.
func (h *Headers) Get(key string) string {
	return h.m[headerKey(key)]
}

// Has reports whether key is present.
func (h *Headers) Has(key string) bool {
	_, ok := h.m[headerKey(key)]
	return ok
}

// Del removes key.
func (h *Headers) Del(key string) {
	delete(h.m, headerKey(key))
}

// Len returns the number of entries.
func (h *Headers) Len() int { return len(h.m) }

// Clone returns an independent copy.
func (h *Headers) Clone() *Headers {
	return NewHeaders(h.m)
}

// Map returns the entries with canonical MIME header keys, for inspection.
func (h *Headers) Map() map[string]string {
	out := make(map[string]string, len(h.m))
	for k, v := range h.m {
		out[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return out
}

// Apply copies the entries onto an http.Header, which canonicalizes key
// casing on the wire.
func (h *Headers) Apply(dst http.Header) {
	for k, v := range h.m {
		dst.Set(k, v)
	}
}
