package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
)

// Value is a normalized JSON tree. Every object node supports key lookup and
// dotted-path lookup, recursively through nested objects and arrays, so
// business methods can read response fields without per-endpoint decode
// boilerplate. The zero Value is empty: every accessor returns its zero.
type Value struct {
	v  any
	ok bool
}

// NewValue wraps a decoded JSON value.
func NewValue(v any) Value { return Value{v: v, ok: true} }

// Exists reports whether the value is present in the tree it was read from.
func (v Value) Exists() bool { return v.ok }

// IsNil reports an explicit JSON null (or an absent value).
func (v Value) IsNil() bool { return v.v == nil }

// Raw returns the underlying decoded value.
func (v Value) Raw() any { return v.v }

// Key returns the value under key k of an object node.
func (v Value) Key(k string) Value {
	m, ok := v.v.(map[string]any)
	if !ok {
		return Value{}
	}
	child, ok := m[k]
	if !ok {
		return Value{}
	}
	return Value{v: child, ok: true}
}

// Index returns element i of an array node.
func (v Value) Index(i int) Value {
	s, ok := v.v.([]any)
	if !ok || i < 0 || i >= len(s) {
		return Value{}
	}
	return Value{v: s[i], ok: true}
}

// Get resolves a dotted path ("user.name") through nested objects. A single
// key without dots behaves like Key.
func (v Value) Get(path string) Value {
	cur := v
	for _, part := range strings.Split(path, ".") {
		cur = cur.Key(part)
		if !cur.ok {
			return Value{}
		}
	}
	return cur
}

// Str returns the node as a string, "" when it is not one.
func (v Value) Str() string {
	s, _ := v.v.(string)
	return s
}

// Int returns the node as an int. JSON numbers decode as float64; anything
// else yields 0.
func (v Value) Int() int {
	switch n := v.v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}

// Float returns the node as a float64.
func (v Value) Float() float64 {
	switch n := v.v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Bool returns the node as a bool.
func (v Value) Bool() bool {
	b, _ := v.v.(bool)
	return b
}

// Len returns the length of an array node, 0 otherwise.
func (v Value) Len() int {
	s, ok := v.v.([]any)
	if !ok {
		return 0
	}
	return len(s)
}

// Slice returns the elements of an array node.
func (v Value) Slice() []Value {
	s, ok := v.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Value, len(s))
	for i, e := range s {
		out[i] = Value{v: e, ok: true}
	}
	return out
}

// Map returns the entries of an object node.
func (v Value) Map() map[string]Value {
	m, ok := v.v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, e := range m {
		out[k] = Value{v: e, ok: true}
	}
	return out
}

// Decode re-marshals the node into dst, for callers that want a typed view
// of a subtree.
func (v Value) Decode(dst any) error {
	data, err := json.Marshal(v.v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Result is the normalized outcome of one API call. A degraded Result
// (synthesized after a transport or server failure) carries StatusCode 0 and
// an empty body; callers must check StatusCode rather than assume fields
// are present.
type Result struct {
	StatusCode int
	Body       Value
}

// Degraded reports a Result synthesized locally after a transport
// connection error or a server error above 500.
func (r Result) Degraded() bool { return r.StatusCode == 0 }

// parseResult normalizes a raw response. A body that is not valid JSON is
// tolerated here, and only here: it is replaced with {"error": ...} under
// the real status code, with a warning diagnostic.
func parseResult(statusCode int, body []byte) Result {
	if len(bytes.TrimSpace(body)) == 0 {
		return Result{StatusCode: statusCode, Body: NewValue(map[string]any{})}
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		slog.Warn("non-JSON response body", "status", statusCode, "body", truncateForLog(body))
		return Result{
			StatusCode: statusCode,
			Body:       NewValue(map[string]any{"error": "we only support json responses"}),
		}
	}
	return Result{StatusCode: statusCode, Body: NewValue(decoded)}
}

func truncateForLog(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
