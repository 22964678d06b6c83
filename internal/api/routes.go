package api

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultRoutes is the static operation-name to path-template mapping for
// the access-management API. A template carries at most one %s slot, filled
// with the primary key supplied at call time.
var DefaultRoutes = map[string]string{
	"terminal-register":     "/api/applications/v1/terminal/register/",
	"terminal-heartbeat":    "/api/applications/v1/terminal/heartbeat/",
	"send-proxy-log":        "/api/audits/v1/proxy-log/receive/",
	"finish-proxy-log":      "/api/audits/v1/proxy-log/%s/",
	"send-command-log":      "/api/audits/v1/command-log/",
	"user-auth":             "/api/users/v1/auth/",
	"my-profile":            "/api/users/v1/profile/",
	"my-assets":             "/api/perms/v1/user/my/assets/",
	"my-asset-groups":       "/api/perms/v1/user/my/asset-groups/",
	"assets-of-group":       "/api/perms/v1/user/my/asset-group/%s/assets/",
	"system-user-auth-info": "/api/assets/v1/system-user/%s/auth-info/",
}

// RouteTable maps logical operation names to path templates. It is built
// once per client and read-only afterwards.
type RouteTable struct {
	routes map[string]string
}

// NewRouteTable validates and copies the mapping. Templates with more than
// one substitution slot are rejected: single-slot substitution is the only
// supported shape, and silently filling just the first slot would produce a
// broken path.
func NewRouteTable(routes map[string]string) (*RouteTable, error) {
	copied := make(map[string]string, len(routes))
	for name, template := range routes {
		if strings.Count(template, "%s") > 1 {
			return nil, fmt.Errorf("route %q has %d substitution slots, at most one is supported", name, strings.Count(template, "%s"))
		}
		copied[name] = template
	}
	return &RouteTable{routes: copied}, nil
}

// MustRouteTable is NewRouteTable for static tables known to be valid.
func MustRouteTable(routes map[string]string) *RouteTable {
	t, err := NewRouteTable(routes)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve maps an operation name to a concrete path. When the template has
// a slot and pk is supplied, pk is substituted exactly once. Unknown names
// resolve to "/" for compatibility with existing route tables; callers must
// not rely on this for typo detection, so a warning is logged.
func (t *RouteTable) Resolve(opName string, pk any) string {
	template, ok := t.routes[opName]
	if !ok {
		slog.Warn("unknown operation name, routing to root", "op", opName)
		return "/"
	}
	if pk != nil {
		if s := fmt.Sprint(pk); s != "" && strings.Contains(template, "%s") {
			return strings.Replace(template, "%s", s, 1)
		}
	}
	return template
}

// Has reports whether the table knows opName.
func (t *RouteTable) Has(opName string) bool {
	_, ok := t.routes[opName]
	return ok
}

// Names returns the known operation names, for CLI listings.
func (t *RouteTable) Names() []string {
	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	return names
}
