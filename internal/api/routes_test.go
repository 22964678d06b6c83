package api

import (
	"testing"
)

func TestRouteTable_Resolve(t *testing.T) {
	table := MustRouteTable(map[string]string{
		"with-slot": "/api/things/%s/detail/",
		"no-slot":   "/api/things/",
	})

	tests := []struct {
		name string
		op   string
		pk   any
		want string
	}{
		{"slot substituted once", "with-slot", 42, "/api/things/42/detail/"},
		{"string pk", "with-slot", "abc", "/api/things/abc/detail/"},
		{"nil pk keeps template", "with-slot", nil, "/api/things/%s/detail/"},
		{"pk ignored without slot", "no-slot", 7, "/api/things/"},
		{"unknown op falls back to root", "unknown-op", nil, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Resolve(tt.op, tt.pk); got != tt.want {
				t.Errorf("Resolve(%q, %v) = %q, want %q", tt.op, tt.pk, got, tt.want)
			}
		})
	}
}

func TestNewRouteTable_RejectsMultipleSlots(t *testing.T) {
	_, err := NewRouteTable(map[string]string{
		"bad": "/api/%s/things/%s/",
	})
	if err == nil {
		t.Fatal("Expected error for template with two slots")
	}
}

func TestDefaultRoutes_Valid(t *testing.T) {
	table, err := NewRouteTable(DefaultRoutes)
	if err != nil {
		t.Fatalf("DefaultRoutes must validate: %v", err)
	}
	if !table.Has("terminal-register") {
		t.Error("Expected terminal-register route")
	}
	if got := table.Resolve("system-user-auth-info", 3); got != "/api/assets/v1/system-user/3/auth-info/" {
		t.Errorf("Unexpected resolved path: %q", got)
	}
	if len(table.Names()) != len(DefaultRoutes) {
		t.Errorf("Names() returned %d entries, want %d", len(table.Names()), len(DefaultRoutes))
	}
}
