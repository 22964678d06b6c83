package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// setupTestServer creates a test server and overrides GitHubReleasesURL.
// Returns a cleanup function that restores the original URL.
func setupTestServer(handler http.HandlerFunc) (*httptest.Server, func()) {
	server := httptest.NewServer(handler)
	originalURL := GitHubReleasesURL
	GitHubReleasesURL = server.URL
	cleanup := func() {
		server.Close()
		GitHubReleasesURL = originalURL
	}
	return server, cleanup
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.0.0", "v1.0.0"},
		{"v1.0.0", "v1.0.0"},
		{"0.1.0", "v0.1.0"},
		{"", "v"},
	}
	for _, tt := range tests {
		if got := normalizeVersion(tt.input); got != tt.expected {
			t.Errorf("normalizeVersion(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCheckForUpdate_DevVersion(t *testing.T) {
	if result := CheckForUpdate(context.Background(), "dev"); result != nil {
		t.Error("Expected nil for dev version, got result")
	}
	if result := CheckForUpdate(context.Background(), ""); result != nil {
		t.Error("Expected nil for empty version, got result")
	}
}

func TestCheckForUpdate_NewerAvailable(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Release{TagName: "v2.0.0", HTMLURL: "https://example.com/release"})
	})
	defer cleanup()

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("Expected a check result")
	}
	if !result.UpdateAvailable {
		t.Error("Expected update available")
	}
	if result.LatestVersion != "2.0.0" {
		t.Errorf("Expected latest 2.0.0, got %s", result.LatestVersion)
	}
	if result.UpdateURL != "https://example.com/release" {
		t.Errorf("Unexpected update URL %s", result.UpdateURL)
	}
}

func TestCheckForUpdate_UpToDate(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Release{TagName: "v1.0.0"})
	})
	defer cleanup()

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("Expected a check result")
	}
	if result.UpdateAvailable {
		t.Error("Expected no update available")
	}
}

func TestCheckForUpdate_ServerError(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer cleanup()

	if result := CheckForUpdate(context.Background(), "1.0.0"); result != nil {
		t.Error("Expected nil on server error")
	}
}

func TestCheckForUpdate_BadJSON(t *testing.T) {
	_, cleanup := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	defer cleanup()

	if result := CheckForUpdate(context.Background(), "1.0.0"); result != nil {
		t.Error("Expected nil on bad JSON")
	}
}
