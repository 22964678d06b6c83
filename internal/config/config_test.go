package config

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withMockKeyring sets up a mock keyring for the duration of a test
func withMockKeyring(t *testing.T) *keyring.ArrayKeyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	return ring
}

func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	restore := SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return nil, err
	})
	t.Cleanup(restore)
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envEndpoint, "")
	t.Setenv(envAccessKeyID, "")
	t.Setenv(envAccessKeySecret, "")
	t.Setenv(envProfile, "")
}

func TestProfileKey(t *testing.T) {
	assert.Equal(t, accountKey, profileKey(""))
	assert.Equal(t, accountKey, profileKey("default"))
	assert.Equal(t, profilePrefix+"staging", profileKey("staging"))
}

func TestNormalizeProfiles(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"empty", []string{}, nil},
		{"unique kept in order", []string{"default", "staging"}, []string{"default", "staging"}},
		{"duplicates removed", []string{"a", "b", "a"}, []string{"a", "b"}},
		{"blank entries dropped", []string{"a", "", "  ", "b"}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeProfiles(tt.input))
		})
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)

	profile := Profile{
		Endpoint:        "https://jms.example.com",
		AccessKeyID:     "key-id",
		AccessKeySecret: "key-secret",
		AppName:         "coco",
	}
	require.NoError(t, SaveProfile("staging", profile))

	loaded, err := LoadProfile("staging")
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)

	// SaveProfile makes the saved profile current.
	current, err := CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "staging", current)

	// Load() follows the current profile.
	loaded, err = Load()
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)
}

func TestLoadProfile_NotConfigured(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)

	_, err := LoadProfile("missing")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoad_EnvOverride(t *testing.T) {
	withMockKeyring(t)
	t.Setenv(envEndpoint, "https://env.example.com/")
	t.Setenv(envAccessKeyID, "env-id")
	t.Setenv(envAccessKeySecret, "env-secret")

	profile, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", profile.Endpoint)
	assert.Equal(t, "env-id", profile.AccessKeyID)
	assert.Equal(t, "env-secret", profile.AccessKeySecret)
}

func TestLoad_EnvOverrideIncomplete(t *testing.T) {
	withMockKeyring(t)
	t.Setenv(envEndpoint, "https://env.example.com")
	t.Setenv(envAccessKeyID, "")
	t.Setenv(envAccessKeySecret, "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnvProfileSelection(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)

	require.NoError(t, SaveProfile("staging", Profile{Endpoint: "https://staging.example.com", AccessKeyID: "a", AccessKeySecret: "b"}))
	require.NoError(t, SaveProfile("prod", Profile{Endpoint: "https://prod.example.com", AccessKeyID: "c", AccessKeySecret: "d"}))

	t.Setenv(envProfile, "staging")
	profile, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", profile.Endpoint)
}

func TestDeleteProfile(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)

	require.NoError(t, SaveProfile("staging", Profile{Endpoint: "https://a", AccessKeyID: "a", AccessKeySecret: "b"}))
	require.NoError(t, SaveProfile("prod", Profile{Endpoint: "https://b", AccessKeyID: "c", AccessKeySecret: "d"}))
	require.NoError(t, DeleteProfile("prod"))

	_, err := LoadProfile("prod")
	assert.ErrorIs(t, err, ErrNotConfigured)

	// Current moved off the deleted profile.
	current, err := CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "staging", current)

	profiles, err := ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"staging"}, profiles)
}

func TestListProfiles_LegacyDefaultOnly(t *testing.T) {
	clearEnv(t)
	ring := withMockKeyring(t)
	require.NoError(t, ring.Set(keyring.Item{Key: accountKey, Data: []byte(`{"endpoint":"https://x"}`)}))

	profiles, err := ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{defaultProfile}, profiles)
}

func TestHasProfile(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)
	assert.False(t, HasProfile())

	require.NoError(t, Save(Profile{Endpoint: "https://x", AccessKeyID: "a", AccessKeySecret: "b"}))
	assert.True(t, HasProfile())
}

func TestOpenKeyringFailure(t *testing.T) {
	clearEnv(t)
	withFailingKeyring(t, errors.New("no keychain"))

	_, err := LoadProfile("default")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestShouldForceFileBackend(t *testing.T) {
	assert.True(t, shouldForceFileBackend("linux", keyringBackendFile, ""))
	assert.True(t, shouldForceFileBackend("darwin", keyringBackendFile, ""))
	assert.True(t, shouldForceFileBackend("linux", keyringBackendAuto, ""))
	assert.False(t, shouldForceFileBackend("linux", keyringBackendAuto, "unix:path=/run/user/1000/bus"))
	assert.False(t, shouldForceFileBackend("darwin", keyringBackendAuto, ""))
	assert.False(t, shouldForceFileBackend("linux", keyringBackendSystem, ""))
}

func TestKeyringBackendMode(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", keyringBackendAuto},
		{"auto", keyringBackendAuto},
		{"file", keyringBackendFile},
		{"system", keyringBackendSystem},
		{"os", keyringBackendSystem},
		{"native", keyringBackendSystem},
		{"bogus", keyringBackendAuto},
	}
	for _, tt := range tests {
		t.Setenv(envKeyringBackend, tt.value)
		assert.Equal(t, tt.want, keyringBackendMode(), "backend %q", tt.value)
	}
}
