package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/domain"
	"github.com/BlackMission/graphprofile/internal/graph"
)

var envKeys = []string{
	"PORT", "HOST", "APP_ENV", "OPEN_BROWSER",
	"AZURE_CLIENT_ID", "AZURE_AUTHORITY", "GRAPH_SCOPES",
	"GRAPH_BASE_URL", "GRAPH_TIMEOUT",
	"STATE_SIGNING_KEY", "SESSION_ENCRYPTION_KEY",
	"SESSION_TTL", "COOKIE_SECURE",
}

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_FullConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("APP_ENV", "development")
	t.Setenv("OPEN_BROWSER", "true")
	t.Setenv("AZURE_CLIENT_ID", "11111111-2222-3333-4444-555555555555")
	t.Setenv("AZURE_AUTHORITY", "https://login.microsoftonline.com/contoso/")
	t.Setenv("GRAPH_SCOPES", "User.Read, Mail.Read")
	t.Setenv("GRAPH_BASE_URL", "https://graph.example.com/beta")
	t.Setenv("GRAPH_TIMEOUT", "3s")
	t.Setenv("STATE_SIGNING_KEY", "state-key")
	t.Setenv("SESSION_ENCRYPTION_KEY", "01234567890123456789012345678901")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %q", cfg.Server.Host)
	}
	if cfg.App.Env != "development" || !cfg.App.OpenBrowser {
		t.Errorf("unexpected app config: %+v", cfg.App)
	}
	if cfg.Identity.ClientID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("unexpected client id %q", cfg.Identity.ClientID)
	}
	if cfg.Identity.Authority != "https://login.microsoftonline.com/contoso" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Identity.Authority)
	}
	if len(cfg.Identity.Scopes) != 2 || cfg.Identity.Scopes[0] != "User.Read" || cfg.Identity.Scopes[1] != "Mail.Read" {
		t.Errorf("unexpected scopes %v", cfg.Identity.Scopes)
	}
	if cfg.Graph.BaseURL != "https://graph.example.com/beta" {
		t.Errorf("unexpected graph base url %q", cfg.Graph.BaseURL)
	}
	if cfg.Graph.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Graph.Timeout)
	}
	if cfg.Secrets.StateSigningKey != "state-key" {
		t.Errorf("unexpected state key %q", cfg.Secrets.StateSigningKey)
	}
	if len(cfg.Secrets.Generated) != 0 {
		t.Errorf("expected no generated keys, got %v", cfg.Secrets.Generated)
	}
	if cfg.Session.TTL != 30*time.Minute || !cfg.Session.CookieSecure {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
}

func TestLoadFromEnv_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %q", cfg.Server.Host)
	}
	if cfg.App.Env != "production" || cfg.App.OpenBrowser {
		t.Errorf("unexpected default app config: %+v", cfg.App)
	}
	if cfg.Identity.ClientID != auth.DefaultClientID {
		t.Errorf("expected default client id, got %q", cfg.Identity.ClientID)
	}
	if cfg.Identity.Authority != auth.DefaultAuthority {
		t.Errorf("expected default authority, got %q", cfg.Identity.Authority)
	}
	if len(cfg.Identity.Scopes) != 1 || cfg.Identity.Scopes[0] != auth.ScopeUserRead {
		t.Errorf("expected [User.Read], got %v", cfg.Identity.Scopes)
	}
	if cfg.Graph.BaseURL != graph.DefaultBaseURL {
		t.Errorf("expected default graph url, got %q", cfg.Graph.BaseURL)
	}
	if cfg.Graph.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Graph.Timeout)
	}
	if cfg.Session.TTL != 8*time.Hour || cfg.Session.CookieSecure {
		t.Errorf("unexpected default session config: %+v", cfg.Session)
	}
}

func TestLoadFromEnv_GeneratesMissingKeys(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Secrets.StateSigningKey == "" {
		t.Error("expected generated state signing key")
	}
	if len(cfg.Secrets.SessionEncryptionKey) != 32 {
		t.Errorf("expected 32 byte session key, got %d", len(cfg.Secrets.SessionEncryptionKey))
	}
	if len(cfg.Secrets.Generated) != 2 {
		t.Errorf("expected both keys reported as generated, got %v", cfg.Secrets.Generated)
	}

	other, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Secrets.SessionEncryptionKey == cfg.Secrets.SessionEncryptionKey {
		t.Error("generated keys should differ between loads")
	}
}

func TestLoadFromEnv_InvalidSessionKeyLength(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_ENCRYPTION_KEY", "too-short")

	_, err := LoadFromEnv()
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"port zero", "PORT", "0"},
		{"port negative", "PORT", "-1"},
		{"authority not https", "AZURE_AUTHORITY", "http://login.example.com/tenant"},
		{"authority not a url", "AZURE_AUTHORITY", "not a url"},
		{"bad timeout", "GRAPH_TIMEOUT", "soon"},
		{"bad ttl", "SESSION_TTL", "forever"},
		{"negative ttl", "SESSION_TTL", "-1h"},
		{"bad bool", "COOKIE_SECURE", "maybe"},
		{"bad graph url", "GRAPH_BASE_URL", "graph"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadFromEnv_EmptyScopes(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRAPH_SCOPES", " , ,")

	_, err := LoadFromEnv()
	if !errors.Is(err, domain.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const fresh = "GRAPHPROFILE_TEST_DOTENV_FRESH"
	const preset = "GRAPHPROFILE_TEST_DOTENV_PRESET"
	t.Setenv(preset, "from-env")
	t.Cleanup(func() { os.Unsetenv(fresh) })

	path := filepath.Join(t.TempDir(), ".env")
	content := fresh + "=from-file\n" + preset + "=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv(fresh); got != "from-file" {
		t.Errorf("expected %s loaded from file, got %q", fresh, got)
	}
	if got := os.Getenv(preset); got != "from-env" {
		t.Errorf("expected %s to keep environment value, got %q", preset, got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}

func TestSplitComma(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"a", 1},
		{"a,b", 2},
		{"a, b, c", 3},
		{" a , , b ", 2},
	}
	for _, tt := range tests {
		got := splitComma(tt.input)
		if len(got) != tt.expected {
			t.Errorf("splitComma(%q) = %d items, want %d", tt.input, len(got), tt.expected)
		}
	}
}
