package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/domain"
	"github.com/BlackMission/graphprofile/internal/graph"
)

const sessionKeyBytes = 32

// Config is the top-level application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Identity IdentityConfig
	Graph    GraphConfig
	Secrets  SecretsConfig
	Session  SessionConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Env         string
	OpenBrowser bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// IdentityConfig holds the Entra ID application registration.
type IdentityConfig struct {
	ClientID  string
	Authority string
	Scopes    []string
}

// GraphConfig holds Microsoft Graph settings.
type GraphConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SecretsConfig holds cryptographic keys. Generated lists the keys that were
// not configured and were created randomly for this process only.
type SecretsConfig struct {
	StateSigningKey      string
	SessionEncryptionKey string
	Generated            []string
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	TTL          time.Duration
	CookieSecure bool
}

// LoadDotEnv copies variables from a dotenv file into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidConfig, path, err)
	}
	for k, v := range values {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	return nil
}

// LoadFromEnv reads configuration purely from environment variables.
func LoadFromEnv() (*Config, error) {
	port, err := getenvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	graphTimeout, err := getenvDuration("GRAPH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getenvDuration("SESSION_TTL", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	openBrowser, err := getenvBool("OPEN_BROWSER", false)
	if err != nil {
		return nil, err
	}
	cookieSecure, err := getenvBool("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:         getenvDefault("APP_ENV", "production"),
			OpenBrowser: openBrowser,
		},
		Server: ServerConfig{
			Port: port,
			Host: getenvDefault("HOST", "0.0.0.0"),
		},
		Identity: IdentityConfig{
			ClientID:  getenvDefault("AZURE_CLIENT_ID", auth.DefaultClientID),
			Authority: strings.TrimRight(getenvDefault("AZURE_AUTHORITY", auth.DefaultAuthority), "/"),
			Scopes:    splitComma(getenvDefault("GRAPH_SCOPES", auth.ScopeUserRead)),
		},
		Graph: GraphConfig{
			BaseURL: getenvDefault("GRAPH_BASE_URL", graph.DefaultBaseURL),
			Timeout: graphTimeout,
		},
		Secrets: SecretsConfig{
			StateSigningKey:      os.Getenv("STATE_SIGNING_KEY"),
			SessionEncryptionKey: os.Getenv("SESSION_ENCRYPTION_KEY"),
		},
		Session: SessionConfig{
			TTL:          sessionTTL,
			CookieSecure: cookieSecure,
		},
	}

	if cfg.Secrets.StateSigningKey == "" {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		cfg.Secrets.StateSigningKey = base64.RawStdEncoding.EncodeToString(key)
		cfg.Secrets.Generated = append(cfg.Secrets.Generated, "STATE_SIGNING_KEY")
	}
	if cfg.Secrets.SessionEncryptionKey == "" {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		cfg.Secrets.SessionEncryptionKey = string(key)
		cfg.Secrets.Generated = append(cfg.Secrets.Generated, "SESSION_ENCRYPTION_KEY")
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: PORT must be between 1 and 65535, got %d", domain.ErrInvalidConfig, cfg.Server.Port)
	}
	if cfg.Identity.ClientID == "" {
		return fmt.Errorf("%w: AZURE_CLIENT_ID is required", domain.ErrMissingConfig)
	}
	u, err := url.Parse(cfg.Identity.Authority)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: AZURE_AUTHORITY must be an https URL, got %q", domain.ErrInvalidConfig, cfg.Identity.Authority)
	}
	if len(cfg.Identity.Scopes) == 0 {
		return fmt.Errorf("%w: GRAPH_SCOPES must name at least one scope", domain.ErrMissingConfig)
	}
	if _, err := url.ParseRequestURI(cfg.Graph.BaseURL); err != nil {
		return fmt.Errorf("%w: GRAPH_BASE_URL: %v", domain.ErrInvalidConfig, err)
	}
	if len(cfg.Secrets.SessionEncryptionKey) != sessionKeyBytes {
		return fmt.Errorf("%w: SESSION_ENCRYPTION_KEY must be exactly %d bytes, got %d",
			domain.ErrInvalidConfig, sessionKeyBytes, len(cfg.Secrets.SessionEncryptionKey))
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func randomKey() ([]byte, error) {
	key := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number: %v", domain.ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a duration: %v", domain.ErrInvalidConfig, key, err)
	}
	return d, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean: %v", domain.ErrInvalidConfig, key, err)
	}
	return b, nil
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
