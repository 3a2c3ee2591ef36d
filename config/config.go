// Environment variable loading for the host application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/blogem/oauth2-strategy/authenticator"
	"github.com/blogem/oauth2-strategy/strategy"
)

// Config holds all env configuration vars.
type Config struct {
	// Provider selection. AUTH0_DOMAIN wins over OAUTH_ISSUER_URL, which wins
	// over the manually configured endpoints.
	Auth0Domain   string
	Auth0Audience string
	IssuerURL     string

	AuthorizationURL string
	TokenURL         string
	ProfileURL       string

	ClientID       string
	ClientSecret   string
	CallbackURL    string
	Scopes         []string
	ScopeSeparator string

	ProfileFailure strategy.ProfileFailurePolicy
	TrustProxy     bool

	DatabasePath string
	Port         string
	UseHTTPS     bool
	LogLevel     slog.Level
}

// Load reads environment variables and returns a validated Config.
// Returns an error if the client credentials or the provider are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Auth0Domain:      os.Getenv("AUTH0_DOMAIN"),
		Auth0Audience:    os.Getenv("AUTH0_AUDIENCE"),
		IssuerURL:        os.Getenv("OAUTH_ISSUER_URL"),
		AuthorizationURL: os.Getenv("OAUTH_AUTHORIZATION_URL"),
		TokenURL:         os.Getenv("OAUTH_TOKEN_URL"),
		ProfileURL:       os.Getenv("OAUTH_PROFILE_URL"),
		ClientID:         os.Getenv("OAUTH_CLIENT_ID"),
		ClientSecret:     os.Getenv("OAUTH_CLIENT_SECRET"),
		ScopeSeparator:   os.Getenv("OAUTH_SCOPE_SEPARATOR"),
	}

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("OAUTH_CLIENT_ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("OAUTH_CLIENT_SECRET is required")
	}

	// Manual endpoints are only needed without a discovery source
	if cfg.Auth0Domain == "" && cfg.IssuerURL == "" {
		if cfg.AuthorizationURL == "" || cfg.TokenURL == "" {
			return nil, fmt.Errorf("OAUTH_AUTHORIZATION_URL and OAUTH_TOKEN_URL are required without AUTH0_DOMAIN or OAUTH_ISSUER_URL")
		}
		// Accounts are linked by profile id
		if cfg.ProfileURL == "" {
			return nil, fmt.Errorf("OAUTH_PROFILE_URL is required without AUTH0_DOMAIN or OAUTH_ISSUER_URL")
		}
	}

	cfg.CallbackURL = envString("OAUTH_CALLBACK_URL", "/auth/callback")
	cfg.Scopes = envList("OAUTH_SCOPE")

	switch strings.ToLower(os.Getenv("OAUTH_PROFILE_FAILURE")) {
	case "", "fail":
		cfg.ProfileFailure = strategy.ProfileFailureError
	case "skip":
		cfg.ProfileFailure = strategy.ProfileFailureSkip
	default:
		return nil, fmt.Errorf("OAUTH_PROFILE_FAILURE must be one of skip, fail")
	}

	// Default true -- only explicit false disables.
	cfg.TrustProxy = envBool("TRUST_PROXY", true)

	cfg.DatabasePath = envString("DATABASE_PATH", "oauth2_strategy.db")
	cfg.Port = envString("PORT", "8080")
	cfg.UseHTTPS = envBool("USE_HTTPS", false)

	// Parse log level, default to info
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	return cfg, nil
}

// Settings maps the provider part of the config onto authenticator settings.
func (c *Config) Settings() authenticator.Settings {
	return authenticator.Settings{
		Auth0Domain:      c.Auth0Domain,
		Auth0Audience:    c.Auth0Audience,
		IssuerURL:        c.IssuerURL,
		AuthorizationURL: c.AuthorizationURL,
		TokenURL:         c.TokenURL,
		ProfileURL:       c.ProfileURL,
		ClientID:         c.ClientID,
		ClientSecret:     c.ClientSecret,
		CallbackURL:      c.CallbackURL,
		Scopes:           c.Scopes,
		ScopeSeparator:   c.ScopeSeparator,
		ProfileFailure:   c.ProfileFailure,
		TrustProxy:       c.TrustProxy,
	}
}

// envString reads an env var, returning def if missing.
func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envList reads a comma separated env var, dropping empty elements.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envBool reads an env var as bool, returning def if missing or unparseable.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}
