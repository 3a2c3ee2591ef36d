package strategy

import (
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Scope is the ordered list of scope values requested from the authorization
// server. A single-element Scope is sent verbatim, so a pre-joined string such
// as "read write" can be configured as Scope{"read write"}.
type Scope []string

// ProfileFailurePolicy decides what happens when a configured profile fetch fails.
type ProfileFailurePolicy int

const (
	// ProfileFailureError turns a failed profile fetch into an exchange error.
	ProfileFailureError ProfileFailurePolicy = iota

	// ProfileFailureSkip passes an empty, non-nil Profile to the verify function.
	ProfileFailureSkip
)

// Config holds the immutable strategy configuration. It is shared by reference
// across concurrent authentications and never modified after NewStrategy.
type Config struct {
	AuthorizationURL string
	TokenURL         string
	ClientID         string
	ClientSecret     string

	// CallbackURL is the default redirect URI. It may be absolute or a path
	// resolved against the incoming request's host.
	CallbackURL string

	Scope Scope

	// ScopeSeparator joins multi-valued scopes. Defaults to a single space.
	ScopeSeparator string

	// CustomParameters are appended to the authorization URL, sorted by key.
	// Keys owned by the protocol (response_type, redirect_uri, client_id, scope,
	// state, type) are ignored.
	CustomParameters map[string]string

	// AuthStyle selects how client credentials reach the token endpoint. The
	// zero value sends them in the form body.
	AuthStyle oauth2.AuthStyle

	// TrustProxy controls whether X-Forwarded-Proto is honored when resolving a
	// relative callback URL. Nil means true.
	TrustProxy *bool

	// ProfileFetcher loads the user profile after a successful exchange.
	// Nil skips the fetch and the verify function receives a nil profile.
	ProfileFetcher ProfileFetcher
	ProfileFailure ProfileFailurePolicy

	// EscalateExchangeErrors reports exchange failures as system errors instead
	// of a Failure outcome.
	EscalateExchangeErrors bool

	// HTTPClient performs the token exchange and profile requests.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Validate checks the required fields and returns a configuration error
// describing the first problem found.
func (c *Config) Validate() error {
	if err := validateEndpoint(c.AuthorizationURL); err != nil {
		return NewConfigurationError("invalid authorization URL", err)
	}
	if err := validateEndpoint(c.TokenURL); err != nil {
		return NewConfigurationError("invalid token URL", err)
	}
	if c.ClientID == "" {
		return NewConfigurationError("client ID is required", nil)
	}
	if c.ClientSecret == "" {
		return NewConfigurationError("client secret is required", nil)
	}
	return nil
}

func (c *Config) scopeSeparator() string {
	if c.ScopeSeparator == "" {
		return " "
	}
	return c.ScopeSeparator
}

func (c *Config) trustProxy() bool {
	return c.TrustProxy == nil || *c.TrustProxy
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errMissing
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errNotAbsolute
	}
	return nil
}

// AuthenticateOptions carries per-attempt overrides. It never modifies Config.
type AuthenticateOptions struct {
	// CallbackURL overrides Config.CallbackURL for the authorization redirect
	// and the token exchange of this attempt.
	CallbackURL string

	// Scope overrides Config.Scope for the authorization redirect.
	Scope Scope

	// State is passed through to the authorization server untouched.
	State string
}
