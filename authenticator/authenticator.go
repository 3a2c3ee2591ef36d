package authenticator

import (
	"context"
	"net/http"

	"github.com/blogem/oauth2-strategy/strategy"
)

// Settings holds provider configuration for building a strategy.
// Auth0Domain selects the Auth0 preset, IssuerURL the generic OpenID Connect
// preset, and otherwise the endpoints are taken as given.
type Settings struct {
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
	HTTPClient     *http.Client
}

// New builds the strategy described by s.
func New(ctx context.Context, s Settings, verify strategy.VerifyFunc, opts ...strategy.Option) (*strategy.Strategy, error) {
	switch {
	case s.Auth0Domain != "":
		return NewAuth0Strategy(ctx, Auth0Config{
			Domain:         s.Auth0Domain,
			Audience:       s.Auth0Audience,
			ClientID:       s.ClientID,
			ClientSecret:   s.ClientSecret,
			CallbackURL:    s.CallbackURL,
			Scopes:         s.Scopes,
			ProfileFailure: s.ProfileFailure,
			TrustProxy:     s.TrustProxy,
			HTTPClient:     s.HTTPClient,
		}, verify, opts...)
	case s.IssuerURL != "":
		return NewOpenIDStrategy(ctx, OpenIDConfig{
			IssuerURL:      s.IssuerURL,
			ClientID:       s.ClientID,
			ClientSecret:   s.ClientSecret,
			CallbackURL:    s.CallbackURL,
			Scopes:         s.Scopes,
			ProfileFailure: s.ProfileFailure,
			TrustProxy:     s.TrustProxy,
			HTTPClient:     s.HTTPClient,
		}, verify, opts...)
	default:
		return NewOAuth2Strategy(s, verify, opts...)
	}
}

// NewOAuth2Strategy builds a strategy against manually configured endpoints.
// When ProfileURL is set the profile is fetched from it as JSON.
func NewOAuth2Strategy(s Settings, verify strategy.VerifyFunc, opts ...strategy.Option) (*strategy.Strategy, error) {
	cfg := strategy.Config{
		AuthorizationURL: s.AuthorizationURL,
		TokenURL:         s.TokenURL,
		ClientID:         s.ClientID,
		ClientSecret:     s.ClientSecret,
		CallbackURL:      s.CallbackURL,
		Scope:            s.Scopes,
		ScopeSeparator:   s.ScopeSeparator,
		ProfileFailure:   s.ProfileFailure,
		TrustProxy:       &s.TrustProxy,
		HTTPClient:       s.HTTPClient,
	}
	if s.ProfileURL != "" {
		cfg.ProfileFetcher = &strategy.JSONProfileFetcher{
			URL:        s.ProfileURL,
			Provider:   strategy.DefaultName,
			HTTPClient: s.HTTPClient,
		}
	}
	return strategy.NewStrategy(cfg, verify, opts...)
}
