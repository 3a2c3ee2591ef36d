package authenticator

import (
	"context"
	"net/http"

	"github.com/blogem/oauth2-strategy/strategy"
)

// Auth0Config holds Auth0-specific configuration
type Auth0Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// Scopes defaults to openid, profile and email.
	Scopes []string

	// Audience requests an access token for the given API identifier.
	Audience string

	ProfileFailure strategy.ProfileFailurePolicy
	TrustProxy     bool
	HTTPClient     *http.Client
}

// NewAuth0Strategy returns an OpenID Connect strategy for an Auth0 tenant.
func NewAuth0Strategy(ctx context.Context, cfg Auth0Config, verify strategy.VerifyFunc, opts ...strategy.Option) (*strategy.Strategy, error) {
	if cfg.Domain == "" {
		return nil, strategy.NewConfigurationError("domain is required", nil)
	}

	var params map[string]string
	if cfg.Audience != "" {
		params = map[string]string{"audience": cfg.Audience}
	}

	return NewOpenIDStrategy(ctx, OpenIDConfig{
		IssuerURL:        "https://" + cfg.Domain + "/",
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		CallbackURL:      cfg.CallbackURL,
		Scopes:           cfg.Scopes,
		CustomParameters: params,
		ProfileFailure:   cfg.ProfileFailure,
		TrustProxy:       cfg.TrustProxy,
		HTTPClient:       cfg.HTTPClient,
	}, verify, append([]strategy.Option{strategy.WithName("auth0")}, opts...)...)
}
