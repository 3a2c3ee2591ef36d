package authenticator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/blogem/oauth2-strategy/strategy"
)

// OpenIDConfig holds OpenID Connect configuration
type OpenIDConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// Scopes defaults to openid, profile and email.
	Scopes []string

	// CustomParameters are added to the authorization URL.
	CustomParameters map[string]string

	ProfileFailure strategy.ProfileFailurePolicy
	TrustProxy     bool
	HTTPClient     *http.Client
}

// NewOpenIDStrategy discovers the issuer's endpoints and returns a strategy that
// loads the profile from the userinfo endpoint.
func NewOpenIDStrategy(ctx context.Context, cfg OpenIDConfig, verify strategy.VerifyFunc, opts ...strategy.Option) (*strategy.Strategy, error) {
	// Validate required configuration
	if cfg.IssuerURL == "" {
		return nil, strategy.NewConfigurationError("issuer URL is required", nil)
	}
	if cfg.CallbackURL == "" {
		return nil, strategy.NewConfigurationError("callback URL is required", nil)
	}

	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.IssuerURL, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	fetcher := NewUserInfoFetcher(provider, cfg.ClientID, "openid", cfg.HTTPClient)
	endpoint := provider.Endpoint()
	st, err := strategy.NewStrategy(strategy.Config{
		AuthorizationURL: endpoint.AuthURL,
		TokenURL:         endpoint.TokenURL,
		AuthStyle:        endpoint.AuthStyle,
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		CallbackURL:      cfg.CallbackURL,
		Scope:            scopes,
		CustomParameters: cfg.CustomParameters,
		TrustProxy:       &cfg.TrustProxy,
		ProfileFetcher:   fetcher,
		ProfileFailure:   cfg.ProfileFailure,
		HTTPClient:       cfg.HTTPClient,
	}, verify, append([]strategy.Option{strategy.WithName("openid")}, opts...)...)
	if err != nil {
		return nil, err
	}

	// Profiles carry the name the caller gave the strategy
	fetcher.name = st.Name()
	return st, nil
}
