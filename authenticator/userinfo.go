package authenticator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/blogem/oauth2-strategy/strategy"
)

// UserInfoFetcher loads the profile from an OpenID Connect userinfo endpoint.
// When the token response carries an id_token, it is verified against the
// provider keys and its subject must match the userinfo subject.
type UserInfoFetcher struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	name     string
	client   *http.Client
}

// NewUserInfoFetcher creates a fetcher for provider. ID tokens must be issued to
// clientID. A nil client uses the default.
func NewUserInfoFetcher(provider *oidc.Provider, clientID, name string, client *http.Client) *UserInfoFetcher {
	return &UserInfoFetcher{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		name:     name,
		client:   client,
	}
}

// FetchProfile implements strategy.ProfileFetcher.
func (f *UserInfoFetcher) FetchProfile(ctx context.Context, tokens *strategy.TokenResult) (*strategy.Profile, error) {
	if f.client != nil {
		ctx = oidc.ClientContext(ctx, f.client)
	}

	idToken, err := f.verifyIDToken(ctx, tokens)
	if err != nil {
		return nil, err
	}

	info, err := f.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tokens.AccessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}

	if idToken != nil && idToken.Subject != info.Subject {
		return nil, fmt.Errorf("userinfo subject %q does not match id_token subject %q", info.Subject, idToken.Subject)
	}

	var claims map[string]interface{}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding userinfo claims: %w", err)
	}

	return &strategy.Profile{
		Provider:    f.name,
		ID:          info.Subject,
		DisplayName: displayName(claims, info.Subject),
		Email:       info.Email,
		Raw:         claims,
	}, nil
}

// verifyIDToken returns nil without error when no id_token was issued.
func (f *UserInfoFetcher) verifyIDToken(ctx context.Context, tokens *strategy.TokenResult) (*oidc.IDToken, error) {
	raw, ok := tokens.Params["id_token"].(string)
	if !ok || raw == "" {
		return nil, nil
	}

	idToken, err := f.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verifying id_token: %w", err)
	}
	return idToken, nil
}

// displayName tries nickname, then name, then email, then falls back to the subject.
func displayName(claims map[string]interface{}, subject string) string {
	for _, key := range []string{"nickname", "name", "email"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return subject
}
