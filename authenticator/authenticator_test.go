package authenticator

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/oauth2-strategy/strategy"
)

type fakeIssuer struct {
	srv      *httptest.Server
	issuer   string
	userinfo map[string]interface{}
	key      *rsa.PrivateKey

	mu       sync.Mutex
	redirect string
	idToken  string
}

// issueIDToken makes the token endpoint return raw as id_token
func (f *fakeIssuer) issueIDToken(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idToken = raw
}

func (f *fakeIssuer) currentIDToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idToken
}

// signIDToken signs an id_token for subject with the issuer key
func (f *fakeIssuer) signIDToken(t *testing.T, subject string) string {
	t.Helper()

	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: jose.RS256,
		Key:       jose.JSONWebKey{Key: f.key, KeyID: "test-key"},
	}, (&jose.SignerOptions{}).WithType("JWT"))
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]interface{}{
		"iss": f.issuer,
		"sub": subject,
		"aud": "client",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	signed, err := signer.Sign(payload)
	require.NoError(t, err)
	raw, err := signed.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func (f *fakeIssuer) lastRedirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redirect
}

// newFakeIssuer serves discovery, token and userinfo endpoints. issuerSuffix is
// appended to the server URL to form the advertised issuer.
func newFakeIssuer(t *testing.T, tls bool, issuerSuffix string) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIssuer{
		key: key,
		userinfo: map[string]interface{}{
			"sub":      "auth0|42",
			"name":     "Ada Lovelace",
			"nickname": "ada",
			"email":    "ada@example.com",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                 f.issuer,
			"authorization_endpoint": f.srv.URL + "/authorize",
			"token_endpoint":         f.srv.URL + "/oauth/token",
			"userinfo_endpoint":      f.srv.URL + "/userinfo",
			"jwks_uri":               f.srv.URL + "/.well-known/jwks.json",
		})
	})
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key:       &f.key.PublicKey,
			KeyID:     "test-key",
			Algorithm: string(jose.RS256),
			Use:       "sig",
		}}})
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.redirect = r.PostForm.Get("redirect_uri")
		f.mu.Unlock()
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		resp := map[string]interface{}{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    86400,
		}
		if idToken := f.currentIDToken(); idToken != "" {
			resp["id_token"] = idToken
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f.userinfo)
	})

	if tls {
		f.srv = httptest.NewTLSServer(mux)
	} else {
		f.srv = httptest.NewServer(mux)
	}
	f.issuer = f.srv.URL + issuerSuffix
	t.Cleanup(f.srv.Close)
	return f
}

type profileCapture struct {
	profile *strategy.Profile
	tokens  *strategy.TokenResult
}

func (c *profileCapture) verify(_ context.Context, tokens *strategy.TokenResult, profile *strategy.Profile, done strategy.DoneFunc) {
	c.tokens = tokens
	c.profile = profile
	if profile == nil || profile.ID == "" {
		done(nil, nil, nil)
		return
	}
	done(profile.ID, nil, nil)
}

type fakeRequest struct {
	params map[string]string
}

func (f fakeRequest) Param(name string) string { return f.params[name] }
func (f fakeRequest) Header(name string) string {
	if strings.EqualFold(name, "host") {
		return "app.example.com"
	}
	return ""
}
func (f fakeRequest) Encrypted() bool { return true }
func (f fakeRequest) URL() *url.URL  { return &url.URL{Path: "/auth/callback"} }

func TestNewOpenIDStrategy(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer(t, false, "")
	capture := &profileCapture{}

	st, err := NewOpenIDStrategy(context.Background(), OpenIDConfig{
		IssuerURL:    issuer.issuer,
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackURL:  "/auth/callback",
		TrustProxy:   true,
	}, capture.verify)
	require.NoError(t, err)
	assert.Equal(t, "openid", st.Name())

	redirect, err := st.Authenticate(context.Background(), fakeRequest{}, strategy.AuthenticateOptions{State: "st"})
	require.NoError(t, err)
	assert.Equal(t, strategy.OutcomeRedirect, redirect.Kind)
	assert.Equal(t, issuer.srv.URL+"/authorize?response_type=code&redirect_uri=https%3A%2F%2Fapp.example.com%2Fauth%2Fcallback&client_id=client&scope=openid%20profile%20email&state=st&type=web_server", redirect.URL)

	outcome, err := st.Authenticate(context.Background(), fakeRequest{params: map[string]string{"code": "good-code"}}, strategy.AuthenticateOptions{})
	require.NoError(t, err)
	assert.Equal(t, strategy.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "auth0|42", outcome.Identity)
	assert.Equal(t, "https://app.example.com/auth/callback", issuer.lastRedirect())

	require.NotNil(t, capture.profile)
	assert.Equal(t, "openid", capture.profile.Provider)
	assert.Equal(t, "ada", capture.profile.DisplayName)
	assert.Equal(t, "ada@example.com", capture.profile.Email)
	assert.Equal(t, "rt-1", capture.tokens.RefreshToken)
}

func TestNewOpenIDStrategy_IDToken(t *testing.T) {
	t.Parallel()

	callback := fakeRequest{params: map[string]string{"code": "good-code"}}

	newStrategy := func(t *testing.T, issuer *fakeIssuer, capture *profileCapture) *strategy.Strategy {
		st, err := NewOpenIDStrategy(context.Background(), OpenIDConfig{
			IssuerURL:    issuer.issuer,
			ClientID:     "client",
			ClientSecret: "secret",
			CallbackURL:  "https://app.example.com/auth/callback",
		}, capture.verify)
		require.NoError(t, err)
		return st
	}

	t.Run("signed token for the userinfo subject", func(t *testing.T) {
		t.Parallel()
		issuer := newFakeIssuer(t, false, "")
		issuer.issueIDToken(issuer.signIDToken(t, "auth0|42"))
		capture := &profileCapture{}

		outcome, err := newStrategy(t, issuer, capture).Authenticate(context.Background(), callback, strategy.AuthenticateOptions{})

		require.NoError(t, err)
		assert.Equal(t, strategy.OutcomeSuccess, outcome.Kind)
		assert.Equal(t, "auth0|42", outcome.Identity)
	})

	t.Run("tampered token", func(t *testing.T) {
		t.Parallel()
		issuer := newFakeIssuer(t, false, "")

		// swap the payload of a valid token, keeping the original signature
		parts := strings.Split(issuer.signIDToken(t, "auth0|42"), ".")
		require.Len(t, parts, 3)
		forged, err := json.Marshal(map[string]interface{}{
			"iss": issuer.issuer,
			"sub": "auth0|42",
			"aud": "client",
			"exp": time.Now().Add(24 * time.Hour).Unix(),
		})
		require.NoError(t, err)
		parts[1] = base64.RawURLEncoding.EncodeToString(forged)
		issuer.issueIDToken(strings.Join(parts, "."))
		capture := &profileCapture{}

		outcome, err := newStrategy(t, issuer, capture).Authenticate(context.Background(), callback, strategy.AuthenticateOptions{})

		assert.Nil(t, outcome)
		assert.True(t, strategy.IsExchange(err))
		assert.ErrorContains(t, err, "id_token")
		assert.Nil(t, capture.tokens)
	})

	t.Run("signed token for another subject", func(t *testing.T) {
		t.Parallel()
		issuer := newFakeIssuer(t, false, "")
		issuer.issueIDToken(issuer.signIDToken(t, "auth0|someone-else"))
		capture := &profileCapture{}

		outcome, err := newStrategy(t, issuer, capture).Authenticate(context.Background(), callback, strategy.AuthenticateOptions{})

		assert.Nil(t, outcome)
		assert.True(t, strategy.IsExchange(err))
		assert.ErrorContains(t, err, "does not match")
	})
}

func TestNewOpenIDStrategy_RejectedCode(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer(t, false, "")
	capture := &profileCapture{}

	st, err := NewOpenIDStrategy(context.Background(), OpenIDConfig{
		IssuerURL:    issuer.issuer,
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackURL:  "https://app.example.com/auth/callback",
	}, capture.verify)
	require.NoError(t, err)

	outcome, err := st.Authenticate(context.Background(), fakeRequest{params: map[string]string{"code": "bad"}}, strategy.AuthenticateOptions{})
	require.NoError(t, err)
	assert.Equal(t, strategy.OutcomeFailure, outcome.Kind)
	assert.Nil(t, capture.tokens)
}

func TestNewOpenIDStrategy_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewOpenIDStrategy(context.Background(), OpenIDConfig{CallbackURL: "/cb"}, (&profileCapture{}).verify)
	assert.True(t, strategy.IsConfiguration(err))

	_, err = NewOpenIDStrategy(context.Background(), OpenIDConfig{IssuerURL: "https://issuer"}, (&profileCapture{}).verify)
	assert.True(t, strategy.IsConfiguration(err))

	_, err = NewAuth0Strategy(context.Background(), Auth0Config{}, (&profileCapture{}).verify)
	assert.True(t, strategy.IsConfiguration(err))
}

func TestNewAuth0Strategy(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer(t, true, "/")
	capture := &profileCapture{}

	st, err := NewAuth0Strategy(context.Background(), Auth0Config{
		Domain:       strings.TrimPrefix(issuer.srv.URL, "https://"),
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackURL:  "https://app.example.com/auth/callback",
		Audience:     "https://api.example.com",
		Scopes:       []string{"openid", "offline_access"},
		HTTPClient:   issuer.srv.Client(),
	}, capture.verify)
	require.NoError(t, err)
	assert.Equal(t, "auth0", st.Name())

	redirect, err := st.Authenticate(context.Background(), fakeRequest{}, strategy.AuthenticateOptions{})
	require.NoError(t, err)
	assert.Contains(t, redirect.URL, "&scope=openid%20offline_access&audience=https%3A%2F%2Fapi.example.com&type=web_server")

	outcome, err := st.Authenticate(context.Background(), fakeRequest{params: map[string]string{"code": "good-code"}}, strategy.AuthenticateOptions{})
	require.NoError(t, err)
	assert.Equal(t, strategy.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "auth0|42", outcome.Identity)
	require.NotNil(t, capture.profile)
	assert.Equal(t, "auth0", capture.profile.Provider)
}

func TestNew_ManualEndpoints(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer(t, false, "")
	capture := &profileCapture{}
	issuer.userinfo = map[string]interface{}{"id": 7, "name": "Grace"}

	st, err := New(context.Background(), Settings{
		AuthorizationURL: issuer.srv.URL + "/authorize",
		TokenURL:         issuer.srv.URL + "/oauth/token",
		ProfileURL:       issuer.srv.URL + "/userinfo",
		ClientID:         "client",
		ClientSecret:     "secret",
		CallbackURL:      "https://app.example.com/auth/callback",
		Scopes:           []string{"read", "write"},
		ScopeSeparator:   ",",
	}, capture.verify)
	require.NoError(t, err)
	assert.Equal(t, strategy.DefaultName, st.Name())

	redirect, err := st.Authenticate(context.Background(), fakeRequest{}, strategy.AuthenticateOptions{})
	require.NoError(t, err)
	assert.Contains(t, redirect.URL, "&scope=read%2Cwrite&type=web_server")

	outcome, err := st.Authenticate(context.Background(), fakeRequest{params: map[string]string{"code": "good-code"}}, strategy.AuthenticateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "7", outcome.Identity)
	assert.Equal(t, "Grace", capture.profile.DisplayName)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nick", displayName(map[string]interface{}{"nickname": "nick", "name": "Name"}, "sub"))
	assert.Equal(t, "Name", displayName(map[string]interface{}{"nickname": "", "name": "Name"}, "sub"))
	assert.Equal(t, "e@x", displayName(map[string]interface{}{"email": "e@x"}, "sub"))
	assert.Equal(t, "sub", displayName(map[string]interface{}{}, "sub"))
}
