package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// maxTokenResponse mirrors the response size limit applied by x/oauth2.
const maxTokenResponse = 1 << 20

// TokenResult is the outcome of a successful code exchange. It is produced once
// per attempt and never cached.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time

	// Params holds every field of the token endpoint response, including
	// token_type, expires_in and provider-specific extras.
	Params map[string]any
}

// Exchanger trades an authorization code for tokens. redirectURI must be the
// value used to build the authorization URL of the same attempt.
type Exchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*TokenResult, error)
}

type tokenExchangeClient struct {
	config *oauth2.Config
	client *http.Client
}

// NewTokenExchangeClient returns the Exchanger backed by x/oauth2 for cfg.
// AuthStyleAutoDetect becomes AuthStyleInParams, since auto-detection re-sends a
// failed token request with the other style.
func NewTokenExchangeClient(cfg *Config) Exchanger {
	authStyle := cfg.AuthStyle
	if authStyle == oauth2.AuthStyleAutoDetect {
		authStyle = oauth2.AuthStyleInParams
	}
	return &tokenExchangeClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: authStyle,
			},
		},
		client: cfg.httpClient(),
	}
}

// Exchange sends grant_type=authorization_code with the code and redirect_uri to
// the token endpoint. It does not retry.
func (c *tokenExchangeClient) Exchange(ctx context.Context, code, redirectURI string) (*TokenResult, error) {
	capture := &responseCapture{base: c.client.Transport}
	client := &http.Client{
		Transport:     capture,
		CheckRedirect: c.client.CheckRedirect,
		Jar:           c.client.Jar,
		Timeout:       c.client.Timeout,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)

	// RedirectURL stays empty on the shared config; each attempt passes its own.
	tok, err := c.config.Exchange(ctx, code, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	if err != nil {
		return nil, exchangeError(err)
	}

	params, err := capture.params()
	if err != nil {
		return nil, NewExchangeError("failed to parse token response", err)
	}

	return &TokenResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Params:       params,
	}, nil
}

func exchangeError(err error) error {
	e := NewExchangeError("failed to obtain access token", err)
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		e.Code = re.ErrorCode
		e.Description = re.ErrorDescription
		e.URI = re.ErrorURI
	}
	return e
}

// responseCapture keeps a copy of the token response body so every field can be
// handed to the verify function, not just the ones oauth2.Token exposes.
// One instance serves exactly one exchange.
type responseCapture struct {
	base        http.RoundTripper
	body        []byte
	contentType string
}

func (rc *responseCapture) RoundTrip(req *http.Request) (*http.Response, error) {
	base := rc.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	rc.body = body
	rc.contentType = resp.Header.Get("Content-Type")
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (rc *responseCapture) params() (map[string]any, error) {
	params := map[string]any{}
	if len(rc.body) == 0 {
		return params, nil
	}

	mediaType, _, _ := mime.ParseMediaType(rc.contentType)
	switch mediaType {
	case "application/x-www-form-urlencoded", "text/plain":
		vals, err := url.ParseQuery(string(rc.body))
		if err != nil {
			return nil, err
		}
		for k := range vals {
			params[k] = vals.Get(k)
		}
	default:
		if err := json.Unmarshal(rc.body, &params); err != nil {
			return nil, err
		}
	}
	return params, nil
}
