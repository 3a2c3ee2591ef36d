package strategy

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const maxProfileResponse = 1 << 20

// Profile is identity data fetched with the access token.
//
// The verify function receives a nil *Profile when no ProfileFetcher is
// configured, and an empty non-nil *Profile when the fetch failed under
// ProfileFailureSkip.
type Profile struct {
	Provider    string
	ID          string
	DisplayName string
	Email       string
	Raw         map[string]any
}

// ProfileFetcher loads a user profile using the tokens from a successful exchange.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, tokens *TokenResult) (*Profile, error)
}

// JSONProfileFetcher fetches a JSON document from URL with the access token as a
// bearer credential and maps its fields with gjson paths.
type JSONProfileFetcher struct {
	URL      string
	Provider string

	// Paths default to "id", "name" and "email".
	IDPath    string
	NamePath  string
	EmailPath string

	HTTPClient *http.Client
}

// FetchProfile implements ProfileFetcher.
func (f *JSONProfileFetcher) FetchProfile(ctx context.Context, tokens *TokenResult) (*Profile, error) {
	if f.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tokens.AccessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile endpoint returned %s", resp.Status)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("profile endpoint returned invalid JSON")
	}

	doc := gjson.ParseBytes(body)
	raw, _ := doc.Value().(map[string]any)
	return &Profile{
		Provider:    f.Provider,
		ID:          doc.Get(pathOr(f.IDPath, "id")).String(),
		DisplayName: doc.Get(pathOr(f.NamePath, "name")).String(),
		Email:       doc.Get(pathOr(f.EmailPath, "email")).String(),
		Raw:         raw,
	}, nil
}

func pathOr(path, def string) string {
	if path == "" {
		return def
	}
	return path
}
