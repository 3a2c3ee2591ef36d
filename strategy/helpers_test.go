package strategy

import (
	"context"
	"net/url"
	"strings"
)

type fakeRequest struct {
	params    map[string]string
	headers   map[string]string
	encrypted bool
	path      string
}

func (f *fakeRequest) Param(name string) string {
	return f.params[name]
}

func (f *fakeRequest) Header(name string) string {
	return f.headers[strings.ToLower(name)]
}

func (f *fakeRequest) Encrypted() bool {
	return f.encrypted
}

func (f *fakeRequest) URL() *url.URL {
	return &url.URL{Path: f.path}
}

type exchangerFunc func(ctx context.Context, code, redirectURI string) (*TokenResult, error)

func (f exchangerFunc) Exchange(ctx context.Context, code, redirectURI string) (*TokenResult, error) {
	return f(ctx, code, redirectURI)
}

type recordingSink struct {
	calls    []string
	identity any
	info     any
	url      string
	err      error
}

func (s *recordingSink) Success(identity, info any) {
	s.calls = append(s.calls, "success")
	s.identity, s.info = identity, info
}

func (s *recordingSink) Fail(info any) {
	s.calls = append(s.calls, "fail")
	s.info = info
}

func (s *recordingSink) Redirect(u string) {
	s.calls = append(s.calls, "redirect")
	s.url = u
}

func (s *recordingSink) Error(err error) {
	s.calls = append(s.calls, "error")
	s.err = err
}

type testUser struct {
	ID string
}

func tokens(access, refresh string) *TokenResult {
	return &TokenResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "example",
		Params: map[string]any{
			"token_type":        "example",
			"expires_in":        float64(3600),
			"example_parameter": "example_value",
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
