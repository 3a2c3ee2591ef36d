// Package strategy implements the OAuth 2.0 authorization code grant as a
// pluggable authentication strategy.
//
// Each call to Authenticate either produces a redirect to the authorization
// server, or exchanges the returned code for tokens and hands them to a
// caller-supplied VerifyFunc that decides the identity. A Strategy holds only
// immutable configuration and is safe for concurrent use.
package strategy

import (
	"context"
	"log/slog"
)

const (
	paramCode             = "code"
	paramError            = "error"
	paramErrorDescription = "error_description"
	paramErrorURI         = "error_uri"

	errorAccessDenied = "access_denied"
)

// DefaultName is the name a Strategy registers under unless WithName is used.
const DefaultName = "oauth2"

// Strategy runs the authorization code flow for one configured client.
type Strategy struct {
	name      string
	config    Config
	verify    VerifyFunc
	exchanger Exchanger
	logger    *slog.Logger
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithName sets the strategy name reported to hosts.
func WithName(name string) Option {
	return func(s *Strategy) {
		s.name = name
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Strategy) {
		s.logger = logger
	}
}

// WithExchanger replaces the x/oauth2 backed token exchange.
func WithExchanger(e Exchanger) Option {
	return func(s *Strategy) {
		s.exchanger = e
	}
}

// NewStrategy validates cfg and returns a Strategy that resolves identities with verify.
func NewStrategy(cfg Config, verify VerifyFunc, opts ...Option) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if verify == nil {
		return nil, NewConfigurationError("verify function is required", nil)
	}

	s := &Strategy{
		name:   DefaultName,
		config: cfg,
		verify: verify,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exchanger == nil {
		s.exchanger = NewTokenExchangeClient(&s.config)
	}
	return s, nil
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return s.name
}

// Config returns a copy of the strategy configuration.
func (s *Strategy) Config() Config {
	return s.config
}

// Authenticate runs one attempt against req. It returns exactly one of an
// Outcome or an error. When ctx ends before the attempt completes it returns
// ctx.Err() and no Outcome.
func (s *Strategy) Authenticate(ctx context.Context, req Request, opts AuthenticateOptions) (*Outcome, error) {
	if errCode := req.Param(paramError); errCode != "" {
		if errCode == errorAccessDenied {
			s.logger.Debug("authorization denied by user", "strategy", s.name)
			return Failure(Info{Message: req.Param(paramErrorDescription)}), nil
		}
		return nil, NewAuthorizationError(errCode, req.Param(paramErrorDescription), req.Param(paramErrorURI))
	}

	callbackURL, err := ResolveCallbackURL(&s.config, opts, req)
	if err != nil {
		return nil, err
	}

	code := req.Param(paramCode)
	if code == "" {
		authURL, err := BuildAuthorizationURL(&s.config, callbackURL, opts)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("redirecting to authorization server", "strategy", s.name, "redirect_uri", callbackURL)
		return Redirect(authURL), nil
	}

	s.logger.Debug("exchanging authorization code", "strategy", s.name, "redirect_uri", callbackURL)
	tokens, err := s.exchanger.Exchange(ctx, code, callbackURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.config.EscalateExchangeErrors {
			return nil, err
		}
		s.logger.Warn("token exchange failed", "strategy", s.name, "error", err)
		return Failure(Info{Message: "failed to obtain access token"}), nil
	}

	profile, err := s.loadProfile(ctx, tokens)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	s.logger.Debug("verifying identity", "strategy", s.name, "profile", profile != nil)
	return dispatch(ctx, s.logger, s.verify, tokens, profile)
}

// Run authenticates req and reports the result to sink.
func (s *Strategy) Run(ctx context.Context, req Request, opts AuthenticateOptions, sink Sink) {
	outcome, err := s.Authenticate(ctx, req, opts)
	Report(outcome, err, sink)
}

func (s *Strategy) loadProfile(ctx context.Context, tokens *TokenResult) (*Profile, error) {
	if s.config.ProfileFetcher == nil {
		return nil, nil
	}
	profile, err := s.config.ProfileFetcher.FetchProfile(ctx, tokens)
	if err == nil {
		return profile, nil
	}
	if s.config.ProfileFailure == ProfileFailureSkip && ctx.Err() == nil {
		s.logger.Warn("profile fetch failed, continuing with empty profile", "strategy", s.name, "error", err)
		return &Profile{}, nil
	}
	return nil, NewExchangeError("failed to fetch user profile", err)
}
