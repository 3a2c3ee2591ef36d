package strategy

import (
	"net/url"
	"strings"
)

const headerForwardedProto = "X-Forwarded-Proto"

// ResolveCallbackURL returns the redirect URI presented to the authorization server
// for one attempt. opts.CallbackURL takes precedence over cfg.CallbackURL.
//
// An absolute value is returned unchanged. A relative value is resolved against
// the request: the scheme is https when the connection is encrypted or, when the
// proxy is trusted, when X-Forwarded-Proto says https; the host is the request's
// Host header verbatim; the path is the configured value as given.
func ResolveCallbackURL(cfg *Config, opts AuthenticateOptions, req Request) (string, error) {
	callback := opts.CallbackURL
	if callback == "" {
		callback = cfg.CallbackURL
	}
	if callback == "" {
		return "", NewConfigurationError("callback URL is required", nil)
	}

	u, err := url.Parse(callback)
	if err != nil {
		return "", NewConfigurationError("invalid callback URL", err)
	}
	if u.Scheme != "" {
		return callback, nil
	}

	host := req.Header("host")
	if host == "" {
		return "", NewConfigurationError("cannot resolve relative callback URL without a host", nil)
	}

	if !strings.HasPrefix(callback, "/") {
		callback = "/" + callback
	}
	return requestScheme(req, cfg.trustProxy()) + "://" + host + callback, nil
}

func requestScheme(req Request, trustProxy bool) string {
	if req.Encrypted() {
		return "https"
	}
	if trustProxy {
		// a chain of proxies appends values; the first one is the client-facing hop
		proto, _, _ := strings.Cut(req.Header(headerForwardedProto), ",")
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return "https"
		}
	}
	return "http"
}
