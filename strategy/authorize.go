package strategy

import (
	"net/url"
	"sort"
	"strings"
)

// legacyClientType is sent on every authorization request for servers that still
// expect the draft-era client type discriminator.
const legacyClientType = "web_server"

var reservedParams = map[string]bool{
	"response_type": true,
	"redirect_uri":  true,
	"client_id":     true,
	"scope":         true,
	"state":         true,
	"type":          true,
}

// BuildAuthorizationURL composes the authorization-server redirect. Parameters are
// emitted in a fixed order: response_type, redirect_uri, client_id, scope, state,
// custom parameters sorted by key, then type.
func BuildAuthorizationURL(cfg *Config, callbackURL string, opts AuthenticateOptions) (string, error) {
	base, err := url.Parse(cfg.AuthorizationURL)
	if err != nil {
		return "", NewConfigurationError("invalid authorization URL", err)
	}

	var q orderedQuery
	q.add("response_type", "code")
	q.add("redirect_uri", callbackURL)
	q.add("client_id", cfg.ClientID)

	scope := opts.Scope
	if len(scope) == 0 {
		scope = cfg.Scope
	}
	if len(scope) > 0 {
		q.add("scope", strings.Join(scope, cfg.scopeSeparator()))
	}
	if opts.State != "" {
		q.add("state", opts.State)
	}

	keys := make([]string, 0, len(cfg.CustomParameters))
	for k := range cfg.CustomParameters {
		if !reservedParams[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.add(k, cfg.CustomParameters[k])
	}

	q.add("type", legacyClientType)

	if base.RawQuery != "" {
		base.RawQuery += "&" + q.encode()
	} else {
		base.RawQuery = q.encode()
	}
	return base.String(), nil
}

// orderedQuery is url.Values without the key sorting.
type orderedQuery struct {
	pairs [][2]string
}

func (q *orderedQuery) add(key, value string) {
	q.pairs = append(q.pairs, [2]string{key, value})
}

func (q *orderedQuery) encode() string {
	var b strings.Builder
	for i, p := range q.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(queryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(queryEscape(p[1]))
	}
	return b.String()
}

// queryEscapeCompat undoes the url.QueryEscape choices that differ from the
// classic querystring encoding: space is %20 and !'()* stay literal.
var queryEscapeCompat = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func queryEscape(s string) string {
	return queryEscapeCompat.Replace(url.QueryEscape(s))
}
