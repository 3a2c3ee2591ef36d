package strategy

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var (
	errMissing     = errors.New("value is required")
	errNotAbsolute = errors.New("must be an absolute URL")
)

// Request is the read-only view of an in-flight request used by a Strategy.
// A Strategy never retains it beyond a single Authenticate call.
type Request interface {
	// Param returns a query or form parameter, or "" when absent.
	Param(name string) string

	// Header returns a header value. "host" yields the request host.
	Header(name string) string

	// Encrypted reports whether the connection itself is TLS.
	Encrypted() bool

	// URL returns the request URL as received.
	URL() *url.URL
}

type httpRequest struct {
	r *http.Request
}

// FromHTTPRequest adapts a *http.Request to Request.
func FromHTTPRequest(r *http.Request) Request {
	return httpRequest{r: r}
}

func (h httpRequest) Param(name string) string {
	return h.r.FormValue(name)
}

func (h httpRequest) Header(name string) string {
	// net/http promotes the Host header to Request.Host
	if strings.EqualFold(name, "host") {
		return h.r.Host
	}
	return h.r.Header.Get(name)
}

func (h httpRequest) Encrypted() bool {
	return h.r.TLS != nil
}

func (h httpRequest) URL() *url.URL {
	return h.r.URL
}
