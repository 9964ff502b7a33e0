package vuln

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Endpoint is a validated URL and HTTP method pair.
type Endpoint struct {
	URL    string
	Method string
	parsed *url.URL
}

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// ParseEndpoint validates rawURL and method. The method defaults to GET and
// is normalized to upper case.
func ParseEndpoint(rawURL, method string) (Endpoint, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Endpoint{}, fmt.Errorf("%w: empty URL", sharedErrors.ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("%w: scheme must be http or https, got %q", sharedErrors.ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("%w: missing host in %q", sharedErrors.ErrInvalidURL, rawURL)
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !allowedMethods[method] {
		return Endpoint{}, fmt.Errorf("%w: %s", sharedErrors.ErrUnsupportedMethod, method)
	}

	return Endpoint{URL: u.String(), Method: method, parsed: u}, nil
}

// Insecure reports whether the endpoint uses plain HTTP.
func (e Endpoint) Insecure() bool {
	return e.parsed != nil && e.parsed.Scheme == "http"
}

// withQuery returns the endpoint URL with key set to value.
func (e Endpoint) withQuery(key, value string) string {
	u := *e.parsed
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
