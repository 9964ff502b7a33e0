package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// HTTPConnector issues single HTTP requests with a hard timeout.
//
// Certificate verification is disabled: targets under test routinely use
// self-signed certificates. Redirects are not followed so each probe observes
// exactly one response.
type HTTPConnector struct {
	Timeout      time.Duration // Per-request deadline, default 5s
	UserAgent    string
	MaxBodyBytes int64
	Observer     Observer

	once   sync.Once
	client *http.Client
}

// NewHTTPConnector returns a connector with the given timeout.
func NewHTTPConnector(timeout time.Duration) *HTTPConnector {
	return &HTTPConnector{Timeout: timeout}
}

func (h *HTTPConnector) httpClient() *http.Client {
	h.once.Do(func() {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultHTTPTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // probing targets with self-signed certs
		transport.MaxIdleConnsPerHost = 4
		h.client = &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})
	return h.client
}

// Do sends target and returns its outcome. Transport failures and timeouts
// are reported in HTTPOutcome.Err; Do never returns a Go error.
func (h *HTTPConnector) Do(ctx context.Context, target HTTPTarget) HTTPOutcome {
	outcome := HTTPOutcome{Target: target}
	start := time.Now()

	method := target.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if target.Body != nil {
		body = bytes.NewReader(target.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.URL, body)
	if err != nil {
		outcome.Err = "create request: " + err.Error()
		h.observe(outcome)
		return outcome
	}

	userAgent := h.UserAgent
	if userAgent == "" {
		userAgent = constants.DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.httpClient().Do(req)
	if err != nil {
		outcome.Duration = time.Since(start)
		outcome.Err = describeHTTPError(err)
		h.observe(outcome)
		return outcome
	}
	defer resp.Body.Close()

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = constants.MaxResponseBodyBytes
	}
	// A truncated body is still matched against.
	data, _ := io.ReadAll(io.LimitReader(resp.Body, limit))

	outcome.StatusCode = resp.StatusCode
	outcome.Headers = resp.Header
	outcome.Body = data
	outcome.Duration = time.Since(start)
	h.observe(outcome)
	return outcome
}

func describeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return err.Error()
}

func (h *HTTPConnector) observe(o HTTPOutcome) {
	if h.Observer == nil {
		return
	}
	label := "error"
	if o.OK() {
		label = strconv.Itoa(o.StatusCode/100) + "xx"
	}
	h.Observer.ObserveProbe("http", label, o.Duration)
}
