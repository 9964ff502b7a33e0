package probe

import (
	"net"
	"net/http"
	"strconv"
	"time"
)

// TCPTarget is one host:port pair to connect to.
type TCPTarget struct {
	Host string
	Port uint16
}

// Address returns the dialable host:port form.
func (t TCPTarget) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// HTTPTarget describes a single HTTP request.
type HTTPTarget struct {
	URL     string
	Method  string
	Body    []byte
	Headers map[string]string
}

// WithHeader returns a copy of t with an extra header set.
func (t HTTPTarget) WithHeader(key, value string) HTTPTarget {
	headers := make(map[string]string, len(t.Headers)+1)
	for k, v := range t.Headers {
		headers[k] = v
	}
	headers[key] = value
	t.Headers = headers
	return t
}

// PortState classifies a TCP probe.
type PortState int

const (
	PortOpen PortState = iota
	PortClosed
	PortTimeout
	PortError
)

func (s PortState) String() string {
	switch s {
	case PortOpen:
		return "open"
	case PortClosed:
		return "closed"
	case PortTimeout:
		return "timeout"
	case PortError:
		return "error"
	}
	return "unknown"
}

// PortOutcome is the single result of probing a TCPTarget.
type PortOutcome struct {
	Target   TCPTarget
	State    PortState
	Err      string
	Duration time.Duration
	Skipped  bool
}

// HTTPOutcome is the single result of an HTTPTarget. Err is non-empty when
// no response was received; StatusCode, Headers and Body are then zero.
type HTTPOutcome struct {
	Target     HTTPTarget
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Err        string
	Skipped    bool
}

// OK reports whether a response was received.
func (o HTTPOutcome) OK() bool {
	return o.Err == ""
}

// Status returns the response status code, or 0 when no response was received.
func (o HTTPOutcome) Status() int {
	if !o.OK() {
		return 0
	}
	return o.StatusCode
}

// Header returns the first value of a response header.
func (o HTTPOutcome) Header(name string) string {
	if o.Headers == nil {
		return ""
	}
	return o.Headers.Get(name)
}

const skippedReason = "not started: run stopped"

// SkippedPort is the outcome recorded for a port that was never probed
// because the run was canceled.
func SkippedPort(t TCPTarget) PortOutcome {
	return PortOutcome{Target: t, State: PortError, Err: skippedReason, Skipped: true}
}

// SkippedHTTP is the outcome recorded for a request that was never sent.
func SkippedHTTP(t HTTPTarget) HTTPOutcome {
	return HTTPOutcome{Target: t, Err: skippedReason, Skipped: true}
}

// Observer receives one notification per completed probe.
type Observer interface {
	ObserveProbe(kind, outcome string, d time.Duration)
}
