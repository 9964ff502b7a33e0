package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// TCPConnector performs single TCP connect probes.
type TCPConnector struct {
	Timeout  time.Duration // Per-probe deadline, default 1s
	Observer Observer
}

// Probe attempts one connection to target. It never returns an error: refused
// or reset connections are Closed, deadline expiry is Timeout, and anything
// that prevents an attempt (bad host, cancellation) is Error.
func (c *TCPConnector) Probe(ctx context.Context, target TCPTarget) PortOutcome {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultPortTimeout
	}

	start := time.Now()
	outcome := PortOutcome{Target: target}

	if target.Host == "" || target.Port == 0 {
		outcome.State = PortError
		outcome.Err = "invalid target " + target.Address()
		c.observe(outcome)
		return outcome
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", target.Address())
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.State, outcome.Err = classifyDialError(ctx, dialCtx, err)
		c.observe(outcome)
		return outcome
	}
	_ = conn.Close()

	outcome.State = PortOpen
	c.observe(outcome)
	return outcome
}

func classifyDialError(parent, dialCtx context.Context, err error) (PortState, string) {
	if errors.Is(parent.Err(), context.Canceled) {
		return PortError, "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
		return PortTimeout, "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return PortTimeout, "timeout"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return PortError, dnsErr.Error()
	}
	// Refused, reset and unreachable all read as "not open".
	return PortClosed, err.Error()
}

func (c *TCPConnector) observe(o PortOutcome) {
	if c.Observer != nil {
		c.Observer.ObserveProbe("tcp", o.State.String(), o.Duration)
	}
}
