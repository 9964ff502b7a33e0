// Package netutil resolves scan targets to addresses.
package netutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

const defaultLookupTimeout = 3 * time.Second

// Resolver turns a hostname into an IPv4 address. With no nameservers it
// uses the system resolver; otherwise it queries each nameserver in order
// for A records.
type Resolver struct {
	Nameservers []string
	Timeout     time.Duration
}

// ResolveIPv4 returns the first IPv4 address of target. IPv4 literals are
// returned unchanged; IPv6 literals are rejected.
func (r *Resolver) ResolveIPv4(ctx context.Context, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", sharedErrors.ErrEmptyHost
	}
	if ip := net.ParseIP(target); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
		return "", fmt.Errorf("%w: IPv6 address %s is not supported", sharedErrors.ErrMalformedInput, target)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if len(r.Nameservers) == 0 {
		return lookupSystem(lookupCtx, target)
	}

	var lastErr error
	for _, ns := range r.Nameservers {
		server, err := NormalizeNameserver(ns)
		if err != nil {
			return "", err
		}
		ip, err := r.exchangeA(lookupCtx, target, server, timeout)
		if err == nil {
			return ip, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("resolve %s: %w", target, lastErr)
}

func lookupSystem(ctx context.Context, host string) (string, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", fmt.Errorf("resolve %s: %w", host, sharedErrors.ErrNoIPv4Address)
}

func (r *Resolver) exchangeA(ctx context.Context, host, server string, timeout time.Duration) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	client := &dns.Client{Net: "udp", Timeout: timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("query %s: %s", server, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", sharedErrors.ErrNoIPv4Address
}

// NormalizeNameserver returns ns as host:port, defaulting the port to 53.
func NormalizeNameserver(ns string) (string, error) {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return "", sharedErrors.ErrInvalidNameserver
	}
	if ip := net.ParseIP(ns); ip != nil {
		return net.JoinHostPort(ns, "53"), nil
	}
	if host, port, err := net.SplitHostPort(ns); err == nil {
		if n, perr := strconv.Atoi(port); perr == nil && n > 0 && n <= 65535 && host != "" {
			return ns, nil
		}
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidNameserver, ns)
	}
	if strings.Contains(ns, ":") {
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidNameserver, ns)
	}
	return net.JoinHostPort(ns, "53"), nil
}
