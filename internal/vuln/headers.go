package vuln

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
)

// headerRule is one expected hardening header.
type headerRule struct {
	Name        string
	Severity    finding.Severity
	Remediation string
	// Validate returns weaknesses of a present header, if any.
	Validate func(value string) []string
}

// securityHeaderRules are checked in this order.
var securityHeaderRules = []headerRule{
	{
		Name:        "Strict-Transport-Security",
		Severity:    finding.SeverityHigh,
		Remediation: "Add 'Strict-Transport-Security: max-age=31536000; includeSubDomains'",
		Validate:    validateHSTS,
	},
	{
		Name:        "Content-Security-Policy",
		Severity:    finding.SeverityHigh,
		Remediation: "Implement a strict Content-Security-Policy appropriate for your application",
		Validate:    validateCSP,
	},
	{
		Name:        "X-Frame-Options",
		Severity:    finding.SeverityMedium,
		Remediation: "Add 'X-Frame-Options: DENY' or 'SAMEORIGIN'",
		Validate:    validateFrameOptions,
	},
	{
		Name:        "X-Content-Type-Options",
		Severity:    finding.SeverityMedium,
		Remediation: "Add 'X-Content-Type-Options: nosniff'",
		Validate:    validateContentTypeOptions,
	},
	{
		Name:        "Referrer-Policy",
		Severity:    finding.SeverityLow,
		Remediation: "Add 'Referrer-Policy: strict-origin-when-cross-origin' or 'no-referrer'",
	},
	{
		Name:        "Permissions-Policy",
		Severity:    finding.SeverityLow,
		Remediation: "Add 'Permissions-Policy' to restrict browser features, e.g. 'geolocation=(), microphone=()'",
	},
}

func (p *Pipeline) headersPhase(ctx context.Context, s *finding.Session, ep Endpoint) {
	out := p.sendOne(ctx, probe.HTTPTarget{URL: ep.URL, Method: http.MethodGet})
	if !out.OK() {
		s.Info("Security Headers", noResponse(out))
		return
	}

	for _, rule := range securityHeaderRules {
		value := out.Header(rule.Name)
		if value == "" {
			s.Report(rule.Severity, "Missing Security Header",
				rule.Name+" header is missing", rule.Remediation)
			continue
		}
		s.Pass(rule.Name, value)
		if rule.Validate == nil {
			continue
		}
		if issues := rule.Validate(value); len(issues) > 0 {
			s.Info(rule.Name, strings.Join(issues, "; "))
		}
	}

	checkCORS(s, out.Headers)
}

func checkCORS(s *finding.Session, headers http.Header) {
	if headers.Get("Access-Control-Allow-Origin") != "*" {
		return
	}
	detail := "Access-Control-Allow-Origin allows any origin (*)"
	if headers.Get("Access-Control-Allow-Credentials") == "true" {
		detail += " and credentials are allowed"
	}
	s.Report(finding.SeverityMedium, "CORS Misconfiguration", detail,
		"Restrict Access-Control-Allow-Origin to trusted origins")
	if !varyIncludesOrigin(headers.Values("Vary")) {
		s.Info("CORS", "Vary: Origin header missing")
	}
}

func varyIncludesOrigin(values []string) bool {
	for _, value := range values {
		for _, token := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "origin") {
				return true
			}
		}
	}
	return false
}

func validateHSTS(value string) []string {
	var issues []string
	value = strings.ToLower(value)

	switch {
	case !strings.Contains(value, "max-age="):
		issues = append(issues, "missing 'max-age' directive")
	case strings.Contains(value, "max-age=0"):
		issues = append(issues, "max-age is 0, HSTS is disabled")
	case maxAge(value) < 31536000:
		issues = append(issues, "max-age is shorter than one year")
	}
	if !strings.Contains(value, "includesubdomains") {
		issues = append(issues, "missing 'includeSubDomains' directive")
	}
	return issues
}

func maxAge(value string) int {
	idx := strings.Index(value, "max-age=")
	if idx < 0 {
		return 0
	}
	n := 0
	for _, r := range value[idx+len("max-age="):] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			break
		}
	}
	return n
}

func validateCSP(value string) []string {
	var issues []string
	value = strings.ToLower(value)
	directives := parseCSPDirectives(value)

	if strings.Contains(value, "'unsafe-inline'") {
		issues = append(issues, "contains 'unsafe-inline'")
	}
	if strings.Contains(value, "'unsafe-eval'") {
		issues = append(issues, "contains 'unsafe-eval'")
	}
	if _, ok := directives["default-src"]; !ok {
		issues = append(issues, "missing 'default-src' fallback")
	}
	for _, token := range directives["script-src"] {
		switch {
		case token == "*":
			issues = append(issues, "script-src allows any origin")
		case token == "data:" || token == "blob:":
			issues = append(issues, fmt.Sprintf("script-src allows %s URLs", token))
		case strings.HasPrefix(token, "http:"):
			issues = append(issues, "script-src allows insecure http sources")
		}
	}
	return issues
}

func parseCSPDirectives(value string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(value, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		result[fields[0]] = fields[1:]
	}
	return result
}

func validateFrameOptions(value string) []string {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch {
	case value == "DENY" || value == "SAMEORIGIN":
		return nil
	case strings.HasPrefix(value, "ALLOW-FROM"):
		return []string{"ALLOW-FROM is deprecated; use CSP frame-ancestors"}
	}
	return []string{"invalid value " + value}
}

func validateContentTypeOptions(value string) []string {
	if strings.EqualFold(strings.TrimSpace(value), "nosniff") {
		return nil
	}
	return []string{"value should be 'nosniff'"}
}
