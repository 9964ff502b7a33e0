package vuln

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
)

const invalidBearerToken = "invalid_token_12345"

type credential struct {
	User     string
	Password string
}

// defaultCredentials are tried in order until one is accepted.
var defaultCredentials = []credential{
	{"admin", "admin"},
	{"admin", "password"},
	{"root", "root"},
}

func (c credential) header() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User+":"+c.Password))
}

func (p *Pipeline) authPhase(ctx context.Context, s *finding.Session, ep Endpoint) {
	base := probe.HTTPTarget{URL: ep.URL, Method: ep.Method}

	outs := p.send(ctx, []probe.HTTPTarget{
		base,
		base.WithHeader("Authorization", "Bearer "+invalidBearerToken),
	}, nil)
	baseline, token := outs[0], outs[1]

	switch {
	case !baseline.OK():
		s.Info("Authentication", noResponse(baseline))
	case baseline.StatusCode == http.StatusOK:
		s.Report(finding.SeverityHigh, "No Authentication Required",
			"Endpoint returned 200 without any credentials",
			"Require authentication for this endpoint unless it is intentionally public")
	case isAuthRejection(baseline.StatusCode):
		s.Pass("Authentication", fmt.Sprintf("Unauthenticated request rejected with %d", baseline.StatusCode))
	default:
		s.Info("Authentication", fmt.Sprintf("Unauthenticated request returned %d", baseline.StatusCode))
	}

	switch {
	case !token.OK():
		s.Info("Token Validation", noResponse(token))
	case token.StatusCode == http.StatusOK:
		s.Report(finding.SeverityCritical, "Weak Token Validation",
			"Endpoint accepted an invalid bearer token",
			"Validate token signature, issuer and expiry on every request")
	case isAuthRejection(token.StatusCode):
		s.Pass("Token Validation", fmt.Sprintf("Invalid token rejected with %d", token.StatusCode))
	}

	targets := make([]probe.HTTPTarget, len(defaultCredentials))
	for i, cred := range defaultCredentials {
		targets[i] = base.WithHeader("Authorization", cred.header())
	}
	creds := p.send(ctx, targets, statusIs(http.StatusOK))
	responded := 0
	for i, out := range creds {
		if out.OK() {
			responded++
		}
		if out.Status() == http.StatusOK {
			c := defaultCredentials[i]
			s.Report(finding.SeverityCritical, "Default Credentials",
				fmt.Sprintf("Endpoint accepted default credentials %s:%s", c.User, c.Password),
				"Remove default accounts and enforce strong unique passwords")
			return
		}
	}
	if responded == 0 {
		s.Info("Default Credentials", noResponse(creds[0]))
		return
	}
	s.Pass("Default Credentials", fmt.Sprintf("%d default credential pairs rejected", responded))
}

func isAuthRejection(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
