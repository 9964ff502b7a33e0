package vuln

import (
	"context"
	"fmt"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
)

// disclosureHeaders reveal server software and versions.
var disclosureHeaders = []string{"Server", "X-Powered-By"}

func (p *Pipeline) transportPhase(ctx context.Context, s *finding.Session, ep Endpoint) {
	if ep.Insecure() {
		s.Report(finding.SeverityHigh, "Insecure Protocol",
			"Endpoint is served over unencrypted HTTP",
			"Serve the endpoint over HTTPS and redirect plain HTTP")
	}

	out := p.sendOne(ctx, probe.HTTPTarget{URL: ep.URL, Method: ep.Method})
	if !out.OK() {
		s.Info("Basic Connectivity", noResponse(out))
		return
	}
	s.Info("Basic Connectivity", fmt.Sprintf("Status %d in %dms", out.StatusCode, out.Duration.Milliseconds()))

	for _, name := range disclosureHeaders {
		if value := out.Header(name); value != "" {
			s.Report(finding.SeverityLow, "Information Disclosure",
				fmt.Sprintf("%s header reveals %q", name, value),
				fmt.Sprintf("Remove or genericize the %s header", name))
		}
	}
}
