package vuln

import (
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
)

func (p *Pipeline) rateLimitPhase(ctx context.Context, s *finding.Session, ep Endpoint) {
	count := p.rateProbeCount()
	targets := make([]probe.HTTPTarget, count)
	for i := range targets {
		targets[i] = probe.HTTPTarget{URL: ep.URL, Method: ep.Method}
	}

	// The interval runs from the end of one response to the next request.
	outs := make([]probe.HTTPOutcome, 0, count)
	for i, target := range targets {
		if i > 0 {
			if err := pause(ctx, p.rateProbeInterval()); err != nil {
				break
			}
		}
		out := p.sendOne(ctx, target)
		outs = append(outs, out)
		if out.Status() == http.StatusTooManyRequests {
			break
		}
	}

	succeeded := 0
	for i, out := range outs {
		if out.Status() == http.StatusTooManyRequests {
			s.Pass("Rate Limiting", fmt.Sprintf("Rate limited (429) after %d requests", i+1))
			return
		}
		if out.Status() >= 200 && out.Status() < 300 {
			succeeded++
		}
	}

	if succeeded == count {
		s.Report(finding.SeverityMedium, "No Rate Limiting",
			fmt.Sprintf("%d rapid requests all succeeded without a 429 response", count),
			"Enforce per-client rate limits and return 429 when exceeded")
		return
	}
	s.Info("Rate Limiting", fmt.Sprintf("%d of %d requests succeeded, no 429 observed", succeeded, count))
}
