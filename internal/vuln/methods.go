package vuln

import (
	"context"
	"net/http"
	"strings"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
)

var probedMethods = []string{
	http.MethodOptions,
	http.MethodHead,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodTrace,
}

// methodRejected treats 405, 501 and no response as the method being refused.
func methodRejected(o probe.HTTPOutcome) bool {
	if !o.OK() {
		return true
	}
	return o.StatusCode == http.StatusMethodNotAllowed || o.StatusCode == http.StatusNotImplemented
}

func (p *Pipeline) methodsPhase(ctx context.Context, s *finding.Session, ep Endpoint) {
	targets := make([]probe.HTTPTarget, len(probedMethods))
	for i, m := range probedMethods {
		targets[i] = probe.HTTPTarget{URL: ep.URL, Method: m}
	}
	outs := p.send(ctx, targets, nil)

	var allowed []string
	for i, out := range outs {
		if methodRejected(out) {
			continue
		}
		method := probedMethods[i]
		allowed = append(allowed, method)
		if method == http.MethodTrace {
			s.Report(finding.SeverityLow, "TRACE Method Enabled",
				"TRACE requests are accepted and may enable cross-site tracing",
				"Disable the TRACE method on the web server")
		}
	}

	if len(allowed) == 0 {
		s.Info("Allowed Methods", "none of "+strings.Join(probedMethods, ", "))
		return
	}
	s.Info("Allowed Methods", strings.Join(allowed, ", "))
}
