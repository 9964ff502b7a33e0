package vuln

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
)

// injectionParam carries payloads on GET endpoints.
const injectionParam = "test"

// jsonProbe is a fixed request body sent to write endpoints.
type jsonProbe struct {
	Name string
	Body string
}

const malformedJSONProbe = "malformed"

var jsonProbes = []jsonProbe{
	{malformedJSONProbe, `{"invalid": json}`},
	{"sql_field", `{"username": "admin' OR '1'='1", "password": "x"}`},
	{"prototype_pollution", `{"__proto__": {"isAdmin": true}, "constructor": {"prototype": {"isAdmin": true}}}`},
}

func (p *Pipeline) inputPhase(ctx context.Context, s *finding.Session, ep Endpoint) {
	switch ep.Method {
	case http.MethodGet:
		p.queryInjection(ctx, s, ep)
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		p.bodyInjection(ctx, s, ep)
		p.oversizedPayload(ctx, s, ep)
	default:
		s.Info("Input Validation", fmt.Sprintf("skipped for %s", ep.Method))
	}
}

// subCheck sends payloads through the query parameter and stops at the first
// response that detect flags.
type subCheck struct {
	name        string
	corpus      []string
	detect      func(payload string, body []byte) (string, bool)
	severity    finding.Severity
	kind        string
	remediation string
}

var querySubChecks = []subCheck{
	{
		name:   "XSS",
		corpus: XSSPayloads,
		detect: func(payload string, body []byte) (string, bool) {
			return payload, bytes.Contains(body, []byte(payload))
		},
		severity:    finding.SeverityHigh,
		kind:        "XSS Vulnerability",
		remediation: "Encode output for its HTML context and validate input",
	},
	{
		name:   "SQL Injection",
		corpus: SQLPayloads,
		detect: func(_ string, body []byte) (string, bool) {
			return sqlErrorIn(body)
		},
		severity:    finding.SeverityCritical,
		kind:        "SQL Injection",
		remediation: "Use parameterized queries and hide database errors from responses",
	},
	{
		name:   "Path Traversal",
		corpus: TraversalPayloads,
		detect: func(_ string, body []byte) (string, bool) {
			return traversalMarkerIn(body)
		},
		severity:    finding.SeverityCritical,
		kind:        "Path Traversal",
		remediation: "Resolve file paths against an allow-list and reject '..' segments",
	},
}

func (p *Pipeline) queryInjection(ctx context.Context, s *finding.Session, ep Endpoint) {
	for _, check := range querySubChecks {
		payloads := firstN(check.corpus, payloadsPerCorpus)
		targets := make([]probe.HTTPTarget, len(payloads))
		payloadFor := make(map[string]string, len(payloads))
		for i, payload := range payloads {
			targets[i] = probe.HTTPTarget{URL: ep.withQuery(injectionParam, payload), Method: http.MethodGet}
			payloadFor[targets[i].URL] = payload
		}

		detected := func(o probe.HTTPOutcome) (string, bool) {
			if !o.OK() {
				return "", false
			}
			return check.detect(payloadFor[o.Target.URL], o.Body)
		}
		outs := p.send(ctx, targets, func(o probe.HTTPOutcome) bool {
			_, hit := detected(o)
			return hit
		})

		found, responded := false, 0
		for i, out := range outs {
			if out.OK() {
				responded++
			}
			if evidence, hit := detected(out); hit {
				s.Report(check.severity, check.kind,
					fmt.Sprintf("Payload %q in parameter %q produced %q in the response", payloads[i], injectionParam, evidence),
					check.remediation)
				found = true
				break
			}
		}
		if found {
			continue
		}
		if responded == 0 {
			s.Info(check.name, noResponse(outs[0]))
			continue
		}
		s.Pass(check.name, fmt.Sprintf("%d payloads showed no sign of %s", responded, check.name))
	}
}

func (p *Pipeline) bodyInjection(ctx context.Context, s *finding.Session, ep Endpoint) {
	targets := make([]probe.HTTPTarget, len(jsonProbes))
	for i, jp := range jsonProbes {
		targets[i] = probe.HTTPTarget{
			URL:     ep.URL,
			Method:  ep.Method,
			Body:    []byte(jp.Body),
			Headers: map[string]string{"Content-Type": "application/json"},
		}
	}
	outs := p.send(ctx, targets, nil)

	sqlReported := false
	for i, out := range outs {
		jp := jsonProbes[i]
		if !out.OK() {
			s.Info("Input Validation", fmt.Sprintf("%s probe: %s", jp.Name, noResponse(out)))
			continue
		}
		if jp.Name == malformedJSONProbe {
			if out.StatusCode == http.StatusInternalServerError {
				s.Report(finding.SeverityMedium, "Poor Error Handling",
					"Malformed JSON body caused a 500 Internal Server Error",
					"Validate request bodies and return 400 for malformed input")
			} else if out.StatusCode >= 400 && out.StatusCode < 500 {
				s.Pass("Malformed JSON Handling", fmt.Sprintf("Rejected with %d", out.StatusCode))
			}
		}
		if evidence, hit := sqlErrorIn(out.Body); hit && !sqlReported {
			s.Report(finding.SeverityCritical, "SQL Injection",
				fmt.Sprintf("%s body produced database error %q", jp.Name, evidence),
				"Use parameterized queries and hide database errors from responses")
			sqlReported = true
		}
	}
}

func (p *Pipeline) oversizedPayload(ctx context.Context, s *finding.Session, ep Endpoint) {
	size := p.oversizedPayloadBytes()
	body := make([]byte, 0, size+16)
	body = append(body, `{"data":"`...)
	body = append(body, bytes.Repeat([]byte("A"), size)...)
	body = append(body, `"}`...)

	out := p.sendOne(ctx, probe.HTTPTarget{
		URL:     ep.URL,
		Method:  ep.Method,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/json"},
	})
	switch {
	case !out.OK():
		s.Info("Payload Size Limit", noResponse(out))
	case out.StatusCode == http.StatusOK || out.StatusCode == http.StatusCreated:
		s.Report(finding.SeverityLow, "No Payload Size Limit",
			fmt.Sprintf("A %d byte body was accepted with %d", len(body), out.StatusCode),
			"Cap request body size and return 413 when exceeded")
	case out.StatusCode == http.StatusRequestEntityTooLarge:
		s.Pass("Payload Size Limit", "Oversized body rejected with 413")
	default:
		s.Info("Payload Size Limit", fmt.Sprintf("Oversized body returned %d", out.StatusCode))
	}
}
