// Package vuln runs the ordered HTTP vulnerability test phases against one
// endpoint and records what it observes in a finding.Session.
//
// Phases never abort each other. A probe that gets no response only ends
// the sub-check it belongs to; transport failures are never returned as
// errors.
package vuln

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
	"github.com/khanhnv2901/seca-recon/internal/scheduler"
)

// Requester sends one HTTP probe. *probe.HTTPConnector satisfies it.
type Requester interface {
	Do(ctx context.Context, target probe.HTTPTarget) probe.HTTPOutcome
}

const (
	DefaultRateProbeCount        = 15
	DefaultRateProbeInterval     = 100 * time.Millisecond
	DefaultOversizedPayloadBytes = 10 * 1024 * 1024
)

// Pipeline holds the knobs for a test run. It keeps no per-run state, so one
// Pipeline may serve many sessions.
type Pipeline struct {
	Client Requester
	Logger *zap.Logger

	// RateProbeCount and RateProbeInterval shape the rate limiting burst.
	RateProbeCount    int
	RateProbeInterval time.Duration
	// OversizedPayloadBytes is the body size used to probe request limits.
	OversizedPayloadBytes int
}

// NewPipeline returns a Pipeline with default phase settings.
func NewPipeline(client Requester, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		Client:                client,
		Logger:                logger,
		RateProbeCount:        DefaultRateProbeCount,
		RateProbeInterval:     DefaultRateProbeInterval,
		OversizedPayloadBytes: DefaultOversizedPayloadBytes,
	}
}

type phase struct {
	name string
	run  func(p *Pipeline, ctx context.Context, s *finding.Session, ep Endpoint)
}

// phases run in this order on every endpoint.
var phases = []phase{
	{"transport", (*Pipeline).transportPhase},
	{"security_headers", (*Pipeline).headersPhase},
	{"authentication", (*Pipeline).authPhase},
	{"rate_limiting", (*Pipeline).rateLimitPhase},
	{"input_validation", (*Pipeline).inputPhase},
	{"http_methods", (*Pipeline).methodsPhase},
}

// PhaseNames lists the phases in execution order.
func PhaseNames() []string {
	names := make([]string, len(phases))
	for i, ph := range phases {
		names[i] = ph.name
	}
	return names
}

// TestEndpoint validates rawURL and method, then runs every phase against a
// new session. Only malformed input produces an error.
func (p *Pipeline) TestEndpoint(ctx context.Context, rawURL, method string) (*finding.Session, error) {
	ep, err := ParseEndpoint(rawURL, method)
	if err != nil {
		return nil, err
	}
	session := finding.NewSession(ep.URL, ep.Method)
	if err := p.Run(ctx, session, ep); err != nil {
		return nil, err
	}
	return session, nil
}

// Run executes the phases in order, writing into session.
func (p *Pipeline) Run(ctx context.Context, session *finding.Session, ep Endpoint) error {
	if ep.parsed == nil {
		parsed, err := ParseEndpoint(ep.URL, ep.Method)
		if err != nil {
			return err
		}
		ep = parsed
	}

	logger := p.logger().With(zap.String("url", ep.URL), zap.String("method", ep.Method))
	start := time.Now()
	for _, ph := range phases {
		p.runPhase(ctx, logger, ph, session, ep)
	}
	logger.Info("endpoint test finished",
		zap.String("session", session.ID()),
		zap.Int("findings", len(session.Findings())),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (p *Pipeline) runPhase(ctx context.Context, logger *zap.Logger, ph phase, session *finding.Session, ep Endpoint) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("phase panicked", zap.String("phase", ph.name), zap.Any("panic", r))
			session.Info(ph.name, fmt.Sprintf("phase aborted: %v", r))
		}
	}()
	logger.Debug("phase started", zap.String("phase", ph.name))
	ph.run(p, ctx, session, ep)
}

// send issues targets one at a time. When stopWhen matches an outcome, the
// remaining targets are not sent and come back as skipped outcomes.
func (p *Pipeline) send(ctx context.Context, targets []probe.HTTPTarget, stopWhen func(probe.HTTPOutcome) bool) []probe.HTTPOutcome {
	return scheduler.RunAll(ctx, targets, p.Client.Do, scheduler.Options[probe.HTTPTarget, probe.HTTPOutcome]{
		MaxConcurrency: 1,
		StopWhen:       stopWhen,
		Skipped:        probe.SkippedHTTP,
	})
}

func (p *Pipeline) sendOne(ctx context.Context, target probe.HTTPTarget) probe.HTTPOutcome {
	return p.send(ctx, []probe.HTTPTarget{target}, nil)[0]
}

// pause waits d or until ctx is done, whichever comes first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) rateProbeCount() int {
	if p.RateProbeCount <= 0 {
		return DefaultRateProbeCount
	}
	return p.RateProbeCount
}

func (p *Pipeline) rateProbeInterval() time.Duration {
	if p.RateProbeInterval <= 0 {
		return DefaultRateProbeInterval
	}
	return p.RateProbeInterval
}

func (p *Pipeline) oversizedPayloadBytes() int {
	if p.OversizedPayloadBytes <= 0 {
		return DefaultOversizedPayloadBytes
	}
	return p.OversizedPayloadBytes
}

func statusIs(codes ...int) func(probe.HTTPOutcome) bool {
	return func(o probe.HTTPOutcome) bool {
		for _, c := range codes {
			if o.Status() == c {
				return true
			}
		}
		return false
	}
}

func noResponse(o probe.HTTPOutcome) string {
	return "no response: " + o.Err
}
