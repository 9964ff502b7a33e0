package finding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Finding is an actionable, severity-tagged security observation.
type Finding struct {
	Severity    Severity `json:"severity"`
	Kind        string   `json:"type"`
	Detail      string   `json:"description"`
	Remediation string   `json:"recommendation"`
}

// Result is a non-actionable pass or informational observation.
type Result struct {
	Status Status `json:"status"`
	Name   string `json:"test"`
	Detail string `json:"details"`
}

// Session owns the findings and results of one scan or test run. Entries are
// append-only and kept in discovery order; nothing is deduplicated.
//
// A Session is created per run and must not be shared between runs. Appends
// are serialized so workers of the same run may record concurrently.
type Session struct {
	id        string
	target    string
	method    string
	startedAt time.Time

	mu       sync.Mutex
	findings []Finding
	results  []Result
}

// NewSession starts a session for the given target.
func NewSession(target, method string) *Session {
	return &Session{
		id:        uuid.NewString(),
		target:    target,
		method:    method,
		startedAt: time.Now().UTC(),
	}
}

// ID is a random identifier for the run.
func (s *Session) ID() string { return s.id }

// Target is the URL or host under test.
func (s *Session) Target() string { return s.target }

// Method is the HTTP method under test.
func (s *Session) Method() string { return s.method }

// StartedAt is when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// AddFinding appends f to the session.
func (s *Session) AddFinding(f Finding) {
	s.mu.Lock()
	s.findings = append(s.findings, f)
	s.mu.Unlock()
}

// Report is shorthand for AddFinding.
func (s *Session) Report(sev Severity, kind, detail, remediation string) {
	s.AddFinding(Finding{Severity: sev, Kind: kind, Detail: detail, Remediation: remediation})
}

// AddResult appends r to the session.
func (s *Session) AddResult(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// Pass records a passing check.
func (s *Session) Pass(name, detail string) {
	s.AddResult(Result{Status: StatusPass, Name: name, Detail: detail})
}

// Info records an informational observation.
func (s *Session) Info(name, detail string) {
	s.AddResult(Result{Status: StatusInfo, Name: name, Detail: detail})
}

// Findings returns a copy of the findings in discovery order.
func (s *Session) Findings() []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// Results returns a copy of the results in discovery order.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}
