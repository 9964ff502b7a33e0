package finding

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		severities []Severity
		want       int
	}{
		{"no findings", nil, 100},
		{"one critical one high", []Severity{SeverityCritical, SeverityHigh}, 60},
		{"one of each", []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}, 45},
		{"floored at zero", []Severity{SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical, SeverityLow}, 0},
		{"lows only", []Severity{SeverityLow, SeverityLow}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("https://example.com", "GET")
			for _, sev := range tt.severities {
				s.Report(sev, "kind", "detail", "fix")
			}
			assert.Equal(t, tt.want, Score(s))
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	s := NewSession("https://example.com", "GET")
	prev := Score(s)
	order := []Severity{SeverityLow, SeverityHigh, SeverityMedium, SeverityCritical, SeverityCritical, SeverityHigh, SeverityCritical, SeverityLow}
	for _, sev := range order {
		s.Report(sev, "kind", "detail", "fix")
		got := Score(s)
		assert.LessOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, MaxScore)
		prev = got
	}
}

func TestBySeverityPreservesDiscoveryOrder(t *testing.T) {
	s := NewSession("https://example.com", "GET")
	s.Report(SeverityLow, "low-1", "", "")
	s.Report(SeverityHigh, "high-1", "", "")
	s.Report(SeverityLow, "low-2", "", "")
	s.Report(SeverityCritical, "crit-1", "", "")
	s.Report(SeverityHigh, "high-2", "", "")

	b := BySeverity(s)
	require.Len(t, b.Critical, 1)
	require.Len(t, b.High, 2)
	require.Empty(t, b.Medium)
	require.Len(t, b.Low, 2)
	assert.Equal(t, "high-1", b.High[0].Kind)
	assert.Equal(t, "high-2", b.High[1].Kind)
	assert.Equal(t, "low-1", b.Get(SeverityLow)[0].Kind)
	assert.Equal(t, "low-2", b.Get(SeverityLow)[1].Kind)

	sum := Summarize(s)
	assert.Equal(t, Summary{Critical: 1, High: 2, Low: 2}, sum)
	assert.Equal(t, 5, sum.Total())
}

func TestSessionAccessors(t *testing.T) {
	before := time.Now().UTC()
	s := NewSession("https://example.com/users", "PATCH")

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "https://example.com/users", s.Target())
	assert.Equal(t, "PATCH", s.Method())
	assert.False(t, s.StartedAt().Before(before))
	assert.Equal(t, time.UTC, s.StartedAt().Location())
}

func TestSessionAppendIsNotDeduplicated(t *testing.T) {
	s := NewSession("https://example.com", "GET")
	s.Report(SeverityLow, "Information Disclosure", "Server: nginx", "")
	s.Report(SeverityLow, "Information Disclosure", "Server: nginx", "")
	s.Pass("Security Header", "present")
	s.Info("Allowed Methods", "GET")

	assert.Len(t, s.Findings(), 2)
	assert.Len(t, s.Results(), 2)
	assert.NotEmpty(t, s.ID())
}

func TestSessionConcurrentAppend(t *testing.T) {
	s := NewSession("127.0.0.1", "")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Report(SeverityMedium, "kind", "", "")
			s.Info("name", "")
		}()
	}
	wg.Wait()

	assert.Len(t, s.Findings(), 50)
	assert.Len(t, s.Results(), 50)
}

func TestFindingsReturnsCopy(t *testing.T) {
	s := NewSession("https://example.com", "GET")
	s.Report(SeverityHigh, "original", "", "")

	got := s.Findings()
	got[0].Kind = "mutated"

	assert.Equal(t, "original", s.Findings()[0].Kind)
}

func TestParseSeverity(t *testing.T) {
	for _, sev := range Severities() {
		parsed, err := ParseSeverity(sev.String())
		require.NoError(t, err)
		assert.Equal(t, sev, parsed)
	}

	parsed, err := ParseSeverity("HIGH")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, parsed)

	_, err = ParseSeverity("urgent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sharedErrors.ErrUnknownSeverity))
	assert.True(t, errors.Is(err, sharedErrors.ErrMalformedInput))
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.False(t, Severity(0).AtLeast(SeverityLow))
}

func TestFindingJSONShape(t *testing.T) {
	data, err := json.Marshal(Finding{
		Severity:    SeverityCritical,
		Kind:        "SQL Injection",
		Detail:      "database error leaked",
		Remediation: "use parameterized queries",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"critical","type":"SQL Injection","description":"database error leaked","recommendation":"use parameterized queries"}`, string(data))

	_, err = json.Marshal(Finding{Kind: "no severity"})
	assert.Error(t, err)
}

func TestWorst(t *testing.T) {
	_, ok := Worst(nil)
	assert.False(t, ok)

	worst, ok := Worst([]Finding{{Severity: SeverityLow}, {Severity: SeverityHigh}, {Severity: SeverityMedium}})
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, worst)
}
