// Package report turns sessions and port scans into exportable documents
// and writes them in JSON, Markdown, text or PDF form.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Format selects a renderer.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts the format names and a few common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", sharedErrors.ErrUnsupportedFormat, s)
}

// Extension is the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Document is the exported view of one endpoint test.
type Document struct {
	Timestamp       time.Time         `json:"timestamp"`
	SessionID       string            `json:"sessionId"`
	Target          string            `json:"target"`
	Method          string            `json:"method"`
	Score           int               `json:"score"`
	Vulnerabilities []finding.Finding `json:"vulnerabilities"`
	TestResults     []finding.Result  `json:"testResults"`
	Summary         finding.Summary   `json:"summary"`
}

// FromSession snapshots s. Findings are ordered by severity, keeping
// discovery order within each severity.
func FromSession(s *finding.Session, now time.Time) Document {
	buckets := finding.BySeverity(s)
	vulns := make([]finding.Finding, 0, len(s.Findings()))
	for _, sev := range finding.Severities() {
		vulns = append(vulns, buckets.Get(sev)...)
	}
	results := s.Results()
	if results == nil {
		results = []finding.Result{}
	}
	return Document{
		Timestamp:       now.UTC(),
		SessionID:       s.ID(),
		Target:          s.Target(),
		Method:          s.Method(),
		Score:           finding.Score(s),
		Vulnerabilities: vulns,
		TestResults:     results,
		Summary:         finding.Summarize(s),
	}
}

// PortDocument is the exported view of a port scan.
type PortDocument struct {
	Timestamp time.Time `json:"timestamp"`
	*portscan.Report
}

// FromPortScan wraps r for export.
func FromPortScan(r *portscan.Report, now time.Time) PortDocument {
	return PortDocument{Timestamp: now.UTC(), Report: r}
}

// FailedEndpoint is a collection entry that could not be tested.
type FailedEndpoint struct {
	URL    string `json:"url"`
	Method string `json:"method"`
	Error  string `json:"error"`
}

// CollectionDocument groups the documents of one collection run.
type CollectionDocument struct {
	Timestamp time.Time        `json:"timestamp"`
	Name      string           `json:"name"`
	Reports   []Document       `json:"reports"`
	Failed    []FailedEndpoint `json:"failed,omitempty"`
	Summary   finding.Summary  `json:"summary"`
}

// AddReport appends d and folds its counts into the collection summary.
func (c *CollectionDocument) AddReport(d Document) {
	c.Reports = append(c.Reports, d)
	c.Summary.Critical += d.Summary.Critical
	c.Summary.High += d.Summary.High
	c.Summary.Medium += d.Summary.Medium
	c.Summary.Low += d.Summary.Low
}

// AddFailure records an endpoint that was rejected before testing.
func (c *CollectionDocument) AddFailure(url, method string, err error) {
	c.Failed = append(c.Failed, FailedEndpoint{URL: url, Method: method, Error: err.Error()})
}
