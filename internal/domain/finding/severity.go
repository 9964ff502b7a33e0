package finding

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Severity ranks an actionable finding. The zero value is invalid.
type Severity int

const (
	SeverityCritical Severity = iota + 1
	SeverityHigh
	SeverityMedium
	SeverityLow
)

// Severities lists every severity from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// ParseSeverity accepts the lowercase or uppercase severity name.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	}
	return 0, fmt.Errorf("%w: %q", sharedErrors.ErrUnknownSeverity, s)
}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Valid reports whether s is one of the four defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityCritical && s <= SeverityLow
}

// Weight is the number of points a finding of this severity deducts from
// the security score.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 25
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	}
	return 0
}

// AtLeast reports whether s is as severe as, or more severe than, other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Valid() && s <= other
}

// MarshalText encodes the severity as its lowercase name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", sharedErrors.ErrUnknownSeverity, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Status tags a non-actionable Result.
type Status string

const (
	StatusPass Status = "pass"
	StatusInfo Status = "info"
)
