package cmd

import (
	"errors"
	"fmt"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
)

// ThresholdExceededError reports findings at or above the --fail-on severity.
type ThresholdExceededError struct {
	Threshold finding.Severity
	Count     int
}

func (e *ThresholdExceededError) Error() string {
	return fmt.Sprintf("%d finding(s) at or above %s severity", e.Count, e.Threshold)
}

// InvalidFlagError signals a flag value that failed validation.
type InvalidFlagError struct {
	Flag   string
	Value  string
	Reason string
}

func (e *InvalidFlagError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid value %q for --%s", e.Value, e.Flag)
	}
	return fmt.Sprintf("invalid value %q for --%s: %s", e.Value, e.Flag, e.Reason)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var threshold *ThresholdExceededError
	if errors.As(err, &threshold) {
		return 2
	}
	return 1
}
