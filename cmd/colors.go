package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
	colorSevere  = color.New(color.FgRed, color.Bold).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "open":
		return colorSuccess(status)
	case "error", "fail", "failed":
		return colorError(status)
	case "info":
		return colorInfo(status)
	default:
		return status
	}
}

// formatSeverity renders sev in upper case with its console colour.
func formatSeverity(sev finding.Severity) string {
	label := strings.ToUpper(sev.String())
	switch sev {
	case finding.SeverityCritical:
		return colorSevere(label)
	case finding.SeverityHigh:
		return colorError(label)
	case finding.SeverityMedium:
		return colorWarn(label)
	case finding.SeverityLow:
		return colorInfo(label)
	}
	return label
}

// formatScore colours a 0-100 security score by band.
func formatScore(score int) string {
	switch {
	case score >= 80:
		return colorSuccess(score)
	case score >= 50:
		return colorWarn(score)
	}
	return colorError(score)
}
