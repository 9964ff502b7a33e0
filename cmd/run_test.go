package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/report"
)

func TestOutputOptionsResolve(t *testing.T) {
	tests := []struct {
		name       string
		opts       outputOptions
		wantName   string
		wantFormat report.Format
		wantErr    bool
	}{
		{name: "format only", opts: outputOptions{Format: "pdf"}, wantName: "default.pdf", wantFormat: report.FormatPDF},
		{name: "extension decides", opts: outputOptions{Output: "scan.md"}, wantName: "scan.md", wantFormat: report.FormatMarkdown},
		{name: "explicit format wins", opts: outputOptions{Output: "scan.out", Format: "text"}, wantName: "scan.out", wantFormat: report.FormatText},
		{name: "no extension falls back to json", opts: outputOptions{Output: "scan"}, wantName: "scan.json", wantFormat: report.FormatJSON},
		{name: "unknown format", opts: outputOptions{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, format, err := tt.opts.resolve("default")
			if tt.wantErr {
				var flagErr *InvalidFlagError
				if !errors.As(err, &flagErr) {
					t.Fatalf("expected InvalidFlagError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve returned error: %v", err)
			}
			if name != tt.wantName || format != tt.wantFormat {
				t.Fatalf("resolve() = %q, %q; want %q, %q", name, format, tt.wantName, tt.wantFormat)
			}
		})
	}
}

func TestReportName(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := reportName("endpoint", "https://api.example.com:8443/users?id=1", now)
	want := "endpoint-https_api.example.com_8443_users_id_1-20250314T092653"
	if got != want {
		t.Fatalf("reportName() = %q, want %q", got, want)
	}
	if got := reportName("ports", "", now); !strings.Contains(got, "-target-") {
		t.Fatalf("expected placeholder slug, got %q", got)
	}
}

func TestCheckThreshold(t *testing.T) {
	findings := []finding.Finding{
		{Severity: finding.SeverityMedium},
		{Severity: finding.SeverityLow},
	}

	if err := checkThreshold("", findings); err != nil {
		t.Fatalf("no threshold should never fail: %v", err)
	}
	if err := checkThreshold("high", findings); err != nil {
		t.Fatalf("nothing at or above high: %v", err)
	}

	var threshold *ThresholdExceededError
	if err := checkThreshold("medium", findings); !errors.As(err, &threshold) || threshold.Count != 1 {
		t.Fatalf("expected one finding at medium, got %v", err)
	}
	if err := checkThreshold("LOW", findings); !errors.As(err, &threshold) || threshold.Count != 2 {
		t.Fatalf("expected two findings at low, got %v", err)
	}

	var flagErr *InvalidFlagError
	if err := checkThreshold("severe", findings); !errors.As(err, &flagErr) {
		t.Fatalf("expected InvalidFlagError, got %v", err)
	}
}

func TestRunWithMetrics(t *testing.T) {
	errWork := errors.New("work failed")

	called := false
	if err := runWithMetrics(context.Background(), "", func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("expected direct call without metrics, err=%v called=%v", err, called)
	}

	err := runWithMetrics(context.Background(), "127.0.0.1:0", func(context.Context) error {
		return errWork
	})
	if !errors.Is(err, errWork) {
		t.Fatalf("expected work error, got %v", err)
	}

	if err := runWithMetrics(context.Background(), "127.0.0.1:0", func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}); err != nil {
		t.Fatalf("metrics server should stop cleanly, got %v", err)
	}
}
