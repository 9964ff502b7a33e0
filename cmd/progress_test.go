package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressPrinterLifecycle(t *testing.T) {
	var out bytes.Buffer
	printer := newProgressPrinter(&out, 0, "ports")
	if printer.total != 1 {
		t.Fatalf("expected total to be clamped to 1, got %d", printer.total)
	}

	printer.Start()
	printer.Update(50, 200)
	printer.Update(200, 200)
	printer.Stop()
	printer.Stop()

	output := out.String()
	if !strings.Contains(output, "[ports] Progress: 200/200 (100.0%)") {
		t.Fatalf("expected final progress line, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Fatalf("expected trailing newline after Stop, got %q", output)
	}
}

func TestProgressPrinterLineNeverExceedsHundredPercent(t *testing.T) {
	printer := newProgressPrinter(&bytes.Buffer{}, 10, "ports")
	printer.Update(12, 0)

	if line := printer.line(); !strings.Contains(line, "12/12 (100.0%)") {
		t.Fatalf("unexpected line %q", line)
	}
}
