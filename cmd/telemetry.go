package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

type telemetryRecord struct {
	Timestamp       time.Time        `json:"timestamp"`
	Command         string           `json:"command"`
	Target          string           `json:"target"`
	SessionID       string           `json:"session_id,omitempty"`
	OpenPorts       int              `json:"open_ports,omitempty"`
	PortsScanned    int              `json:"ports_scanned,omitempty"`
	Score           *int             `json:"score,omitempty"`
	Findings        *finding.Summary `json:"findings,omitempty"`
	Canceled        bool             `json:"canceled,omitempty"`
	DurationSeconds float64          `json:"duration_seconds"`
}

func scanTelemetry(r *portscan.Report) telemetryRecord {
	return telemetryRecord{
		Command:         "scan ports",
		Target:          r.Host,
		OpenPorts:       len(r.OpenPorts),
		PortsScanned:    r.TotalScanned,
		Canceled:        r.Canceled,
		DurationSeconds: r.Duration.Seconds(),
	}
}

func sessionTelemetry(command string, s *finding.Session, duration time.Duration) telemetryRecord {
	score := finding.Score(s)
	summary := finding.Summarize(s)
	return telemetryRecord{
		Command:         command,
		Target:          s.Target(),
		SessionID:       s.ID(),
		Score:           &score,
		Findings:        &summary,
		DurationSeconds: duration.Seconds(),
	}
}

// recordTelemetry appends rec to <resultsDir>/telemetry.jsonl.
func recordTelemetry(resultsDir string, rec telemetryRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	telemetryPath := filepath.Join(resultsDir, "telemetry.jsonl")
	f, err := os.OpenFile(telemetryPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}
	return nil
}
