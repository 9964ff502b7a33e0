// Package portscan drives TCP connect probes over a contiguous port range.
package portscan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-recon/internal/probe"
	"github.com/khanhnv2901/seca-recon/internal/scheduler"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Prober performs one TCP probe.
type Prober interface {
	Probe(ctx context.Context, target probe.TCPTarget) probe.PortOutcome
}

// OpenPort is a port confirmed open.
type OpenPort struct {
	Port      uint16 `json:"port"`
	Service   string `json:"service"`
	Sensitive bool   `json:"sensitive,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Stats counts outcomes by state.
type Stats struct {
	Open    int `json:"open"`
	Closed  int `json:"closed"`
	Timeout int `json:"timeout"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"`
}

// Report is the result of a Scan. Ports that are closed, filtered or
// unreachable are absent from OpenPorts.
type Report struct {
	Host         string        `json:"host"`
	StartPort    uint16        `json:"start_port"`
	EndPort      uint16        `json:"end_port"`
	OpenPorts    []OpenPort    `json:"open_ports"`
	TotalScanned int           `json:"total_scanned"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"duration_ms"`
	Stats        Stats         `json:"stats"`
	Canceled     bool          `json:"canceled,omitempty"`
}

// SensitivePorts returns the open ports that carry a security note.
func (r *Report) SensitivePorts() []OpenPort {
	var out []OpenPort
	for _, p := range r.OpenPorts {
		if p.Sensitive {
			out = append(out, p)
		}
	}
	return out
}

// Scanner scans one host over a port range.
type Scanner struct {
	Prober Prober
	// Concurrency is the in-flight probe ceiling, default 100.
	Concurrency int
	// ProgressEvery is the number of completions between Progress calls.
	ProgressEvery int
	Progress      func(completed, total int)
	// Limiter optionally caps probe starts per second.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// Scan probes every port in [startPort, endPort] on host. It only fails on
// malformed input; unreachable hosts produce an empty report.
func (s *Scanner) Scan(ctx context.Context, host string, startPort, endPort uint16) (*Report, error) {
	if host == "" {
		return nil, sharedErrors.ErrEmptyHost
	}
	if startPort == 0 || startPort > endPort {
		return nil, fmt.Errorf("%w: %d-%d", sharedErrors.ErrInvalidPortRange, startPort, endPort)
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultPortConcurrency
	}
	prober := s.Prober
	if prober == nil {
		prober = &probe.TCPConnector{}
	}

	targets := make([]probe.TCPTarget, 0, int(endPort)-int(startPort)+1)
	for port := int(startPort); port <= int(endPort); port++ {
		targets = append(targets, probe.TCPTarget{Host: host, Port: uint16(port)})
	}

	logger.Debug("port scan started",
		zap.String("host", host),
		zap.Uint16("start", startPort),
		zap.Uint16("end", endPort),
		zap.Int("concurrency", concurrency))

	var open openPortCollector
	start := time.Now()

	outcomes := scheduler.RunAll(ctx, targets, func(ctx context.Context, t probe.TCPTarget) probe.PortOutcome {
		out := prober.Probe(ctx, t)
		if out.State == probe.PortOpen {
			open.add(t.Port)
		}
		return out
	}, scheduler.Options[probe.TCPTarget, probe.PortOutcome]{
		MaxConcurrency: concurrency,
		ProgressEvery:  s.ProgressEvery,
		Progress:       s.Progress,
		Limiter:        s.Limiter,
		Skipped:        probe.SkippedPort,
	})

	report := &Report{
		Host:         host,
		StartPort:    startPort,
		EndPort:      endPort,
		OpenPorts:    open.sorted(),
		TotalScanned: len(outcomes),
		Duration:     time.Since(start),
		Stats:        tally(outcomes),
		Canceled:     ctx.Err() != nil,
	}
	report.DurationMs = report.Duration.Milliseconds()

	logger.Info("port scan finished",
		zap.String("host", host),
		zap.Int("open", len(report.OpenPorts)),
		zap.Int("scanned", report.TotalScanned),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// openPortCollector is the single append point shared by scan workers.
type openPortCollector struct {
	mu    sync.Mutex
	ports []OpenPort
}

func (c *openPortCollector) add(port uint16) {
	entry := OpenPort{Port: port, Service: ServiceName(port)}
	if note, ok := SecurityNote(port); ok {
		entry.Sensitive = true
		entry.Note = note
	}
	c.mu.Lock()
	c.ports = append(c.ports, entry)
	c.mu.Unlock()
}

func (c *openPortCollector) sorted() []OpenPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]OpenPort, len(c.ports))
	copy(out, c.ports)
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}

func tally(outcomes []probe.PortOutcome) Stats {
	var st Stats
	for _, o := range outcomes {
		if o.Skipped {
			st.Skipped++
			continue
		}
		switch o.State {
		case probe.PortOpen:
			st.Open++
		case probe.PortClosed:
			st.Closed++
		case probe.PortTimeout:
			st.Timeout++
		default:
			st.Errors++
		}
	}
	return st
}
