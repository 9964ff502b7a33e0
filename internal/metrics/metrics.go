// Package metrics exposes probe and finding counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
)

const namespace = "seca"

// Collector owns a private registry so tests and concurrent runs never
// collide on the global one.
type Collector struct {
	registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	findings      *prometheus.CounterVec
}

// New builds a Collector. Runtime metrics add the Go and process collectors.
func New(runtimeMetrics bool) *Collector {
	reg := prometheus.NewRegistry()
	if runtimeMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg.MustRegister(collectors.NewGoCollector())
	}

	c := &Collector{
		registry: reg,
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_total",
			Help:      "Probes issued, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe latency, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings recorded, by severity.",
		}, []string{"severity"}),
	}
	reg.MustRegister(c.probes, c.probeDuration, c.findings)
	return c
}

// ObserveProbe records one probe. It satisfies probe.Observer.
func (c *Collector) ObserveProbe(kind, outcome string, d time.Duration) {
	c.probes.WithLabelValues(kind, outcome).Inc()
	c.probeDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveFindings counts every finding by severity.
func (c *Collector) ObserveFindings(findings []finding.Finding) {
	for _, f := range findings {
		c.findings.WithLabelValues(f.Severity.String()).Inc()
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	}
}
