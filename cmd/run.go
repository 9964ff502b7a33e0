package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/report"
)

// signalContext returns a context canceled on SIGINT or SIGTERM. Work in
// flight finishes with partial results rather than aborting the process.
func signalContext(out io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\n%s Received %s, finalizing partial results...\n", colorWarn("!"), sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// runWithMetrics runs work and, when addr is set, serves the metrics
// endpoint alongside it until work returns.
func runWithMetrics(ctx context.Context, addr string, work func(context.Context) error) error {
	if addr == "" {
		return work(ctx)
	}

	serveCtx, stopServing := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		logger.Infow("serving metrics", "addr", addr)
		return collector.Serve(gctx, addr)
	})
	g.Go(func() error {
		defer stopServing()
		return work(ctx)
	})
	return g.Wait()
}

// outputOptions are the --output/--format flags shared by report-producing
// commands.
type outputOptions struct {
	Output string
	Format string
}

// resolve picks the report format and file name. An explicit --format wins;
// otherwise the output extension decides, falling back to JSON.
func (o outputOptions) resolve(defaultName string) (string, report.Format, error) {
	formatName := o.Format
	if formatName == "" {
		if ext := strings.TrimPrefix(filepath.Ext(o.Output), "."); ext != "" {
			formatName = ext
		} else {
			formatName = string(report.FormatJSON)
		}
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return "", "", &InvalidFlagError{Flag: "format", Value: formatName, Reason: err.Error()}
	}

	name := o.Output
	if name == "" {
		name = defaultName
	}
	if filepath.Ext(name) == "" {
		name += format.Extension()
	}
	return name, format, nil
}

// enabled reports whether the user asked for a saved report.
func (o outputOptions) enabled() bool {
	return o.Output != "" || o.Format != ""
}

// save writes doc under the results directory and prints where it went.
func (o outputOptions) save(out io.Writer, defaultName string, doc any) error {
	if !o.enabled() {
		return nil
	}
	name, format, err := o.resolve(defaultName)
	if err != nil {
		return err
	}
	path, err := report.Sink{BaseDir: cliConfig.ResultsDir}.Save(name, format, doc)
	if err != nil {
		return err
	}
	logger.Infow("report saved", "path", path, "format", string(format))
	fmt.Fprintf(out, "%s Report saved to %s\n", colorSuccess("✓"), path)
	return nil
}

// reportName builds a default file name such as "ports-10.0.0.5-20250314T092653".
func reportName(kind, target string, now time.Time) string {
	replacer := strings.NewReplacer("://", "_", "/", "_", ":", "_", "?", "_", "&", "_", "=", "_")
	slug := strings.Trim(replacer.Replace(target), "_")
	if slug == "" {
		slug = "target"
	}
	return fmt.Sprintf("%s-%s-%s", kind, slug, now.UTC().Format("20060102T150405"))
}

// checkThreshold fails when any finding is at or above the --fail-on level.
func checkThreshold(failOn string, findings []finding.Finding) error {
	if failOn == "" {
		return nil
	}
	threshold, err := finding.ParseSeverity(failOn)
	if err != nil {
		return &InvalidFlagError{Flag: "fail-on", Value: failOn, Reason: err.Error()}
	}
	count := 0
	for _, f := range findings {
		if f.Severity.AtLeast(threshold) {
			count++
		}
	}
	if count > 0 {
		return &ThresholdExceededError{Threshold: threshold, Count: count}
	}
	return nil
}
