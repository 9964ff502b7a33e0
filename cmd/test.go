package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
	"github.com/khanhnv2901/seca-recon/internal/probe"
	"github.com/khanhnv2901/seca-recon/internal/report"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
	"github.com/khanhnv2901/seca-recon/internal/vuln"
)

var (
	testMethod  string
	testFailOn  string
	testDelayMs int
	testOutput  outputOptions
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "API endpoint security testing",
}

var testEndpointCmd = &cobra.Command{
	Use:   "endpoint <url>",
	Short: "Run the security test battery against one endpoint",
	Long: `Run the transport, security header, authentication, rate limiting, input
validation and HTTP method checks against a single endpoint, then print the
findings and a 0-100 security score.

The checks send attack payloads and bursts of requests. Only test endpoints
you are authorized to test.`,
	Example: `  seca-recon test endpoint https://api.example.com/users
  seca-recon test endpoint https://api.example.com/users --method POST --fail-on high
  seca-recon test endpoint https://api.example.com/users --output users.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx, cancel := signalContext(out)
		defer cancel()

		return runWithMetrics(ctx, cliConfig.MetricsAddr, func(ctx context.Context) error {
			pipeline := newPipeline()
			fmt.Fprintf(out, "Testing %s %s\n", colorBold(strings.ToUpper(testMethod)), args[0])

			start := time.Now()
			session, err := pipeline.TestEndpoint(ctx, args[0], testMethod)
			if err != nil {
				return err
			}
			collector.ObserveFindings(session.Findings())
			printSession(out, session)
			if ctx.Err() != nil {
				fmt.Fprintf(out, "%s Test interrupted; results are partial\n", colorWarn("!"))
			}

			if cliConfig.TelemetryEnabled {
				if err := recordTelemetry(cliConfig.ResultsDir, sessionTelemetry("test endpoint", session, time.Since(start))); err != nil {
					logger.Warnw("telemetry not recorded", "error", err)
				}
			}

			now := time.Now()
			if err := testOutput.save(out, reportName("endpoint", session.Target(), now), report.FromSession(session, now)); err != nil {
				return err
			}
			return checkThreshold(testFailOn, session.Findings())
		})
	},
}

var testCollectionCmd = &cobra.Command{
	Use:   "collection <file>",
	Short: "Test every endpoint listed in a collection file",
	Long: `Test each endpoint of a JSON or YAML collection file in order, pausing
between endpoints. A malformed entry is reported and skipped; the remaining
endpoints are still tested.

Collection format:
  {"name": "users-api", "endpoints": [{"url": "https://api.example.com/users", "method": "GET"}]}`,
	Example: `  seca-recon test collection api.json
  seca-recon test collection api.yaml --delay-ms 2000 --output api.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		collection, err := vuln.LoadCollection(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(out)
		defer cancel()

		return runWithMetrics(ctx, cliConfig.MetricsAddr, func(ctx context.Context) error {
			pipeline := newPipeline()
			now := time.Now()
			doc := report.CollectionDocument{Timestamp: now.UTC(), Name: collection.Name}
			var all []finding.Finding

			fmt.Fprintf(out, "Testing collection %s (%d endpoints)\n", colorBold(collection.Name), len(collection.Endpoints))
			runs := pipeline.RunCollection(ctx, collection, millis(testDelayMs), func(run vuln.EndpointRun) {
				fmt.Fprintf(out, "\n%s %s %s\n", colorInfo("▶"), strings.ToUpper(run.Endpoint.Method), run.Endpoint.URL)
				if run.Err != nil {
					fmt.Fprintf(out, "  %s %v\n", colorError("skipped:"), run.Err)
					doc.AddFailure(run.Endpoint.URL, run.Endpoint.Method, run.Err)
					return
				}
				collector.ObserveFindings(run.Session.Findings())
				all = append(all, run.Session.Findings()...)
				doc.AddReport(report.FromSession(run.Session, time.Now()))
				printSession(out, run.Session)

				if cliConfig.TelemetryEnabled {
					if err := recordTelemetry(cliConfig.ResultsDir, sessionTelemetry("test collection", run.Session, time.Since(run.Session.StartedAt()))); err != nil {
						logger.Warnw("telemetry not recorded", "error", err)
					}
				}
			})

			fmt.Fprintf(out, "\nCollection %s: %d/%d endpoints tested, %d rejected\n",
				collection.Name, len(doc.Reports), len(collection.Endpoints), len(doc.Failed))
			printSummary(out, doc.Summary)
			if len(runs) < len(collection.Endpoints) {
				fmt.Fprintf(out, "%s Collection interrupted; %d endpoint(s) not tested\n", colorWarn("!"), len(collection.Endpoints)-len(runs))
			}

			if err := testOutput.save(out, reportName("collection", collection.Name, now), doc); err != nil {
				return err
			}
			return checkThreshold(testFailOn, all)
		})
	},
}

func newPipeline() *vuln.Pipeline {
	client := &probe.HTTPConnector{
		Timeout:   millis(cliConfig.HTTP.TimeoutMs),
		UserAgent: cliConfig.HTTP.UserAgent,
		Observer:  collector,
	}
	return vuln.NewPipeline(client, logger.Desugar())
}

func printSession(out io.Writer, s *finding.Session) {
	buckets := finding.BySeverity(s)
	findings := s.Findings()

	if len(findings) == 0 {
		fmt.Fprintf(out, "  %s No vulnerabilities found\n", colorSuccess("✓"))
	}
	for _, sev := range finding.Severities() {
		for _, f := range buckets.Get(sev) {
			fmt.Fprintf(out, "  [%s] %s: %s\n", formatSeverity(f.Severity), f.Kind, f.Detail)
			if f.Remediation != "" {
				fmt.Fprintf(out, "      → %s\n", f.Remediation)
			}
		}
	}

	results := s.Results()
	if len(results) > 0 {
		fmt.Fprintln(out, "\n  Test results:")
	}
	for _, r := range results {
		fmt.Fprintf(out, "    %-6s %s: %s\n", formatStatusWithColor(string(r.Status)), r.Name, r.Detail)
	}

	fmt.Fprintf(out, "\n  Security score: %s/100\n", formatScore(finding.Score(s)))
	printSummary(out, finding.Summarize(s))
}

func printSummary(out io.Writer, sum finding.Summary) {
	fmt.Fprintf(out, "  Critical: %d  High: %d  Medium: %d  Low: %d\n", sum.Critical, sum.High, sum.Medium, sum.Low)
}

func init() {
	persistent := testCmd.PersistentFlags()
	persistent.IntVar(&cliConfig.HTTP.TimeoutMs, "http-timeout-ms", cliConfig.HTTP.TimeoutMs, "per-request timeout in milliseconds")
	persistent.StringVar(&testFailOn, "fail-on", "", "exit with status 2 when a finding is at or above this severity (critical, high, medium, low)")
	persistent.StringVar(&testOutput.Output, "output", "", "save the report under results_dir with this file name")
	persistent.StringVar(&testOutput.Format, "format", "", "report format: json, md, txt or pdf")

	testEndpointCmd.Flags().StringVarP(&testMethod, "method", "X", "GET", "HTTP method the endpoint expects")
	testCollectionCmd.Flags().IntVar(&testDelayMs, "delay-ms", int(constants.CollectionDelay/time.Millisecond), "pause between endpoints in milliseconds")

	testCmd.AddCommand(testEndpointCmd)
	testCmd.AddCommand(testCollectionCmd)
}
