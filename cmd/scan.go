package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-recon/internal/netutil"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
	"github.com/khanhnv2901/seca-recon/internal/probe"
	"github.com/khanhnv2901/seca-recon/internal/report"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

var (
	scanStartPort   uint16
	scanEndPort     uint16
	scanNameservers []string
	scanNoProgress  bool
	scanOutput      outputOptions
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Network discovery commands",
}

var scanPortsCmd = &cobra.Command{
	Use:   "ports <host>",
	Short: "Scan a TCP port range on a host",
	Long: `Scan a TCP port range on a single host and list the open ports with their
well-known service names. Ports commonly considered risky when exposed
(FTP, Telnet, SMB, RDP) are flagged.

Press Ctrl+C to stop early; ports already probed are still reported.`,
	Example: `  seca-recon scan ports scanme.example.com
  seca-recon scan ports 10.0.0.5 --start 1 --end 65535 --concurrency 500 --timeout-ms 500
  seca-recon scan ports 10.0.0.5 --nameserver 1.1.1.1 --output scan.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		host := args[0]

		nameservers := cliConfig.DNS.Nameservers
		if cmd.Flags().Changed("nameserver") {
			nameservers = scanNameservers
		}
		normalized := make([]string, 0, len(nameservers))
		for _, ns := range nameservers {
			n, err := netutil.NormalizeNameserver(ns)
			if err != nil {
				return &InvalidFlagError{Flag: "nameserver", Value: ns, Reason: err.Error()}
			}
			normalized = append(normalized, n)
		}

		ctx, cancel := signalContext(out)
		defer cancel()

		return runWithMetrics(ctx, cliConfig.MetricsAddr, func(ctx context.Context) error {
			resolver := &netutil.Resolver{Nameservers: normalized, Timeout: millis(cliConfig.DNS.TimeoutMs)}
			ip, err := resolver.ResolveIPv4(ctx, host)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", host, err)
			}
			if ip != host {
				fmt.Fprintf(out, "%s Resolved %s to %s\n", colorInfo("→"), host, ip)
			}
			return runPortScan(ctx, out, host, ip)
		})
	},
}

func runPortScan(ctx context.Context, out io.Writer, host, ip string) error {
	cfg := cliConfig.Scan
	scanner := &portscan.Scanner{
		Prober:        &probe.TCPConnector{Timeout: millis(cfg.TimeoutMs), Observer: collector},
		Concurrency:   cfg.Concurrency,
		ProgressEvery: cfg.ProgressEvery,
		Logger:        logger.Desugar(),
	}
	if cfg.RatePerSecond > 0 {
		scanner.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	fmt.Fprintf(out, "Scanning %s ports %d-%d (concurrency %d, timeout %dms)\n",
		colorBold(host), scanStartPort, scanEndPort, cfg.Concurrency, cfg.TimeoutMs)

	var progress *progressPrinter
	if !scanNoProgress && scanEndPort >= scanStartPort {
		progress = newProgressPrinter(out, int(scanEndPort)-int(scanStartPort)+1, "ports")
		scanner.Progress = progress.Update
		progress.Start()
	}

	result, err := scanner.Scan(ctx, ip, scanStartPort, scanEndPort)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	printPortReport(out, host, result)

	if cliConfig.TelemetryEnabled {
		rec := scanTelemetry(result)
		rec.Target = host
		if err := recordTelemetry(cliConfig.ResultsDir, rec); err != nil {
			logger.Warnw("telemetry not recorded", "error", err)
		}
	}

	now := time.Now()
	return scanOutput.save(out, reportName("ports", host, now), report.FromPortScan(result, now))
}

func printPortReport(out io.Writer, host string, r *portscan.Report) {
	fmt.Fprintf(out, "\nScan of %s finished in %s: %d scanned, %d open, %d closed, %d timed out, %d errors\n",
		host, r.Duration.Round(time.Millisecond), r.TotalScanned, r.Stats.Open, r.Stats.Closed, r.Stats.Timeout, r.Stats.Errors)
	if r.Canceled {
		fmt.Fprintf(out, "%s Scan canceled; %d port(s) were not probed\n", colorWarn("!"), r.Stats.Skipped)
	}

	if len(r.OpenPorts) == 0 {
		fmt.Fprintln(out, "No open ports found.")
		return
	}

	fmt.Fprintln(out)
	for _, p := range r.OpenPorts {
		fmt.Fprintf(out, "  %-6d %-8s %s\n", p.Port, formatStatusWithColor("open"), p.Service)
	}

	if sensitive := r.SensitivePorts(); len(sensitive) > 0 {
		fmt.Fprintf(out, "\n%s Sensitive services exposed:\n", colorWarn("!"))
		for _, p := range sensitive {
			fmt.Fprintf(out, "  %d/%s: %s\n", p.Port, p.Service, p.Note)
		}
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func init() {
	flags := scanPortsCmd.Flags()
	flags.Uint16Var(&scanStartPort, "start", constants.DefaultStartPort, "first port of the range")
	flags.Uint16Var(&scanEndPort, "end", constants.DefaultEndPort, "last port of the range (inclusive)")
	flags.IntVar(&cliConfig.Scan.Concurrency, "concurrency", cliConfig.Scan.Concurrency, "maximum probes in flight")
	flags.IntVar(&cliConfig.Scan.TimeoutMs, "timeout-ms", cliConfig.Scan.TimeoutMs, "per-port connect timeout in milliseconds")
	flags.IntVar(&cliConfig.Scan.RatePerSecond, "rate", 0, "maximum probes started per second (0 = unlimited)")
	flags.StringSliceVar(&scanNameservers, "nameserver", nil, "DNS server used to resolve the host (repeatable)")
	flags.BoolVar(&scanNoProgress, "no-progress", false, "disable the progress line")
	flags.StringVar(&scanOutput.Output, "output", "", "save the report under results_dir with this file name")
	flags.StringVar(&scanOutput.Format, "format", "", "report format: json, md, txt or pdf")

	scanCmd.AddCommand(scanPortsCmd)
}
