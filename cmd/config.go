package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-recon/internal/logging"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

const defaultResultsDir = "./results"

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	ResultsDir       string
	TelemetryEnabled bool
	MetricsAddr      string
	Scan             ScanConfig
	HTTP             HTTPConfig
	DNS              DNSConfig
	Log              logging.Config
}

// ScanConfig holds port scan settings.
type ScanConfig struct {
	Concurrency   int
	TimeoutMs     int
	ProgressEvery int
	// RatePerSecond caps probe starts; zero means unlimited.
	RatePerSecond int
}

// HTTPConfig holds endpoint test settings.
type HTTPConfig struct {
	TimeoutMs int
	UserAgent string
}

// DNSConfig lists nameservers used to resolve scan targets. Empty means the
// system resolver.
type DNSConfig struct {
	Nameservers []string
	TimeoutMs   int
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		ResultsDir: defaultResultsDir,
		Scan: ScanConfig{
			Concurrency:   constants.DefaultPortConcurrency,
			TimeoutMs:     int(constants.DefaultPortTimeout / time.Millisecond),
			ProgressEvery: constants.DefaultProgressInterval,
		},
		HTTP: HTTPConfig{
			TimeoutMs: int(constants.DefaultHTTPTimeout / time.Millisecond),
			UserAgent: constants.DefaultUserAgent,
		},
		DNS: DNSConfig{
			Nameservers: []string{},
			TimeoutMs:   3000,
		},
		Log: defaultLogConfig(),
	}
}

// defaultLogConfig keeps stderr quiet unless asked; results go to stdout.
func defaultLogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = "warn"
	cfg.Format = "console"
	return cfg
}

// applyConfigDefaults merges config file and SECA_* environment values into
// cfg when the corresponding flag was not set explicitly.
func applyConfigDefaults(cmd *cobra.Command, cfg *CLIConfig) {
	flags := cmd.Flags()

	if viper.IsSet("results_dir") {
		applyStringDefault(flags, "results-dir", viper.GetString("results_dir"), func(v string) { cfg.ResultsDir = v })
	}
	if viper.IsSet("telemetry") {
		applyBoolDefault(flags, "telemetry", viper.GetBool("telemetry"), func(v bool) { cfg.TelemetryEnabled = v })
	}
	if viper.IsSet("metrics.addr") {
		applyStringDefault(flags, "metrics-addr", viper.GetString("metrics.addr"), func(v string) { cfg.MetricsAddr = v })
	}

	if viper.IsSet("scan.concurrency") {
		applyIntDefault(flags, "concurrency", viper.GetInt("scan.concurrency"), func(v int) { cfg.Scan.Concurrency = v })
	}
	if viper.IsSet("scan.timeout_ms") {
		applyIntDefault(flags, "timeout-ms", viper.GetInt("scan.timeout_ms"), func(v int) { cfg.Scan.TimeoutMs = v })
	}
	if viper.IsSet("scan.progress_every") {
		cfg.Scan.ProgressEvery = viper.GetInt("scan.progress_every")
	}
	if viper.IsSet("scan.rate") {
		applyIntDefault(flags, "rate", viper.GetInt("scan.rate"), func(v int) { cfg.Scan.RatePerSecond = v })
	}

	if viper.IsSet("http.timeout_ms") {
		applyIntDefault(flags, "http-timeout-ms", viper.GetInt("http.timeout_ms"), func(v int) { cfg.HTTP.TimeoutMs = v })
	}
	if viper.IsSet("http.user_agent") {
		cfg.HTTP.UserAgent = viper.GetString("http.user_agent")
	}

	if viper.IsSet("dns.nameservers") {
		cfg.DNS.Nameservers = viper.GetStringSlice("dns.nameservers")
	}
	if viper.IsSet("dns.timeout_ms") {
		cfg.DNS.TimeoutMs = viper.GetInt("dns.timeout_ms")
	}

	if viper.IsSet("log.level") {
		applyStringDefault(flags, "log-level", viper.GetString("log.level"), func(v string) { cfg.Log.Level = v })
	}
	if viper.IsSet("log.format") {
		applyStringDefault(flags, "log-format", viper.GetString("log.format"), func(v string) { cfg.Log.Format = v })
	}
	if viper.IsSet("log.file") {
		cfg.Log.File = viper.GetString("log.file")
	}
	if viper.IsSet("log.max_size_mb") {
		cfg.Log.MaxSizeMB = viper.GetInt("log.max_size_mb")
	}
	if viper.IsSet("log.max_backups") {
		cfg.Log.MaxBackups = viper.GetInt("log.max_backups")
	}
	if viper.IsSet("log.compress") {
		cfg.Log.Compress = viper.GetBool("log.compress")
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
