package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-recon/internal/logging"
	"github.com/khanhnv2901/seca-recon/internal/metrics"
	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

var cfgFile string
var logger = zap.NewNop().Sugar()
var closeLogger = func() error { return nil }
var collector = metrics.New(false)

var rootCmd = &cobra.Command{
	Use:   "seca-recon",
	Short: "Port scanning and API endpoint security testing (for authorized targets only)",
	Long: `seca-recon discovers open TCP ports on a host and runs a fixed battery of
security checks against HTTP API endpoints, producing a scored report.

Only scan systems you own or are explicitly authorized to test.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		applyConfigDefaults(cmd, cliConfig)

		if err := os.MkdirAll(cliConfig.ResultsDir, constants.DefaultDirPerm); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
		if abs, err := filepath.Abs(cliConfig.ResultsDir); err == nil {
			cliConfig.ResultsDir = abs
		}

		l, closer, err := logging.New(cliConfig.Log)
		if err != nil {
			return err
		}
		logger = l.Sugar()
		closeLogger = closer
		collector = metrics.New(cliConfig.MetricsAddr != "")

		logger.Debugw("configuration loaded",
			"config", viper.ConfigFileUsed(),
			"results_dir", cliConfig.ResultsDir,
			"log_level", cliConfig.Log.Level)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		return closeLogger()
	},
}

// initConfig reads the config file and binds SECA_* environment variables.
// A missing default config file is not an error; a missing explicit one is.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.AddConfigPath(".")
		viper.SetConfigName(".seca-recon")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("SECA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorError("Error:"), err)
		os.Exit(exitCode(err))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.seca-recon.yaml)")
	flags.StringVar(&cliConfig.ResultsDir, "results-dir", defaultResultsDir, "directory for saved reports and telemetry")
	flags.StringVar(&cliConfig.Log.Level, "log-level", cliConfig.Log.Level, "log level (debug, info, warn, error)")
	flags.StringVar(&cliConfig.Log.Format, "log-format", cliConfig.Log.Format, "log format (console or json)")
	flags.StringVar(&cliConfig.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running (e.g. :9090)")
	flags.BoolVar(&cliConfig.TelemetryEnabled, "telemetry", false, "append run telemetry to results_dir/telemetry.jsonl")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}
