package cmd

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// executeCommand runs the root command with args against a fresh results
// directory and returns everything written to stdout.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState(t)

	resultsDir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--results-dir", resultsDir}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), resultsDir, err
}

func resetCommandState(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })

	viper.Reset()
	*cliConfig = *newCLIConfig()
	cfgFile = ""
	scanStartPort, scanEndPort = constants.DefaultStartPort, constants.DefaultEndPort
	scanNameservers = nil
	scanNoProgress = false
	scanOutput = outputOptions{}
	testMethod, testFailOn = "GET", ""
	testOutput = outputOptions{}

	for _, c := range []*cobra.Command{rootCmd, scanCmd, scanPortsCmd, testCmd, testEndpointCmd, testCollectionCmd, versionCmd} {
		resetFlags(c.PersistentFlags())
		resetFlags(c.Flags())
	}
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}
