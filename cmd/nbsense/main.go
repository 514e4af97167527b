// Command nbsense is the notebook intellisense glue for F# kernels.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/nbsense/internal/config"
	"github.com/dshills/nbsense/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "nbsense",
	Short:         "Notebook intellisense for F# kernels",
	Long:          "nbsense tags notebooks with their language, installs the F# editor mode and binds completion and diagnostics requests to code cells.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log.level: debug|info|warn|error")

	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(triggersCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(sessionCmd)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *logging.Logger {
	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel()
	return logging.New(lc)
}
