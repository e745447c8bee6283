package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nishad/ctrake/internal/config"
	"github.com/nishad/ctrake/internal/logging"
)

// Version info
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Global flags
var (
	configPath string
	noColor    bool
	quiet      bool
	verbose    bool
	debug      bool
)

// Loaded by the root PersistentPreRunE before any subcommand runs.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

// Root command
var rootCmd = &cobra.Command{
	Use:   "ctrake",
	Short: "ClinicalTrials.gov record processor",
	Long: `ctrake converts ClinicalTrials.gov study XML into canonical JSON records,
loads them into a local SQLite database with a keyword index, and serves
them over a small HTTP API.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Example: `  # Convert a directory of study XML files
  ctrake convert --dir ./xml --outdir ./json

  # Load the converted records
  ctrake load --dir ./json

  # Search from the command line
  ctrake search asthma or copd --limit 10

  # Start API server
  ctrake server --port 8080`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: CTRAKE_CONFIG, ./ctrake.yaml or the XDG config dir)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	switch {
	case debug:
		level = "debug"
	case verbose:
		level = "info"
	case quiet:
		level = "error"
	}
	logger = logging.Setup(logging.Options{
		Level:  level,
		Pretty: cfg.Log.Pretty && logging.IsTerminal() && !noColor,
	})
	printDebug("config: %s", configPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
