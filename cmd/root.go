// =============================================================================
// Column Splitter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The subcommands
// share the configuration and logging set up here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (splitter)
//   ├── splitCmd   (splitter split <file>)
//   ├── serveCmd   (splitter serve)
//   └── versionCmd (splitter version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --log-format)
//   2. Loading the YAML configuration
//   3. Building the logger shared by every subcommand
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/config"
	"github.com/ginjaninja78/xlsx-column-splitter/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides the configured log format when set.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "splitter",
	Short: "Column Splitter - Split wide spreadsheets into narrower workbooks",
	Long: `Column Splitter divides the first worksheet of an .xlsx or .xls file into
several .xlsx files, each holding at most a fixed number of columns. Every
part keeps all rows, and the original column order is preserved across the
parts.

Example Usage:
  splitter split wide.xlsx                       # Split into ./split_files
  splitter split wide.xlsx --max-columns 1000    # Use narrower parts
  splitter serve --addr :8080                    # Start the web front end`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format, logfmt or json (overrides the configuration file)",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, cfg.Validate()
}

// setupLogging builds the process logger. Records go to stderr and to a
// bounded buffer that backs the web log viewer.
func setupLogging(cfg *config.Config) (log.Logger, *logging.Buffer, error) {
	stderr, err := logging.New(os.Stderr, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	buffer := logging.NewBuffer(cfg.LogBufferSize)
	logger, err := logging.Filter(logging.Tee(stderr, buffer), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, buffer, nil
}
