// =============================================================================
// Column Splitter - Split Command
// =============================================================================
//
// This file defines the 'split' command, which splits one spreadsheet from
// the command line.
//
// COMMAND USAGE:
//   splitter split <file> [flags]
//
// FLAGS:
//   --output       : Directory that receives the parts (default from config)
//   --max-columns  : Largest number of columns per part (default from config)
//   --clear        : Remove the files already in the output directory first
//
// PROCESSING PIPELINE:
//   1. Load configuration and set up logging
//   2. Optionally clear the output directory
//   3. Split the first worksheet into column ranges
//   4. Print a summary of the written parts and any failed parts
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/splitter"
	"github.com/ginjaninja78/xlsx-column-splitter/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// outputDir overrides the configured output directory.
var outputDir string

// maxColumns overrides the configured column limit.
var maxColumns int

// clearOutput removes existing files from the output directory before the
// split.
var clearOutput bool

// splitCmd represents the 'split' command.
var splitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Split a spreadsheet into files with a limited number of columns",
	Long: `The split command reads the first worksheet of an .xlsx or .xls file and
writes its columns, in order, to consecutive .xlsx files named
split_part_<i>_cols_<start>_to_<end>.xlsx. Every part carries the header row
and all data rows of its column range.

If some parts cannot be written the others are still produced and the failed
parts are reported. The command fails only when no part is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSplit(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVarP(
		&outputDir,
		"output",
		"o",
		"",
		"Directory that receives the split files (default from config)",
	)

	splitCmd.Flags().IntVarP(
		&maxColumns,
		"max-columns",
		"m",
		splitter.DefaultMaxColumns,
		"Maximum number of columns per output file",
	)

	splitCmd.Flags().BoolVar(
		&clearOutput,
		"clear",
		false,
		"Remove existing files from the output directory before splitting",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runSplit(cmd *cobra.Command, source string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, _, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	req := splitter.Request{
		SourcePath: source,
		OutputDir:  cfg.OutputDir,
		MaxColumns: cfg.MaxColumns,
	}
	if cmd.Flags().Changed("output") {
		req.OutputDir = outputDir
	}
	if cmd.Flags().Changed("max-columns") {
		req.MaxColumns = maxColumns
	}

	if clearOutput {
		if err := utils.ClearDirectory(req.OutputDir); err != nil {
			return fmt.Errorf("error clearing output directory: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := splitter.New(logger, prometheus.NewRegistry()).Split(ctx, req)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), res)
	return nil
}

// printSummary writes the written parts and any failures of res to w.
func printSummary(w io.Writer, res *splitter.Result) {
	fmt.Fprintln(w, "==========================================================")
	fmt.Fprintln(w, "                      SPLIT SUMMARY")
	fmt.Fprintln(w, "==========================================================")
	fmt.Fprintf(w, "Source columns:   %d\n", res.TotalColumns)
	fmt.Fprintf(w, "Source rows:      %d\n", res.TotalRows)
	fmt.Fprintf(w, "Files written:    %d\n", len(res.Descriptors))
	fmt.Fprintf(w, "Failed parts:     %d\n", len(res.Failures))
	fmt.Fprintf(w, "Duration:         %v\n", res.Duration)
	fmt.Fprintln(w, "----------------------------------------------------------")

	for _, d := range res.Descriptors {
		fmt.Fprintf(w, "  %-40s %5d cols %10s\n", d.Filename, d.ColumnCount, humanize.Bytes(uint64(d.SizeBytes)))
	}

	if len(res.Failures) > 0 {
		fmt.Fprintln(w, "----------------------------------------------------------")
		fmt.Fprintln(w, "FAILED PARTS:")
		for _, f := range res.Failures {
			fmt.Fprintf(w, "  %v\n", f)
		}
	}
	fmt.Fprintln(w, "==========================================================")
}
