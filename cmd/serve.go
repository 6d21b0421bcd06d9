// =============================================================================
// Column Splitter - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the web front end.
//
// COMMAND USAGE:
//   splitter serve [--addr :5000]
//
// The server stops gracefully on SIGINT or SIGTERM.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-column-splitter/internal/server"
)

// listenAddr overrides the configured listen address.
var listenAddr string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form and split file downloads over HTTP",
	Long: `The serve command starts a web server with an upload form. Each upload
replaces the results of the previous one: the upload and output directories
are cleared, the file is split, and the parts are offered for download
individually or as one ZIP archive. Recent log records are shown at /logs
and Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = listenAddr
		}

		logger, buffer, err := setupLogging(cfg)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		level.Info(logger).Log("msg", "starting column splitter", "version", Version, "upload_dir", cfg.UploadDir, "output_dir", cfg.OutputDir)
		return server.New(cfg, logger, buffer, reg).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(
		&listenAddr,
		"addr",
		":5000",
		"Address to listen on (default from config)",
	)
}
