package main

import (
	"fmt"
	"log/slog"
	"os"

	"spry-hq/sprylog/pkg/cli"
	"spry-hq/sprylog/pkg/config"
	"spry-hq/sprylog/pkg/logging"
	"spry-hq/sprylog/pkg/telemetry/diag"
	"spry-hq/sprylog/pkg/telemetry/metrics"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sprylog",
	Short: "Sprylog - API and error log engine with line-based rotation",
	Long: `Sprylog writes categorised API log entries and classified runtime errors
to plain-text files, masks sensitive request parameters, and rotates files
by line count, either trimming them in place or rolling them over into
timestamped gzip archives with bounded retention.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "sprylog.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app is the engine assembled from the configuration for one command.
type app struct {
	cfg       *config.Config
	diag      *diag.Logger
	collector *metrics.Collector
	logger    *logging.Logger
}

// newApp loads the configuration (defaults when the file is missing) and
// wires diagnostics, metrics and the logger.
func newApp() (*app, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	d, err := diag.New(diag.FromConfig(cfg.Telemetry.Logging, cfg.Logger.RedactKeys))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	if verbose {
		d.SetLevel(slog.LevelDebug)
	}
	slog.SetDefault(d.Logger)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	logger := logging.New(cfg.Logger,
		logging.WithDiagnostics(d.With("component", "logging")),
		logging.WithObserver(collector),
		logging.WithArchiveObserver(collector),
	)

	slog.Debug("configuration loaded",
		"path", cfgFile,
		"api_file", cfg.Logger.APIFile,
		"error_file", cfg.Logger.ErrorFile,
		"max_lines", cfg.Logger.MaxLines,
		"archive", cfg.Logger.Archive,
	)

	return &app{cfg: cfg, diag: d, collector: collector, logger: logger}, nil
}

// close releases the diagnostics output.
func (a *app) close() {
	if err := a.diag.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close diagnostics: %v\n", err)
	}
}

// logFiles returns the configured destinations, API file first.
func (a *app) logFiles() []string {
	var files []string
	if a.cfg.Logger.APIFile != "" {
		files = append(files, a.cfg.Logger.APIFile)
	}
	if a.cfg.Logger.ErrorFile != "" {
		files = append(files, a.cfg.Logger.ErrorFile)
	}
	return files
}
