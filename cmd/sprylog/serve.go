package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"spry-hq/sprylog/pkg/archive"
	"spry-hq/sprylog/pkg/cli"
	"spry-hq/sprylog/pkg/httplog"
	"spry-hq/sprylog/pkg/logging"
	"spry-hq/sprylog/pkg/server"
	"spry-hq/sprylog/pkg/telemetry/diag"
	"spry-hq/sprylog/pkg/telemetry/health"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sprylog sidecar",
	Long: `Run the sidecar HTTP server. It sweeps the log files on
logger.sweep_schedule, exposes Prometheus metrics, liveness and readiness
probes, and a /ping endpoint whose requests are logged through the engine.

Examples:
  # Start with default config
  sprylog serve

  # Override listen address
  sprylog serve --listen 0.0.0.0:9464`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override diagnostics level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		level, err := diag.ParseLevel(serveFlags.logLevel)
		if err != nil {
			return cli.NewConfigError("--log-level", err.Error())
		}
		a.diag.SetLevel(level)
	}

	ctx, stop := cli.SetupSignalHandler(contextOf(cmd))
	defer stop()

	host := httplog.NewHost(httplog.WithMetrics(a.collector))
	logging.NewRuntime(a.logger).Init(host)

	sweeper := archive.NewSweeper(a.logger.Writer(), cfg.Logger.SweepSchedule, a.logFiles()...)
	if err := sweeper.Start(ctx); err != nil {
		return cli.NewConfigError("logger.sweep_schedule", err.Error())
	}
	defer sweeper.Stop()

	srv := server.NewServer(&cfg.Server, newRouter(a, host))
	srv.OnShutdown(func(ctx context.Context) { host.Shutdown(ctx, nil) })

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errChan:
		return cli.NewCommandError("serve", err)
	}

	out := cmd.OutOrStdout()
	addr := srv.Addr().String()
	fmt.Fprintf(out, "Sprylog v%s\n", Version)
	fmt.Fprintf(out, "✓ Server listening on %s\n", addr)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	if next := sweeper.NextRun(); next != nil {
		fmt.Fprintf(out, "✓ Next rotation sweep: %s\n", next.Format(time.RFC3339))
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := <-errChan; err != nil {
		slog.Error("server stopped with error", "error", err)
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// newRouter mounts metrics, health probes and the logged /ping endpoint.
func newRouter(a *app, host *httplog.Host) http.Handler {
	r := chi.NewRouter()

	if a.cfg.Telemetry.Metrics.Enabled {
		r.Handle(a.cfg.Telemetry.Metrics.Path, a.collector.Handler())
	}

	checker := health.New(2 * time.Second)
	for name, path := range map[string]string{"api_file": a.cfg.Logger.APIFile, "error_file": a.cfg.Logger.ErrorFile} {
		if path == "" {
			continue
		}
		checker.RegisterCheck(name, health.FileWritable(path))
		checker.RegisterCheck(name+"_lines", health.LineLimit(path, a.cfg.Logger.MaxLines))
	}
	health.Mount(r, checker, Version, GitCommit, BuildDate)

	r.Group(func(r chi.Router) {
		if limit := a.cfg.Server.RateLimit; limit > 0 {
			r.Use(httprate.LimitByIP(limit, time.Minute))
		}
		r.Use(httplog.RequestID, host.Middleware)
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("pong\n"))
		})
	})

	return r
}
