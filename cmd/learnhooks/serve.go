package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/config"
	httpserver "github.com/fyrsmithlabs/learnhooks/internal/http"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/telemetry"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the hooks over HTTP",
		Long: `Start the HTTP API.

Routes:
  GET  /health
  GET  /metrics
  GET  /api/v1/hooks
  POST /api/v1/hooks/:hook
  GET  /api/v1/users/:id/progress

When plugin.watch is set, edits to .claude-plugin/plugin.json reload the
skill catalog without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}
}

func telemetryConfig(cfg *config.Config) *telemetry.Config {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Observability.EnableTelemetry
	tc.Endpoint = cfg.Observability.Endpoint
	tc.Protocol = cfg.Observability.Protocol
	tc.ServiceName = cfg.Observability.ServiceName
	tc.ServiceVersion = version
	tc.Insecure = cfg.Observability.Insecure
	tc.SampleRate = cfg.Observability.SampleRate
	tc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	return tc
}

func runServe(ctx context.Context, flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}

	// Telemetry first so instrumented components bind to its providers.
	tel, err := telemetry.New(ctx, telemetryConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn(context.Background(), "telemetry shutdown", zap.Error(err))
		}
	}()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Plugin.Watch {
		w, err := plugin.NewWatcher(cfg.Plugin.Root, func(cat *plugin.Catalog) {
			if err := a.tracker.SetCatalog(ctx, cat); err != nil {
				logger.Warn(ctx, "catalog swap failed", zap.Error(err))
			}
		}, logger)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	srv, err := httpserver.NewServer(a.manager, a.tracker, logger, &httpserver.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}
