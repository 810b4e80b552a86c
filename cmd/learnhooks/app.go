package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/config"
	"github.com/fyrsmithlabs/learnhooks/internal/events"
	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   *progress.Store
	tracker *progress.Tracker
	manager *hooks.Manager

	nc  *nats.Conn
	pub *events.NATSPublisher
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadWithFile(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.pluginRoot != "" {
		cfg.Plugin.Root = flags.pluginRoot
	}
	if flags.dbPath != "" {
		cfg.Storage.Path = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to stderr so stdout
// stays free for command output and the MCP stdio transport.
func newLogger(cfg config.LoggingConfig, out io.Writer) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	lc := logging.NewDefaultConfig()
	lc.Level = level
	lc.Format = cfg.Format
	lc.Output = out
	return logging.NewLogger(lc)
}

func hooksConfig(cfg config.HooksConfig) *hooks.Config {
	return &hooks.Config{
		CompletionPoints: cfg.CompletionPoints,
	}
}

// newApp opens storage, loads the plugin and wires the tracker and hook
// manager. Callers must Close the app.
func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg, logger)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	ready := false
	defer func() {
		if !ready {
			_ = a.Close()
		}
	}()

	hc := hooksConfig(cfg.Hooks)
	if err := hc.Validate(); err != nil {
		return nil, err
	}

	rules, err := progress.LoadRules(cfg.Progress.MilestonesFile)
	if err != nil {
		return nil, err
	}

	catalog, err := plugin.LoadCatalog(cfg.Plugin.Root)
	if err != nil {
		return nil, fmt.Errorf("loading plugin: %w", err)
	}

	a.store, err = progress.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher
	if cfg.Events.NATSURL != "" {
		a.nc, err = events.Connect(events.ConnectOptions{
			URL:   cfg.Events.NATSURL,
			Token: cfg.Events.NATSToken,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.pub = events.NewNATSPublisher(a.nc, cfg.Events.SubjectPrefix)
		publisher = a.pub
	}

	a.tracker, err = progress.NewTracker(ctx, a.store, catalog, progress.Options{
		CompletionInvocations: cfg.Progress.CompletionInvocations,
		MaxRelated:            cfg.Hooks.MaxRelated,
		Rules:                 rules,
		Publisher:             publisher,
		Logger:                logger,
	})
	if err != nil {
		return nil, err
	}

	a.manager = hooks.NewManager(hc, logger)

	logger.Debug(ctx, "learnhooks ready",
		zap.String("plugin", catalog.Manifest().Name),
		zap.Int("skills", catalog.Len()),
		zap.String("db", cfg.Storage.Path),
		zap.Bool("nats", a.nc != nil))
	ready = true
	return a, nil
}

// Close flushes pending events and releases resources.
func (a *app) Close() error {
	var errs []error
	if a.nc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		if err := a.pub.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing events: %w", err))
		}
		cancel()
		a.nc.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
