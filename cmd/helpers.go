package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"chatwidget/internal/chat"
	"chatwidget/internal/config"
	"chatwidget/internal/history"
	"chatwidget/internal/logging"
	"chatwidget/internal/storage"
	"chatwidget/internal/telemetry"
)

// runEnv is what every subcommand needs: the resolved config, a logger and
// the conversation state loaded from the store.
type runEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	state  *chat.State

	closers  []io.Closer
	shutdown func()
}

func loadConfig(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if ephemeral {
		cfg.Ephemeral = true
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Prepare(); err != nil {
		return nil, fmt.Errorf("preparing directories: %w", err)
	}
	return cfg, nil
}

func setup(ctx context.Context, stdout bool) (*runEnv, error) {
	return setupWith(ctx, stdout, nil)
}

func setupWith(ctx context.Context, stdout bool, override func(*config.Config)) (*runEnv, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(override)
	if err != nil {
		return nil, err
	}

	logger, logFile, err := logging.Init(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: stdout})
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	env := &runEnv{cfg: cfg, logger: logger, closers: []io.Closer{logFile}}

	if cfg.Telemetry {
		shutdown, err := telemetry.Init(ctx, cfg.LogDir, Version)
		if err != nil {
			logger.Warn("telemetry disabled", "error", err)
		} else {
			env.shutdown = shutdown
		}
	}

	var kv storage.KV
	if cfg.Ephemeral {
		kv = storage.NewMemory()
	} else {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		env.closers = append([]io.Closer{db}, env.closers...)
		kv = db
	}

	env.store = history.New(kv, cfg.StorageKey, logger)
	env.state = chat.NewState(env.store.Load(), chat.WithSaver(env.store), chat.WithLogger(logger))
	logger.Debug("conversation state loaded", "sessions", len(env.state.History()), "ephemeral", cfg.Ephemeral)
	return env, nil
}

func (e *runEnv) controller(exporter chat.Exporter) *chat.Controller {
	return chat.NewController(e.state, exporter, chat.WithDelay(e.cfg.ResponseDelay))
}

// Close flushes telemetry before the log file it may still write about.
func (e *runEnv) Close() {
	if e.shutdown != nil {
		e.shutdown()
	}
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.logger.Warn("close", "error", err)
		}
	}
}
