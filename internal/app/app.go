// Package app is the composition root. It builds every service from a
// Config and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/dispatch"
	"github.com/nfrund/relay/internal/logging"
	"github.com/nfrund/relay/internal/metrics"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/server"
)

// App is a fully wired relay process.
type App struct {
	Injector *do.RootScope
	Config   *config.Config
	Logger   *slog.Logger
	Level    *slog.LevelVar
	Server   *server.Server

	dispatcher *dispatch.Dispatcher
}

// Option configures New.
type Option func(*options)

type options struct {
	logOutput io.Writer
}

// WithLogOutput sends logs to w instead of stdout and leaves the default
// logger alone.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// New builds the logger and the container, then resolves the server and
// the dispatcher. Shutdown hooks close the bus and flush tracing after the
// HTTP server stops.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	level := new(slog.LevelVar)
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)
	var logger *slog.Logger
	if o.logOutput != nil {
		logger = logging.NewWithWriter(o.logOutput, cfg.LogFormat, level)
	} else {
		logger = logging.New(cfg.LogFormat, level)
	}

	injector := NewContainer(cfg, logger)

	meters, err := do.Invoke[*metrics.Provider](injector)
	if err != nil {
		return nil, fmt.Errorf("build metrics: %w", err)
	}
	tracing, err := do.Invoke[*Tracing](injector)
	if err != nil {
		return nil, err
	}
	bus, err := do.Invoke[*pubsub.WatermillBridge](injector)
	if err != nil {
		return nil, err
	}
	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		return nil, fmt.Errorf("build server: %w", err)
	}
	dispatcher, err := do.Invoke[*dispatch.Dispatcher](injector)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	srv.OnShutdown(meters.Shutdown)
	srv.OnShutdown(func(context.Context) error {
		tracing.Cleanup()
		return nil
	})
	srv.OnShutdown(func(context.Context) error {
		return bus.Close()
	})

	return &App{
		Injector:   injector,
		Config:     cfg,
		Logger:     logger,
		Level:      level,
		Server:     srv,
		dispatcher: dispatcher,
	}, nil
}

// Start subscribes the dispatcher to the bus and begins following the env
// file for log level changes.
func (a *App) Start(ctx context.Context) error {
	if err := a.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}

	if _, err := os.Stat(a.Config.EnvFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return config.Watch(ctx, a.Config.EnvFile, a.applyConfig)
}

// Run starts the app and serves HTTP until ctx is done or the process is
// signaled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.Server.Start(ctx)
}

// applyConfig applies the settings that may change while running.
func (a *App) applyConfig(values map[string]string) {
	raw, ok := values["LOG_LEVEL"]
	if !ok {
		return
	}
	lvl, err := logging.ParseLevel(raw)
	if err != nil {
		a.Logger.Warn("Ignoring invalid LOG_LEVEL", "value", raw, "error", err)
		return
	}
	if lvl != a.Level.Level() {
		a.Level.Set(lvl)
		a.Logger.Info("Log level changed", "level", lvl)
	}
}
