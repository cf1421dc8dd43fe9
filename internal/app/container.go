package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/relay/internal/broadcast"
	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/dispatch"
	"github.com/nfrund/relay/internal/handlers"
	"github.com/nfrund/relay/internal/lifecycle"
	"github.com/nfrund/relay/internal/metrics"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/registry"
	"github.com/nfrund/relay/internal/rooms"
	"github.com/nfrund/relay/internal/server"
	"github.com/nfrund/relay/internal/websocket"
)

// Tracing is the bus tracer together with its exporter cleanup.
type Tracing struct {
	Tracer  trace.Tracer
	Cleanup func()
}

// NewContainer registers every relay service on a fresh injector. Services
// are built lazily on first invoke, so each process (or test) that calls
// NewContainer gets its own registry, room index and hub.
func NewContainer(cfg *config.Config, logger *slog.Logger) *do.RootScope {
	return do.New(
		func(i do.Injector) {
			do.ProvideValue(i, cfg)
			do.ProvideValue(i, logger)
		},
		observability,
		core,
		transport,
		api,
	)
}

func observability(i do.Injector) {
	do.Provide(i, func(i do.Injector) (*Tracing, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tracer, cleanup, err := pubsub.SetupOTel(context.Background(), cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		return &Tracing{Tracer: tracer, Cleanup: cleanup}, nil
	})
	do.Provide(i, func(i do.Injector) (*metrics.Provider, error) {
		return metrics.NewPrometheusProvider()
	})
	do.Provide(i, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*metrics.Provider](i))
	})
}

func core(i do.Injector) {
	do.Provide(i, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tracing := do.MustInvoke[*Tracing](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return pubsub.NewWatermillBridge(
			pubsub.WithTracer(tracing.Tracer),
			pubsub.WithBufferSize(int64(cfg.BusBufferSize)),
			pubsub.WithLogger(logger.With("component", "pubsub")),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*registry.Registry, error) {
		return registry.New(
			registry.WithObserver(do.MustInvoke[*metrics.Metrics](i)),
			registry.WithLogger(do.MustInvoke[*slog.Logger](i).With("component", "registry")),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*rooms.Index, error) {
		return rooms.NewIndex(do.MustInvoke[*registry.Registry](i)), nil
	})
	do.Provide(i, func(i do.Injector) (*dispatch.Notifier, error) {
		return dispatch.NewNotifier(
			do.MustInvoke[*pubsub.WatermillBridge](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})
}

func transport(i do.Injector) {
	do.Provide(i, func(i do.Injector) (*websocket.Hub, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return websocket.NewHub(do.MustInvoke[*rooms.Index](i),
			websocket.WithSendBuffer(cfg.WSSendBuffer),
			websocket.WithWriteTimeout(cfg.WSWriteTimeout),
			websocket.WithPingInterval(cfg.WSPingInterval),
			websocket.WithReadLimit(cfg.WSReadLimit),
			websocket.WithAllowedOrigins(cfg.AllowedOrigins...),
			websocket.WithLogger(do.MustInvoke[*slog.Logger](i).With("component", "websocket")),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*lifecycle.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return lifecycle.New(
			do.MustInvoke[*registry.Registry](i),
			do.MustInvoke[*rooms.Index](i),
			do.MustInvoke[*websocket.Hub](i),
			lifecycle.WithRooms(cfg.Rooms...),
			lifecycle.WithConnectMessage(cfg.ConnectMessage),
			lifecycle.WithEvents(do.MustInvoke[*dispatch.Notifier](i)),
			lifecycle.WithLogger(do.MustInvoke[*slog.Logger](i).With("component", "lifecycle")),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*broadcast.Broadcaster, error) {
		cfg := do.MustInvoke[*config.Config](i)
		validation, err := broadcast.ParseValidation(cfg.ActionValidation)
		if err != nil {
			return nil, err
		}
		return broadcast.New(
			do.MustInvoke[*websocket.Hub](i),
			do.MustInvoke[*registry.Registry](i),
			do.MustInvoke[*rooms.Index](i),
			broadcast.WithValidation(validation),
			broadcast.WithObserver(do.MustInvoke[*metrics.Metrics](i)),
			broadcast.WithLogger(do.MustInvoke[*slog.Logger](i).With("component", "broadcast")),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*dispatch.Dispatcher, error) {
		return dispatch.NewDispatcher(
			do.MustInvoke[*pubsub.WatermillBridge](i),
			do.MustInvoke[*broadcast.Broadcaster](i),
			do.MustInvoke[*slog.Logger](i),
		), nil
	})
}

func api(i do.Injector) {
	do.Provide(i, func(i do.Injector) (*handlers.UpdatesHandler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		validation, err := broadcast.ParseValidation(cfg.ActionValidation)
		if err != nil {
			return nil, err
		}
		return handlers.NewUpdatesHandler(do.MustInvoke[*dispatch.Notifier](i), validation), nil
	})
	do.Provide(i, func(i do.Injector) (*handlers.StatsHandler, error) {
		return handlers.NewStatsHandler(
			do.MustInvoke[*registry.Registry](i),
			do.MustInvoke[*rooms.Index](i),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*server.Server, error) {
		s := server.New(server.Dependencies{
			Config:  do.MustInvoke[*config.Config](i),
			Hub:     do.MustInvoke[*websocket.Hub](i),
			Signals: do.MustInvoke[*lifecycle.Handler](i),
			Updates: do.MustInvoke[*handlers.UpdatesHandler](i),
			Stats:   do.MustInvoke[*handlers.StatsHandler](i),
			Metrics: do.MustInvoke[*metrics.Provider](i).Handler(),
			Logger:  do.MustInvoke[*slog.Logger](i),
		})
		s.RegisterRoutes()
		return s, nil
	})
}
