package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/handlers"
	appmiddleware "github.com/nfrund/relay/internal/middleware"
	"github.com/nfrund/relay/internal/websocket"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Dependencies are the services the HTTP layer routes to.
type Dependencies struct {
	Config  *config.Config
	Hub     *websocket.Hub
	Signals websocket.SignalHandler
	Updates *handlers.UpdatesHandler
	Stats   *handlers.StatsHandler
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	E *echo.Echo

	deps       Dependencies
	logger     *slog.Logger
	onShutdown []func(context.Context) error
}

// New creates a Server with the middleware chain installed. Routes are added
// by RegisterRoutes.
func New(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(appmiddleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: deps.Config.AllowedOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
	}))

	setupErrorHandling(e)

	return &Server{
		E:      e,
		deps:   deps,
		logger: logger.With("component", "server"),
	}
}

// OnShutdown registers fn to run after the HTTP server has stopped. Hooks
// run in reverse order of registration.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Shutdown closes every WebSocket connection, stops the HTTP server and
// runs the shutdown hooks. All steps run even if one fails.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.deps.Hub.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for i := len(s.onShutdown) - 1; i >= 0; i-- {
		if err := s.onShutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
