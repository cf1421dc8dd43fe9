package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	cfg := s.deps.Config

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	if s.deps.Metrics != nil {
		s.E.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}

	s.E.GET("/ws", s.deps.Hub.Handler(s.deps.Signals))

	api := s.E.Group("/api")
	api.POST("/updates", s.deps.Updates.Post,
		middleware.RateLimiter(cfg.UpdatesRatePerSecond, cfg.UpdatesRateBurst))
	api.GET("/stats", s.deps.Stats.Stats)
	api.GET("/rooms/:name", s.deps.Stats.Room)
}
