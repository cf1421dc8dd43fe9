package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Start runs the HTTP server on the configured address until ctx is done or
// the process receives SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.deps.Config.ServerAddr
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		waitForShutdown(waitCtx)
		cancel()
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
	case <-waitCtx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer stop()
	return s.Shutdown(shutdownCtx)
}
