package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/nfrund/relay/internal/app"
	"github.com/nfrund/relay/internal/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		// slog is not configured yet, so the standard logger reports this.
		log.Fatalf("invalid configuration: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	if err := a.Run(context.Background()); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
