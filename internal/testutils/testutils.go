// Package testutils holds helpers shared by package tests.
package testutils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/pubsub"
)

// Config returns a valid configuration for tests. It never reads the
// environment: EnvFile points into a fresh temp dir and tracing is off.
// Short timeouts keep shutdown quick.
func Config(t *testing.T) *config.Config {
	t.Helper()

	tracing := pubsub.DefaultTracingConfig()
	tracing.Enabled = false

	return &config.Config{
		ServerAddr:           "127.0.0.1:0",
		AllowedOrigins:       []string{config.DefaultAllowedOrigin},
		LogFormat:            "text",
		LogLevel:             "info",
		ActionValidation:     "strict",
		Rooms:                []string{"dashboard"},
		ConnectMessage:       config.DefaultConnectMessage,
		WSSendBuffer:         32,
		WSWriteTimeout:       2 * time.Second,
		WSPingInterval:       5 * time.Second,
		WSReadLimit:          4096,
		UpdatesRatePerSecond: 100,
		UpdatesRateBurst:     100,
		BusBufferSize:        64,
		EnvFile:              filepath.Join(t.TempDir(), ".env"),
		Tracing:              tracing,
	}
}
