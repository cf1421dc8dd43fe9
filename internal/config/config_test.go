package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points ENV_FILE at an empty temp dir so a developer's .env never
// leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	t.Setenv("ENV_FILE", file)
	for _, key := range []string{
		"SERVER_ADDR", "ALLOWED_ORIGINS", "LOG_FORMAT", "LOG_LEVEL", "ACTION_VALIDATION",
		"ROOMS", "CONNECT_MESSAGE", "WS_SEND_BUFFER", "WS_WRITE_TIMEOUT",
		"WS_PING_INTERVAL", "WS_READ_LIMIT", "UPDATES_RATE_LIMIT", "UPDATES_RATE_BURST",
		"PUBSUB_TRACING_ENABLED", "PUBSUB_TRACING_SERVICE_NAME", "PUBSUB_TRACING_ZIPKIN_URL",
		"BUS_BUFFER_SIZE",
	} {
		// Setenv restores the original value on cleanup; unset it so the
		// dotenv file can still supply it.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return file
}

func TestNew_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.AllowedOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "strict", cfg.ActionValidation)
	assert.Equal(t, []string{"dashboard"}, cfg.Rooms)
	assert.Equal(t, "Connected to blog platform", cfg.ConnectMessage)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Equal(t, 10*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 25*time.Second, cfg.WSPingInterval)
	assert.Equal(t, int64(32768), cfg.WSReadLimit)
	assert.Equal(t, 20.0, cfg.UpdatesRatePerSecond)
	assert.Equal(t, 40, cfg.UpdatesRateBurst)
	assert.Equal(t, 64, cfg.BusBufferSize)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "relay", cfg.Tracing.ServiceName)
	assert.Equal(t, "http://localhost:9411/api/v2/spans", cfg.Tracing.ZipkinURL)
}

func TestNew_Tracing(t *testing.T) {
	isolate(t)
	t.Setenv("PUBSUB_TRACING_ENABLED", "true")
	t.Setenv("PUBSUB_TRACING_SERVICE_NAME", "relay-staging")
	t.Setenv("PUBSUB_TRACING_ZIPKIN_URL", "http://zipkin:9411/api/v2/spans")
	t.Setenv("BUS_BUFFER_SIZE", "128")

	cfg, err := New()
	require.NoError(t, err)

	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "relay-staging", cfg.Tracing.ServiceName)
	assert.Equal(t, "http://zipkin:9411/api/v2/spans", cfg.Tracing.ZipkinURL)
	assert.Equal(t, 128, cfg.BusBufferSize)
}

func TestNew_FromEnvAndFile(t *testing.T) {
	file := isolate(t)
	require.NoError(t, os.WriteFile(file, []byte("ROOMS=dashboard, moderators\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:4200,https://blog.example.com")
	t.Setenv("ACTION_VALIDATION", "Permissive")
	t.Setenv("WS_PING_INTERVAL", "5s")
	// the file must not override a variable that is already set
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, []string{"dashboard", "moderators"}, cfg.Rooms)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:4200", "https://blog.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "permissive", cfg.ActionValidation)
	assert.Equal(t, 5*time.Second, cfg.WSPingInterval)
	assert.Equal(t, file, cfg.EnvFile)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"log format", "LOG_FORMAT", "xml"},
		{"log level", "LOG_LEVEL", "loud"},
		{"validation mode", "ACTION_VALIDATION", "lenient"},
		{"send buffer", "WS_SEND_BUFFER", "0"},
		{"send buffer not a number", "WS_SEND_BUFFER", "many"},
		{"write timeout", "WS_WRITE_TIMEOUT", "soon"},
		{"read limit", "WS_READ_LIMIT", "10"},
		{"rate limit", "UPDATES_RATE_LIMIT", "-1"},
		{"rate limit not a number", "UPDATES_RATE_LIMIT", "fast"},
		{"tracing flag not a bool", "PUBSUB_TRACING_ENABLED", "sometimes"},
		{"bus buffer", "BUS_BUFFER_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)

			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestWatch(t *testing.T) {
	file := isolate(t)
	require.NoError(t, os.WriteFile(file, []byte("LOG_LEVEL=info\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var last map[string]string
	require.NoError(t, Watch(ctx, file, func(values map[string]string) {
		mu.Lock()
		defer mu.Unlock()
		last = values
	}))

	require.NoError(t, os.WriteFile(file, []byte("LOG_LEVEL=debug\n"), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last["LOG_LEVEL"] == "debug"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", ".env"), func(map[string]string) {})
	assert.Error(t, err)
}
