package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/relay/internal/pubsub"
)

// Config holds all configuration for the application.
type Config struct {
	ServerAddr       string   `validate:"required"`
	AllowedOrigins   []string `validate:"dive,required"`
	LogFormat        string   `validate:"oneof=text json"`
	LogLevel         string   `validate:"oneof=debug info warn error"`
	ActionValidation string   `validate:"oneof=strict permissive"`
	Rooms            []string `validate:"min=1,dive,required"`
	ConnectMessage   string   `validate:"required"`

	WSSendBuffer   int           `validate:"gte=1"`
	WSWriteTimeout time.Duration `validate:"gt=0"`
	WSPingInterval time.Duration `validate:"gt=0"`
	WSReadLimit    int64         `validate:"gte=512"`

	// Per-IP limits for POST /api/updates.
	UpdatesRatePerSecond float64 `validate:"gt=0"`
	UpdatesRateBurst     int     `validate:"gte=1"`

	// BusBufferSize is the per-subscriber buffer of the in-process bus.
	BusBufferSize int `validate:"gte=1"`

	// EnvFile is the dotenv file that was loaded and that Watch follows.
	EnvFile string

	Tracing pubsub.TracingConfig
}

// Defaults.
const (
	DefaultServerAddr     = ":8000"
	DefaultAllowedOrigin  = "http://localhost:4200"
	DefaultConnectMessage = "Connected to blog platform"
	DefaultEnvFile        = ".env"
)

// New loads configuration from the dotenv file named by ENV_FILE (".env"
// by default) and the environment, then validates it. Variables already set
// in the environment win over the file. A missing file is not an error.
func New() (*Config, error) {
	envFile := getEnv("ENV_FILE", DefaultEnvFile)
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		slog.Debug("No .env file found, relying on environment variables", "file", envFile)
	}

	cfg := &Config{
		ServerAddr:       getEnv("SERVER_ADDR", DefaultServerAddr),
		AllowedOrigins:   getList("ALLOWED_ORIGINS", DefaultAllowedOrigin),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ActionValidation: strings.ToLower(getEnv("ACTION_VALIDATION", "strict")),
		Rooms:            getList("ROOMS", "dashboard"),
		ConnectMessage:   getEnv("CONNECT_MESSAGE", DefaultConnectMessage),
		EnvFile:          envFile,
	}

	cfg.Tracing = pubsub.DefaultTracingConfig()
	cfg.Tracing.ServiceName = getEnv("PUBSUB_TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.ZipkinURL = getEnv("PUBSUB_TRACING_ZIPKIN_URL", cfg.Tracing.ZipkinURL)

	var errs []error
	cfg.Tracing.Enabled, errs = parseBool("PUBSUB_TRACING_ENABLED", cfg.Tracing.Enabled, errs)
	cfg.WSSendBuffer, errs = parseInt("WS_SEND_BUFFER", 256, errs)
	cfg.WSWriteTimeout, errs = parseDuration("WS_WRITE_TIMEOUT", 10*time.Second, errs)
	cfg.WSPingInterval, errs = parseDuration("WS_PING_INTERVAL", 25*time.Second, errs)
	readLimit, errs := parseInt("WS_READ_LIMIT", 32768, errs)
	cfg.WSReadLimit = int64(readLimit)
	cfg.UpdatesRatePerSecond, errs = parseFloat("UPDATES_RATE_LIMIT", 20, errs)
	cfg.UpdatesRateBurst, errs = parseInt("UPDATES_RATE_BURST", 40, errs)
	cfg.BusBufferSize, errs = parseInt("BUS_BUFFER_SIZE", 64, errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// getList splits a comma separated variable, dropping empty entries.
func getList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInt(key string, fallback int, errs []error) (int, []error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, errs
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return n, errs
}

func parseBool(key string, fallback bool, errs []error) (bool, []error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, errs
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return b, errs
}

func parseFloat(key string, fallback float64, errs []error) (float64, []error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, errs
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return f, errs
}

func parseDuration(key string, fallback time.Duration, errs []error) (time.Duration, []error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, errs
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return d, errs
}
