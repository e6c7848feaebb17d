package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port     string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Upstream endpoints.
	GeocoderURL      string `envconfig:"GEOCODER_URL" default:"https://geocoding.geo.census.gov/geocoder/locations/onelineaddress" validate:"required,url"`
	WeatherBaseURL   string `envconfig:"WEATHER_BASE_URL" default:"https://api.weather.gov" validate:"required,url"`
	GeocoderProbeURL string `envconfig:"GEOCODER_PROBE_URL" default:"https://geocoding.geo.census.gov/geocoder/benchmarks" validate:"omitempty,url"`

	// NWS rejects requests without an identifying User-Agent.
	UserAgent string `envconfig:"USER_AGENT" default:"address-forecast/1.0 (github.com/i474232898/address-forecast)" validate:"required"`

	// HTTPTimeout bounds each upstream call, not the whole pipeline.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Circuit breaking is off unless BREAKER_MAX_FAILURES is set. Only 5xx
	// answers count toward it.
	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"0"`
	BreakerOpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s"`

	// Upstream health probes.
	ProbeEnabled  bool          `envconfig:"PROBE_ENABLED" default:"true"`
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"5m"`
	ProbeHistory  int           `envconfig:"PROBE_HISTORY" default:"12" validate:"min=1"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

var validate = validator.New()

// Load reads an optional .env file, then configuration from the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment with defaults and
// validates it.
func Parse() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if cfg.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if cfg.BreakerOpenTimeout <= 0 {
		errs = append(errs, errors.New("BREAKER_OPEN_TIMEOUT must be positive"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if cfg.ProbeEnabled && cfg.ProbeInterval < time.Minute {
		errs = append(errs, errors.New("PROBE_INTERVAL must be at least 1m"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return cfg, nil
}

// SlogLevel returns the slog level matching LogLevel.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
