package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/i474232898/address-forecast/internal/api/http"
	"github.com/i474232898/address-forecast/internal/config"
	"github.com/i474232898/address-forecast/internal/scheduler"
	"github.com/i474232898/address-forecast/internal/store"
	"github.com/i474232898/address-forecast/internal/weather"
	"github.com/i474232898/address-forecast/internal/weather/providers"
)

const serviceName = "address-forecast"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	// Shared HTTP client for outbound calls; the timeout applies per call.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	breaker := providers.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}

	// Pipeline: geocode -> locate -> fetch.
	service := weather.NewService(
		providers.NewCensusGeocoder(httpClient, cfg.GeocoderURL, cfg.UserAgent, breaker),
		providers.NewPointLocator(httpClient, cfg.WeatherBaseURL, cfg.UserAgent, breaker),
		providers.NewForecastFetcher(httpClient, cfg.UserAgent, breaker),
	)

	// Upstream health probes.
	var health httpapi.HealthSource
	if cfg.ProbeEnabled {
		probeStore := store.NewMemoryStore(cfg.ProbeHistory)
		probers := []scheduler.Prober{
			providers.NewProber("nws", cfg.WeatherBaseURL, httpClient, cfg.UserAgent),
		}
		if cfg.GeocoderProbeURL != "" {
			probers = append(probers, providers.NewProber("census", cfg.GeocoderProbeURL, httpClient, cfg.UserAgent))
		}

		sched := scheduler.New(probers, cfg.ProbeInterval, probeStore)
		if err := sched.Start(); err != nil {
			slog.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
		health = probeStore
	}

	// Cancelled on SIGINT/SIGTERM; request contexts derive from it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := httpapi.NewApp(ctx, serviceName)
	httpapi.RegisterRoutes(app, service, health)

	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server stopped")
}
