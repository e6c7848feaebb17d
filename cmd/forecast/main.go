package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/address-forecast/internal/common"
	"github.com/i474232898/address-forecast/internal/config"
	"github.com/i474232898/address-forecast/internal/render"
	"github.com/i474232898/address-forecast/internal/weather"
	"github.com/i474232898/address-forecast/internal/weather/providers"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one lookup and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("forecast", flag.ContinueOnError)
	flags.SetOutput(stderr)
	asJSON := flags.Bool("json", false, "print the grouped forecast as JSON")
	verbose := flags.Bool("v", false, "log pipeline stages to stderr")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: forecast [-json] [-v] <address>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	address := strings.Join(flags.Args(), " ")
	if strings.TrimSpace(address) == "" {
		flags.Usage()
		return exitUsage
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitUsage
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	breaker := providers.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}
	service := weather.NewService(
		providers.NewCensusGeocoder(httpClient, cfg.GeocoderURL, cfg.UserAgent, breaker),
		providers.NewPointLocator(httpClient, cfg.WeatherBaseURL, cfg.UserAgent, breaker),
		providers.NewForecastFetcher(httpClient, cfg.UserAgent, breaker),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = common.WithRequestID(ctx, uuid.NewString())

	grouped, err := service.GetForecast(ctx, address)
	if err != nil {
		var werr *weather.Error
		if errors.As(err, &werr) {
			fmt.Fprintln(stderr, werr.Message)
		} else {
			fmt.Fprintln(stderr, weather.MessageUnexpected)
		}
		return exitFailure
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(grouped)
	} else {
		err = render.WriteText(stdout, grouped, time.Now())
	}
	if err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return exitFailure
	}
	return 0
}
