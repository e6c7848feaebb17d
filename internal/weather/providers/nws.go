package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/address-forecast/internal/weather"
)

// DefaultNWSURL is the National Weather Service API root.
const DefaultNWSURL = "https://api.weather.gov"

const nwsAccept = "application/geo+json"

const (
	msgPointsUnavailable   = "Weather service is currently unavailable"
	msgNoForecastForPoint  = "No forecast data available for this location"
	msgLocateFailed        = "Failed to get forecast URL"
	msgForecastUnavailable = "Weather forecast service is currently unavailable"
	msgNoPeriods           = "No forecast periods available"
	msgFetchFailed         = "Failed to fetch forecast data"
)

// PointLocator implements weather.Locator using the NWS /points endpoint.
type PointLocator struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.TwoStepCircuitBreaker
}

func NewPointLocator(client *http.Client, baseURL, userAgent string, breaker BreakerConfig) *PointLocator {
	if baseURL == "" {
		baseURL = DefaultNWSURL
	}
	return &PointLocator{
		name:    "nws-points",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: userAgent,
		},
		circuit: newCircuitBreaker("nws-points", breaker),
	}
}

func (l *PointLocator) Name() string {
	return l.name
}

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

// Locate returns the forecast URL for coords. NWS accepts at most four
// decimal places.
func (l *PointLocator) Locate(ctx context.Context, coords weather.Coordinates) (string, error) {
	u := fmt.Sprintf("%s/points/%.4f,%.4f", l.baseURL, coords.Lat, coords.Lng)

	var payload pointsResponse
	if err := getJSON(ctx, l.httpCfg, l.circuit, u, nwsAccept, &payload); err != nil {
		if isUnavailable(err) {
			return "", weather.NewError(weather.KindServiceUnavailable, msgPointsUnavailable, err)
		}
		return "", weather.NewError(weather.KindUnexpected, msgLocateFailed, err)
	}

	if payload.Properties.Forecast == "" {
		return "", weather.NewError(weather.KindNotFound, msgNoForecastForPoint, nil)
	}
	return payload.Properties.Forecast, nil
}

// ForecastFetcher implements weather.Fetcher for NWS forecast URLs.
type ForecastFetcher struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.TwoStepCircuitBreaker
}

func NewForecastFetcher(client *http.Client, userAgent string, breaker BreakerConfig) *ForecastFetcher {
	return &ForecastFetcher{
		name: "nws-forecast",
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: userAgent,
		},
		circuit: newCircuitBreaker("nws-forecast", breaker),
	}
}

func (f *ForecastFetcher) Name() string {
	return f.name
}

type forecastResponse struct {
	Properties struct {
		Periods []weather.ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

// Fetch retrieves the forecast periods at forecastURL.
func (f *ForecastFetcher) Fetch(ctx context.Context, forecastURL string) ([]weather.ForecastPeriod, error) {
	var payload forecastResponse
	if err := getJSON(ctx, f.httpCfg, f.circuit, forecastURL, nwsAccept, &payload); err != nil {
		if isUnavailable(err) {
			return nil, weather.NewError(weather.KindServiceUnavailable, msgForecastUnavailable, err)
		}
		return nil, weather.NewError(weather.KindUnexpected, msgFetchFailed, err)
	}

	if len(payload.Properties.Periods) == 0 {
		return nil, weather.NewError(weather.KindNotFound, msgNoPeriods, nil)
	}
	return payload.Properties.Periods, nil
}
