package weather

import (
	"context"
)

// Geocoder resolves a one-line address to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (Coordinates, error)
}

// Locator resolves coordinates to the URL of the forecast for that point.
// The URL is opaque to callers.
type Locator interface {
	Locate(ctx context.Context, coords Coordinates) (string, error)
}

// Fetcher retrieves the forecast periods behind a forecast URL.
type Fetcher interface {
	Fetch(ctx context.Context, forecastURL string) ([]ForecastPeriod, error)
}
