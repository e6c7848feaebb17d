package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/address-forecast/internal/weather"
)

// DefaultCensusURL is the Census Bureau one-line address geocoder.
const DefaultCensusURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"

// censusBenchmark selects the "Public_AR_Current" address benchmark.
const censusBenchmark = "4"

const (
	msgGeocoderUnavailable = "Geocoding service is currently unavailable"
	msgAddressNotFound     = "Address not found. Please check the spelling and try again."
	msgGeocodeFailed       = "Failed to geocode address"
)

// CensusGeocoder implements weather.Geocoder against the U.S. Census geocoder.
type CensusGeocoder struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.TwoStepCircuitBreaker
}

func NewCensusGeocoder(client *http.Client, baseURL, userAgent string, breaker BreakerConfig) *CensusGeocoder {
	if baseURL == "" {
		baseURL = DefaultCensusURL
	}
	return &CensusGeocoder{
		name:    "census",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: userAgent,
		},
		circuit: newCircuitBreaker("census", breaker),
	}
}

func (g *CensusGeocoder) Name() string {
	return g.name
}

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			MatchedAddress string `json:"matchedAddress"`
			Coordinates    struct {
				// The service reports x as longitude and y as latitude.
				X *float64 `json:"x"`
				Y *float64 `json:"y"`
			} `json:"coordinates"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// Resolve geocodes address and returns the first match's coordinates.
func (g *CensusGeocoder) Resolve(ctx context.Context, address string) (weather.Coordinates, error) {
	values := url.Values{}
	values.Set("address", address)
	values.Set("benchmark", censusBenchmark)
	values.Set("format", "json")
	u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())

	var payload censusResponse
	if err := getJSON(ctx, g.httpCfg, g.circuit, u, "application/json", &payload); err != nil {
		if isUnavailable(err) {
			return weather.Coordinates{}, weather.NewError(weather.KindServiceUnavailable, msgGeocoderUnavailable, err)
		}
		return weather.Coordinates{}, weather.NewError(weather.KindUnexpected, msgGeocodeFailed, err)
	}

	matches := payload.Result.AddressMatches
	if len(matches) == 0 {
		return weather.Coordinates{}, weather.NewError(weather.KindNotFound, msgAddressNotFound, nil)
	}

	c := matches[0].Coordinates
	if c.X == nil || c.Y == nil {
		return weather.Coordinates{}, weather.NewError(weather.KindUnexpected, msgGeocodeFailed,
			fmt.Errorf("match %q has no coordinates", matches[0].MatchedAddress))
	}

	return weather.Coordinates{
		Lat: *c.Y,
		Lng: *c.X,
	}, nil
}
