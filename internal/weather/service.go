package weather

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/i474232898/address-forecast/internal/common"
)

// MinAddressLength is the shortest trimmed address accepted, in characters.
const MinAddressLength = 3

// Pipeline stage names used in logs.
const (
	StageGeocode = "geocode"
	StageLocate  = "locate"
	StageFetch   = "fetch"
)

// Service resolves an address into a grouped forecast by running the
// geocoder, locator and fetcher in sequence. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	geocoder Geocoder
	locator  Locator
	fetcher  Fetcher
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, locator Locator, fetcher Fetcher) *Service {
	return &Service{
		geocoder: geocoder,
		locator:  locator,
		fetcher:  fetcher,
	}
}

// ValidateAddress trims raw and checks it is long enough to geocode.
func ValidateAddress(raw string) (string, error) {
	address := strings.TrimSpace(raw)
	if address == "" {
		return "", NewError(KindInvalidInput, "Please provide a valid address", nil)
	}
	if utf8.RuneCountInString(address) < MinAddressLength {
		return "", NewError(KindInvalidInput, "Address must be at least 3 characters long", nil)
	}
	return address, nil
}

// GetForecast runs the full pipeline for one address. Every stage is called
// at most once; the first failure ends the run. Returned errors are always
// *Error.
func (s *Service) GetForecast(ctx context.Context, rawAddress string) (GroupedForecast, error) {
	address, err := ValidateAddress(rawAddress)
	if err != nil {
		return GroupedForecast{}, err
	}

	coords, err := runStage(ctx, StageGeocode, upstreamName(s.geocoder), func(ctx context.Context) (Coordinates, error) {
		return s.geocoder.Resolve(ctx, address)
	})
	if err != nil {
		return GroupedForecast{}, err
	}

	forecastURL, err := runStage(ctx, StageLocate, upstreamName(s.locator), func(ctx context.Context) (string, error) {
		return s.locator.Locate(ctx, coords)
	})
	if err != nil {
		return GroupedForecast{}, err
	}

	periods, err := runStage(ctx, StageFetch, upstreamName(s.fetcher), func(ctx context.Context) ([]ForecastPeriod, error) {
		return s.fetcher.Fetch(ctx, forecastURL)
	})
	if err != nil {
		return GroupedForecast{}, err
	}

	grouped := Organize(periods)
	slog.InfoContext(ctx, "forecast resolved",
		"request_id", common.RequestID(ctx),
		"periods", len(periods),
		"days", grouped.Len(),
	)
	return grouped, nil
}

// named is implemented by adapters that report their upstream name.
type named interface {
	Name() string
}

func upstreamName(component any) string {
	if n, ok := component.(named); ok {
		return n.Name()
	}
	return ""
}

// runStage invokes fn once and guarantees a classified error on failure.
// A context that is already done skips the call.
func runStage[T any](ctx context.Context, stage, upstream string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, NewError(KindUnexpected, MessageUnexpected, err)
	}

	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)

	if err == nil {
		slog.DebugContext(ctx, "pipeline stage complete",
			"request_id", common.RequestID(ctx),
			"stage", stage,
			"upstream", upstream,
			"duration", elapsed,
		)
		return out, nil
	}

	var perr *Error
	if !errors.As(err, &perr) {
		perr = NewError(KindUnexpected, MessageUnexpected, err)
	}
	slog.WarnContext(ctx, "pipeline stage failed",
		"request_id", common.RequestID(ctx),
		"stage", stage,
		"upstream", upstream,
		"duration", elapsed,
		"kind", string(perr.Kind),
		"error", err,
	)
	return zero, perr
}
