package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// maxResponseBytes caps how much of an upstream body is decoded.
const maxResponseBytes = 4 << 20

// HTTPClientConfig bundles the shared HTTP client and outbound headers.
// Client.Timeout applies to each upstream call on its own.
type HTTPClientConfig struct {
	Client    *http.Client
	UserAgent string
}

// BreakerConfig controls when an upstream's circuit opens and how long it
// stays open. A zero MaxFailures disables the breaker.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns the settings used when none are configured:
// no breaker.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 0,
		OpenTimeout: 30 * time.Second,
	}
}

// Enabled reports whether a breaker should be built.
func (c BreakerConfig) Enabled() bool {
	return c.MaxFailures > 0
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// statusError reports a non-2xx upstream response.
type statusError struct {
	StatusCode int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// isUnavailable reports whether err means the upstream answered with a
// non-success status or is being short-circuited by its breaker.
func isUnavailable(err error) bool {
	var se *statusError
	return errors.As(err, &se) || errors.Is(err, errCircuitOpen)
}

// newCircuitBreaker returns nil when cfg disables the breaker.
func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.TwoStepCircuitBreaker {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig().OpenTimeout
	}
	return gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// recordOutcome reports a finished call to cb. Only a status answer is
// evidence about the upstream: 5xx is a failure, anything else a success.
// Transport errors and cancellations leave the counts untouched.
func recordOutcome(cb *gobreaker.TwoStepCircuitBreaker, resp *http.Response, doErr error) {
	if cb == nil || doErr != nil || resp == nil {
		return
	}
	done, err := cb.Allow()
	if err != nil {
		// The half-open slot was taken by a concurrent call.
		return
	}
	done(resp.StatusCode < 500)
}

func newGetRequest(ctx context.Context, cfg HTTPClientConfig, rawURL, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	return req, nil
}

// doRequest performs exactly one GET and returns the response only when its
// status is 2xx. An open breaker fails fast without calling the upstream.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.TwoStepCircuitBreaker,
	rawURL string,
	accept string,
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cb != nil && cb.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, gobreaker.ErrOpenState)
	}

	req, err := newGetRequest(ctx, cfg, rawURL, accept)
	if err != nil {
		return nil, err
	}

	resp, err := cfg.Client.Do(req)
	recordOutcome(cb, resp, err)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp)
		return nil, &statusError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// getJSON performs doRequest and decodes the body into v.
func getJSON(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.TwoStepCircuitBreaker,
	rawURL string,
	accept string,
	v any,
) error {
	resp, err := doRequest(ctx, cfg, cb, rawURL, accept)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
}
