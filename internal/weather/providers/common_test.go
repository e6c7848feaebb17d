package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/address-forecast/internal/weather"
)

func TestCircuitBreaker_OpensAfterConsecutiveServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	breaker := BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}
	f := NewForecastFetcher(testHTTPClient(), testUserAgent, breaker)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), server.URL)
		requireKind(t, err, weather.KindServiceUnavailable)
	}
	require.EqualValues(t, 2, hits.Load())

	_, err := f.Fetch(context.Background(), server.URL)

	werr := requireKind(t, err, weather.KindServiceUnavailable)
	assert.True(t, errors.Is(werr, errCircuitOpen))
	assert.EqualValues(t, 2, hits.Load(), "open circuit must not reach the upstream")
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	breaker := BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute}
	l := NewPointLocator(testHTTPClient(), server.URL, testUserAgent, breaker)

	for i := 0; i < 3; i++ {
		_, err := l.Locate(context.Background(), weather.Coordinates{Lat: 1, Lng: 2})
		requireKind(t, err, weather.KindServiceUnavailable)
	}
	assert.EqualValues(t, 3, hits.Load())
}

func TestDoRequest_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewCensusGeocoder(testHTTPClient(), server.URL, testUserAgent, DefaultBreakerConfig())

	_, err := g.Resolve(context.Background(), "1600 Pennsylvania Avenue")

	requireKind(t, err, weather.KindServiceUnavailable)
	assert.EqualValues(t, 1, hits.Load())
}

func TestCircuitBreaker_CancellationDoesNotResetFailures(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	defer close(release)

	breaker := BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}
	f := NewForecastFetcher(testHTTPClient(), testUserAgent, breaker)

	_, err := f.Fetch(context.Background(), server.URL)
	requireKind(t, err, weather.KindServiceUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, server.URL+"/slow")
	requireKind(t, err, weather.KindUnexpected)

	_, err = f.Fetch(context.Background(), server.URL)
	requireKind(t, err, weather.KindServiceUnavailable)

	assert.Equal(t, "open", f.circuit.State().String())
	assert.EqualValues(t, 2, hits.Load())
}

func TestCircuitBreaker_TransportFailuresStayUnexpected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	breaker := BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute}
	g := NewCensusGeocoder(testHTTPClient(), url, testUserAgent, breaker)

	for i := 0; i < 7; i++ {
		_, err := g.Resolve(context.Background(), "1600 Pennsylvania Avenue")
		requireKind(t, err, weather.KindUnexpected)
	}
	assert.Equal(t, "closed", g.circuit.State().String())
}

func TestCircuitBreaker_HalfOpenClosesOnHealthyAnswer(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"properties":{"periods":[{"number":1,"startTime":"2024-01-15T12:00:00Z"}]}}`))
	}))
	defer server.Close()

	breaker := BreakerConfig{MaxFailures: 1, OpenTimeout: 50 * time.Millisecond}
	f := NewForecastFetcher(testHTTPClient(), testUserAgent, breaker)

	_, err := f.Fetch(context.Background(), server.URL)
	requireKind(t, err, weather.KindServiceUnavailable)
	require.Equal(t, "open", f.circuit.State().String())

	healthy.Store(true)
	time.Sleep(100 * time.Millisecond)

	periods, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, periods, 1)
	assert.Equal(t, "closed", f.circuit.State().String())
}

func TestCircuitBreaker_DisabledByDefault(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewForecastFetcher(testHTTPClient(), testUserAgent, DefaultBreakerConfig())
	require.Nil(t, f.circuit)

	for i := 0; i < 10; i++ {
		_, err := f.Fetch(context.Background(), server.URL)
		requireKind(t, err, weather.KindServiceUnavailable)
	}
	assert.EqualValues(t, 10, hits.Load())
}

func TestDoRequest_NoClient(t *testing.T) {
	f := NewForecastFetcher(nil, testUserAgent, DefaultBreakerConfig())

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")

	werr := requireKind(t, err, weather.KindUnexpected)
	assert.True(t, errors.Is(werr, errNoHTTPClient))
}

func TestNewCircuitBreaker(t *testing.T) {
	assert.Nil(t, newCircuitBreaker("off", BreakerConfig{}))

	cb := newCircuitBreaker("on", BreakerConfig{MaxFailures: 3})
	require.NotNil(t, cb)
	assert.Equal(t, "on", cb.Name())
	assert.Equal(t, "closed", cb.State().String())
}
