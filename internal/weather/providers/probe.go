package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/i474232898/address-forecast/internal/weather"
)

// Prober checks that an upstream base endpoint answers with a 2xx status.
// Probes bypass the circuit breakers so they never trip or reset them.
type Prober struct {
	name    string
	url     string
	httpCfg HTTPClientConfig
}

func NewProber(name, url string, client *http.Client, userAgent string) *Prober {
	return &Prober{
		name: name,
		url:  url,
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: userAgent,
		},
	}
}

func (p *Prober) Name() string {
	return p.name
}

// Probe issues a single GET and reports the outcome. It never returns an error;
// failures are recorded on the status.
func (p *Prober) Probe(ctx context.Context) weather.UpstreamStatus {
	status := weather.UpstreamStatus{
		Name:      p.name,
		CheckedAt: time.Now().UTC(),
	}

	if p.httpCfg.Client == nil {
		status.Error = errNoHTTPClient.Error()
		return status
	}

	req, err := newGetRequest(ctx, p.httpCfg, p.url, "application/json")
	if err != nil {
		status.Error = err.Error()
		return status
	}

	start := time.Now()
	resp, err := p.httpCfg.Client.Do(req)
	status.Latency = time.Since(start)
	status.LatencyMS = status.Latency.Milliseconds()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	drainAndClose(resp)

	status.StatusCode = resp.StatusCode
	status.Up = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !status.Up {
		status.Error = (&statusError{StatusCode: resp.StatusCode}).Error()
	}
	return status
}
