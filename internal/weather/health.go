package weather

import "time"

// UpstreamStatus is the outcome of one health probe against an upstream service.
type UpstreamStatus struct {
	Name       string        `json:"name"`
	Up         bool          `json:"up"`
	StatusCode int           `json:"statusCode,omitempty"`
	Latency    time.Duration `json:"-"`
	LatencyMS  int64         `json:"latencyMs"`
	CheckedAt  time.Time     `json:"checkedAt"` // always UTC
	Error      string        `json:"error,omitempty"`
}
