package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/i474232898/address-forecast/internal/weather"
)

var (
	// ErrNotFound is returned when no probe has been recorded for an upstream.
	ErrNotFound = errors.New("no probe results for upstream")
)

// ProbeHistory holds the time-ordered probe results for one upstream.
type ProbeHistory struct {
	Results []weather.UpstreamStatus
}

// MemoryStore is a concurrency-safe in-memory record of upstream health probes.
// It stores nothing about addresses or forecasts.
type MemoryStore struct {
	mu sync.RWMutex

	// key: upstream name
	data map[string]*ProbeHistory

	maxHistory int // max results kept per upstream
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, only the latest result is kept.
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
	}
}

// SaveProbe appends a probe result and enforces retention.
func (s *MemoryStore) SaveProbe(status weather.UpstreamStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[status.Name]
	if !ok {
		history = &ProbeHistory{}
		s.data[status.Name] = history
	}

	history.Results = append(history.Results, status)

	if len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = append([]weather.UpstreamStatus(nil), history.Results[over:]...)
	}
}

// Latest returns the most recent probe result for an upstream.
func (s *MemoryStore) Latest(name string) (weather.UpstreamStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[name]
	if !ok || len(history.Results) == 0 {
		return weather.UpstreamStatus{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// LatestAll returns the most recent result of every upstream, sorted by name.
func (s *MemoryStore) LatestAll() []weather.UpstreamStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.UpstreamStatus, 0, len(s.data))
	for _, history := range s.data {
		if len(history.Results) == 0 {
			continue
		}
		out = append(out, history.Results[len(history.Results)-1])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// History returns a copy of all retained results for an upstream, oldest first.
func (s *MemoryStore) History(name string) ([]weather.UpstreamStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[name]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}
	out := make([]weather.UpstreamStatus, len(history.Results))
	copy(out, history.Results)
	return out, nil
}
