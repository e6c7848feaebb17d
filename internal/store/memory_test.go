package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/address-forecast/internal/weather"
)

func probe(name string, up bool, at time.Time) weather.UpstreamStatus {
	return weather.UpstreamStatus{Name: name, Up: up, CheckedAt: at}
}

func TestMemoryStore_LatestAndRetention(t *testing.T) {
	s := NewMemoryStore(2)
	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	s.SaveProbe(probe("nws", true, base))
	s.SaveProbe(probe("nws", false, base.Add(time.Minute)))
	s.SaveProbe(probe("nws", true, base.Add(2*time.Minute)))

	latest, err := s.Latest("nws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !latest.CheckedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected newest probe, got %v", latest.CheckedAt)
	}

	history, err := s.History("nws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 retained probes, got %d", len(history))
	}
	if history[0].Up || !history[1].Up {
		t.Fatalf("expected oldest retained probe first, got %+v", history)
	}

	// Mutating the returned slice must not affect the store.
	history[0].Name = "changed"
	again, _ := s.History("nws")
	if again[0].Name != "nws" {
		t.Fatal("History returned a shared slice")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore(0)

	if _, err := s.Latest("census"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.History("census"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := s.LatestAll(); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestMemoryStore_ZeroHistoryKeepsLatest(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now().UTC()

	s.SaveProbe(probe("nws", false, now))
	s.SaveProbe(probe("nws", true, now.Add(time.Second)))

	history, err := s.History("nws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 || !history[0].Up {
		t.Fatalf("expected only the latest probe, got %+v", history)
	}
}

func TestMemoryStore_LatestAllSortedByName(t *testing.T) {
	s := NewMemoryStore(5)
	now := time.Now().UTC()

	s.SaveProbe(probe("nws", true, now))
	s.SaveProbe(probe("census", false, now))
	s.SaveProbe(probe("nws", false, now.Add(time.Second)))

	all := s.LatestAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 upstreams, got %d", len(all))
	}
	if all[0].Name != "census" || all[1].Name != "nws" {
		t.Fatalf("expected results sorted by name, got %s, %s", all[0].Name, all[1].Name)
	}
	if all[1].Up {
		t.Fatal("expected latest nws probe to be down")
	}
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	s := NewMemoryStore(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SaveProbe(probe("nws", true, time.Now()))
			_ = s.LatestAll()
		}()
	}
	wg.Wait()

	history, err := s.History("nws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 50 {
		t.Fatalf("expected 50 probes, got %d", len(history))
	}
}
