package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/address-forecast/internal/weather"
)

// Prober checks one upstream service.
type Prober interface {
	Name() string
	Probe(ctx context.Context) weather.UpstreamStatus
}

// Recorder receives probe results.
type Recorder interface {
	SaveProbe(status weather.UpstreamStatus)
}

// probeTimeout bounds a single round of probes.
const probeTimeout = 30 * time.Second

// Scheduler periodically probes upstream services and records their health.
type Scheduler struct {
	scheduler *gocron.Scheduler
	probers   []Prober
	recorder  Recorder
	interval  time.Duration
}

// New creates a new Scheduler.
func New(probers []Prober, interval time.Duration, recorder Recorder) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		probers:   probers,
		recorder:  recorder,
		interval:  interval,
	}
}

// Start schedules the probe job and starts the underlying scheduler.
// The first round runs immediately.
func (s *Scheduler) Start() error {
	if len(s.probers) == 0 {
		slog.Info("scheduler: no upstreams configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce probes every upstream concurrently and records the results.
func (s *Scheduler) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range s.probers {
		wg.Add(1)
		go func(p Prober) {
			defer wg.Done()

			status := p.Probe(ctx)
			if !status.Up {
				slog.Warn("scheduler: upstream probe failed", "upstream", p.Name(), "error", status.Error)
			}
			s.recorder.SaveProbe(status)
		}(p)
	}
	wg.Wait()
	slog.Debug("scheduler: completed upstream probe round", "upstreams", len(s.probers))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
