package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/city-weather-aggregation/internal/weather"
)

// Prober runs one upstream probe for a city.
type Prober interface {
	Probe(ctx context.Context, city string) weather.ProbeResult
}

// Recorder keeps probe results.
type Recorder interface {
	Save(result weather.ProbeResult)
}

// Scheduler periodically probes the upstream sources for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	prober    Prober
	recorder  Recorder
	cities    []string
	interval  time.Duration
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, prober Prober, recorder Recorder, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		prober:    prober,
		recorder:  recorder,
		cities:    cities,
		interval:  interval,
		timeout:   30 * time.Second,
		log:       log,
	}
}

// Start schedules the periodic probe and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info("scheduler: no probe cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	if _, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce probes every configured city concurrently and records the results.
func (s *Scheduler) RunOnce() {
	s.log.Debug("scheduler: running upstream probe")

	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			result := s.prober.Probe(ctx, city)
			if result.Error != "" {
				s.log.Warnw("scheduler: probe failed", "city", city, "error", result.Error)
			}
			s.recorder.Save(result)
		}()
	}
	wg.Wait()

	s.log.Debug("scheduler: completed upstream probe")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
