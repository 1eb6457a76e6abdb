package actor

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

type Scheduler interface {
	Schedule(f func())
	// Wait blocks until all scheduled tasks have returned.
	Wait()
}

type scheduler struct {
	log      *slog.Logger
	inflight atomic.Int32
	sem      chan struct{}

	wg sync.WaitGroup

	actorID string
	metrics Metrics
}

// Schedule runs f on its own goroutine. When the scheduler is bounded, f
// waits for a free slot first. Tasks always run, even after the actor has
// stopped, so they get the chance to release what they hold.
func (s *scheduler) Schedule(f func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.sem != nil {
			s.sem <- struct{}{}
			defer func() { <-s.sem }()
		}

		count := s.inflight.Add(1)
		s.metrics.SchedulerInflight(s.actorID, int(count))
		defer func() {
			count := s.inflight.Add(-1)
			s.metrics.SchedulerInflight(s.actorID, int(count))
		}()

		s.runTask(f)
	}()
}

func (s *scheduler) runTask(f func()) {
	defer s.metrics.SchedulerTaskDuration().ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.SchedulerTaskCompleted(false)
			s.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()

	f()
	s.metrics.SchedulerTaskCompleted(true)
}

func (s *scheduler) Wait() { s.wg.Wait() }

// NewScheduler creates a scheduler running at most max tasks at once. If
// max <= 0, concurrency is unlimited.
func NewScheduler(max int, log *slog.Logger, actorID string, m Metrics) Scheduler {
	var sem chan struct{}
	if max > 0 {
		sem = make(chan struct{}, max)
	}
	if m == nil {
		m = NopMetrics()
	}
	if log == nil {
		log = slog.Default()
	}
	return &scheduler{
		log:     log,
		sem:     sem,
		actorID: actorID,
		metrics: m,
	}
}
