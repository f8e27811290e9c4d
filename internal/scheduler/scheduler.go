// Package scheduler runs jobs at a fixed interval on a worker pool.
package scheduler

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/worker"
)

// Enqueuer accepts jobs without blocking
type Enqueuer interface {
	TryEnqueue(job worker.Job) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	pool Enqueuer
	log  *slog.Logger

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a scheduler feeding pool
func New(pool Enqueuer) *Scheduler {
	return &Scheduler{
		pool: pool,
		log:  logger.Component("scheduler"),
		quit: make(chan struct{}),
	}
}

// Schedule enqueues job every interval until Stop. A tick is skipped while
// the pool has no room, so a slow job never piles up behind itself.
func (s *Scheduler) Schedule(name string, interval time.Duration, job worker.Job) {
	if interval <= 0 {
		s.log.Debug("Job not scheduled, interval disabled", "job", name)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				err := s.pool.TryEnqueue(job)
				switch {
				case errors.Is(err, worker.ErrQueueFull):
					s.log.Warn("Skipping scheduled run, previous run still queued", "job", name)
				case errors.Is(err, worker.ErrPoolStopped):
					return
				case err != nil:
					s.log.Error("Failed to enqueue scheduled job", "job", name, "error", err)
				}
			case <-s.quit:
				return
			}
		}
	}()
	s.log.Info("Job scheduled", "job", name, "interval", interval)
}

// Stop stops all scheduled jobs and waits for their tickers to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
}
