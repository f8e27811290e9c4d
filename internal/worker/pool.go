package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/osse101/opitemdb/internal/logger"
)

// ErrQueueFull is returned by TryEnqueue when the queue has no room
var ErrQueueFull = errors.New("worker queue is full")

// ErrPoolStopped is returned when enqueueing on a stopped pool
var ErrPoolStopped = errors.New("worker pool is stopped")

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// JobFunc adapts a function to Job
type JobFunc func(ctx context.Context) error

// Process calls f
func (f JobFunc) Process(ctx context.Context) error { return f(ctx) }

// Pool runs jobs on a fixed number of goroutines
type Pool struct {
	workers    int
	jobQueue   chan Job
	jobTimeout time.Duration
	log        *slog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	quit    chan struct{}
}

// NewPool creates a new worker pool
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, queueSize),
		jobTimeout: DefaultJobTimeout,
		log:        logger.Component("worker_pool"),
		quit:       make(chan struct{}),
	}
}

// WithJobTimeout sets the per-job deadline
func (p *Pool) WithJobTimeout(d time.Duration) *Pool {
	p.jobTimeout = d
	return p
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			p.run(job)
		case <-p.quit:
			// finish what is already queued
			for {
				select {
				case job := <-p.jobQueue:
					p.run(job)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(LogMsgWorkerJobPanic, "panic", r)
		}
	}()
	if err := job.Process(ctx); err != nil {
		p.log.Error(LogMsgWorkerJobFailed, "error", err)
	}
}

// TryEnqueue queues a job without blocking
func (p *Pool) TryEnqueue(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.jobQueue <- job:
		return nil
	default:
		p.log.Warn(LogMsgQueueFull, "queue_size", cap(p.jobQueue))
		return ErrQueueFull
	}
}

// Stop stops accepting jobs, runs the queued ones and waits for the workers
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
}
