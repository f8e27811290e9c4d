package event

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/opitemdb/internal/logger"
)

// ResilientPublisher wraps a Bus so a failing subscriber (for example the moderation
// webhook) never fails the request that published the event. Failed events are retried
// in the background with exponential backoff and dead-lettered when retries run out.
type ResilientPublisher struct {
	inner      Bus
	maxRetries int
	baseDelay  time.Duration
	deadLetter *DeadLetterWriter

	wg       sync.WaitGroup
	mu       sync.Mutex
	shutdown bool
	stop     chan struct{}
}

// NewResilientPublisher creates a publisher writing exhausted events to deadLetterPath
func NewResilientPublisher(inner Bus, maxRetries int, baseDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dlw, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}
	return &ResilientPublisher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		deadLetter: dlw,
		stop:       make(chan struct{}),
	}, nil
}

// Publish implements Bus. It never returns an error; failures go to the retry loop.
func (p *ResilientPublisher) Publish(ctx context.Context, evt Event) error {
	p.PublishWithRetry(ctx, evt)
	return nil
}

// PublishWithRetry publishes evt and schedules background retries on failure
func (p *ResilientPublisher) PublishWithRetry(ctx context.Context, evt Event) {
	err := p.inner.Publish(ctx, evt)
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		logger.Warn(LogMsgEventDroppedShutdown, "event_type", evt.Type)
		_ = p.deadLetter.Write(evt, 1, err)
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	logger.Warn(LogMsgEventPublishFailed, "event_type", evt.Type, "error", err, "retries", p.maxRetries)
	go p.retryLoop(evt, err)
}

func (p *ResilientPublisher) retryLoop(evt Event, lastErr error) {
	defer p.wg.Done()

	// Detached from the request: the request that published the event has already returned.
	ctx := context.Background()
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		select {
		case <-time.After(CalculateRetryDelay(p.baseDelay, attempt)):
		case <-p.stop:
			if err := p.deadLetter.Write(evt, attempt, lastErr); err != nil {
				logger.Error(LogMsgDeadLetterWriteFailed, "error", err)
			}
			return
		}

		if err := p.inner.Publish(ctx, evt); err != nil {
			lastErr = err
			logger.Warn(LogMsgEventRetryFailed, "event_type", evt.Type, "attempt", attempt, "error", err)
			continue
		}
		logger.Info(LogMsgEventRetrySucceeded, "event_type", evt.Type, "attempt", attempt)
		return
	}

	logger.Error(LogMsgEventRetryExhausted, "event_type", evt.Type, "attempts", p.maxRetries+1)
	if err := p.deadLetter.Write(evt, p.maxRetries+1, lastErr); err != nil {
		logger.Error(LogMsgDeadLetterWriteFailed, "error", err)
	}
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.inner.Subscribe(eventType, handler)
}

// Shutdown stops pending retries, dead-letters their events and closes the dead-letter file
func (p *ResilientPublisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil
	}
	p.shutdown = true
	close(p.stop)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.deadLetter.Close()
}
