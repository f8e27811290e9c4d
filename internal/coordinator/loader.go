// Package coordinator runs list loads against an item source and keeps the store consistent
// when loads overlap: the last issued load wins and superseded results are discarded.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metrics"
	"github.com/osse101/opitemdb/internal/store"
)

// ItemSource answers list queries
type ItemSource interface {
	ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error)
}

// Outcome is the result of one Refresh call
type Outcome int

const (
	// OutcomeApplied means the result was written to the store
	OutcomeApplied Outcome = iota
	// OutcomeDiscarded means a newer load superseded this one, or the caller aborted it
	OutcomeDiscarded
	// OutcomeFailed means the error state was written to the store
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Config tunes list queries. Mutating calls are never retried.
type Config struct {
	// Timeout bounds each attempt; zero disables it
	Timeout time.Duration
	// Retries is the number of extra attempts after a retryable failure
	Retries int
	// Backoff is the delay before the first retry, doubled for each further one
	Backoff time.Duration
	// Published pins the is_published filter of every query (nil means unfiltered)
	Published *bool
}

// DefaultConfig returns the list query defaults
func DefaultConfig() Config {
	return Config{
		Timeout: DefaultQueryTimeout,
		Retries: DefaultQueryRetries,
		Backoff: DefaultRetryBackoff,
	}
}

// Loader loads the item list for one store
type Loader struct {
	store  *store.Store
	source ItemSource
	cfg    Config
	log    *slog.Logger

	latest atomic.Uint64

	// mu serializes token issue with BeginLoading and the token check with applying,
	// so a superseded load can never write after a newer one.
	mu       sync.Mutex
	inFlight context.CancelFunc
}

// NewLoader creates a loader that writes into s
func NewLoader(s *store.Store, source ItemSource, cfg Config) *Loader {
	return &Loader{
		store:  s,
		source: source,
		cfg:    cfg,
		log:    logger.Component("coordinator"),
	}
}

// Refresh loads the page described by the store's current state.
// It never returns an error: failures end up in the store's error state.
// Refresh must not be called from inside a subscriber of the loader's own store.
func (l *Loader) Refresh(ctx context.Context) Outcome {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	token := l.latest.Add(1)
	snap := l.store.Snapshot()
	if l.inFlight != nil {
		// the previous load can no longer be applied
		l.inFlight()
	}
	l.inFlight = cancel
	l.store.BeginLoading(ExpectedRows(snap.PageSize))
	l.mu.Unlock()

	q := QueryFromState(snap, l.cfg.Published)
	page, err := l.fetch(reqCtx, token, q)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.latest.Load() != token {
		l.log.Debug("Discarding stale list result", "token", token, "latest", l.latest.Load())
		metrics.ListRefreshes.WithLabelValues(OutcomeDiscarded.String()).Inc()
		return OutcomeDiscarded
	}
	l.inFlight = nil

	if ctx.Err() != nil {
		// aborted by the caller; whatever arrived afterwards is dropped
		l.log.Debug("Discarding list result of an aborted load", "token", token)
		metrics.ListRefreshes.WithLabelValues(OutcomeDiscarded.String()).Inc()
		return OutcomeDiscarded
	}

	if err != nil {
		l.log.Error("Failed to load items", "token", token, "error", err, "kind", domain.KindOf(err))
		l.store.ApplyError(UserMessage(err))
		metrics.ListRefreshes.WithLabelValues(OutcomeFailed.String()).Inc()
		return OutcomeFailed
	}

	l.store.ApplyResult(page)
	metrics.ListRefreshes.WithLabelValues(OutcomeApplied.String()).Inc()
	return OutcomeApplied
}

// fetch runs the query with per-attempt timeouts and exponential backoff.
// Retries stop as soon as the load is superseded or cancelled.
func (l *Loader) fetch(ctx context.Context, token uint64, q domain.ItemQuery) (domain.ItemPage, error) {
	var lastErr error
	for attempt := 0; attempt <= l.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := l.cfg.Backoff * time.Duration(1<<uint(attempt-1))
			l.log.Info("Retrying item query", "attempt", attempt, "delay", delay, "token", token)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return domain.ItemPage{}, ctx.Err()
			case <-timer.C:
			}
		}

		page, err := l.attempt(ctx, q)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if ctx.Err() != nil || l.latest.Load() != token || !retryable(err) {
			break
		}
		l.log.Warn("Item query failed", "attempt", attempt, "error", err)
	}
	return domain.ItemPage{}, lastErr
}

func (l *Loader) attempt(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}
	return l.source.ListItems(ctx, q)
}

func retryable(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindAuthorization, domain.KindSchemaValidation, domain.KindValidation:
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// QueryFromState builds the list query for a store snapshot
func QueryFromState(s store.State, published *bool) domain.ItemQuery {
	filters := s.Filters.Normalize()
	search := s.SearchQuery
	if search == "" {
		search = filters.Get(domain.FilterSearch)
	}
	delete(filters, domain.FilterSearch)

	return domain.ItemQuery{
		Filters:   filters,
		Search:    search,
		Page:      s.Page,
		PageSize:  s.PageSize,
		Published: published,
	}
}

// ExpectedRows is the number of placeholder rows shown while a page loads
func ExpectedRows(pageSize int) int {
	if pageSize <= 0 || pageSize > MaxSkeletonRows {
		return MaxSkeletonRows
	}
	return pageSize
}

// UserMessage maps an error to the sanitized text shown in the list's error state
func UserMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	switch domain.KindOf(err) {
	case domain.KindAuthorization:
		return MsgSignInRequired
	case domain.KindTransportUnavailable:
		return MsgServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgServiceUnavailable
	}
	return MsgLoadFailed
}
