package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/osse101/opitemdb/internal/logger"
)

// Refresher is anything that can run one list load
type Refresher interface {
	Refresh(ctx context.Context) Outcome
}

// Reloader coalesces load triggers: a trigger that arrives while a load is running only
// marks a reload as requested, and exactly one trailing load runs when the current one ends.
// Loads run inside a visibility session whose context is cancelled when the session closes.
type Reloader struct {
	target Refresher
	log    *slog.Logger

	mu              sync.Mutex
	loading         bool
	reloadRequested bool
	session         context.Context
	endSession      context.CancelFunc
}

// NewReloader creates a reloader around target with no open session
func NewReloader(target Refresher) *Reloader {
	return &Reloader{
		target: target,
		log:    logger.Component("reloader"),
	}
}

// OpenSession starts a visibility session, aborting any previous one
func (r *Reloader) OpenSession() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endSession != nil {
		r.endSession()
	}
	r.session, r.endSession = context.WithCancel(context.Background())
	return r.session
}

// CloseSession aborts the in-flight load and drops any pending trailing reload
func (r *Reloader) CloseSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endSession != nil {
		r.endSession()
		r.endSession = nil
	}
	r.session = nil
	r.reloadRequested = false
}

// Loading reports whether a load is running
func (r *Reloader) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Trigger runs a load unless one is already running, in which case it requests a trailing
// reload and returns immediately. The caller that starts a load runs it synchronously,
// together with any trailing reload.
func (r *Reloader) Trigger(ctx context.Context) {
	r.mu.Lock()
	if r.loading {
		r.reloadRequested = true
		r.mu.Unlock()
		return
	}
	r.loading = true
	r.mu.Unlock()

	for {
		loadCtx, cancel := r.loadContext(ctx)
		outcome := r.target.Refresh(loadCtx)
		aborted := loadCtx.Err() != nil || ctx.Err() != nil
		cancel()

		if outcome == OutcomeFailed && !aborted {
			r.log.Warn("Reload failed")
		}

		r.mu.Lock()
		if !r.reloadRequested || aborted {
			r.reloadRequested = false
			r.loading = false
			r.mu.Unlock()
			return
		}
		r.reloadRequested = false
		r.mu.Unlock()
	}
}

// loadContext joins the caller's context with the current session's.
// Values come from the session context.
func (r *Reloader) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	r.mu.Lock()
	session := r.session
	r.mu.Unlock()

	if session == nil {
		return context.WithCancel(ctx)
	}
	// derived from the session so closing it cancels the load before CloseSession returns
	loadCtx, cancel := context.WithCancel(session)
	stop := context.AfterFunc(ctx, cancel)
	return loadCtx, func() {
		stop()
		cancel()
	}
}
