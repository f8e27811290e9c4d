// Package moderation drives the moderation panel: the list of pending items, publish and
// reject actions with per-item isolation, version diffs and live reloads from item events.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/osse101/opitemdb/internal/bff"
	"github.com/osse101/opitemdb/internal/coordinator"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metrics"
	"github.com/osse101/opitemdb/internal/store"
	"github.com/osse101/opitemdb/internal/versiondiff"
	"github.com/osse101/opitemdb/internal/view"
)

// ErrActionInFlight is returned when an action on the same item is already running
var ErrActionInFlight = errors.New("a moderation action for this item is already running")

// Source is the backend the panel talks to
type Source interface {
	ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error)
	PublishItem(ctx context.Context, id int64) (domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListVersions(ctx context.Context, id int64) ([]domain.ItemVersion, error)
}

// Panel is the moderation view model. It owns its own store of pending items.
type Panel struct {
	source   Source
	store    *store.Store
	reloader *coordinator.Reloader
	controls view.ItemControls
	notifier view.Notifier
	log      *slog.Logger

	mu       sync.Mutex
	inFlight map[int64]bool
	session  context.Context
}

// NewPanel creates a closed panel. cfg.Published is forced to pending items only.
// Nil controls or notifier discard their calls.
func NewPanel(source Source, controls view.ItemControls, notifier view.Notifier, cfg coordinator.Config) *Panel {
	if controls == nil {
		controls = view.Nop{}
	}
	if notifier == nil {
		notifier = view.Nop{}
	}
	pending := false
	cfg.Published = &pending

	s := store.New()
	s.SetPageSize(store.Unbounded)

	return &Panel{
		source:   source,
		store:    s,
		reloader: coordinator.NewReloader(coordinator.NewLoader(s, source, cfg)),
		controls: controls,
		notifier: notifier,
		log:      logger.Component("moderation"),
		inFlight: make(map[int64]bool),
	}
}

// Store returns the store holding the pending items
func (p *Panel) Store() *store.Store {
	return p.store
}

// Open starts a visibility session and loads the pending items
func (p *Panel) Open(ctx context.Context) {
	session := p.reloader.OpenSession()
	p.mu.Lock()
	p.session = session
	p.mu.Unlock()

	p.reloader.Trigger(ctx)
}

// IsOpen reports whether a session is active
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Reload requests a refresh; it coalesces with a running load
func (p *Panel) Reload(ctx context.Context) {
	p.reloader.Trigger(ctx)
}

// Close aborts in-flight loads and actions
func (p *Panel) Close() {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	p.reloader.CloseSession()
}

// Publish makes a pending item public
func (p *Panel) Publish(ctx context.Context, id int64) error {
	return p.act(ctx, id, ActionPublish)
}

// Reject deletes a pending item
func (p *Panel) Reject(ctx context.Context, id int64) error {
	return p.act(ctx, id, ActionReject)
}

func (p *Panel) act(ctx context.Context, id int64, action Action) error {
	p.mu.Lock()
	if p.inFlight[id] {
		p.mu.Unlock()
		return ErrActionInFlight
	}
	p.inFlight[id] = true
	session := p.session
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, id)
		p.mu.Unlock()
	}()

	log := logger.FromContext(ctx).With(logger.AttrKeyComponent, "moderation", "item_id", id, "action", string(action))
	title := p.title(id)

	actCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if session != nil {
		stop := context.AfterFunc(session, cancel)
		defer stop()
	}

	p.controls.SetDisabled(id, true)

	var err error
	switch action {
	case ActionPublish:
		_, err = p.source.PublishItem(actCtx, id)
	case ActionReject:
		err = p.source.DeleteItem(actCtx, id)
	}

	if actCtx.Err() != nil || (session != nil && session.Err() != nil) {
		// the panel closed while the request ran; its outcome no longer matters
		p.controls.SetDisabled(id, false)
		log.Debug("Moderation action aborted", "error", err)
		return nil
	}

	if err != nil {
		p.controls.SetDisabled(id, false)

		log.Error("Moderation action failed", "error", err, "kind", domain.KindOf(err))
		metrics.ModerationActions.WithLabelValues(string(action), metrics.ResultFailure).Inc()
		msg := failureMessage(action, err)
		p.controls.ShowError(id, msg)
		p.notifier.Error(msg)
		return err
	}

	metrics.ModerationActions.WithLabelValues(string(action), metrics.ResultSuccess).Inc()
	log.Info("Moderation action applied")
	p.store.RemoveItem(id)

	format := msgPublishedFormat
	if action == ActionReject {
		format = msgRejectedFormat
	}
	p.notifier.Success(fmt.Sprintf(format, title))
	return nil
}

func (p *Panel) title(id int64) string {
	for _, it := range p.store.Snapshot().Items {
		if it.ID == id && it.Title != "" {
			return it.Title
		}
	}
	return fmt.Sprintf(msgUntitledFormat, id)
}

func failureMessage(action Action, err error) string {
	if domain.IsKind(err, domain.KindAuthorization) {
		return MsgSignInRequired
	}
	if action == ActionReject {
		return MsgRejectFailed
	}
	return MsgPublishFailed
}

// Diff compares the two newest versions of an item
func (p *Panel) Diff(ctx context.Context, id int64) (versiondiff.Result, error) {
	versions, err := p.source.ListVersions(ctx, id)
	if err != nil {
		return versiondiff.Result{}, fmt.Errorf("list versions of item %d: %w", id, err)
	}
	return versiondiff.Compute(versions), nil
}

// Watch reloads the pending list on item events until ctx ends or events closes.
// Events that queue up during a reload are folded into one further reload.
func (p *Panel) Watch(ctx context.Context, events <-chan bff.ItemEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.log.Debug("Item event received", "type", ev.Type, "item_id", ev.Payload.ItemID)
			open := drain(events)
			if p.IsOpen() {
				p.reloader.Trigger(ctx)
			}
			if !open {
				return
			}
		}
	}
}

// drain discards queued events. It returns false when the channel is closed.
func drain(events <-chan bff.ItemEvent) bool {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}
