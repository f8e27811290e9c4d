// Package submission validates a new item, uploads its images, creates it through the BFF
// (or directly in the database when the BFF is unavailable) and reconciles the item list.
// Images uploaded for an attempt that did not create an item are removed again.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/osse101/opitemdb/internal/coordinator"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metrics"
	"github.com/osse101/opitemdb/internal/storage"
	"github.com/osse101/opitemdb/internal/view"
)

// State is a step of one submission attempt
type State int

// Submission states
const (
	StateIdle State = iota
	StateValidating
	StateUploading
	StateSubmittingPrimary
	StateSubmittingFallback
	StateRollingBack
	StateReconciling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateUploading:
		return "uploading"
	case StateSubmittingPrimary:
		return "submitting_primary"
	case StateSubmittingFallback:
		return "submitting_fallback"
	case StateRollingBack:
		return "rolling_back"
	case StateReconciling:
		return "reconciling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Creator is the primary transport
type Creator interface {
	CreateItem(ctx context.Context, item domain.NewItem) (domain.Item, error)
}

// DirectWriter is the fallback transport writing straight to the data store
type DirectWriter interface {
	InsertItem(ctx context.Context, ownerID string, item domain.NewItem) (int64, error)
}

// Identity returns the signed-in user
type Identity interface {
	RequireUser(ctx context.Context) (domain.User, error)
}

// EnchantmentSource lists the known enchantment definitions
type EnchantmentSource interface {
	Enchantments(ctx context.Context) ([]domain.Enchantment, error)
}

// Refresher reloads the item list
type Refresher interface {
	Refresh(ctx context.Context) coordinator.Outcome
}

// Observer is told about every state transition
type Observer func(State)

// Deps are the collaborators of a Pipeline. Fallback and Observer are optional.
type Deps struct {
	Primary      Creator
	Fallback     DirectWriter
	Bucket       storage.Bucket
	Identity     Identity
	Enchantments EnchantmentSource
	Refresher    Refresher
	Form         view.FormView
	Notifier     view.Notifier
	Observer     Observer
}

// Result describes a finished attempt
type Result struct {
	State State
	// ItemID is set when the item was created
	ItemID int64
	// Transport names the transport that created the item
	Transport string
	// Err is the classified failure; nil on success or silent abort
	Err error
}

// Pipeline runs item submissions
type Pipeline struct {
	deps    Deps
	newName func() string
	log     *slog.Logger
}

// NewPipeline creates a submission pipeline
func NewPipeline(deps Deps) *Pipeline {
	if deps.Form == nil {
		deps.Form = view.Nop{}
	}
	if deps.Notifier == nil {
		deps.Notifier = view.Nop{}
	}
	return &Pipeline{
		deps:    deps,
		newName: uuid.NewString,
		log:     logger.Component("submission"),
	}
}

// attempt carries the state of one Submit call
type attempt struct {
	p        *Pipeline
	log      *slog.Logger
	uploaded []string
}

func (a *attempt) enter(s State) {
	a.log.Debug("Submission state", "state", s.String())
	if a.p.deps.Observer != nil {
		a.p.deps.Observer(s)
	}
}

// Submit runs one submission attempt. It never panics and never returns a raw transport error:
// failures are reported to the form and notifier and described by the returned Result.
func (p *Pipeline) Submit(ctx context.Context, raw RawForm) Result {
	a := &attempt{p: p, log: logger.FromContext(ctx).With(logger.AttrKeyComponent, "submission")}
	form := p.deps.Form

	a.enter(StateValidating)
	form.ClearFields()

	var defs []domain.Enchantment
	if raw.Enchantments.Len() > 0 {
		var err error
		defs, err = p.deps.Enchantments.Enchantments(ctx)
		if err != nil {
			a.log.Error("Failed to load enchantment definitions", "error", err)
			return a.fail(ctx, err, MsgMetadataFailed)
		}
	}

	draft, fields := ParseForm(raw, defs)
	if fields != nil {
		for field, msg := range fields {
			form.MarkField(field, msg)
		}
		form.ShowMessage(MsgCheckFields)
		a.enter(StateFailed)
		return Result{State: StateFailed, Err: domain.NewValidationError("submit", fields)}
	}

	user, err := p.deps.Identity.RequireUser(ctx)
	if err != nil {
		return a.fail(ctx, err, MsgSignInRequired)
	}

	form.SetBusy(true)
	defer form.SetBusy(false)

	// Uploading
	var urls [2]string
	for i, f := range []*File{draft.Image, draft.LoreImage} {
		if f == nil {
			continue
		}
		a.enter(StateUploading)
		obj, err := a.upload(ctx, user.ID, f)
		if err != nil {
			a.log.Error("Image upload failed", "file", f.Name, "error", err)
			return a.fail(ctx, err, MsgUploadFailed)
		}
		a.uploaded = append(a.uploaded, obj.Path)
		urls[i] = obj.PublicURL
	}

	item := draft.NewItem(urls[0], urls[1])

	// Primary transport
	a.enter(StateSubmittingPrimary)
	created, err := p.deps.Primary.CreateItem(ctx, item)
	if err == nil {
		return a.reconcile(ctx, created.ID, item, metrics.TransportPrimary)
	}

	switch domain.KindOf(err) {
	case domain.KindAuthorization:
		return a.fail(ctx, err, MsgSignInRequired)
	case domain.KindSchemaValidation:
		var de *domain.Error
		if errors.As(err, &de) {
			for field, msg := range de.Fields {
				form.MarkField(field, msg)
			}
		}
		return a.fail(ctx, err, MsgRejected)
	}
	if aborted(ctx, err) {
		return a.fail(ctx, err, "")
	}
	if createdWithoutBody(err) {
		// The server accepted the item; only its response was unreadable.
		a.log.Warn("Item created but the response could not be read", "error", err)
		return a.reconcile(ctx, 0, item, metrics.TransportPrimary)
	}
	if !domain.IsKind(err, domain.KindTransportUnavailable) {
		a.log.Error("Primary transport failed", "error", err, "kind", domain.KindOf(err))
		return a.fail(ctx, err, MsgSubmitFailed)
	}
	if p.deps.Fallback == nil {
		a.log.Error("Primary transport failed and no fallback is configured", "error", err)
		return a.fail(ctx, err, MsgSubmitFailed)
	}

	// Fallback transport
	a.log.Warn("Primary transport unavailable, writing directly", "error", err, "kind", domain.KindOf(err))
	a.enter(StateSubmittingFallback)
	id, err := p.deps.Fallback.InsertItem(ctx, user.ID, item)
	if err != nil {
		if aborted(ctx, err) {
			return a.fail(ctx, err, "")
		}
		a.log.Error("Fallback transport failed", "error", err)
		return a.fail(ctx, err, MsgSubmitFailed)
	}
	return a.reconcile(ctx, id, item, metrics.TransportFallback)
}

func (a *attempt) upload(ctx context.Context, userID string, f *File) (storage.Object, error) {
	body, err := f.Open()
	if err != nil {
		return storage.Object{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer body.Close()

	objectPath := userID + "/" + a.p.newName() + f.Ext()
	contentType := f.MediaType()
	if contentType == "" {
		contentType = domain.AllowedImageTypes[f.Ext()]
	}
	return a.p.deps.Bucket.Upload(ctx, objectPath, body, contentType)
}

// fail rolls back uploads and reports err. An empty message keeps the failure silent.
func (a *attempt) fail(ctx context.Context, err error, message string) Result {
	a.rollback(ctx)
	a.enter(StateFailed)

	if message != "" {
		a.p.deps.Form.ShowMessage(message)
		a.p.deps.Notifier.Error(message)
		return Result{State: StateFailed, Err: err}
	}
	a.log.Info("Submission aborted")
	return Result{State: StateFailed}
}

func (a *attempt) rollback(ctx context.Context) {
	if len(a.uploaded) == 0 {
		return
	}
	a.enter(StateRollingBack)

	// cleanup still runs when the attempt itself was cancelled
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := a.p.deps.Bucket.Remove(rbCtx, a.uploaded); err != nil {
		a.log.Warn("Failed to remove uploaded images", "paths", a.uploaded, "error", err)
		return
	}
	metrics.UploadRollbacks.Add(float64(len(a.uploaded)))
	a.log.Info("Removed uploaded images", "paths", a.uploaded)
	a.uploaded = nil
}

func (a *attempt) reconcile(ctx context.Context, id int64, item domain.NewItem, transport string) Result {
	a.enter(StateReconciling)
	metrics.ItemsCreated.WithLabelValues(transport).Inc()
	a.log.Info("Item created", "item_id", id, "transport", transport)

	a.p.deps.Form.Close()
	pattern := msgSubmittedPattern
	if item.IsPublished {
		pattern = msgCreatedPattern
	}
	a.p.deps.Notifier.Success(fmt.Sprintf(pattern, item.Title))
	if a.p.deps.Refresher != nil {
		a.p.deps.Refresher.Refresh(ctx)
	}

	a.enter(StateDone)
	return Result{State: StateDone, ItemID: id, Transport: transport}
}

// createdWithoutBody reports a 2xx answer whose body could not be decoded
func createdWithoutBody(err error) bool {
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindUpstreamData {
		return false
	}
	return de.Status >= 200 && de.Status <= 299
}

func aborted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
