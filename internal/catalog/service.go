// Package catalog implements the item catalog use cases behind the BFF: credential-scoped
// listing, item writes with permission checks, version history and cached lookups.
package catalog

import (
	"context"
	"fmt"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metacache"
	"github.com/osse101/opitemdb/internal/repository"
)

// Service defines the catalog operations. A nil viewer is an anonymous caller.
type Service interface {
	// ListItems returns a page of items visible to viewer
	ListItems(ctx context.Context, viewer *domain.User, q domain.ItemQuery) (domain.ItemPage, error)

	// GetItem returns one item visible to viewer
	GetItem(ctx context.Context, viewer *domain.User, id int64) (*domain.Item, error)

	// CreateItem stores a new item owned by actor
	CreateItem(ctx context.Context, actor domain.User, in domain.NewItem) (*domain.Item, error)

	// UpdateItem edits or publishes an item
	UpdateItem(ctx context.Context, actor domain.User, id int64, patch domain.ItemPatch) (*domain.Item, error)

	// DeleteItem removes (rejects) an item
	DeleteItem(ctx context.Context, actor domain.User, id int64) error

	// ListVersions returns the version history of an item, newest first
	ListVersions(ctx context.Context, actor domain.User, id int64) ([]domain.ItemVersion, error)

	// Lookups returns one metadata list
	Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error)

	// Enchantments returns the enchantment definitions
	Enchantments(ctx context.Context) ([]domain.Enchantment, error)
}

type service struct {
	repo    repository.Store
	lookups *metacache.Lookups
	bus     event.Bus
}

// NewService creates a catalog service. lookups caches the metadata lists of repo.
func NewService(repo repository.Store, lookups *metacache.Lookups, bus event.Bus) Service {
	return &service{
		repo:    repo,
		lookups: lookups,
		bus:     bus,
	}
}

func (s *service) ListItems(ctx context.Context, viewer *domain.User, q domain.ItemQuery) (domain.ItemPage, error) {
	q.OwnerID = ""
	switch {
	case q.Published == nil:
		if !viewer.IsModerator() {
			published := true
			q.Published = &published
		}
	case !*q.Published:
		if viewer == nil {
			return domain.ItemPage{}, domain.ErrUnauthenticated
		}
		if !viewer.IsModerator() {
			q.OwnerID = viewer.ID
		}
	}

	page, err := s.repo.ListItems(ctx, q)
	if err != nil {
		return domain.ItemPage{}, fmt.Errorf("failed to list items: %w", err)
	}
	return page, nil
}

func (s *service) GetItem(ctx context.Context, viewer *domain.User, id int64) (*domain.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsPublished && !viewer.CanManage(item.OwnerID) {
		// pending items are invisible to everyone else
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

func (s *service) CreateItem(ctx context.Context, actor domain.User, in domain.NewItem) (*domain.Item, error) {
	log := logger.FromContext(ctx)

	if in.IsPublished && !actor.IsModerator() {
		// members submit for review
		in.IsPublished = false
	}

	item, err := s.repo.CreateItem(ctx, actor.ID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	log.Info(LogMsgItemCreated, "item_id", item.ID, "owner_id", actor.ID, "published", item.IsPublished)
	s.publish(ctx, event.ItemCreated, item.ItemSummary, actor.ID)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, actor domain.User, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	log := logger.FromContext(ctx)

	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	current, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(current.OwnerID) {
		if !current.IsPublished {
			return nil, domain.ErrItemNotFound
		}
		return nil, domain.ErrForbidden
	}
	if patch.IsPublished != nil && *patch.IsPublished != current.IsPublished && !actor.IsModerator() {
		return nil, fmt.Errorf("%w: only moderators can change the publication state", domain.ErrForbidden)
	}

	item, err := s.repo.UpdateItem(ctx, id, actor.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	log.Info(LogMsgItemUpdated, "item_id", id, "actor_id", actor.ID)
	evtType := event.ItemUpdated
	if item.IsPublished && !current.IsPublished {
		evtType = event.ItemPublished
	}
	s.publish(ctx, evtType, item.ItemSummary, actor.ID)
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, actor domain.User, id int64) error {
	log := logger.FromContext(ctx)

	current, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(current.OwnerID) {
		if !current.IsPublished {
			return domain.ErrItemNotFound
		}
		return domain.ErrForbidden
	}

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	log.Info(LogMsgItemDeleted, "item_id", id, "actor_id", actor.ID)
	s.publish(ctx, event.ItemRejected, current.ItemSummary, actor.ID)
	return nil
}

func (s *service) ListVersions(ctx context.Context, actor domain.User, id int64) ([]domain.ItemVersion, error) {
	current, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(current.OwnerID) {
		return nil, domain.ErrForbidden
	}

	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

func (s *service) Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	if !kind.IsValid() || kind == domain.LookupEnchantments {
		return nil, fmt.Errorf("%w: unknown lookup %q", domain.ErrInvalidInput, kind)
	}
	return s.lookups.List(ctx, kind)
}

func (s *service) Enchantments(ctx context.Context) ([]domain.Enchantment, error) {
	return s.lookups.Enchantments(ctx)
}

func (s *service) publish(ctx context.Context, t event.Type, item domain.ItemSummary, actorID string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.NewItemEvent(t, item, actorID)); err != nil {
		logger.FromContext(ctx).Warn(LogMsgEventPublishError, "type", t, "item_id", item.ID, "error", err)
	}
}
