package repository

import (
	"context"

	"github.com/osse101/opitemdb/internal/domain"
)

// Item defines the interface for catalog item persistence.
// Every create and update stores a version snapshot of the item in the same transaction.
type Item interface {
	ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	CreateItem(ctx context.Context, ownerID string, item domain.NewItem) (*domain.Item, error)
	UpdateItem(ctx context.Context, id int64, actorID string, patch domain.ItemPatch) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListVersions(ctx context.Context, id int64) ([]domain.ItemVersion, error)
}

// Lookup defines the interface for the item metadata lists
type Lookup interface {
	Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error)
	Enchantments(ctx context.Context) ([]domain.Enchantment, error)
}
