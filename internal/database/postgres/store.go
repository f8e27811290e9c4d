package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/opitemdb/internal/repository"
)

// Store implements repository.Store on one connection pool
type Store struct {
	*ItemRepository
	*LookupRepository
	*UserRepository
	db *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		ItemRepository:   NewItemRepository(db),
		LookupRepository: NewLookupRepository(db),
		UserRepository:   NewUserRepository(db),
		db:               db,
	}
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
