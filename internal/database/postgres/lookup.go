package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/opitemdb/internal/domain"
)

var lookupTables = map[domain.LookupKind]string{
	domain.LookupItemTypes: "item_types",
	domain.LookupMaterials: "materials",
	domain.LookupRarities:  "rarities",
}

// LookupRepository implements repository.Lookup for PostgreSQL
type LookupRepository struct {
	db *pgxpool.Pool
}

// NewLookupRepository creates a new LookupRepository
func NewLookupRepository(db *pgxpool.Pool) *LookupRepository {
	return &LookupRepository{db: db}
}

// Lookups returns the entries of one metadata list ordered by sort, then label
func (r *LookupRepository) Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	table, ok := lookupTables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown lookup kind %q", domain.ErrInvalidInput, kind)
	}

	// table comes from a fixed allow-list
	rows, err := r.db.Query(ctx, "SELECT id, slug, label, sort FROM "+table+" ORDER BY sort NULLS LAST, label")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Lookup, error) {
		var l domain.Lookup
		err := row.Scan(&l.ID, &l.Slug, &l.Label, &l.Sort)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
	}
	return entries, nil
}

// Enchantments returns every enchantment definition
func (r *LookupRepository) Enchantments(ctx context.Context) ([]domain.Enchantment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, slug, label, max_level FROM enchantments ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enchantments: %w", err)
	}
	defs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Enchantment, error) {
		var e domain.Enchantment
		err := row.Scan(&e.ID, &e.Slug, &e.Label, &e.MaxLevel)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan enchantments: %w", err)
	}
	return defs, nil
}
