package metacache

import (
	"context"

	"github.com/osse101/opitemdb/internal/domain"
)

// LookupSource loads metadata lists from their origin
type LookupSource interface {
	Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error)
	Enchantments(ctx context.Context) ([]domain.Enchantment, error)
}

// Lookups serves metadata lists through a Cache keyed by endpoint name
type Lookups struct {
	cache  *Cache
	source LookupSource
}

// NewLookups creates a cached view of source
func NewLookups(cache *Cache, source LookupSource) *Lookups {
	return &Lookups{cache: cache, source: source}
}

// List returns the item types, materials or rarities, ordered by sort then label
func (l *Lookups) List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	entries, err := Get(ctx, l.cache, string(kind), func(ctx context.Context) ([]domain.Lookup, error) {
		entries, err := l.source.Lookups(ctx, kind)
		if err != nil {
			return nil, err
		}
		domain.SortLookups(entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	// callers may sort or trim their copy
	out := make([]domain.Lookup, len(entries))
	copy(out, entries)
	return out, nil
}

// Enchantments returns the enchantment definitions
func (l *Lookups) Enchantments(ctx context.Context) ([]domain.Enchantment, error) {
	defs, err := Get(ctx, l.cache, string(domain.LookupEnchantments), l.source.Enchantments)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Enchantment, len(defs))
	copy(out, defs)
	return out, nil
}

// Invalidate drops every cached list
func (l *Lookups) Invalidate() {
	for _, kind := range []domain.LookupKind{
		domain.LookupItemTypes, domain.LookupMaterials, domain.LookupRarities, domain.LookupEnchantments,
	} {
		l.cache.Invalidate(string(kind))
	}
}
