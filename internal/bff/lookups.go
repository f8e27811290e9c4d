package bff

import (
	"context"
	"fmt"
	"net/http"

	"github.com/osse101/opitemdb/internal/domain"
)

// Lookups fetches one of the item_types, materials or rarities lists
func (c *Client) Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	if !kind.IsValid() || kind == domain.LookupEnchantments {
		return nil, fmt.Errorf("%w: lookup kind %q", domain.ErrInvalidInput, kind)
	}
	var entries []domain.Lookup
	if err := c.do(ctx, "list "+string(kind), http.MethodGet, "/api/"+string(kind), nil, &entries); err != nil {
		return nil, err
	}
	domain.SortLookups(entries)
	return entries, nil
}

// Enchantments fetches the enchantment definitions
func (c *Client) Enchantments(ctx context.Context) ([]domain.Enchantment, error) {
	var defs []domain.Enchantment
	if err := c.do(ctx, "list enchantments", http.MethodGet, PathEnchantments, nil, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// Me returns the user behind the current credential
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	if err := c.do(ctx, "get current user", http.MethodGet, PathMe, nil, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SignOut revokes the current credential on the server
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, "sign out", http.MethodPost, PathSignOut, nil, nil)
}

// Health probes the BFF liveness endpoint
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, PathHealth, nil, nil)
}
