package bff

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/store"
)

// ListItems fetches one page of items. It satisfies coordinator.ItemSource.
func (c *Client) ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
	var page domain.ItemPage
	if err := c.do(ctx, "list items", http.MethodGet, PathItems+"?"+EncodeQuery(q).Encode(), nil, &page); err != nil {
		return domain.ItemPage{}, err
	}
	if page.Items == nil {
		page.Items = []domain.ItemSummary{}
	}
	return page, nil
}

// EncodeQuery renders an item query as GET /api/items parameters
func EncodeQuery(q domain.ItemQuery) url.Values {
	v := url.Values{}
	filters := q.Filters.Normalize()
	for key, param := range map[domain.FilterKey]string{
		domain.FilterType:     ParamType,
		domain.FilterMaterial: ParamMaterial,
		domain.FilterRarity:   ParamRarity,
	} {
		if val := filters.Get(key); val != "" {
			v.Set(param, val)
		}
	}
	search := q.Search
	if search == "" {
		search = filters.Get(domain.FilterSearch)
	}
	if search != "" {
		v.Set(ParamSearch, search)
	}
	if q.Page > 0 {
		v.Set(ParamPage, strconv.Itoa(q.Page))
	}
	switch {
	case q.PageSize == store.Unbounded:
		v.Set(ParamPageSize, PageSizeAll)
	case q.PageSize > 0:
		v.Set(ParamPageSize, strconv.Itoa(q.PageSize))
	}
	if q.Published != nil {
		v.Set(ParamIsPublished, strconv.FormatBool(*q.Published))
	}
	return v
}

// CreateItem submits a new item with the caller's credential
func (c *Client) CreateItem(ctx context.Context, item domain.NewItem) (domain.Item, error) {
	var created domain.Item
	if err := c.do(ctx, "create item", http.MethodPost, PathItems, item, &created); err != nil {
		return domain.Item{}, err
	}
	return created, nil
}

// UpdateItem applies a partial update
func (c *Client) UpdateItem(ctx context.Context, id int64, patch domain.ItemPatch) (domain.Item, error) {
	var updated domain.Item
	if err := c.do(ctx, "update item", http.MethodPatch, itemPath(id), patch, &updated); err != nil {
		return domain.Item{}, err
	}
	return updated, nil
}

// PublishItem marks a pending item as published
func (c *Client) PublishItem(ctx context.Context, id int64) (domain.Item, error) {
	published := true
	return c.UpdateItem(ctx, id, domain.ItemPatch{IsPublished: &published})
}

// DeleteItem removes (rejects) an item
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, "delete item", http.MethodDelete, itemPath(id), nil, nil)
}

// ListVersions returns the version history of an item
func (c *Client) ListVersions(ctx context.Context, id int64) ([]domain.ItemVersion, error) {
	var versions []domain.ItemVersion
	if err := c.do(ctx, "list versions", http.MethodGet, itemPath(id)+"/versions", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func itemPath(id int64) string {
	return PathItems + "/" + strconv.FormatInt(id, 10)
}
