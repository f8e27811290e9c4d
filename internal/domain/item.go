package domain

import "time"

// Star level bounds for items
const (
	MinStarLevel = 0
	MaxStarLevel = 3
)

// ItemSummary is the list representation of a catalog item.
// Rarity, Type and Material carry lookup slugs; the labels are resolved by the data store.
type ItemSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Rarity        string    `json:"rarity"`
	RarityLabel   string    `json:"rarity_label,omitempty"`
	Type          string    `json:"type"`
	TypeLabel     string    `json:"type_label,omitempty"`
	Material      string    `json:"material"`
	MaterialLabel string    `json:"material_label,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	LoreImageURL  *string   `json:"lore_image_url,omitempty"`
	StarLevel     int       `json:"star_level"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerID       string    `json:"owner_id"`
}

// Clone returns a deep copy of the summary
func (s ItemSummary) Clone() ItemSummary {
	c := s
	if s.ImageURL != nil {
		v := *s.ImageURL
		c.ImageURL = &v
	}
	if s.LoreImageURL != nil {
		v := *s.LoreImageURL
		c.LoreImageURL = &v
	}
	return c
}

// CloneItems deep-copies a list of summaries. A nil input yields an empty slice.
func CloneItems(items []ItemSummary) []ItemSummary {
	out := make([]ItemSummary, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Item is a full catalog record including its enchantments
type Item struct {
	ItemSummary
	ItemTypeID   int64             `json:"item_type_id"`
	MaterialID   int64             `json:"material_id"`
	RarityID     int64             `json:"rarity_id"`
	Enchantments []ItemEnchantment `json:"enchantments"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ItemEnchantment links an item to an enchantment at a level
type ItemEnchantment struct {
	EnchantmentID int64 `json:"enchantment_id" validate:"required,gt=0"`
	Level         int   `json:"level" validate:"required,gt=0"`
}

// NewItem is the payload for creating an item. It mirrors the POST /api/items body.
type NewItem struct {
	Title        string            `json:"title" validate:"required,min=1,max=120"`
	Description  string            `json:"description,omitempty" validate:"max=500"`
	ImageURL     string            `json:"image_url,omitempty" validate:"omitempty,url"`
	LoreImageURL string            `json:"lore_image_url,omitempty" validate:"omitempty,url"`
	ItemTypeID   int64             `json:"item_type_id" validate:"required,gt=0"`
	MaterialID   int64             `json:"material_id" validate:"required,gt=0"`
	RarityID     int64             `json:"rarity_id" validate:"required,gt=0"`
	StarLevel    int               `json:"star_level" validate:"min=0,max=3"`
	IsPublished  bool              `json:"is_published"`
	Enchantments []ItemEnchantment `json:"enchantments" validate:"dive"`
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	StarLevel   *int    `json:"star_level,omitempty" validate:"omitempty,min=0,max=3"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.StarLevel == nil && p.IsPublished == nil
}

// ItemQuery selects a page of items
type ItemQuery struct {
	Filters   FilterSet
	Search    string
	Page      int
	PageSize  int
	Published *bool
	// OwnerID restricts results to one owner; set by the server for credential-scoped reads.
	OwnerID string
}

// Offset returns the row offset of the query's page
func (q ItemQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// ItemPage is one page of query results
type ItemPage struct {
	Items []ItemSummary `json:"items"`
	Total int           `json:"total"`
}
