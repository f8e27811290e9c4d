// Package memory is an in-process implementation of repository.Store seeded with the
// same lookup lists as the SQL migrations.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/repository"
)

type record struct {
	item     domain.Item
	versions []domain.ItemVersion
}

// Store keeps every table in maps guarded by one RWMutex
type Store struct {
	mu           sync.RWMutex
	lookups      map[domain.LookupKind][]domain.Lookup
	enchantments []domain.Enchantment
	items        map[int64]*record
	users        map[string]domain.User
	nextItemID   int64
	nextVersion  int64
	now          func() time.Time
}

var _ repository.Store = (*Store)(nil)

func sortPtr(n int) *int { return &n }

// New creates a seeded store
func New() *Store {
	return &Store{
		lookups: map[domain.LookupKind][]domain.Lookup{
			domain.LookupItemTypes: {
				{ID: 1, Slug: "waffe", Label: "Waffe", Sort: sortPtr(1)},
				{ID: 2, Slug: "ruestung", Label: "Rüstung", Sort: sortPtr(2)},
				{ID: 3, Slug: "werkzeug", Label: "Werkzeug", Sort: sortPtr(3)},
				{ID: 4, Slug: "schmuck", Label: "Schmuck", Sort: sortPtr(4)},
			},
			domain.LookupMaterials: {
				{ID: 1, Slug: "holz", Label: "Holz", Sort: sortPtr(1)},
				{ID: 2, Slug: "eisen", Label: "Eisen", Sort: sortPtr(2)},
				{ID: 3, Slug: "gold", Label: "Gold", Sort: sortPtr(3)},
				{ID: 4, Slug: "diamant", Label: "Diamant", Sort: sortPtr(4)},
				{ID: 5, Slug: "netherit", Label: "Netherit", Sort: sortPtr(5)},
			},
			domain.LookupRarities: {
				{ID: 1, Slug: "gewoehnlich", Label: "Gewöhnlich", Sort: sortPtr(1)},
				{ID: 2, Slug: "selten", Label: "Selten", Sort: sortPtr(2)},
				{ID: 3, Slug: "episch", Label: "Episch", Sort: sortPtr(3)},
				{ID: 4, Slug: "legendaer", Label: "Legendär", Sort: sortPtr(4)},
			},
		},
		enchantments: []domain.Enchantment{
			{ID: 1, Slug: "schaerfe", Label: "Schärfe", MaxLevel: 5},
			{ID: 2, Slug: "haltbarkeit", Label: "Haltbarkeit", MaxLevel: 3},
			{ID: 3, Slug: "feueraspekt", Label: "Feueraspekt", MaxLevel: 2},
			{ID: 4, Slug: "reparatur", Label: "Reparatur", MaxLevel: 1},
		},
		items: make(map[int64]*record),
		users: make(map[string]domain.User),
		now:   time.Now,
	}
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// Lookups returns a sorted copy of one metadata list
func (s *Store) Lookups(_ context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.lookups[kind]
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	out := make([]domain.Lookup, len(entries))
	copy(out, entries)
	domain.SortLookups(out)
	return out, nil
}

// Enchantments returns a copy of the enchantment definitions
func (s *Store) Enchantments(context.Context) ([]domain.Enchantment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Enchantment, len(s.enchantments))
	copy(out, s.enchantments)
	return out, nil
}

func findByID(entries []domain.Lookup, id int64) (domain.Lookup, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Lookup{}, false
}

// ListItems filters, orders newest first and pages
func (s *Store) ListItems(_ context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filters := q.Filters.Normalize()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	if search == "" {
		search = strings.ToLower(filters.Get(domain.FilterSearch))
	}

	var matched []domain.ItemSummary
	for _, r := range s.items {
		it := r.item.ItemSummary
		if v := filters.Get(domain.FilterType); v != "" && it.Type != v {
			continue
		}
		if v := filters.Get(domain.FilterMaterial); v != "" && it.Material != v {
			continue
		}
		if v := filters.Get(domain.FilterRarity); v != "" && it.Rarity != v {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.Title), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			continue
		}
		if q.Published != nil && it.IsPublished != *q.Published {
			continue
		}
		if q.OwnerID != "" && it.OwnerID != q.OwnerID {
			continue
		}
		matched = append(matched, it.Clone())
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if q.PageSize > 0 {
		start := q.Offset()
		if start > total {
			start = total
		}
		end := total
		if q.PageSize < total-start {
			end = start + q.PageSize
		}
		matched = matched[start:end]
	}
	if matched == nil {
		matched = []domain.ItemSummary{}
	}
	return domain.ItemPage{Items: matched, Total: total}, nil
}

func cloneItem(it domain.Item) *domain.Item {
	c := it
	c.ItemSummary = it.ItemSummary.Clone()
	c.Enchantments = append([]domain.ItemEnchantment(nil), it.Enchantments...)
	if c.Enchantments == nil {
		c.Enchantments = []domain.ItemEnchantment{}
	}
	return &c
}

// GetItem returns a copy of one item
func (s *Store) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(r.item), nil
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// CreateItem validates references like the SQL foreign keys would and stores the item
func (s *Store) CreateItem(_ context.Context, ownerID string, in domain.NewItem) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return nil, domain.ErrInvalidInput
	}
	itemType, ok1 := findByID(s.lookups[domain.LookupItemTypes], in.ItemTypeID)
	material, ok2 := findByID(s.lookups[domain.LookupMaterials], in.MaterialID)
	rarity, ok3 := findByID(s.lookups[domain.LookupRarities], in.RarityID)
	if !ok1 || !ok2 || !ok3 {
		return nil, domain.ErrInvalidInput
	}
	seen := make(map[int64]bool, len(in.Enchantments))
	for _, e := range in.Enchantments {
		if seen[e.EnchantmentID] || !s.hasEnchantment(e.EnchantmentID) {
			return nil, domain.ErrInvalidInput
		}
		seen[e.EnchantmentID] = true
	}

	s.nextItemID++
	now := s.now().UTC()
	item := domain.Item{
		ItemSummary: domain.ItemSummary{
			ID:            s.nextItemID,
			Title:         in.Title,
			Description:   in.Description,
			Rarity:        rarity.Slug,
			RarityLabel:   rarity.Label,
			Type:          itemType.Slug,
			TypeLabel:     itemType.Label,
			Material:      material.Slug,
			MaterialLabel: material.Label,
			ImageURL:      strPtr(in.ImageURL),
			LoreImageURL:  strPtr(in.LoreImageURL),
			StarLevel:     in.StarLevel,
			IsPublished:   in.IsPublished,
			CreatedAt:     now,
			OwnerID:       ownerID,
		},
		ItemTypeID:   in.ItemTypeID,
		MaterialID:   in.MaterialID,
		RarityID:     in.RarityID,
		Enchantments: append([]domain.ItemEnchantment{}, in.Enchantments...),
		UpdatedAt:    now,
	}
	r := &record{item: item}
	s.items[item.ID] = r
	s.addVersionLocked(r)
	return cloneItem(item), nil
}

func (s *Store) hasEnchantment(id int64) bool {
	for _, d := range s.enchantments {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) addVersionLocked(r *record) {
	raw, _ := json.Marshal(r.item)
	var snapshot map[string]any
	_ = json.Unmarshal(raw, &snapshot)

	s.nextVersion++
	at := s.now().UTC()
	r.versions = append(r.versions, domain.ItemVersion{
		ID:          s.nextVersion,
		ItemID:      r.item.ID,
		Snapshot:    snapshot,
		VersionedAt: &at,
	})
}

// UpdateItem applies patch and records a version
func (s *Store) UpdateItem(_ context.Context, id int64, _ string, patch domain.ItemPatch) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if patch.Title != nil {
		r.item.Title = *patch.Title
	}
	if patch.Description != nil {
		r.item.Description = *patch.Description
	}
	if patch.StarLevel != nil {
		r.item.StarLevel = *patch.StarLevel
	}
	if patch.IsPublished != nil {
		r.item.IsPublished = *patch.IsPublished
	}
	r.item.UpdatedAt = s.now().UTC()
	s.addVersionLocked(r)
	return cloneItem(r.item), nil
}

// DeleteItem removes an item and its history
func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

// ListVersions returns the history of an item, newest first
func (s *Store) ListVersions(_ context.Context, id int64) ([]domain.ItemVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return []domain.ItemVersion{}, nil
	}
	out := make([]domain.ItemVersion, len(r.versions))
	for i, v := range r.versions {
		out[len(r.versions)-1-i] = v
	}
	return out, nil
}

// UpsertDiscordUser creates or refreshes the user with u.DiscordID
func (s *Store) UpsertDiscordUser(_ context.Context, u domain.User) (*domain.User, error) {
	if u.DiscordID == "" {
		return nil, domain.ErrInvalidInput
	}
	if u.Role == "" {
		u.Role = domain.RoleMember
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.users {
		if existing.DiscordID == u.DiscordID {
			u.ID = id
			s.users[id] = u
			return &u, nil
		}
	}
	u.ID = uuid.NewString()
	s.users[u.ID] = u
	return &u, nil
}

// GetUserByID returns a user
func (s *Store) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}
