package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/domain"
)

func seedUser(t *testing.T, s *Store, discordID string) string {
	t.Helper()
	u, err := s.UpsertDiscordUser(context.Background(), domain.User{DiscordID: discordID, Username: discordID})
	require.NoError(t, err)
	return u.ID
}

func TestUpsertDiscordUser_StableID(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.UpsertDiscordUser(ctx, domain.User{DiscordID: "42", Username: "alt"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, first.Role)

	second, err := s.UpsertDiscordUser(ctx, domain.User{DiscordID: "42", Username: "neu"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "neu", got.Username)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLookups_SeededAndSorted(t *testing.T) {
	s := New()
	rarities, err := s.Lookups(context.Background(), domain.LookupRarities)
	require.NoError(t, err)
	require.Len(t, rarities, 4)
	assert.Equal(t, "gewoehnlich", rarities[0].Slug)
	assert.Equal(t, "legendaer", rarities[3].Slug)

	_, err = s.Lookups(context.Background(), domain.LookupKind("colors"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	enchantments, err := s.Enchantments(context.Background())
	require.NoError(t, err)
	assert.Len(t, enchantments, 4)
}

func TestCreateItem_RejectsUnknownReferences(t *testing.T) {
	s := New()
	owner := seedUser(t, s, "1")
	ctx := context.Background()

	_, err := s.CreateItem(ctx, owner, domain.NewItem{Title: "X", ItemTypeID: 99, MaterialID: 1, RarityID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.CreateItem(ctx, "nobody", domain.NewItem{Title: "X", ItemTypeID: 1, MaterialID: 1, RarityID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.CreateItem(ctx, owner, domain.NewItem{
		Title: "X", ItemTypeID: 1, MaterialID: 1, RarityID: 1,
		Enchantments: []domain.ItemEnchantment{{EnchantmentID: 77, Level: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestItemLifecycle(t *testing.T) {
	s := New()
	owner := seedUser(t, s, "1")
	ctx := context.Background()

	created, err := s.CreateItem(ctx, owner, domain.NewItem{
		Title:        "Klinge",
		ItemTypeID:   1,
		MaterialID:   4,
		RarityID:     3,
		StarLevel:    2,
		ImageURL:     "http://localhost/a.png",
		Enchantments: []domain.ItemEnchantment{{EnchantmentID: 1, Level: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "episch", created.Rarity)
	assert.Equal(t, "Diamant", created.MaterialLabel)
	require.NotNil(t, created.ImageURL)
	assert.Nil(t, created.LoreImageURL)
	assert.Len(t, created.Enchantments, 1)

	published := true
	title := "Scharfe Klinge"
	updated, err := s.UpdateItem(ctx, created.ID, owner, domain.ItemPatch{Title: &title, IsPublished: &published})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)

	versions, err := s.ListVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "Scharfe Klinge", versions[0].Snapshot["title"])
	assert.Equal(t, "Klinge", versions[1].Snapshot["title"])

	require.NoError(t, s.DeleteItem(ctx, created.ID))
	_, err = s.GetItem(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.ErrorIs(t, s.DeleteItem(ctx, created.ID), domain.ErrItemNotFound)
}

func TestListItems_FiltersAndPages(t *testing.T) {
	s := New()
	owner := seedUser(t, s, "1")
	other := seedUser(t, s, "2")
	ctx := context.Background()

	for i, rarity := range []int64{3, 3, 1, 2} {
		ownerID := owner
		if i == 3 {
			ownerID = other
		}
		_, err := s.CreateItem(ctx, ownerID, domain.NewItem{
			Title: "Stab", Description: "aus Holz", ItemTypeID: 1, MaterialID: 1, RarityID: rarity,
			IsPublished: i != 2,
		})
		require.NoError(t, err)
	}

	page, err := s.ListItems(ctx, domain.ItemQuery{Filters: domain.FilterSet{domain.FilterRarity: "episch"}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = s.ListItems(ctx, domain.ItemQuery{Search: "HOLZ", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Items, 1)

	pending := false
	page, err = s.ListItems(ctx, domain.ItemQuery{Published: &pending})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = s.ListItems(ctx, domain.ItemQuery{OwnerID: other})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = s.ListItems(ctx, domain.ItemQuery{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestGetItem_ReturnsCopy(t *testing.T) {
	s := New()
	owner := seedUser(t, s, "1")
	created, err := s.CreateItem(context.Background(), owner, domain.NewItem{Title: "Ring", ItemTypeID: 4, MaterialID: 3, RarityID: 2})
	require.NoError(t, err)

	created.Title = "changed"
	got, err := s.GetItem(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ring", got.Title)
}
