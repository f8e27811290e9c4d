package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osse101/opitemdb/internal/database"
	"github.com/osse101/opitemdb/internal/domain"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()

	var terminate func()
	if !testing.Short() && os.Getenv("SKIP_INTEGRATION") == "" {
		terminate = setupDatabase(context.Background())
	}

	code := m.Run()

	if testPool != nil {
		testPool.Close()
	}
	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func setupDatabase(ctx context.Context) func() {
	// testcontainers panics when Docker is unavailable
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic in setupDatabase: %v\n", r)
		}
	}()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Printf("WARNING: Failed to start postgres container: %v\n", err)
		return nil
	}
	terminate := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Printf("WARNING: Failed to get connection string: %v\n", err)
		return terminate
	}

	pool, err := database.NewPool(connStr, 10, time.Minute, 5*time.Minute)
	if err != nil {
		fmt.Printf("WARNING: Failed to connect: %v\n", err)
		return terminate
	}
	if _, err := database.Migrate(ctx, pool); err != nil {
		fmt.Printf("WARNING: Failed to migrate: %v\n", err)
		pool.Close()
		return terminate
	}

	testPool = pool
	return terminate
}

func requirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testPool == nil {
		t.Skip("Skipping integration test: database not available")
	}
	return testPool
}

// lookupID resolves a seeded lookup slug
func lookupID(t *testing.T, pool *pgxpool.Pool, table, slug string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT id FROM "+table+" WHERE slug = $1", slug).Scan(&id))
	return id
}

func createUser(t *testing.T, store *Store, discordID string, role string) *domain.User {
	t.Helper()
	u, err := store.UpsertDiscordUser(context.Background(), domain.User{
		DiscordID: discordID,
		Username:  "user-" + discordID,
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

func newItem(t *testing.T, pool *pgxpool.Pool, title, rarity string) domain.NewItem {
	return domain.NewItem{
		Title:       title,
		Description: "Beschreibung von " + title,
		ItemTypeID:  lookupID(t, pool, "item_types", "waffe"),
		MaterialID:  lookupID(t, pool, "materials", "eisen"),
		RarityID:    lookupID(t, pool, "rarities", rarity),
		StarLevel:   2,
	}
}

func TestUserRepository_Upsert(t *testing.T) {
	pool := requirePool(t)
	store := NewStore(pool)
	ctx := context.Background()

	first := createUser(t, store, "1001", domain.RoleMember)
	assert.NotEmpty(t, first.ID)

	again, err := store.UpsertDiscordUser(ctx, domain.User{DiscordID: "1001", Username: "renamed", Role: domain.RoleModerator})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "renamed", again.Username)
	assert.True(t, again.IsModerator())

	got, err := store.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)

	_, err = store.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLookupRepository_Ordered(t *testing.T) {
	pool := requirePool(t)
	store := NewStore(pool)

	rarities, err := store.Lookups(context.Background(), domain.LookupRarities)
	require.NoError(t, err)
	require.Len(t, rarities, 4)
	assert.Equal(t, "gewoehnlich", rarities[0].Slug)
	assert.Equal(t, "legendaer", rarities[3].Slug)

	_, err = store.Lookups(context.Background(), domain.LookupKind("colors"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	defs, err := store.Enchantments(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, defs)
}

func TestItemRepository_Lifecycle(t *testing.T) {
	pool := requirePool(t)
	store := NewStore(pool)
	ctx := context.Background()

	owner := createUser(t, store, "2001", domain.RoleMember)
	mod := createUser(t, store, "2002", domain.RoleModerator)

	defs, err := store.Enchantments(ctx)
	require.NoError(t, err)

	input := newItem(t, pool, "Flammenschwert", "episch")
	input.Enchantments = []domain.ItemEnchantment{{EnchantmentID: defs[0].ID, Level: 1}}

	created, err := store.CreateItem(ctx, owner.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "episch", created.Rarity)
	assert.Equal(t, "Episch", created.RarityLabel)
	assert.Equal(t, owner.ID, created.OwnerID)
	assert.False(t, created.IsPublished)
	assert.Len(t, created.Enchantments, 1)

	pending := false
	page, err := store.ListItems(ctx, domain.ItemQuery{Published: &pending, OwnerID: owner.ID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	published := true
	title := "Großes Flammenschwert"
	updated, err := store.UpdateItem(ctx, created.ID, mod.ID, domain.ItemPatch{Title: &title, IsPublished: &published})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)
	assert.Equal(t, title, updated.Title)

	versions, err := store.ListVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, title, versions[0].Snapshot["title"])
	assert.Equal(t, "Flammenschwert", versions[1].Snapshot["title"])

	require.NoError(t, store.DeleteItem(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteItem(ctx, created.ID), domain.ErrItemNotFound)
	_, err = store.GetItem(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestItemRepository_ListFiltersAndPages(t *testing.T) {
	pool := requirePool(t)
	store := NewStore(pool)
	ctx := context.Background()

	owner := createUser(t, store, "3001", domain.RoleMember)
	for i, rarity := range []string{"episch", "selten", "episch", "gewoehnlich"} {
		in := newItem(t, pool, fmt.Sprintf("Listenitem %d", i), rarity)
		in.IsPublished = true
		_, err := store.CreateItem(ctx, owner.ID, in)
		require.NoError(t, err)
	}

	page, err := store.ListItems(ctx, domain.ItemQuery{
		Filters:  domain.FilterSet{domain.FilterRarity: "episch"},
		Search:   "Listenitem",
		Page:     1,
		PageSize: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	page, err = store.ListItems(ctx, domain.ItemQuery{Search: "listenitem", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Items, 1)
}

func TestItemRepository_InvalidForeignKey(t *testing.T) {
	pool := requirePool(t)
	store := NewStore(pool)

	owner := createUser(t, store, "4001", domain.RoleMember)
	in := newItem(t, pool, "Geisteritem", "selten")
	in.RarityID = 999999

	_, err := store.CreateItem(context.Background(), owner.ID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestItemWriter_InsertsItemAndEnchantmentsAtomically(t *testing.T) {
	pool := requirePool(t)
	store := NewStore(pool)
	ctx := context.Background()

	owner := createUser(t, store, "5001", domain.RoleMember)
	defs, err := store.Enchantments(ctx)
	require.NoError(t, err)

	w := NewItemWriter(pool)
	layout, err := w.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "current", layout.Name)

	in := newItem(t, pool, "Direktitem", "selten")
	in.Enchantments = []domain.ItemEnchantment{{EnchantmentID: defs[0].ID, Level: 2}}
	id, err := w.InsertItem(ctx, owner.ID, in)
	require.NoError(t, err)

	item, err := store.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Len(t, item.Enchantments, 1)

	// an unknown enchantment must not leave the parent row behind
	orphan := newItem(t, pool, "Waisenitem", "selten")
	orphan.Enchantments = []domain.ItemEnchantment{{EnchantmentID: 999999, Level: 1}}
	_, err = w.InsertItem(ctx, owner.ID, orphan)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM items WHERE title = 'Waisenitem'").Scan(&count))
	assert.Zero(t, count)
}
