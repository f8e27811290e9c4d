package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/opitemdb/internal/domain"
)

const summaryColumns = `
	i.id, i.title, i.description,
	r.slug, r.label, t.slug, t.label, m.slug, m.label,
	i.image_url, i.lore_image_url, i.star_level, i.is_published, i.created_at, i.owner_id::text`

const itemColumns = summaryColumns + `,
	i.item_type_id, i.material_id, i.rarity_id, i.updated_at`

const itemFrom = `
	FROM items i
	JOIN item_types t ON t.id = i.item_type_id
	JOIN materials m ON m.id = i.material_id
	JOIN rarities r ON r.id = i.rarity_id`

// ItemRepository implements repository.Item for PostgreSQL
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// buildItemFilter returns the WHERE clause and arguments for q
func buildItemFilter(q domain.ItemQuery) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	filters := q.Filters.Normalize()
	if v := filters.Get(domain.FilterType); v != "" {
		conds = append(conds, "t.slug = "+arg(v))
	}
	if v := filters.Get(domain.FilterMaterial); v != "" {
		conds = append(conds, "m.slug = "+arg(v))
	}
	if v := filters.Get(domain.FilterRarity); v != "" {
		conds = append(conds, "r.slug = "+arg(v))
	}
	search := strings.TrimSpace(q.Search)
	if search == "" {
		search = filters.Get(domain.FilterSearch)
	}
	if search != "" {
		p := arg(containsPattern(search))
		conds = append(conds, "(i.title ILIKE "+p+" OR i.description ILIKE "+p+")")
	}
	if q.Published != nil {
		conds = append(conds, "i.is_published = "+arg(*q.Published))
	}
	if q.OwnerID != "" {
		conds = append(conds, "i.owner_id = "+arg(q.OwnerID)+"::uuid")
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\n\tWHERE " + strings.Join(conds, " AND "), args
}

// ListItems returns one page of items, newest first
func (r *ItemRepository) ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
	where, args := buildItemFilter(q)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*)"+itemFrom+where, args...).Scan(&total); err != nil {
		return domain.ItemPage{}, fmt.Errorf("failed to count items: %w", err)
	}

	query := "SELECT" + summaryColumns + itemFrom + where + "\n\tORDER BY i.created_at DESC, i.id DESC"
	if q.PageSize > 0 && q.PageSize < maxLimit {
		query += fmt.Sprintf("\n\tLIMIT %d OFFSET %d", q.PageSize, q.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return domain.ItemPage{}, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []domain.ItemSummary{}
	for rows.Next() {
		var s domain.ItemSummary
		if err := rows.Scan(summaryDest(&s)...); err != nil {
			return domain.ItemPage{}, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return domain.ItemPage{}, fmt.Errorf("failed to iterate items: %w", err)
	}

	return domain.ItemPage{Items: items, Total: total}, nil
}

func summaryDest(s *domain.ItemSummary) []any {
	return []any{
		&s.ID, &s.Title, &s.Description,
		&s.Rarity, &s.RarityLabel, &s.Type, &s.TypeLabel, &s.Material, &s.MaterialLabel,
		&s.ImageURL, &s.LoreImageURL, &s.StarLevel, &s.IsPublished, &s.CreatedAt, &s.OwnerID,
	}
}

// GetItem retrieves an item with its enchantments
func (r *ItemRepository) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return getItem(ctx, r.db, id, false)
}

func getItem(ctx context.Context, db querier, id int64, forUpdate bool) (*domain.Item, error) {
	query := "SELECT" + itemColumns + itemFrom + "\n\tWHERE i.id = $1"
	if forUpdate {
		query += "\n\tFOR UPDATE OF i"
	}

	var item domain.Item
	dest := append(summaryDest(&item.ItemSummary), &item.ItemTypeID, &item.MaterialID, &item.RarityID, &item.UpdatedAt)
	if err := db.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT enchantment_id, level
		FROM item_enchantments
		WHERE item_id = $1
		ORDER BY enchantment_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item enchantments: %w", err)
	}
	enchantments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ItemEnchantment, error) {
		var e domain.ItemEnchantment
		err := row.Scan(&e.EnchantmentID, &e.Level)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan item enchantments: %w", err)
	}
	item.Enchantments = enchantments

	return &item, nil
}

// CreateItem inserts an item, its enchantments and its first version in one transaction
func (r *ItemRepository) CreateItem(ctx context.Context, ownerID string, item domain.NewItem) (*domain.Item, error) {
	owner, err := parseUserUUID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO items (title, description, item_type_id, material_id, rarity_id,
		                   star_level, image_url, lore_image_url, owner_id, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
		RETURNING id
	`,
		item.Title,
		item.Description,
		item.ItemTypeID,
		item.MaterialID,
		item.RarityID,
		item.StarLevel,
		item.ImageURL,
		item.LoreImageURL,
		owner.String(),
		item.IsPublished,
	).Scan(&id)
	if err != nil {
		return nil, mapWriteError("insert item", err)
	}

	if err := insertEnchantments(ctx, tx, id, item.Enchantments); err != nil {
		return nil, err
	}

	created, err := getItem(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := insertVersion(ctx, tx, created, ownerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return created, nil
}

func insertEnchantments(ctx context.Context, db querier, itemID int64, enchantments []domain.ItemEnchantment) error {
	for _, e := range enchantments {
		_, err := db.Exec(ctx, `
			INSERT INTO item_enchantments (item_id, enchantment_id, level)
			VALUES ($1, $2, $3)
		`, itemID, e.EnchantmentID, e.Level)
		if err != nil {
			return mapWriteError("insert item enchantment", err)
		}
	}
	return nil
}

func insertVersion(ctx context.Context, db querier, item *domain.Item, actorID string) error {
	snapshot, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item snapshot: %w", err)
	}

	var actor any
	if actorID != "" {
		actor = actorID
	}
	_, err = db.Exec(ctx, `
		INSERT INTO item_versions (item_id, snapshot, created_by)
		VALUES ($1, $2, $3::uuid)
	`, item.ID, snapshot, actor)
	if err != nil {
		return fmt.Errorf("failed to insert item version: %w", err)
	}
	return nil
}

// UpdateItem applies patch and records a version. Publishing stamps approved_at/approved_by.
func (r *ItemRepository) UpdateItem(ctx context.Context, id int64, actorID string, patch domain.ItemPatch) (*domain.Item, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	// lock the row so concurrent patches produce consecutive versions
	if _, err := getItem(ctx, tx, id, true); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.StarLevel != nil {
		set("star_level", *patch.StarLevel)
	}
	if patch.IsPublished != nil {
		set("is_published", *patch.IsPublished)
		if *patch.IsPublished && actorID != "" {
			args = append(args, actorID)
			sets = append(sets, "approved_at = NOW()", "approved_by = $"+strconv.Itoa(len(args))+"::uuid")
		}
	}

	query := "UPDATE items SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, mapWriteError("update item", err)
	}

	updated, err := getItem(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := insertVersion(ctx, tx, updated, actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return updated, nil
}

// DeleteItem removes an item together with its enchantments and versions
func (r *ItemRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// ListVersions returns the version history of an item, newest first
func (r *ItemRepository) ListVersions(ctx context.Context, id int64) ([]domain.ItemVersion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, item_id, snapshot, versioned_at
		FROM item_versions
		WHERE item_id = $1
		ORDER BY versioned_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list item versions: %w", err)
	}

	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ItemVersion, error) {
		var v domain.ItemVersion
		var raw []byte
		if err := row.Scan(&v.ID, &v.ItemID, &raw, &v.VersionedAt); err != nil {
			return v, err
		}
		if err := json.Unmarshal(raw, &v.Snapshot); err != nil {
			return v, fmt.Errorf("failed to decode snapshot %d: %w", v.ID, err)
		}
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan item versions: %w", err)
	}
	return versions, nil
}

// mapWriteError turns constraint violations caused by bad input into ErrInvalidInput
func mapWriteError(op string, err error) error {
	if isInputViolation(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
