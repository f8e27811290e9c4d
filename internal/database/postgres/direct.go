package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
)

// ColumnLayout names the items columns of one schema revision
type ColumnLayout struct {
	Name         string
	Title        string
	Description  string
	ItemType     string
	Material     string
	Rarity       string
	StarLevel    string
	ImageURL     string
	LoreImageURL string
	Owner        string
	Published    string
}

func (l ColumnLayout) columns() []string {
	return []string{
		l.Title, l.Description, l.ItemType, l.Material, l.Rarity,
		l.StarLevel, l.ImageURL, l.LoreImageURL, l.Owner, l.Published,
	}
}

// Known items table layouts, preferred first
var (
	LayoutCurrent = ColumnLayout{
		Name:         "current",
		Title:        "title",
		Description:  "description",
		ItemType:     "item_type_id",
		Material:     "material_id",
		Rarity:       "rarity_id",
		StarLevel:    "star_level",
		ImageURL:     "image_url",
		LoreImageURL: "lore_image_url",
		Owner:        "owner_id",
		Published:    "is_published",
	}
	LayoutLegacy = ColumnLayout{
		Name:         "legacy",
		Title:        "name",
		Description:  "description",
		ItemType:     "type_id",
		Material:     "material_id",
		Rarity:       "rarity_id",
		StarLevel:    "stars",
		ImageURL:     "image",
		LoreImageURL: "lore_image",
		Owner:        "user_id",
		Published:    "published",
	}
	KnownLayouts = []ColumnLayout{LayoutCurrent, LayoutLegacy}
)

// NegotiateLayout picks the first known layout whose columns all exist
func NegotiateLayout(present map[string]bool) (ColumnLayout, error) {
	for _, l := range KnownLayouts {
		ok := true
		for _, c := range l.columns() {
			if !present[c] {
				ok = false
				break
			}
		}
		if ok {
			return l, nil
		}
	}
	return ColumnLayout{}, domain.ErrSchemaUnsupported
}

func insertItemSQL(l ColumnLayout) string {
	cols := l.columns()
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = "$" + strconv.Itoa(i+1)
	}
	// optional image columns stay NULL rather than empty
	params[6] = "NULLIF(" + params[6] + ", '')"
	params[7] = "NULLIF(" + params[7] + ", '')"
	return "INSERT INTO items (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ") RETURNING id"
}

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ItemWriter inserts items straight into the database, bypassing the BFF.
// The items column layout is negotiated once per writer.
type ItemWriter struct {
	db  TxBeginner
	log *slog.Logger

	mu     sync.Mutex
	layout *ColumnLayout
}

// NewItemWriter creates a direct writer
func NewItemWriter(db TxBeginner) *ItemWriter {
	return &ItemWriter{db: db, log: logger.Component("direct_writer")}
}

// Layout returns the negotiated column layout
func (w *ItemWriter) Layout(ctx context.Context) (ColumnLayout, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.layout != nil {
		return *w.layout, nil
	}

	rows, err := w.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'items'
	`)
	if err != nil {
		return ColumnLayout{}, fmt.Errorf("failed to inspect items table: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return ColumnLayout{}, fmt.Errorf("failed to read items columns: %w", err)
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	layout, err := NegotiateLayout(present)
	if err != nil {
		return ColumnLayout{}, err
	}

	w.log.Info("Negotiated items column layout", "layout", layout.Name)
	w.layout = &layout
	return layout, nil
}

// InsertItem writes the item and its enchantments in one transaction.
// Either both are stored or neither is.
func (w *ItemWriter) InsertItem(ctx context.Context, ownerID string, item domain.NewItem) (int64, error) {
	owner, err := parseUserUUID(ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	layout, err := w.Layout(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	var id int64
	err = tx.QueryRow(ctx, insertItemSQL(layout),
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
		return 0, mapWriteError("insert item", err)
	}

	if err := insertEnchantments(ctx, tx, id, item.Enchantments); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return id, nil
}
