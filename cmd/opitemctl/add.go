package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/metacache"
	"github.com/osse101/opitemdb/internal/submission"
)

type addFlags struct {
	title       string
	description string
	itemType    string
	material    string
	rarity      string
	stars       string
	image       string
	loreImage   string
	enchants    []string
	publish     bool
}

func addCmd() *cobra.Command {
	f := &addFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a new item",
		Long: `Submit a new item for moderation.

Type, material and rarity take a slug or a numeric ID. Enchantments are given
as id=level or slug=level and may be repeated. When the API cannot be reached
and the profile has a database_url, the item is written to the database directly.`,
		Example: `  opitemctl add --title "Flammenschwert" --type waffe --material eisen \
    --rarity episch --stars 2 --image sword.png --enchant schaerfe=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			raw, err := f.form(ctx, a.lookups)
			if err != nil {
				return err
			}

			deps := submission.Deps{
				Primary:      a.api,
				Bucket:       a.bucket(),
				Identity:     a.sessions,
				Enchantments: a.lookups,
				Form:         a.renderer,
				Notifier:     a.renderer,
				Observer: func(s submission.State) {
					a.renderer.Progress(s.String())
				},
			}
			writer, err := a.directWriter(ctx)
			if err != nil {
				return err
			}
			if writer != nil {
				deps.Fallback = writer
			}

			res := submission.NewPipeline(deps).Submit(ctx, raw)
			if res.Err != nil || res.State == submission.StateFailed {
				return errSubmitFailed
			}
			if res.ItemID != 0 {
				fmt.Fprintf(a.out, "Item #%d created via %s\n", res.ItemID, res.Transport)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.title, "title", "", "Item title (required)")
	flags.StringVar(&f.description, "description", "", "Item description")
	flags.StringVar(&f.itemType, "type", "", "Item type slug or ID (required)")
	flags.StringVar(&f.material, "material", "", "Material slug or ID (required)")
	flags.StringVar(&f.rarity, "rarity", "", "Rarity slug or ID (required)")
	flags.StringVar(&f.stars, "stars", "0", "Star level from 0 to 3")
	flags.StringVar(&f.image, "image", "", "Path of the item image")
	flags.StringVar(&f.loreImage, "lore-image", "", "Path of the lore image")
	flags.StringArrayVar(&f.enchants, "enchant", nil, "Enchantment as id=level or slug=level (repeatable)")
	flags.BoolVar(&f.publish, "publish", false, "Ask for immediate publication (moderators only)")
	return cmd
}

// form builds the raw form, resolving slugs through the cached lookups
func (f *addFlags) form(ctx context.Context, lookups *metacache.Lookups) (submission.RawForm, error) {
	raw := submission.RawForm{
		Title:       f.title,
		Description: f.description,
		StarLevel:   f.stars,
		IsPublished: f.publish,
	}

	var err error
	if raw.ItemTypeID, err = resolveLookup(ctx, lookups, domain.LookupItemTypes, f.itemType); err != nil {
		return raw, err
	}
	if raw.MaterialID, err = resolveLookup(ctx, lookups, domain.LookupMaterials, f.material); err != nil {
		return raw, err
	}
	if raw.RarityID, err = resolveLookup(ctx, lookups, domain.LookupRarities, f.rarity); err != nil {
		return raw, err
	}

	if f.image != "" {
		if raw.Image, err = submission.FileFromPath(f.image); err != nil {
			return raw, err
		}
	}
	if f.loreImage != "" {
		if raw.LoreImage, err = submission.FileFromPath(f.loreImage); err != nil {
			return raw, err
		}
	}

	if len(f.enchants) > 0 {
		defs, err := lookups.Enchantments(ctx)
		if err != nil {
			return raw, fmt.Errorf("load enchantments: %w", err)
		}
		raw.Enchantments, err = parseEnchantments(f.enchants, defs)
		if err != nil {
			return raw, err
		}
	}
	return raw, nil
}

// resolveLookup turns a slug into its ID. Numeric and blank input pass through
// so the form reports them field by field.
func resolveLookup(ctx context.Context, lookups *metacache.Lookups, kind domain.LookupKind, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw, nil
	}
	entries, err := lookups.List(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", kind, err)
	}
	entry, ok := domain.FindLookupBySlug(entries, raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, kind, raw)
	}
	return strconv.FormatInt(entry.ID, 10), nil
}

// parseEnchantments reads id=level or slug=level pairs
func parseEnchantments(pairs []string, defs []domain.Enchantment) (*domain.EnchantmentSelection, error) {
	sel := domain.NewEnchantmentSelection()
	for _, pair := range pairs {
		key, rawLevel, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: enchantment %q must be id=level", domain.ErrInvalidInput, pair)
		}
		level, err := strconv.Atoi(strings.TrimSpace(rawLevel))
		if err != nil {
			return nil, fmt.Errorf("%w: enchantment level %q is not a number", domain.ErrInvalidInput, rawLevel)
		}
		id, ok := enchantmentID(defs, strings.TrimSpace(key))
		if !ok {
			return nil, fmt.Errorf("%w: unknown enchantment %q", domain.ErrInvalidInput, key)
		}
		if err := sel.Set(defs, id, level); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func enchantmentID(defs []domain.Enchantment, key string) (int64, bool) {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return id, true
	}
	for _, d := range defs {
		if strings.EqualFold(d.Slug, key) {
			return d.ID, true
		}
	}
	return 0, false
}
