package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osse101/opitemdb/internal/coordinator"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/store"
)

type listFlags struct {
	itemType string
	material string
	rarity   string
	search   string
	page     int
	pageSize string
	pending  bool
}

func listCmd() *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Long: `List items matching the given filters.

Anonymous users see published items only. Signed-in members also see their
own pending submissions; moderators see every item.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			rawSize := f.pageSize
			if !cmd.Flags().Changed("page-size") && a.profile.PageSize > 0 {
				rawSize = strconv.Itoa(a.profile.PageSize)
			}
			size, err := parsePageSize(rawSize)
			if err != nil {
				return err
			}

			s := store.New()
			cfg := a.queryConfig()
			if f.pending {
				pending := false
				cfg.Published = &pending
			}
			s.SetFilters(domain.FilterSet{
				domain.FilterType:     f.itemType,
				domain.FilterMaterial: f.material,
				domain.FilterRarity:   f.rarity,
			})
			s.SetSearchQuery(f.search)
			s.SetPage(f.page)
			s.SetPageSize(size)

			unbind := a.renderer.Bind(s)
			defer unbind()

			if coordinator.NewLoader(s, a.api, cfg).Refresh(cmd.Context()) == coordinator.OutcomeFailed {
				return errListFailed
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.itemType, "type", "", "Filter by item type slug")
	flags.StringVar(&f.material, "material", "", "Filter by material slug")
	flags.StringVar(&f.rarity, "rarity", "", "Filter by rarity slug")
	flags.StringVarP(&f.search, "search", "s", "", "Search titles and descriptions")
	flags.IntVar(&f.page, "page", store.DefaultPage, "Page number")
	flags.StringVar(&f.pageSize, "page-size", strconv.Itoa(store.DefaultPageSize), `Items per page, or "all"`)
	flags.BoolVar(&f.pending, "pending", false, "Show unpublished items only")
	return cmd
}

// parsePageSize accepts a positive number or "all"
func parsePageSize(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return store.Unbounded, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page size %q: want a positive number or \"all\"", raw)
	}
	return n, nil
}
