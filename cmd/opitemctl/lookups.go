package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osse101/opitemdb/internal/domain"
)

func lookupsCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:       "lookups KIND",
		Short:     "Show item types, materials, rarities or enchantments",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"types", "materials", "rarities", "enchantments"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			if refresh {
				a.lookups.Invalidate()
			}

			kind := lookupKind(args[0])
			if kind == domain.LookupEnchantments {
				defs, err := a.lookups.Enchantments(ctx)
				if err != nil {
					return err
				}
				a.renderer.RenderEnchantments(defs)
				return nil
			}
			entries, err := a.lookups.List(ctx, kind)
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			a.renderer.RenderLookups(entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached lists")
	return cmd
}

func lookupKind(arg string) domain.LookupKind {
	switch arg {
	case "types":
		return domain.LookupItemTypes
	case "materials":
		return domain.LookupMaterials
	case "rarities":
		return domain.LookupRarities
	}
	return domain.LookupEnchantments
}
