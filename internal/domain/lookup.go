package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LookupKind names one of the item metadata lists
type LookupKind string

// Lookup kinds, also used as endpoint names and cache keys
const (
	LookupItemTypes    LookupKind = "item_types"
	LookupMaterials    LookupKind = "materials"
	LookupRarities     LookupKind = "rarities"
	LookupEnchantments LookupKind = "enchantments"
)

// IsValid reports whether k is a known lookup kind
func (k LookupKind) IsValid() bool {
	switch k {
	case LookupItemTypes, LookupMaterials, LookupRarities, LookupEnchantments:
		return true
	}
	return false
}

// Lookup is an entry of an item type, material or rarity list
type Lookup struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Sort  *int   `json:"sort,omitempty"`
}

// DisplayLabel returns the label, falling back to a title-cased slug
func (l Lookup) DisplayLabel() string {
	if strings.TrimSpace(l.Label) != "" {
		return l.Label
	}
	return LabelFromSlug(l.Slug)
}

// LabelFromSlug turns "rare_gem" into "Rare Gem"
func LabelFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '_' || r == '-' })
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// SortLookups orders entries by sort (missing sort last), then by label
func SortLookups(entries []Lookup) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Sort != nil && b.Sort != nil && *a.Sort != *b.Sort:
			return *a.Sort < *b.Sort
		case a.Sort != nil && b.Sort == nil:
			return true
		case a.Sort == nil && b.Sort != nil:
			return false
		}
		return strings.ToLower(a.DisplayLabel()) < strings.ToLower(b.DisplayLabel())
	})
}

// FindLookupBySlug returns the entry with slug, if any
func FindLookupBySlug(entries []Lookup, slug string) (Lookup, bool) {
	for _, e := range entries {
		if e.Slug == slug {
			return e, true
		}
	}
	return Lookup{}, false
}
