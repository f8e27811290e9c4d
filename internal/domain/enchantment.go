package domain

import (
	"fmt"
	"sort"
)

// Enchantment is an enchantment definition with its maximum level
type Enchantment struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	MaxLevel int    `json:"max_level"`
}

// EnchantmentSelection maps enchantment IDs to chosen levels.
// Entries whose definition is no longer known are pruned on every read.
type EnchantmentSelection struct {
	levels map[int64]int
}

// NewEnchantmentSelection creates an empty selection
func NewEnchantmentSelection() *EnchantmentSelection {
	return &EnchantmentSelection{levels: make(map[int64]int)}
}

func indexEnchantments(defs []Enchantment) map[int64]Enchantment {
	idx := make(map[int64]Enchantment, len(defs))
	for _, d := range defs {
		idx[d.ID] = d
	}
	return idx
}

// Set selects an enchantment at level. The level must be within [1, MaxLevel].
func (s *EnchantmentSelection) Set(defs []Enchantment, id int64, level int) error {
	def, ok := indexEnchantments(defs)[id]
	if !ok {
		return fmt.Errorf("%w: unknown enchantment %d", ErrInvalidInput, id)
	}
	if level < 1 || level > def.MaxLevel {
		return fmt.Errorf("%w: level %d out of range for %s (max %d)", ErrInvalidInput, level, def.Slug, def.MaxLevel)
	}
	if s.levels == nil {
		s.levels = make(map[int64]int)
	}
	s.levels[id] = level
	return nil
}

// Remove deselects an enchantment
func (s *EnchantmentSelection) Remove(id int64) {
	delete(s.levels, id)
}

// Prune drops entries whose definitions are unknown or whose level exceeds the maximum
func (s *EnchantmentSelection) Prune(defs []Enchantment) {
	idx := indexEnchantments(defs)
	for id, level := range s.levels {
		def, ok := idx[id]
		if !ok || level < 1 || level > def.MaxLevel {
			delete(s.levels, id)
		}
	}
}

// Entries prunes against defs and returns the selection ordered by enchantment ID
func (s *EnchantmentSelection) Entries(defs []Enchantment) []ItemEnchantment {
	if s == nil {
		return []ItemEnchantment{}
	}
	s.Prune(defs)
	out := make([]ItemEnchantment, 0, len(s.levels))
	for id, level := range s.levels {
		out = append(out, ItemEnchantment{EnchantmentID: id, Level: level})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnchantmentID < out[j].EnchantmentID })
	return out
}

// Len returns the number of selected entries, without pruning
func (s *EnchantmentSelection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.levels)
}
