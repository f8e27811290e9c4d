package domain

import "strings"

// FilterKey names a list filter
type FilterKey string

// Supported filter keys
const (
	FilterType     FilterKey = "type"
	FilterMaterial FilterKey = "material"
	FilterRarity   FilterKey = "rarity"
	FilterSearch   FilterKey = "search"
)

// FilterKeys lists every supported key in display order
var FilterKeys = []FilterKey{FilterType, FilterMaterial, FilterRarity, FilterSearch}

// IsValid reports whether k is a supported filter key
func (k FilterKey) IsValid() bool {
	switch k {
	case FilterType, FilterMaterial, FilterRarity, FilterSearch:
		return true
	}
	return false
}

// FilterSet maps filter keys to values. A normalized set never holds blank values.
type FilterSet map[FilterKey]string

// Normalize returns a copy with values trimmed and blank values and unknown keys removed
func (f FilterSet) Normalize() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		if !k.IsValid() {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy (values are strings, so this is a full copy)
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Equal reports value equality over all keys
func (f FilterSet) Equal(other FilterSet) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Get returns the value for key or "" when absent
func (f FilterSet) Get(key FilterKey) string {
	return f[key]
}
