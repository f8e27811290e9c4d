// Package versiondiff compares the two newest snapshots of an item's version history.
package versiondiff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/osse101/opitemdb/internal/domain"
)

// PreviewLength is the maximum number of runes of a formatted value
const PreviewLength = 120

// EmptyValue is shown for a field that is absent or null
const EmptyValue = "(none)"

// MsgNoPreviousVersion is reported when there is nothing to compare against
const MsgNoPreviousVersion = "no previous version"

// IgnoredFields are bookkeeping columns that never appear in a diff
var IgnoredFields = map[string]struct{}{
	"id":           {},
	"item_id":      {},
	"version_id":   {},
	"created_at":   {},
	"updated_at":   {},
	"versioned_at": {},
	"created_by":   {},
	"updated_by":   {},
	"owner_id":     {},
	"approved_at":  {},
	"approved_by":  {},
}

// Entry is one changed field
type Entry struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Result is the diff between the newest version and the one before it
type Result struct {
	Entries []Entry `json:"entries"`
	Message string  `json:"message,omitempty"`
	// Current and Previous are the IDs of the compared versions (zero when absent)
	Current  int64 `json:"current_version_id,omitempty"`
	Previous int64 `json:"previous_version_id,omitempty"`
}

// HasPrevious reports whether two versions were compared
func (r Result) HasPrevious() bool {
	return r.Message != MsgNoPreviousVersion
}

// Compute diffs the two most recent versions. Versions are ordered by their best
// timestamp, newest first; versions without any timestamp sort last in input order.
func Compute(versions []domain.ItemVersion) Result {
	if len(versions) < 2 {
		return Result{Entries: []Entry{}, Message: MsgNoPreviousVersion}
	}

	ordered := SortByRecency(versions)
	current, previous := ordered[0], ordered[1]

	before := normalize(previous.Snapshot)
	after := normalize(current.Snapshot)

	fields := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		fields[k] = struct{}{}
	}
	for k := range after {
		fields[k] = struct{}{}
	}

	entries := make([]Entry, 0)
	for field := range fields {
		if _, ignored := IgnoredFields[field]; ignored {
			continue
		}
		b, a := before[field], after[field]
		if reflect.DeepEqual(b, a) {
			continue
		}
		entries = append(entries, Entry{Field: field, Before: Preview(b), After: Preview(a)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Field < entries[j].Field })

	return Result{Entries: entries, Current: current.ID, Previous: previous.ID}
}

// SortByRecency returns a copy ordered newest first, unknown timestamps last
func SortByRecency(versions []domain.ItemVersion) []domain.ItemVersion {
	out := make([]domain.ItemVersion, len(versions))
	copy(out, versions)
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := out[i].BestTimestamp()
		tj, okJ := out[j].BestTimestamp()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}

// normalize round-trips a snapshot through JSON so numbers, nested maps and slices
// compare by value regardless of the Go types they were decoded into.
func normalize(snapshot map[string]any) map[string]any {
	if snapshot == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return snapshot
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return snapshot
	}
	return out
}

// Preview formats a value for display, truncated to PreviewLength runes
func Preview(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		s = EmptyValue
	case string:
		s = val
	case float64, bool:
		s = fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(data)
		}
	}
	return truncate(s, PreviewLength)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:limit-1]), isSpace) + "…"
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}
