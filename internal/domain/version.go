package domain

import "time"

// ItemVersion is a snapshot of an item's fields at one point in its history
type ItemVersion struct {
	ID          int64          `json:"id"`
	ItemID      int64          `json:"item_id"`
	Snapshot    map[string]any `json:"snapshot"`
	VersionedAt *time.Time     `json:"versioned_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
}

// BestTimestamp returns the most specific known timestamp of the version
func (v ItemVersion) BestTimestamp() (time.Time, bool) {
	for _, ts := range []*time.Time{v.VersionedAt, v.UpdatedAt, v.CreatedAt} {
		if ts != nil && !ts.IsZero() {
			return *ts, true
		}
	}
	return time.Time{}, false
}
