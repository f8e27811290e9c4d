// Package store holds the client-side list state and fans out change notifications.
//
// The Store is the only writer of filter, search, pagination and item-list state.
// Subscribers receive a full snapshot after every accepted mutation, in registration
// order. Invalid setter input is ignored rather than reported.
package store

import (
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/osse101/opitemdb/internal/domain"
)

// Unbounded is the page size meaning "all items on one page"
const Unbounded = math.MaxInt

// Defaults for a fresh store
const (
	DefaultPage     = 1
	DefaultPageSize = 24
)

// Status is the presentation state of the item list
type Status string

// List statuses
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// State is an immutable snapshot of the store
type State struct {
	Filters       domain.FilterSet
	SearchQuery   string
	Page          int
	PageSize      int
	Items         []domain.ItemSummary
	Total         int
	Status        Status
	StatusMessage string
	// SkeletonCount is the number of placeholder rows to show while loading
	SkeletonCount int
}

func (s State) clone() State {
	c := s
	c.Filters = s.Filters.Clone()
	c.Items = domain.CloneItems(s.Items)
	return c
}

// Subscriber receives a snapshot after every accepted mutation
type Subscriber func(State)

type subscription struct {
	id uint64
	fn Subscriber
}

// Store is the single source of truth for list state
type Store struct {
	mu         sync.Mutex
	state      State
	subs       []subscription
	nextSubID  uint64
	pending    []State
	delivering bool
	log        *slog.Logger
}

// New creates a store with default pagination and no filters
func New() *Store {
	return &Store{
		state: State{
			Filters:  domain.FilterSet{},
			Page:     DefaultPage,
			PageSize: DefaultPageSize,
			Items:    []domain.ItemSummary{},
			Status:   StatusIdle,
		},
		log: slog.Default().With("component", "store"),
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// FilterOption tunes SetFilters
type FilterOption func(*filterOptions)

type filterOptions struct {
	replace bool
}

// Replace makes SetFilters discard keys absent from the patch
func Replace() FilterOption {
	return func(o *filterOptions) { o.replace = true }
}

// SetFilters merges patch into the current filters (or replaces them with Replace()).
// Blank values delete their key. Returns the normalized filter set.
func (s *Store) SetFilters(patch domain.FilterSet, opts ...FilterOption) domain.FilterSet {
	var o filterOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	next := domain.FilterSet{}
	if !o.replace {
		next = s.state.Filters.Clone()
	}
	for k, v := range patch {
		if !k.IsValid() {
			s.log.Debug("Ignoring unknown filter key", "key", k)
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			delete(next, k)
			continue
		}
		next[k] = v
	}

	if next.Equal(s.state.Filters) {
		out := s.state.Filters.Clone()
		s.mu.Unlock()
		return out
	}
	s.state.Filters = next
	out := next.Clone()
	s.commitLocked()
	return out
}

// SetSearchQuery sets the free-text search query
func (s *Store) SetSearchQuery(query string) {
	query = strings.TrimSpace(query)
	s.mu.Lock()
	if query == s.state.SearchQuery {
		s.mu.Unlock()
		return
	}
	s.state.SearchQuery = query
	s.commitLocked()
}

// SetPage sets the current page. Non-positive pages are ignored.
func (s *Store) SetPage(page int) {
	if page < 1 {
		return
	}
	s.mu.Lock()
	if page == s.state.Page {
		s.mu.Unlock()
		return
	}
	s.state.Page = page
	s.commitLocked()
}

// SetPageSize sets the page size. Non-positive sizes are ignored; use Unbounded for all items.
func (s *Store) SetPageSize(size int) {
	if size < 1 {
		return
	}
	s.mu.Lock()
	if size == s.state.PageSize {
		s.mu.Unlock()
		return
	}
	s.state.PageSize = size
	s.commitLocked()
}

// SetItems replaces the item list wholesale
func (s *Store) SetItems(items []domain.ItemSummary) {
	s.mu.Lock()
	s.state.Items = domain.CloneItems(items)
	s.commitLocked()
}

// BeginLoading switches the list to its loading state with expected placeholder rows
func (s *Store) BeginLoading(expected int) {
	if expected < 0 {
		expected = 0
	}
	s.mu.Lock()
	s.state.Status = StatusLoading
	s.state.StatusMessage = ""
	s.state.SkeletonCount = expected
	s.commitLocked()
}

// ApplyResult replaces the item list with a query result and sets ready or empty status
func (s *Store) ApplyResult(page domain.ItemPage) {
	s.mu.Lock()
	s.state.Items = domain.CloneItems(page.Items)
	s.state.Total = page.Total
	s.state.SkeletonCount = 0
	s.state.StatusMessage = ""
	if len(page.Items) == 0 {
		s.state.Status = StatusEmpty
	} else {
		s.state.Status = StatusReady
	}
	s.commitLocked()
}

// ApplyError clears the list and shows message in the error state
func (s *Store) ApplyError(message string) {
	s.mu.Lock()
	s.state.Items = []domain.ItemSummary{}
	s.state.Total = 0
	s.state.SkeletonCount = 0
	s.state.Status = StatusError
	s.state.StatusMessage = message
	s.commitLocked()
}

// RemoveItem drops one item from the list. Returns false when the item is not present.
func (s *Store) RemoveItem(id int64) bool {
	s.mu.Lock()
	idx := -1
	for i, it := range s.state.Items {
		if it.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	items := make([]domain.ItemSummary, 0, len(s.state.Items)-1)
	items = append(items, s.state.Items[:idx]...)
	items = append(items, s.state.Items[idx+1:]...)
	s.state.Items = items
	if s.state.Total > 0 {
		s.state.Total--
	}
	if len(items) == 0 && s.state.Status == StatusReady {
		s.state.Status = StatusEmpty
	}
	s.commitLocked()
	return true
}

// Subscribe registers fn for change notifications. The returned func unsubscribes.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// commitLocked queues a snapshot of the mutated state and delivers pending snapshots.
// Must be called with s.mu held; it releases the lock.
func (s *Store) commitLocked() {
	s.pending = append(s.pending, s.state.clone())
	if s.delivering {
		// The goroutine already delivering will pick this snapshot up in order.
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		subs := make([]subscription, len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			s.deliver(sub, snap)
		}

		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func (s *Store) deliver(sub subscription, snap State) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Store subscriber failed", "subscriber", sub.id, "panic", r)
		}
	}()
	// Each subscriber gets its own copy so one cannot corrupt another's view.
	sub.fn(snap.clone())
}
