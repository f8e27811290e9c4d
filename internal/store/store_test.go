package store

import (
	"testing"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSetFilters_IdempotentPatchNotifiesOnce(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(State) { calls++ })

	s.SetFilters(domain.FilterSet{domain.FilterRarity: "episch"})
	s.SetFilters(domain.FilterSet{domain.FilterRarity: "episch"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, "episch", s.Snapshot().Filters.Get(domain.FilterRarity))
}

func TestSetFilters_BlankValueDeletesKey(t *testing.T) {
	s := New()
	s.SetFilters(domain.FilterSet{domain.FilterRarity: "selten", domain.FilterType: "waffe"})

	got := s.SetFilters(domain.FilterSet{domain.FilterRarity: ""})

	_, ok := got[domain.FilterRarity]
	assert.False(t, ok, "blank value must remove the key")
	assert.Equal(t, domain.FilterSet{domain.FilterType: "waffe"}, s.Snapshot().Filters)
}

func TestSetFilters_WhitespaceOnlyIsBlank(t *testing.T) {
	s := New()
	s.SetFilters(domain.FilterSet{domain.FilterMaterial: "eisen"})
	s.SetFilters(domain.FilterSet{domain.FilterMaterial: "   "})

	assert.Empty(t, s.Snapshot().Filters)
}

func TestSetFilters_Replace(t *testing.T) {
	s := New()
	s.SetFilters(domain.FilterSet{domain.FilterRarity: "selten", domain.FilterType: "waffe"})

	got := s.SetFilters(domain.FilterSet{domain.FilterMaterial: " holz "}, Replace())

	assert.Equal(t, domain.FilterSet{domain.FilterMaterial: "holz"}, got)
}

func TestSetFilters_UnknownKeyIgnored(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(State) { calls++ })

	s.SetFilters(domain.FilterSet{"color": "rot"})

	assert.Equal(t, 0, calls)
	assert.Empty(t, s.Snapshot().Filters)
}

func TestSetters_InvalidInputIsNoOp(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func(State) { calls++ })

	s.SetPage(0)
	s.SetPage(-3)
	s.SetPageSize(0)
	s.SetPage(DefaultPage)
	s.SetPageSize(DefaultPageSize)

	assert.Equal(t, 0, calls)
	snap := s.Snapshot()
	assert.Equal(t, DefaultPage, snap.Page)
	assert.Equal(t, DefaultPageSize, snap.PageSize)
}

func TestSetPageSize_Unbounded(t *testing.T) {
	s := New()
	s.SetPageSize(Unbounded)
	assert.Equal(t, Unbounded, s.Snapshot().PageSize)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := New()
	s.SetFilters(domain.FilterSet{domain.FilterRarity: "selten"})
	s.SetItems([]domain.ItemSummary{{ID: 1, Title: "Schwert", ImageURL: strPtr("a.png")}})

	snap := s.Snapshot()
	snap.Filters[domain.FilterRarity] = "gewöhnlich"
	snap.Items[0].Title = "changed"
	*snap.Items[0].ImageURL = "b.png"

	again := s.Snapshot()
	assert.Equal(t, "selten", again.Filters.Get(domain.FilterRarity))
	assert.Equal(t, "Schwert", again.Items[0].Title)
	assert.Equal(t, "a.png", *again.Items[0].ImageURL)
}

func TestSubscribe_SubscriberMutationDoesNotLeak(t *testing.T) {
	s := New()
	s.Subscribe(func(st State) {
		st.Filters[domain.FilterType] = "hacked"
	})
	var seen State
	s.Subscribe(func(st State) { seen = st })

	s.SetFilters(domain.FilterSet{domain.FilterRarity: "episch"})

	_, ok := seen.Filters[domain.FilterType]
	assert.False(t, ok)
	_, ok = s.Snapshot().Filters[domain.FilterType]
	assert.False(t, ok)
}

func TestSubscribe_PanicIsolated(t *testing.T) {
	s := New()
	var order []string
	s.Subscribe(func(State) { order = append(order, "first") })
	s.Subscribe(func(State) { panic("boom") })
	s.Subscribe(func(State) { order = append(order, "third") })

	require.NotPanics(t, func() { s.SetSearchQuery("schwert") })
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := New()
	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })

	s.SetPage(2)
	unsubscribe()
	unsubscribe()
	s.SetPage(3)

	assert.Equal(t, 1, calls)
}

func TestSubscribe_ReentrantMutationDeliveredInOrder(t *testing.T) {
	s := New()
	var pages []int
	s.Subscribe(func(st State) {
		if st.Page == 2 {
			// a filter change resets to page 1
			s.SetPage(1)
		}
	})
	s.Subscribe(func(st State) { pages = append(pages, st.Page) })

	s.SetPage(2)

	assert.Equal(t, []int{2, 1}, pages)
	assert.Equal(t, 1, s.Snapshot().Page)
}

func TestStatusTransitions(t *testing.T) {
	s := New()
	assert.Equal(t, StatusIdle, s.Snapshot().Status)

	s.BeginLoading(12)
	snap := s.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.Equal(t, 12, snap.SkeletonCount)

	s.ApplyResult(domain.ItemPage{Items: []domain.ItemSummary{{ID: 1}, {ID: 2}}, Total: 2})
	snap = s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 0, snap.SkeletonCount)
	assert.Len(t, snap.Items, 2)

	s.ApplyResult(domain.ItemPage{})
	assert.Equal(t, StatusEmpty, s.Snapshot().Status)

	s.ApplyError("Items could not be loaded.")
	snap = s.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "Items could not be loaded.", snap.StatusMessage)
	assert.Empty(t, snap.Items)
}

func TestRemoveItem(t *testing.T) {
	s := New()
	s.ApplyResult(domain.ItemPage{Items: []domain.ItemSummary{{ID: 1}, {ID: 2}}, Total: 2})

	assert.False(t, s.RemoveItem(99))
	assert.True(t, s.RemoveItem(1))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(2), snap.Items[0].ID)
	assert.Equal(t, 1, snap.Total)

	assert.True(t, s.RemoveItem(2))
	assert.Equal(t, StatusEmpty, s.Snapshot().Status)
}
