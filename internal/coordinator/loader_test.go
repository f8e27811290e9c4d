package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceResult struct {
	page domain.ItemPage
	err  error
}

// gatedSource holds every call until the test releases it
type gatedSource struct {
	mu      sync.Mutex
	gates   []chan sourceResult
	started chan int
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan int, 10)}
}

func (s *gatedSource) ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
	gate := make(chan sourceResult, 1)
	s.mu.Lock()
	s.gates = append(s.gates, gate)
	n := len(s.gates)
	s.mu.Unlock()

	s.started <- n
	// results arrive even after cancellation, as with a transport that cannot abort
	r := <-gate
	return r.page, r.err
}

func (s *gatedSource) release(n int, r sourceResult) {
	s.mu.Lock()
	gate := s.gates[n-1]
	s.mu.Unlock()
	gate <- r
}

func pageOf(ids ...int64) domain.ItemPage {
	items := make([]domain.ItemSummary, len(ids))
	for i, id := range ids {
		items[i] = domain.ItemSummary{ID: id, Title: fmt.Sprintf("item %d", id)}
	}
	return domain.ItemPage{Items: items, Total: len(items)}
}

func TestRefresh_StaleResultsDiscarded(t *testing.T) {
	s := store.New()
	src := newGatedSource()
	loader := NewLoader(s, src, Config{})

	outcomes := make([]chan Outcome, 3)
	for i := range outcomes {
		outcomes[i] = make(chan Outcome, 1)
		ch := outcomes[i]
		go func() { ch <- loader.Refresh(context.Background()) }()
		// wait until this call has issued its query so issuance order is 1, 2, 3
		require.Equal(t, i+1, <-src.started)
	}

	// resolve out of order: 3, 1, 2
	src.release(3, sourceResult{page: pageOf(30, 31, 32)})
	assert.Equal(t, OutcomeApplied, <-outcomes[2])
	src.release(1, sourceResult{page: pageOf(10)})
	assert.Equal(t, OutcomeDiscarded, <-outcomes[0])
	src.release(2, sourceResult{err: errors.New("late failure")})
	assert.Equal(t, OutcomeDiscarded, <-outcomes[1])

	snap := s.Snapshot()
	assert.Equal(t, store.StatusReady, snap.Status)
	require.Len(t, snap.Items, 3)
	assert.Equal(t, int64(30), snap.Items[0].ID)
}

func TestRefresh_SupersededRequestIsCancelled(t *testing.T) {
	s := store.New()
	ctxs := make(chan context.Context, 2)
	gate := make(chan struct{})
	src := sourceFunc(func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
		ctxs <- ctx
		<-gate
		return pageOf(1), nil
	})
	loader := NewLoader(s, src, Config{})

	first := make(chan Outcome, 1)
	go func() { first <- loader.Refresh(context.Background()) }()
	firstCtx := <-ctxs

	second := make(chan Outcome, 1)
	go func() { second <- loader.Refresh(context.Background()) }()
	<-ctxs

	assert.Eventually(t, func() bool { return firstCtx.Err() != nil }, time.Second, time.Millisecond)

	close(gate)
	assert.Equal(t, OutcomeDiscarded, <-first)
	assert.Equal(t, OutcomeApplied, <-second)
}

type sourceFunc func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error)

func (f sourceFunc) ListItems(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
	return f(ctx, q)
}

// fixture of 8 items, two of rarity "episch"
var fixture = []domain.ItemSummary{
	{ID: 1, Title: "Holzschwert", Rarity: "gewoehnlich", Type: "waffe", Material: "holz"},
	{ID: 2, Title: "Eisenhelm", Rarity: "selten", Type: "ruestung", Material: "eisen"},
	{ID: 3, Title: "Drachenklinge", Rarity: "episch", Type: "waffe", Material: "drachenstahl"},
	{ID: 4, Title: "Lederstiefel", Rarity: "gewoehnlich", Type: "ruestung", Material: "leder"},
	{ID: 5, Title: "Runenschild", Rarity: "selten", Type: "schild", Material: "eisen"},
	{ID: 6, Title: "Sternenamulett", Rarity: "episch", Type: "schmuck", Material: "gold"},
	{ID: 7, Title: "Kupferring", Rarity: "gewoehnlich", Type: "schmuck", Material: "kupfer"},
	{ID: 8, Title: "Eichenbogen", Rarity: "selten", Type: "waffe", Material: "holz"},
}

func fixtureSource() sourceFunc {
	return func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
		var matched []domain.ItemSummary
		for _, it := range fixture {
			if v := q.Filters.Get(domain.FilterRarity); v != "" && it.Rarity != v {
				continue
			}
			if v := q.Filters.Get(domain.FilterType); v != "" && it.Type != v {
				continue
			}
			matched = append(matched, it)
		}
		total := len(matched)
		start := q.Offset()
		if start > total {
			start = total
		}
		end := total
		if q.PageSize < total-start {
			end = start + q.PageSize
		}
		return domain.ItemPage{Items: matched[start:end], Total: total}, nil
	}
}

func TestRefresh_EndToEndRarityFilter(t *testing.T) {
	s := store.New()
	s.SetFilters(domain.FilterSet{domain.FilterRarity: "episch"})
	s.SetSearchQuery("")
	s.SetPage(1)
	s.SetPageSize(6)

	loader := NewLoader(s, fixtureSource(), Config{})
	outcome := loader.Refresh(context.Background())

	assert.Equal(t, OutcomeApplied, outcome)
	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, int64(3), snap.Items[0].ID)
	assert.Equal(t, int64(6), snap.Items[1].ID)
	assert.Equal(t, store.StatusReady, snap.Status)
	assert.NotEqual(t, store.StatusEmpty, snap.Status)
}

func TestRefresh_LoadingStateSizedToPage(t *testing.T) {
	s := store.New()
	s.SetPageSize(6)
	var seen []store.State
	s.Subscribe(func(st store.State) { seen = append(seen, st) })

	loader := NewLoader(s, fixtureSource(), Config{})
	loader.Refresh(context.Background())

	require.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, store.StatusLoading, seen[0].Status)
	assert.Equal(t, 6, seen[0].SkeletonCount)
	assert.Equal(t, store.StatusReady, seen[len(seen)-1].Status)
}

func TestRefresh_RetriesTransientFailures(t *testing.T) {
	s := store.New()
	var calls atomic.Int32
	src := sourceFunc(func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
		if calls.Add(1) == 1 {
			return domain.ItemPage{}, &domain.Error{Kind: domain.KindUpstreamData, Op: "list", Status: 502}
		}
		return pageOf(1, 2), nil
	})

	loader := NewLoader(s, src, Config{Retries: 2, Backoff: time.Millisecond})

	assert.Equal(t, OutcomeApplied, loader.Refresh(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRefresh_AuthorizationFailureNotRetried(t *testing.T) {
	s := store.New()
	var calls atomic.Int32
	src := sourceFunc(func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
		calls.Add(1)
		return domain.ItemPage{}, &domain.Error{Kind: domain.KindAuthorization, Op: "list", Status: 401}
	})

	loader := NewLoader(s, src, Config{Retries: 3, Backoff: time.Millisecond})

	assert.Equal(t, OutcomeFailed, loader.Refresh(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	snap := s.Snapshot()
	assert.Equal(t, store.StatusError, snap.Status)
	assert.Equal(t, MsgSignInRequired, snap.StatusMessage)
}

func TestRefresh_ErrorMessageIsSanitized(t *testing.T) {
	s := store.New()
	src := sourceFunc(func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
		return domain.ItemPage{}, errors.New(`pq: relation "items" does not exist`)
	})

	loader := NewLoader(s, src, Config{})

	assert.Equal(t, OutcomeFailed, loader.Refresh(context.Background()))
	assert.Equal(t, MsgLoadFailed, s.Snapshot().StatusMessage)
}

func TestRefresh_CallerAbortIsNotAFailure(t *testing.T) {
	s := store.New()
	src := sourceFunc(func(ctx context.Context, q domain.ItemQuery) (domain.ItemPage, error) {
		<-ctx.Done()
		return domain.ItemPage{}, ctx.Err()
	})
	loader := NewLoader(s, src, Config{Retries: 3, Backoff: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, OutcomeDiscarded, loader.Refresh(ctx))
	assert.NotEqual(t, store.StatusError, s.Snapshot().Status)
}

func TestRefresh_ResultAfterAbortIsDiscarded(t *testing.T) {
	s := store.New()
	ctx, cancel := context.WithCancel(context.Background())
	src := sourceFunc(func(context.Context, domain.ItemQuery) (domain.ItemPage, error) {
		// answers even though the caller gave up
		cancel()
		return pageOf(1, 2), nil
	})
	loader := NewLoader(s, src, Config{})

	assert.Equal(t, OutcomeDiscarded, loader.Refresh(ctx))
	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.NotEqual(t, store.StatusReady, snap.Status)
}

func TestQueryFromState(t *testing.T) {
	published := false
	st := store.State{
		Filters:  domain.FilterSet{domain.FilterType: "waffe", domain.FilterSearch: "klinge"},
		Page:     2,
		PageSize: 6,
	}

	q := QueryFromState(st, &published)

	assert.Equal(t, "klinge", q.Search)
	assert.Equal(t, domain.FilterSet{domain.FilterType: "waffe"}, q.Filters)
	assert.Equal(t, 6, q.Offset())
	require.NotNil(t, q.Published)
	assert.False(t, *q.Published)

	st.SearchQuery = "bogen"
	assert.Equal(t, "bogen", QueryFromState(st, nil).Search)
}

func TestExpectedRows(t *testing.T) {
	assert.Equal(t, 6, ExpectedRows(6))
	assert.Equal(t, MaxSkeletonRows, ExpectedRows(store.Unbounded))
	assert.Equal(t, MaxSkeletonRows, ExpectedRows(0))
}
