package metacache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGet_CachesWithinTTL(t *testing.T) {
	c := New(time.Minute)
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"waffe"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Get(context.Background(), c, "item_types", fetch)
		require.NoError(t, err)
		assert.Equal(t, []string{"waffe"}, v)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	c := New(30 * time.Millisecond)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, _ := Get(context.Background(), c, "rarities", fetch)
	time.Sleep(60 * time.Millisecond)
	second, _ := Get(context.Background(), c, "rarities", fetch)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestGet_CoalescesConcurrentFetches(t *testing.T) {
	c := New(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "ok", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Get(context.Background(), c, "materials", fetch)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "ok", r)
	}
}

func TestGet_ErrorsAreNotCached(t *testing.T) {
	c := New(time.Minute)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	}

	_, err := Get(context.Background(), c, "k", fetch)
	require.Error(t, err)
	v, err := Get(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGet_CallerCancellationDoesNotCancelSharedFetch(t *testing.T) {
	c := New(time.Minute)
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		<-release
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "ok", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Get(ctx, c, "k", fetch)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	v, err := Get(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestPersistedTier(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer bolt.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]domain.Lookup, error) {
		calls.Add(1)
		return []domain.Lookup{{ID: 1, Slug: "episch", Label: "Episch"}}, nil
	}

	first := New(time.Minute, WithPersister(bolt), WithClock(clock))
	_, err = Get(context.Background(), first, "rarities", fetch)
	require.NoError(t, err)

	// a fresh process reads the persisted entry instead of fetching
	second := New(time.Minute, WithPersister(bolt), WithClock(clock))
	v, err := Get(context.Background(), second, "rarities", fetch)
	require.NoError(t, err)
	assert.Equal(t, "episch", v[0].Slug)
	assert.Equal(t, int32(1), calls.Load())

	// expired persisted entries are ignored
	now = now.Add(2 * time.Minute)
	third := New(time.Minute, WithPersister(bolt), WithClock(clock))
	_, err = Get(context.Background(), third, "rarities", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPersistedHitKeepsOriginalAge(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer bolt.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	_, err = Get(context.Background(), New(time.Minute, WithPersister(bolt), WithClock(clock)), "materials", fetch)
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	second := New(time.Minute, WithPersister(bolt), WithClock(clock))
	v, err := Get(context.Background(), second, "materials", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// the memory copy expires with the persisted entry, not a full TTL later
	now = now.Add(20 * time.Second)
	v, err = Get(context.Background(), second, "materials", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBoltStore_Token(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer bolt.Close()

	tok, err := bolt.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, bolt.SaveToken("abc"))
	tok, _ = bolt.LoadToken()
	assert.Equal(t, "abc", tok)

	require.NoError(t, bolt.ClearToken())
	tok, _ = bolt.LoadToken()
	assert.Empty(t, tok)
}

func TestOpenBolt_CreatesParentDir(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "nested", "opitemdb", "cache.db"))
	require.NoError(t, err)
	assert.NoError(t, bolt.Close())
}

func TestOpenBolt_RequiresPath(t *testing.T) {
	_, err := OpenBolt("  ")
	assert.Error(t, err)
}

type MockLookupSource struct {
	mock.Mock
}

func (m *MockLookupSource) Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lookup), args.Error(1)
}

func (m *MockLookupSource) Enchantments(ctx context.Context) ([]domain.Enchantment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Enchantment), args.Error(1)
}

func TestLookups_SortedAndCached(t *testing.T) {
	one, two := 1, 2
	src := new(MockLookupSource)
	src.On("Lookups", mock.Anything, domain.LookupMaterials).Return([]domain.Lookup{
		{ID: 1, Slug: "holz", Sort: &two},
		{ID: 2, Slug: "eisen", Sort: &one},
	}, nil).Once()
	src.On("Enchantments", mock.Anything).Return([]domain.Enchantment{{ID: 1, Slug: "schaerfe", MaxLevel: 5}}, nil).Once()

	l := NewLookups(New(time.Minute), src)

	for i := 0; i < 2; i++ {
		entries, err := l.List(context.Background(), domain.LookupMaterials)
		require.NoError(t, err)
		assert.Equal(t, "eisen", entries[0].Slug)
		entries[0].Slug = "mutated"

		defs, err := l.Enchantments(context.Background())
		require.NoError(t, err)
		assert.Len(t, defs, 1)
	}
	src.AssertExpectations(t)
}
