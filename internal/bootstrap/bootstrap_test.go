package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/config"
	"github.com/osse101/opitemdb/internal/database/memory"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/metacache"
	"github.com/osse101/opitemdb/internal/sse"
)

func TestCleanupLogs_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf(LogFileNamePattern, fmt.Sprintf("2026-01-%02d_00-00-00", i+1))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, LogFilePermission))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), nil, LogFilePermission))

	cleanupLogs(dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Len(t, names, LogFileRetentionCount+1)
	assert.Contains(t, names, "keep.txt")
	assert.Contains(t, names, fmt.Sprintf(LogFileNamePattern, "2026-01-12_00-00-00"))
	assert.NotContains(t, names, fmt.Sprintf(LogFileNamePattern, "2026-01-01_00-00-00"))
}

func TestSetupLogger_WritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{LogLevel: "info", LogFormat: "json", LogDir: dir, JWTSecret: "x"}

	f, err := SetupLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, f)
	t.Cleanup(func() { f.Close() })

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), LogMsgLoggingInitialized)
}

func TestInitializeStore_Memory(t *testing.T) {
	store, err := InitializeStore(context.Background(), &config.Config{DBDriver: config.DriverMemory})
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestWarmLookups(t *testing.T) {
	lookups := metacache.NewLookups(metacache.New(time.Minute), memory.New())
	assert.NoError(t, WarmLookups(context.Background(), lookups))
}

type emptySource struct{}

func (emptySource) Lookups(context.Context, domain.LookupKind) ([]domain.Lookup, error) {
	return nil, nil
}

func (emptySource) Enchantments(context.Context) ([]domain.Enchantment, error) {
	return nil, nil
}

func TestWarmLookups_EmptyListFails(t *testing.T) {
	lookups := metacache.NewLookups(metacache.New(time.Minute), emptySource{})
	err := WarmLookups(context.Background(), lookups)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgEmptyLookupList)
}

// countingSource counts fetches of the item type list
type countingSource struct {
	*memory.Store
	fetches atomic.Int32
}

func (c *countingSource) Lookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	if kind == domain.LookupItemTypes {
		c.fetches.Add(1)
	}
	return c.Store.Lookups(ctx, kind)
}

func TestScheduleLookupRefresh(t *testing.T) {
	src := &countingSource{Store: memory.New()}
	lookups := metacache.NewLookups(metacache.New(time.Hour), src)
	require.NoError(t, WarmLookups(context.Background(), lookups))

	sched, pool := ScheduleLookupRefresh(lookups, 5*time.Millisecond)
	require.NotNil(t, sched)
	require.NotNil(t, pool)

	assert.Eventually(t, func() bool { return src.fetches.Load() >= 2 }, time.Second, 5*time.Millisecond,
		"the refresh must bypass the hour-long TTL")

	GracefulShutdown(context.Background(), ShutdownComponents{Scheduler: sched, MaintenancePool: pool})
}

func TestScheduleLookupRefresh_Disabled(t *testing.T) {
	sched, pool := ScheduleLookupRefresh(metacache.NewLookups(metacache.New(time.Minute), memory.New()), 0)
	assert.Nil(t, sched)
	assert.Nil(t, pool)
}

func TestInitializeEventSystem_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deadletter.jsonl")
	bus, publisher, err := InitializeEventSystem(&config.Config{EventDeadLetterPath: path})
	require.NoError(t, err)
	require.NotNil(t, bus)
	t.Cleanup(func() { _ = publisher.Shutdown(context.Background()) })

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestResolveEventSettings(t *testing.T) {
	s := resolveEventSettings(&config.Config{EventMaxRetries: -1})
	assert.Equal(t, EventDefaultMaxRetries, s.maxRetries)
	assert.Equal(t, EventDefaultRetryDelay, s.retryDelay)
	assert.Equal(t, EventDefaultDeadLetterPath, s.deadLetterPath)

	s = resolveEventSettings(&config.Config{EventMaxRetries: 1, EventRetryDelay: time.Second, EventDeadLetterPath: "x.jsonl"})
	assert.Equal(t, eventSettings{maxRetries: 1, retryDelay: time.Second, deadLetterPath: "x.jsonl"}, s)
}

func TestInitializeEventSystem_ReportsEarlierDeadLetters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadletter.jsonl")
	w, err := event.NewDeadLetterWriter(path)
	require.NoError(t, err)
	ev := event.NewItemEvent(event.ItemCreated, domain.ItemSummary{ID: 31}, "u-1")
	require.NoError(t, w.Write(ev, 6, fmt.Errorf("webhook down")))
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, publisher, err := InitializeEventSystem(&config.Config{EventDeadLetterPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Shutdown(context.Background()) })

	assert.Contains(t, buf.String(), LogMsgDeadLettersPending)
	assert.Contains(t, buf.String(), "item_ids=[31]")
}

func TestRegisterEventHandlers_WithoutWebhook(t *testing.T) {
	hub := sse.NewHub()
	hub.Start()
	defer hub.Stop()

	pool, err := RegisterEventHandlers(EventHandlerDependencies{
		EventBus: event.NewMemoryBus(),
		Hub:      hub,
		Config:   &config.Config{},
	})
	require.NoError(t, err)
	assert.Nil(t, pool)
}
