package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/metacache"
	"github.com/osse101/opitemdb/internal/scheduler"
	"github.com/osse101/opitemdb/internal/worker"
)

// WarmLookups loads every metadata list into the cache and fails when one is
// empty, since no item could be created without it.
func WarmLookups(ctx context.Context, lookups *metacache.Lookups) error {
	counts := make([]any, 0, 8)
	for _, kind := range []domain.LookupKind{domain.LookupItemTypes, domain.LookupMaterials, domain.LookupRarities} {
		entries, err := lookups.List(ctx, kind)
		if err != nil {
			return fmt.Errorf("%s %s: %w", ErrMsgFailedWarmLookups, kind, err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("%s: %s", ErrMsgEmptyLookupList, kind)
		}
		counts = append(counts, string(kind), len(entries))
	}

	enchantments, err := lookups.Enchantments(ctx)
	if err != nil {
		return fmt.Errorf("%s %s: %w", ErrMsgFailedWarmLookups, domain.LookupEnchantments, err)
	}
	counts = append(counts, string(domain.LookupEnchantments), len(enchantments))

	slog.Info(LogMsgLookupsWarmed, counts...)
	return nil
}

// ScheduleLookupRefresh re-warms the lookup cache every interval on a single
// background worker. Both returned values are nil when interval is zero.
func ScheduleLookupRefresh(lookups *metacache.Lookups, interval time.Duration) (*scheduler.Scheduler, *worker.Pool) {
	if interval <= 0 {
		return nil, nil
	}
	pool := worker.NewPool(1, 1)
	pool.Start()

	sched := scheduler.New(pool)
	sched.Schedule(LookupRefreshJob, interval, worker.JobFunc(func(ctx context.Context) error {
		lookups.Invalidate()
		return WarmLookups(ctx, lookups)
	}))
	return sched, pool
}
