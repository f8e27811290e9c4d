package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/opitemdb/internal/config"
	"github.com/osse101/opitemdb/internal/database"
	"github.com/osse101/opitemdb/internal/database/memory"
	"github.com/osse101/opitemdb/internal/database/postgres"
	"github.com/osse101/opitemdb/internal/repository"
)

// Store is the selected repository plus the function releasing its resources
type Store struct {
	repository.Store
	Close func()
}

// InitializeStore opens the repository selected by DB_DRIVER. For postgres the
// pending migrations are applied before the store is returned.
func InitializeStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		slog.Warn(LogMsgUsingMemoryStore)
		return &Store{Store: memory.New(), Close: func() {}}, nil
	}

	pool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxIdleTime, cfg.DBMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
	}

	version, err := database.Migrate(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
	}
	slog.Info(LogMsgMigrationsApplied, "version", version)

	return &Store{Store: postgres.NewStore(pool), Close: pool.Close}, nil
}
