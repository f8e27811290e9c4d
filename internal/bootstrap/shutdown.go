package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/scheduler"
	"github.com/osse101/opitemdb/internal/server"
	"github.com/osse101/opitemdb/internal/sse"
	"github.com/osse101/opitemdb/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server             *server.Server
	Hub                *sse.Hub
	NotifyPool         *worker.Pool
	Scheduler          *scheduler.Scheduler
	MaintenancePool    *worker.Pool
	ResilientPublisher *event.ResilientPublisher
	Store              *Store
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. SSE hub (close open streams)
// 3. Scheduled jobs and their pool
// 4. Notification pool (finish queued webhooks)
// 5. Event publisher (flush pending retries)
// 6. Store
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if c.Server != nil {
		if err := c.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.MaintenancePool != nil {
		c.MaintenancePool.Stop()
	}

	if c.NotifyPool != nil {
		c.NotifyPool.Stop()
	}

	if c.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := c.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if c.Store != nil {
		c.Store.Close()
	}

	slog.Info(LogMsgServerStopped)
}
