package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/opitemdb/internal/config"
	"github.com/osse101/opitemdb/internal/discord"
	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/metrics"
	"github.com/osse101/opitemdb/internal/sse"
	"github.com/osse101/opitemdb/internal/worker"
)

// EventHandlerDependencies holds the dependencies needed for event handler registration.
type EventHandlerDependencies struct {
	EventBus event.Bus
	Hub      *sse.Hub
	Config   *config.Config
}

// RegisterEventHandlers subscribes the metrics collector, the SSE hub and,
// when configured, the moderation webhook. The returned pool runs the webhook
// deliveries and is nil when notifications are disabled.
func RegisterEventHandlers(deps EventHandlerDependencies) (*worker.Pool, error) {
	metrics.NewEventMetricsCollector().Register(deps.EventBus)
	slog.Info(LogMsgMetricsCollectorRegistered)

	sse.NewSubscriber(deps.Hub, deps.EventBus).Subscribe()
	slog.Info(LogMsgSSESubscriberRegistered)

	if !deps.Config.WebhookEnabled() {
		slog.Info(LogMsgNotifierDisabled)
		return nil, nil
	}

	session, err := discord.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateWebhook, err)
	}

	workers := deps.Config.NotifyWorkers
	if workers < 1 {
		workers = 1
	}
	pool := worker.NewPool(workers, NotifyQueueSize)
	pool.Start()

	discord.NewNotifier(session, deps.Config.WebhookID, deps.Config.WebhookToken, pool).Register(deps.EventBus)
	slog.Info(LogMsgNotifierRegistered, "workers", workers)
	return pool, nil
}
