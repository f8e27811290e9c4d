package metrics

import (
	"context"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/event"
	"github.com/osse101/opitemdb/internal/logger"
)

// EventMetricsCollector subscribes to item events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all item events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range event.ItemEventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	if _, err := event.DecodePayload[domain.ItemEventPayload](evt.Payload); err != nil {
		log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
		return nil
	}

	switch evt.Type {
	case event.ItemCreated:
		ItemsCreated.WithLabelValues(TransportServer).Inc()
	case event.ItemPublished:
		ModerationActions.WithLabelValues("publish", ResultSuccess).Inc()
	case event.ItemRejected:
		ModerationActions.WithLabelValues("reject", ResultSuccess).Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
