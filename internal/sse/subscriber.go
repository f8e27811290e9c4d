package sse

import (
	"context"
	"log/slog"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/event"
)

// Subscriber bridges the internal event bus to the SSE hub
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new SSE subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{hub: hub, bus: bus}
}

// Subscribe registers the bridge for every item event type
func (s *Subscriber) Subscribe() {
	types := make([]string, 0, len(event.ItemEventTypes))
	for _, t := range event.ItemEventTypes {
		s.bus.Subscribe(t, s.handleItemEvent)
		types = append(types, string(t))
	}
	slog.Info("SSE subscriber registered for event types", "types", types)
}

func (s *Subscriber) handleItemEvent(_ context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[domain.ItemEventPayload](evt.Payload)
	if err != nil {
		slog.Warn(LogMsgInvalidPayload, "event_type", evt.Type, "error", err)
		return nil
	}

	s.hub.BroadcastItem(string(evt.Type), payload)

	slog.Debug(LogMsgEventBroadcast,
		"event_type", evt.Type,
		"item_id", payload.ItemID,
		"published", payload.IsPublished)
	return nil
}
