package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/opitemdb/internal/domain"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version   string    `json:"version"`
	Type      Type      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Item event types
const (
	ItemCreated   Type = domain.EventItemCreated
	ItemPublished Type = domain.EventItemPublished
	ItemRejected  Type = domain.EventItemRejected
	ItemUpdated   Type = domain.EventItemUpdated
)

// ItemEventTypes lists every item event, in lifecycle order
var ItemEventTypes = []Type{ItemCreated, ItemUpdated, ItemPublished, ItemRejected}

// NewItemEvent creates an item event with a typed payload
func NewItemEvent(t Type, item domain.ItemSummary, actorID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    t,
		Payload: domain.ItemEventPayload{
			ItemID:      item.ID,
			Title:       item.Title,
			OwnerID:     item.OwnerID,
			IsPublished: item.IsPublished,
			ActorID:     actorID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers synchronously
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
