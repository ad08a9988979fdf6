// Package events re-exports the platform event bus for convenience.
// This allows internal modules to import events from internal/events
// while the implementation lives in platform/events.
package events

import (
	"context"

	platformevents "fieldparts_backend/platform/events"
	"fieldparts_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// Bus is a type alias to the platform Bus interface
type Bus = platformevents.Bus

// Event is a type alias to the platform Event interface
type Event = platformevents.Event

// Handler is a type alias to the platform Handler interface
type Handler = platformevents.Handler

// NewInMemoryBus creates a new in-memory event bus.
// This is a convenience re-export from platform/events.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// HandlerOf adapts a typed function into a Handler, ignoring events of any
// other concrete type.
func HandlerOf[E Event](fn func(ctx context.Context, event E) error) Handler {
	return platformevents.HandlerFunc(func(ctx context.Context, event Event) error {
		typed, ok := event.(E)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	})
}
