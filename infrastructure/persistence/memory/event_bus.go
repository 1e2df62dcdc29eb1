package memory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"ponydocs/application/ports"
	"ponydocs/domain/events"
)

// EventBus dispatches events synchronously to in-process subscribers and
// optionally forwards them to a downstream publisher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	forward  ports.EventPublisher
	logger   *zap.Logger
}

// NewEventBus creates an event bus. forward may be nil.
func NewEventBus(forward ports.EventPublisher, logger *zap.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]ports.EventHandler),
		forward:  forward,
		logger:   logger,
	}
}

// Publish runs every subscribed handler, then forwards the event.
// Handler errors are joined; a forwarding failure is only logged.
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.mu.RLock()
	handlers := append([]ports.EventHandler(nil), b.handlers[event.GetEventType()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if !h.CanHandle(event.GetEventType()) {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("eventType", event.GetEventType()),
				zap.String("aggregateID", event.GetAggregateID()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	if b.forward != nil {
		if err := b.forward.Publish(ctx, event); err != nil {
			b.logger.Warn("Failed to forward event",
				zap.String("eventType", event.GetEventType()),
				zap.Error(err),
			)
		}
	}

	return errors.Join(errs...)
}

// PublishBatch publishes events in order
func (b *EventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	var errs []error
	for _, e := range batch {
		if err := b.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for an event type
func (b *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Unsubscribe removes a handler
func (b *EventBus) Unsubscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[eventType]
	for i, h := range list {
		if h == handler {
			b.handlers[eventType] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}
