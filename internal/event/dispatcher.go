// Package event dispatches domain messages to in-process handlers.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Message is a payload that can be dispatched by name.
type Message interface {
	EventName() string
	String() string
}

// Handler processes a dispatched message.
type Handler func(ctx context.Context, msg Message) error

// Dispatcher routes messages to the handlers registered for their name.
// It is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Register adds h to the handlers for name.
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish runs every handler registered for msg in registration order and
// returns their joined errors. A message with no handlers is dropped.
func (d *Dispatcher) Publish(ctx context.Context, msg Message) error {
	if msg == nil {
		return errors.New("publish nil message")
	}

	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[msg.EventName()]...)
	d.mu.RUnlock()

	deliveryID := uuid.NewString()
	if len(handlers) == 0 {
		slog.Warn("no handler registered for event", "event", msg.EventName(), "delivery_id", deliveryID)
		return nil
	}

	slog.Debug("dispatching event", "event", msg.EventName(), "delivery_id", deliveryID, "message", msg.String())

	var errs []error
	for i, h := range handlers {
		if err := h(ctx, msg); err != nil {
			slog.Error("event handler failed", "event", msg.EventName(), "delivery_id", deliveryID, "handler", i, "error", err)
			errs = append(errs, fmt.Errorf("handle %s: %w", msg.EventName(), err))
		}
	}
	return errors.Join(errs...)
}
