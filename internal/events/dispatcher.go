// Package events makes the append-to-broadcast coupling explicit:
// every successful message write is published as a MessagePersisted
// event, and the realtime channel (plus the optional Kafka bridge)
// subscribes to it. Persistence never talks to transport directly.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/models"
)

// MessagePersisted is emitted after a message has been durably written.
// InstanceID identifies the emitting process so the Kafka bridge can
// drop its own echoes.
type MessagePersisted struct {
	InstanceID string          `json:"instanceId"`
	Message    *models.Message `json:"message"`
}

// Handler consumes a persisted-message event. Handlers must not block;
// delivery is fire-and-forget.
type Handler func(ctx context.Context, ev MessagePersisted)

// Dispatcher is the in-process pub/sub for persisted messages.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *zap.SugaredLogger
}

func NewDispatcher(log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{log: log}
}

func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Dispatch fans the event out to every subscriber synchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, ev MessagePersisted) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}
