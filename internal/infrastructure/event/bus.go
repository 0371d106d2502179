package event

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bundleshop/backend/internal/domain/shared"
)

// InMemoryEventBus delivers domain events to subscribed handlers within the
// same process. When started with a positive buffer size, Publish enqueues
// events and a background dispatcher delivers them; otherwise delivery is
// synchronous. A handler error never fails Publish, it is logged and the
// remaining handlers still run.
type InMemoryEventBus struct {
	registry   *HandlerRegistry
	logger     *zap.Logger
	bufferSize int

	running atomic.Bool
	queue   chan shared.DomainEvent
	wg      sync.WaitGroup
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus creates a bus. bufferSize <= 0 disables the background
// dispatcher and makes all delivery synchronous.
func NewInMemoryEventBus(logger *zap.Logger, bufferSize int) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry:   NewHandlerRegistry(),
		logger:     logger,
		bufferSize: bufferSize,
	}
}

// Subscribe registers a handler. When no event types are given the handler's
// own EventTypes() is used; an empty result subscribes it to all events.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from all subscriptions.
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Publish delivers events to all matching handlers. Events published before
// Start or after Stop are delivered synchronously.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		if b.running.Load() && b.queue != nil {
			select {
			case b.queue <- evt:
				continue
			default:
				b.logger.Warn("event queue full, delivering synchronously",
					zap.String("event_type", evt.EventType()))
			}
		}
		b.deliver(ctx, evt)
	}
	return nil
}

// Start launches the background dispatcher when a buffer size was configured.
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if b.bufferSize > 0 && b.running.CompareAndSwap(false, true) {
		b.queue = make(chan shared.DomainEvent, b.bufferSize)
		b.wg.Add(1)
		go b.dispatchLoop()
	}
	b.logger.Info("event bus started", zap.Int("buffer_size", b.bufferSize))
	return nil
}

// Stop drains the queue and waits for the dispatcher to exit.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if b.running.CompareAndSwap(true, false) {
		close(b.queue)
		b.wg.Wait()
	}
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatchLoop() {
	defer b.wg.Done()
	for evt := range b.queue {
		b.deliver(context.Background(), evt)
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, evt shared.DomainEvent) {
	for _, handler := range b.registry.HandlersFor(evt.EventType()) {
		if err := b.handleSafely(ctx, handler, evt); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", evt.EventType()),
				zap.String("event_id", evt.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// handleSafely isolates handler panics so one handler cannot take down the
// dispatcher or skip the remaining handlers.
func (b *InMemoryEventBus) handleSafely(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", evt.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return handler.Handle(ctx, evt)
}
