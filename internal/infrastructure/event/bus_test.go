package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bundleshop/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
	panics bool
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	if h.panics {
		panic("handler blew up")
	}
	return h.err
}

func (h *recordingHandler) seen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func newEvent(eventType string) shared.DomainEvent {
	evt := shared.NewBaseDomainEvent(eventType, "cart", uuid.New())
	return &evt
}

func TestInMemoryEventBusSynchronous(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribed handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 0)
		h := &recordingHandler{types: []string{"cart.changed"}}
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))

		assert.Equal(t, 1, h.seen())
	})

	t.Run("skips handlers for other event types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 0)
		h := &recordingHandler{types: []string{"bundle.updated"}}
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))

		assert.Equal(t, 0, h.seen())
	})

	t.Run("wildcard handler receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 0)
		h := &recordingHandler{}
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed"), newEvent("bundle.deleted")))

		assert.Equal(t, 2, h.seen())
	})

	t.Run("handler error does not fail publish or stop other handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 0)
		failing := &recordingHandler{types: []string{"cart.changed"}, err: assert.AnError}
		healthy := &recordingHandler{types: []string{"cart.changed"}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))

		assert.Equal(t, 1, failing.seen())
		assert.Equal(t, 1, healthy.seen())
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 0)
		panicking := &recordingHandler{types: []string{"cart.changed"}, panics: true}
		healthy := &recordingHandler{types: []string{"cart.changed"}}
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))

		assert.Equal(t, 1, healthy.seen())
	})

	t.Run("unsubscribed handler receives nothing", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 0)
		h := &recordingHandler{types: []string{"cart.changed"}}
		bus.Subscribe(h)
		bus.Unsubscribe(h)

		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))

		assert.Equal(t, 0, h.seen())
	})
}

func TestInMemoryEventBusBuffered(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers queued events before stop returns", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 16)
		h := &recordingHandler{types: []string{"cart.changed"}}
		bus.Subscribe(h)

		require.NoError(t, bus.Start(ctx))
		for i := 0; i < 10; i++ {
			require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))
		}
		require.NoError(t, bus.Stop(ctx))

		assert.Equal(t, 10, h.seen())
	})

	t.Run("publishes synchronously after stop", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 4)
		h := &recordingHandler{types: []string{"cart.changed"}}
		bus.Subscribe(h)

		require.NoError(t, bus.Start(ctx))
		require.NoError(t, bus.Stop(ctx))
		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))

		assert.Equal(t, 1, h.seen())
	})

	t.Run("stop waits for in-flight delivery", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop(), 1)
		slow := &slowHandler{done: make(chan struct{})}
		bus.Subscribe(slow)

		require.NoError(t, bus.Start(ctx))
		require.NoError(t, bus.Publish(ctx, newEvent("cart.changed")))
		require.NoError(t, bus.Stop(ctx))

		select {
		case <-slow.done:
		default:
			t.Fatal("stop returned before handler finished")
		}
	})
}

type slowHandler struct {
	once sync.Once
	done chan struct{}
}

func (h *slowHandler) EventTypes() []string { return []string{"cart.changed"} }

func (h *slowHandler) Handle(context.Context, shared.DomainEvent) error {
	time.Sleep(20 * time.Millisecond)
	h.once.Do(func() { close(h.done) })
	return nil
}
