package bundle

import (
	"context"
	"fmt"

	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/bundleshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CartChangedHandler recalculates a cart's bundle groups whenever the cart
// changes. Recalculation is idempotent, so wrapping this handler in an
// IdempotentHandler makes redelivered events harmless.
type CartChangedHandler struct {
	sync   *CartSyncService
	logger *zap.Logger
}

// NewCartChangedHandler creates a new CartChangedHandler
func NewCartChangedHandler(sync *CartSyncService, logger *zap.Logger) *CartChangedHandler {
	return &CartChangedHandler{
		sync:   sync,
		logger: logger,
	}
}

// EventTypes returns the event types this handler processes
func (h *CartChangedHandler) EventTypes() []string {
	return []string{cart.EventTypeCartChanged}
}

// Handle recalculates the changed cart's bundle groups
func (h *CartChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*cart.CartChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T for %s", event, event.EventType())
	}

	h.logger.Debug("recalculating cart after change",
		zap.String("cart_id", changed.CartID.String()),
		zap.String("reason", changed.Reason),
	)

	if _, err := h.sync.Recalculate(ctx, changed.CartID, changed.BundleID); err != nil {
		return fmt.Errorf("recalculate cart %s: %w", changed.CartID, err)
	}
	return nil
}
