package cart

import (
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeCart = "Cart"

// Event type constants
const (
	EventTypeCartChanged = "CartChanged"
)

// CartChangedEvent is published after any cart mutation. Delivery is
// at-least-once; consumers must be idempotent.
type CartChangedEvent struct {
	shared.BaseDomainEvent
	CartID uuid.UUID `json:"cart_id"`
	// BundleID is set when the mutation targeted a single bundle group,
	// letting the recalculation trigger scope its work; nil means the whole
	// cart should be reexamined.
	BundleID *uuid.UUID `json:"bundle_id,omitempty"`
	Reason   string     `json:"reason"`
}

// NewCartChangedEvent creates a new CartChangedEvent
func NewCartChangedEvent(cartID uuid.UUID, bundleID *uuid.UUID, reason string) *CartChangedEvent {
	return &CartChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartChanged, AggregateTypeCart, cartID),
		CartID:          cartID,
		BundleID:        bundleID,
		Reason:          reason,
	}
}
