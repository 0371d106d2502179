package bundle

import (
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeBundle = "Bundle"

// Event type constants
const (
	EventTypeBundleCreated     = "BundleCreated"
	EventTypeBundleUpdated     = "BundleUpdated"
	EventTypeBundleDeactivated = "BundleDeactivated"
	EventTypeBundleDeleted     = "BundleDeleted"
)

// BundleCreatedEvent is published when a new bundle is created
type BundleCreatedEvent struct {
	shared.BaseDomainEvent
	BundleID  uuid.UUID `json:"bundle_id"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	ItemCount int       `json:"item_count"`
}

// NewBundleCreatedEvent creates a new BundleCreatedEvent
func NewBundleCreatedEvent(b *Bundle) *BundleCreatedEvent {
	return &BundleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleCreated, AggregateTypeBundle, b.ID),
		BundleID:        b.ID,
		Title:           b.Title,
		Mode:            b.Mode.String(),
		ItemCount:       len(b.Items),
	}
}

// BundleUpdatedEvent is published when a bundle's configuration or item set changes
type BundleUpdatedEvent struct {
	shared.BaseDomainEvent
	BundleID  uuid.UUID `json:"bundle_id"`
	Title     string    `json:"title"`
	Active    bool      `json:"active"`
	ItemCount int       `json:"item_count"`
}

// NewBundleUpdatedEvent creates a new BundleUpdatedEvent
func NewBundleUpdatedEvent(b *Bundle) *BundleUpdatedEvent {
	return &BundleUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleUpdated, AggregateTypeBundle, b.ID),
		BundleID:        b.ID,
		Title:           b.Title,
		Active:          b.Active,
		ItemCount:       len(b.Items),
	}
}

// BundleDeactivatedEvent is published when a bundle is hidden from shoppers
type BundleDeactivatedEvent struct {
	shared.BaseDomainEvent
	BundleID uuid.UUID `json:"bundle_id"`
}

// NewBundleDeactivatedEvent creates a new BundleDeactivatedEvent
func NewBundleDeactivatedEvent(b *Bundle) *BundleDeactivatedEvent {
	return &BundleDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleDeactivated, AggregateTypeBundle, b.ID),
		BundleID:        b.ID,
	}
}

// BundleDeletedEvent is published when a bundle is deleted. Carts still
// referencing the bundle are detached (repriced to original) rather than
// invalidated.
type BundleDeletedEvent struct {
	shared.BaseDomainEvent
	BundleID uuid.UUID `json:"bundle_id"`
	Title    string    `json:"title"`
}

// NewBundleDeletedEvent creates a new BundleDeletedEvent
func NewBundleDeletedEvent(b *Bundle) *BundleDeletedEvent {
	return &BundleDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleDeleted, AggregateTypeBundle, b.ID),
		BundleID:        b.ID,
		Title:           b.Title,
	}
}
