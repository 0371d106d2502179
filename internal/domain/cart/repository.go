package cart

import (
	"context"

	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Store is the cart persistence contract consumed by the synchronization
// engine. The store owns cart identity and applies last-writer-wins on
// concurrent mutations; this engine adds no locking of its own.
type Store interface {
	// GetCart loads a cart with all its line items
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)

	// UpsertLineItems inserts lines with new IDs and updates lines whose ID
	// already exists in the cart
	UpsertLineItems(ctx context.Context, cartID uuid.UUID, items []LineItem) error

	// DeleteLineItems removes the given lines from the cart. Unknown IDs are
	// ignored.
	DeleteLineItems(ctx context.Context, cartID uuid.UUID, ids []uuid.UUID) error

	// CartIDsWithBundle returns the IDs of carts holding at least one line
	// tagged with the given bundle
	CartIDsWithBundle(ctx context.Context, bundleID uuid.UUID) ([]uuid.UUID, error)
}

// PriceLookup resolves live variant unit prices in a currency. A variant
// missing from the result has no price in that currency.
type PriceLookup interface {
	GetPrices(ctx context.Context, variantIDs []uuid.UUID, currency valueobject.Currency) (map[uuid.UUID]int64, error)
}
