package cart

import (
	"sort"
	"time"

	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// BundleLineContext links a cart line item to the bundle that priced it.
// It is a weak back-reference: the bundle may be edited, deactivated, or
// deleted afterwards without invalidating the line — recalculation then
// degrades the line back to OriginalUnitPrice instead of erroring.
//
// OriginalUnitPrice is the pre-discount unit price; keeping it on the line
// is what makes recalculation reversible and idempotent, because a new
// discount is always derived from the original price, never stacked on the
// currently discounted one.
type BundleLineContext struct {
	BundleID          uuid.UUID
	BundleItemID      uuid.UUID
	OriginalUnitPrice int64
	DiscountApplied   bool
	DiscountKind      string // discount snapshot: "none", "percentage" or "fixed"
	DiscountShare     int64  // this line's allocated share of the group discount, minor units
}

// LineItem is one line of a shopping cart. UnitPrice is integer minor units
// in the cart's currency.
type LineItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int64
	UnitPrice int64
	Bundle    *BundleLineContext
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLineItem creates a plain (non-bundle) cart line
func NewLineItem(cartID, variantID uuid.UUID, quantity, unitPrice int64) (*LineItem, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice < 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	now := time.Now()
	return &LineItem{
		ID:        uuid.New(),
		CartID:    cartID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewBundleLineItem creates a bundle-tagged cart line. originalUnitPrice is
// the pre-discount price, unitPrice the price after the allocated discount.
func NewBundleLineItem(cartID, variantID uuid.UUID, quantity, unitPrice int64, ctx BundleLineContext) (*LineItem, error) {
	if ctx.BundleID == uuid.Nil || ctx.BundleItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUNDLE_REF", "Bundle line context must reference a bundle and bundle item")
	}
	if ctx.OriginalUnitPrice < 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Original unit price cannot be negative")
	}
	line, err := NewLineItem(cartID, variantID, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	line.Bundle = &ctx
	return line, nil
}

// ExtendedTotal returns UnitPrice * Quantity in minor units
func (l *LineItem) ExtendedTotal() int64 {
	return l.UnitPrice * l.Quantity
}

// IsBundleLine returns true when the line carries a bundle context
func (l *LineItem) IsBundleLine() bool {
	return l.Bundle != nil
}

// OriginalExtendedTotal returns the pre-discount extended total. For plain
// lines it equals ExtendedTotal.
func (l *LineItem) OriginalExtendedTotal() int64 {
	if l.Bundle != nil {
		return l.Bundle.OriginalUnitPrice * l.Quantity
	}
	return l.ExtendedTotal()
}

// Reprice sets a new unit price, clamped at zero
func (l *LineItem) Reprice(unitPrice int64) {
	if unitPrice < 0 {
		unitPrice = 0
	}
	l.UnitPrice = unitPrice
	l.UpdatedAt = time.Now()
}

// DetachBundle removes the bundle linkage and restores the original price.
// Used when the referenced bundle no longer exists or is inactive.
func (l *LineItem) DetachBundle() {
	if l.Bundle == nil {
		return
	}
	l.UnitPrice = l.Bundle.OriginalUnitPrice
	l.Bundle = nil
	l.UpdatedAt = time.Now()
}

// Cart is the aggregate root for a shopper's cart as this engine sees it.
// Cart creation and non-bundle line management belong to the surrounding
// commerce platform; this core reads carts and rewrites bundle groups.
type Cart struct {
	shared.BaseAggregateRoot
	Currency valueobject.Currency
	Items    []LineItem
}

// NewCart creates an empty cart in the given currency
func NewCart(currency valueobject.Currency) (*Cart, error) {
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Cart currency cannot be empty")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Currency:          currency,
		Items:             make([]LineItem, 0),
	}, nil
}

// Subtotal returns the sum of all extended line totals
func (c *Cart) Subtotal() int64 {
	var total int64
	for i := range c.Items {
		total += c.Items[i].ExtendedTotal()
	}
	return total
}

// LinesForBundle returns the cart's bundle group for one bundle, in stable
// line order
func (c *Cart) LinesForBundle(bundleID uuid.UUID) []LineItem {
	var lines []LineItem
	for _, item := range c.Items {
		if item.Bundle != nil && item.Bundle.BundleID == bundleID {
			lines = append(lines, item)
		}
	}
	return lines
}

// BundleIDs returns the distinct bundle IDs present in the cart, sorted for
// deterministic iteration
func (c *Cart) BundleIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range c.Items {
		if item.Bundle != nil && !seen[item.Bundle.BundleID] {
			seen[item.Bundle.BundleID] = true
			ids = append(ids, item.Bundle.BundleID)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
	return ids
}

// LineIDsForBundle returns the IDs of a bundle group's lines
func (c *Cart) LineIDsForBundle(bundleID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, line := range c.LinesForBundle(bundleID) {
		ids = append(ids, line.ID)
	}
	return ids
}

// GetLineItem returns a line by ID, or nil
func (c *Cart) GetLineItem(lineID uuid.UUID) *LineItem {
	for idx := range c.Items {
		if c.Items[idx].ID == lineID {
			return &c.Items[idx]
		}
	}
	return nil
}
