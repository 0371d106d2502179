package bundle

import (
	"fmt"
	"time"

	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SelectionMode determines which subsets of a bundle's items a shopper may select
type SelectionMode string

const (
	SelectionAllRequired SelectionMode = "ALL_REQUIRED" // every configured item, exactly once
	SelectionPickAny     SelectionMode = "PICK_ANY"     // any non-empty subset
	SelectionPickExact   SelectionMode = "PICK_EXACT"   // exactly PickCount items
	SelectionFlexible    SelectionMode = "FLEXIBLE"     // between MinItems and MaxItems items
)

// IsValid checks if the mode is a known SelectionMode
func (m SelectionMode) IsValid() bool {
	switch m {
	case SelectionAllRequired, SelectionPickAny, SelectionPickExact, SelectionFlexible:
		return true
	}
	return false
}

// String returns the string representation of SelectionMode
func (m SelectionMode) String() string {
	return string(m)
}

// DiscountConfig holds the tiered discount configuration of a bundle.
// Percent values are whole percentages (10 = 10%); amounts are minor units.
// A zero value for a tier means no discount is configured for that tier.
//
// When both a fixed amount and a percentage are configured for the same tier,
// the fixed amount wins. This mirrors long-standing merchant-facing behavior
// and is pinned by tests; see ComputeTierDiscount.
type DiscountConfig struct {
	PercentTier2 decimal.Decimal `gorm:"type:decimal(5,2)"`
	PercentTier3 decimal.Decimal `gorm:"type:decimal(5,2)"`
	AmountTier2  int64
	AmountTier3  int64
}

// IsZero returns true when no tier has any discount configured
func (c DiscountConfig) IsZero() bool {
	return c.PercentTier2.IsZero() && c.PercentTier3.IsZero() &&
		c.AmountTier2 == 0 && c.AmountTier3 == 0
}

func (c DiscountConfig) validate() error {
	hundred := decimal.NewFromInt(100)
	if c.PercentTier2.IsNegative() || c.PercentTier2.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Tier-2 percentage must be between 0 and 100")
	}
	if c.PercentTier3.IsNegative() || c.PercentTier3.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Tier-3 percentage must be between 0 and 100")
	}
	if c.AmountTier2 < 0 || c.AmountTier3 < 0 {
		return shared.NewDomainError("INVALID_DISCOUNT", "Fixed discount amounts cannot be negative")
	}
	return nil
}

// BundleItem is one selectable slot of a bundle. It holds a weak reference
// to a catalog product/variant; the product itself lives outside this core.
type BundleItem struct {
	ID              uuid.UUID
	BundleID        uuid.UUID
	ProductID       uuid.UUID
	VariantID       uuid.UUID
	DefaultQuantity int64
	Required        bool
	SortOrder       int
	PriceOverride   *int64 // optional per-item unit price in minor units
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BundleItemSpec describes one item when creating or replacing a bundle's items
type BundleItemSpec struct {
	ProductID       uuid.UUID
	VariantID       uuid.UUID
	DefaultQuantity int64
	Required        bool
	PriceOverride   *int64
}

func (s BundleItemSpec) validate() error {
	if s.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_ITEM", "Bundle item product ID cannot be empty")
	}
	if s.VariantID == uuid.Nil {
		return shared.NewDomainError("INVALID_ITEM", "Bundle item variant ID cannot be empty")
	}
	if s.DefaultQuantity <= 0 {
		return shared.NewDomainError("INVALID_ITEM", "Bundle item default quantity must be positive")
	}
	if s.PriceOverride != nil && *s.PriceOverride < 0 {
		return shared.NewDomainError("INVALID_ITEM", "Bundle item price override cannot be negative")
	}
	return nil
}

// Bundle is the aggregate root for a merchant-defined multi-product bundle
type Bundle struct {
	shared.BaseAggregateRoot
	Title     string
	Mode      SelectionMode
	PickCount int  // used by PICK_EXACT
	MinItems  int  // used by FLEXIBLE
	MaxItems  *int // used by FLEXIBLE; nil means unbounded above
	Discount  DiscountConfig `gorm:"embedded;embeddedPrefix:discount_"`
	Active    bool
	Items     []BundleItem `gorm:"foreignKey:BundleID"`
}

// NewBundle creates a new bundle with its items
func NewBundle(title string, mode SelectionMode, discount DiscountConfig, items []BundleItemSpec) (*Bundle, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Bundle title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Bundle title cannot exceed 200 characters")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_MODE", fmt.Sprintf("Unknown selection mode %q", mode))
	}
	if err := discount.validate(); err != nil {
		return nil, err
	}

	b := &Bundle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		Mode:              mode,
		Discount:          discount,
		Active:            true,
	}

	if err := b.ReplaceItems(items); err != nil {
		return nil, err
	}

	b.AddDomainEvent(NewBundleCreatedEvent(b))

	return b, nil
}

// SetPickCount sets the exact item count for PICK_EXACT bundles
func (b *Bundle) SetPickCount(count int) error {
	if b.Mode != SelectionPickExact {
		return shared.NewDomainError("INVALID_MODE", "Pick count only applies to PICK_EXACT bundles")
	}
	if count < 1 {
		return shared.NewDomainError("INVALID_PICK_COUNT", "Pick count must be at least 1")
	}
	b.PickCount = count
	b.UpdatedAt = time.Now()
	return nil
}

// SetItemRange sets the selection bounds for FLEXIBLE bundles.
// maxItems may be nil, meaning unbounded above.
func (b *Bundle) SetItemRange(minItems int, maxItems *int) error {
	if b.Mode != SelectionFlexible {
		return shared.NewDomainError("INVALID_MODE", "Item range only applies to FLEXIBLE bundles")
	}
	if minItems < 0 {
		return shared.NewDomainError("INVALID_RANGE", "Minimum item count cannot be negative")
	}
	if maxItems != nil && *maxItems < minItems {
		return shared.NewDomainError("INVALID_RANGE", "Maximum item count cannot be below the minimum")
	}
	b.MinItems = minItems
	b.MaxItems = maxItems
	b.UpdatedAt = time.Now()
	return nil
}

// ReplaceItems replaces the full item set of the bundle. Bundle editing is a
// full replace, not an incremental diff: items get fresh identities and sort
// order follows the given order.
func (b *Bundle) ReplaceItems(specs []BundleItemSpec) error {
	if len(specs) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Bundle must contain at least one item")
	}

	seen := make(map[uuid.UUID]bool, len(specs))
	items := make([]BundleItem, 0, len(specs))
	now := time.Now()
	for i, spec := range specs {
		if err := spec.validate(); err != nil {
			return err
		}
		if seen[spec.VariantID] {
			return shared.NewDomainError("DUPLICATE_ITEM", "Bundle cannot contain the same variant twice")
		}
		seen[spec.VariantID] = true
		items = append(items, BundleItem{
			ID:              uuid.New(),
			BundleID:        b.ID,
			ProductID:       spec.ProductID,
			VariantID:       spec.VariantID,
			DefaultQuantity: spec.DefaultQuantity,
			Required:        spec.Required,
			SortOrder:       i,
			PriceOverride:   spec.PriceOverride,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	b.Items = items
	b.UpdatedAt = now
	return nil
}

// UpdateDiscount replaces the discount configuration
func (b *Bundle) UpdateDiscount(discount DiscountConfig) error {
	if err := discount.validate(); err != nil {
		return err
	}
	b.Discount = discount
	b.UpdatedAt = time.Now()
	return nil
}

// Rename changes the bundle title
func (b *Bundle) Rename(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Bundle title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Bundle title cannot exceed 200 characters")
	}
	b.Title = title
	b.UpdatedAt = time.Now()
	return nil
}

// Activate makes the bundle available to shoppers
func (b *Bundle) Activate() {
	b.Active = true
	b.UpdatedAt = time.Now()
}

// Deactivate hides the bundle from shoppers. Cart lines that already
// reference it are repriced back to their original unit price on the next
// recalculation; the lines themselves stay valid.
func (b *Bundle) Deactivate() {
	b.Active = false
	b.UpdatedAt = time.Now()
}

// GetItem returns a bundle item by its ID
func (b *Bundle) GetItem(itemID uuid.UUID) *BundleItem {
	for idx := range b.Items {
		if b.Items[idx].ID == itemID {
			return &b.Items[idx]
		}
	}
	return nil
}

// RequiredItems returns the items flagged as required
func (b *Bundle) RequiredItems() []BundleItem {
	var required []BundleItem
	for _, item := range b.Items {
		if item.Required {
			required = append(required, item)
		}
	}
	return required
}

// ItemCount returns the number of configured items
func (b *Bundle) ItemCount() int {
	return len(b.Items)
}
