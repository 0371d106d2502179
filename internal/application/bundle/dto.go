package bundle

import (
	"github.com/bundleshop/backend/internal/domain/bundle"
	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/google/uuid"
)

// SelectedItemInput is one chosen bundle item in a cart operation
type SelectedItemInput struct {
	BundleItemID uuid.UUID `json:"bundle_item_id" binding:"required"`
	VariantID    uuid.UUID `json:"variant_id" binding:"required"`
	Quantity     int64     `json:"quantity" binding:"required,min=1"`
}

// AddBundleRequest adds a configured bundle selection to a cart
type AddBundleRequest struct {
	BundleID  uuid.UUID           `json:"bundle_id" binding:"required"`
	Selection []SelectedItemInput `json:"selection" binding:"required,dive"`
}

// UpdateSelectionRequest replaces a cart's selection for one bundle.
// An empty selection removes the bundle group from the cart.
type UpdateSelectionRequest struct {
	BundleID  uuid.UUID           `json:"bundle_id" binding:"required"`
	Selection []SelectedItemInput `json:"selection"`
}

// BundleItemInput describes one item when creating or updating a bundle
type BundleItemInput struct {
	ProductID       uuid.UUID `json:"product_id" binding:"required"`
	VariantID       uuid.UUID `json:"variant_id" binding:"required"`
	DefaultQuantity int64     `json:"default_quantity" binding:"required,min=1"`
	Required        bool      `json:"required"`
	PriceOverride   *int64    `json:"price_override,omitempty"`
}

// DiscountConfigInput carries the tiered discount configuration.
// Percentages are whole percents; amounts are minor units.
type DiscountConfigInput struct {
	PercentTier2 float64 `json:"percent_tier2"`
	PercentTier3 float64 `json:"percent_tier3"`
	AmountTier2  int64   `json:"amount_tier2"`
	AmountTier3  int64   `json:"amount_tier3"`
}

// CreateBundleRequest creates a new bundle definition
type CreateBundleRequest struct {
	Title     string              `json:"title" binding:"required"`
	Mode      string              `json:"mode" binding:"required"`
	PickCount *int                `json:"pick_count,omitempty"`
	MinItems  *int                `json:"min_items,omitempty"`
	MaxItems  *int                `json:"max_items,omitempty"`
	Discount  DiscountConfigInput `json:"discount"`
	Items     []BundleItemInput   `json:"items" binding:"required,dive"`
}

// UpdateBundleRequest updates an existing bundle definition. Items, when
// present, fully replace the current item set.
type UpdateBundleRequest struct {
	Title     *string              `json:"title,omitempty"`
	PickCount *int                 `json:"pick_count,omitempty"`
	MinItems  *int                 `json:"min_items,omitempty"`
	MaxItems  *int                 `json:"max_items,omitempty"`
	Discount  *DiscountConfigInput `json:"discount,omitempty"`
	Active    *bool                `json:"active,omitempty"`
	Items     []BundleItemInput    `json:"items,omitempty"`
}

// BundleListFilter filters and paginates bundle listings
type BundleListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// BundleItemResponse is the API representation of a bundle item
type BundleItemResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	VariantID       uuid.UUID `json:"variant_id"`
	DefaultQuantity int64     `json:"default_quantity"`
	Required        bool      `json:"required"`
	SortOrder       int       `json:"sort_order"`
	PriceOverride   *int64    `json:"price_override,omitempty"`
}

// BundleResponse is the API representation of a bundle
type BundleResponse struct {
	ID        uuid.UUID            `json:"id"`
	Title     string               `json:"title"`
	Mode      string               `json:"mode"`
	PickCount int                  `json:"pick_count,omitempty"`
	MinItems  int                  `json:"min_items,omitempty"`
	MaxItems  *int                 `json:"max_items,omitempty"`
	Discount  DiscountConfigInput  `json:"discount"`
	Active    bool                 `json:"active"`
	Items     []BundleItemResponse `json:"items"`
}

// ToBundleResponse converts a bundle aggregate to its API representation
func ToBundleResponse(b *bundle.Bundle) BundleResponse {
	items := make([]BundleItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, BundleItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			DefaultQuantity: item.DefaultQuantity,
			Required:        item.Required,
			SortOrder:       item.SortOrder,
			PriceOverride:   item.PriceOverride,
		})
	}
	pt2, _ := b.Discount.PercentTier2.Float64()
	pt3, _ := b.Discount.PercentTier3.Float64()
	return BundleResponse{
		ID:        b.ID,
		Title:     b.Title,
		Mode:      b.Mode.String(),
		PickCount: b.PickCount,
		MinItems:  b.MinItems,
		MaxItems:  b.MaxItems,
		Discount: DiscountConfigInput{
			PercentTier2: pt2,
			PercentTier3: pt3,
			AmountTier2:  b.Discount.AmountTier2,
			AmountTier3:  b.Discount.AmountTier3,
		},
		Active: b.Active,
		Items:  items,
	}
}

// ToBundleResponses converts a slice of bundles
func ToBundleResponses(bundles []bundle.Bundle) []BundleResponse {
	responses := make([]BundleResponse, 0, len(bundles))
	for i := range bundles {
		responses = append(responses, ToBundleResponse(&bundles[i]))
	}
	return responses
}

// BundleLineResponse is the bundle context of a cart line, when present
type BundleLineResponse struct {
	BundleID          uuid.UUID `json:"bundle_id"`
	BundleItemID      uuid.UUID `json:"bundle_item_id"`
	OriginalUnitPrice int64     `json:"original_unit_price"`
	DiscountApplied   bool      `json:"discount_applied"`
	DiscountKind      string    `json:"discount_kind"`
	DiscountShare     int64     `json:"discount_share"`
}

// LineItemResponse is the API representation of a cart line
type LineItemResponse struct {
	ID            uuid.UUID           `json:"id"`
	VariantID     uuid.UUID           `json:"variant_id"`
	Quantity      int64               `json:"quantity"`
	UnitPrice     int64               `json:"unit_price"`
	ExtendedTotal int64               `json:"extended_total"`
	Bundle        *BundleLineResponse `json:"bundle,omitempty"`
}

// CartResponse is the canonical cart state returned by every cart operation
type CartResponse struct {
	ID       uuid.UUID          `json:"id"`
	Currency string             `json:"currency"`
	Subtotal int64              `json:"subtotal"`
	Items    []LineItemResponse `json:"items"`
}

// ToCartResponse converts a cart aggregate to its API representation
func ToCartResponse(c *cart.Cart) CartResponse {
	items := make([]LineItemResponse, 0, len(c.Items))
	for i := range c.Items {
		line := &c.Items[i]
		resp := LineItemResponse{
			ID:            line.ID,
			VariantID:     line.VariantID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			ExtendedTotal: line.ExtendedTotal(),
		}
		if line.Bundle != nil {
			resp.Bundle = &BundleLineResponse{
				BundleID:          line.Bundle.BundleID,
				BundleItemID:      line.Bundle.BundleItemID,
				OriginalUnitPrice: line.Bundle.OriginalUnitPrice,
				DiscountApplied:   line.Bundle.DiscountApplied,
				DiscountKind:      line.Bundle.DiscountKind,
				DiscountShare:     line.Bundle.DiscountShare,
			}
		}
		items = append(items, resp)
	}
	return CartResponse{
		ID:       c.ID,
		Currency: string(c.Currency),
		Subtotal: c.Subtotal(),
		Items:    items,
	}
}

func toSelection(inputs []SelectedItemInput) []bundle.SelectedItem {
	selection := make([]bundle.SelectedItem, 0, len(inputs))
	for _, in := range inputs {
		selection = append(selection, bundle.SelectedItem{
			BundleItemID: in.BundleItemID,
			VariantID:    in.VariantID,
			Quantity:     in.Quantity,
		})
	}
	return selection
}
