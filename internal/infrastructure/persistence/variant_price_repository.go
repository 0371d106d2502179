package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
)

// variantPriceRecord is the row shape of the variant_prices table. Prices are
// per variant per currency, in minor units.
type variantPriceRecord struct {
	VariantID uuid.UUID `gorm:"primaryKey"`
	Currency  string    `gorm:"primaryKey"`
	Amount    int64
	UpdatedAt time.Time
}

func (variantPriceRecord) TableName() string { return "variant_prices" }

// GormPriceLookup implements cart.PriceLookup against the variant_prices
// table. Variants without a row in the requested currency are simply absent
// from the result; the caller decides whether that is an error.
type GormPriceLookup struct {
	db *gorm.DB
}

var _ cart.PriceLookup = (*GormPriceLookup)(nil)

// NewGormPriceLookup creates a new GormPriceLookup
func NewGormPriceLookup(db *gorm.DB) *GormPriceLookup {
	return &GormPriceLookup{db: db}
}

// GetPrices resolves unit prices for the given variants in one query
func (r *GormPriceLookup) GetPrices(ctx context.Context, variantIDs []uuid.UUID, currency valueobject.Currency) (map[uuid.UUID]int64, error) {
	prices := make(map[uuid.UUID]int64, len(variantIDs))
	if len(variantIDs) == 0 {
		return prices, nil
	}

	var recs []variantPriceRecord
	if err := r.db.WithContext(ctx).
		Where("variant_id IN ? AND currency = ?", variantIDs, string(currency)).
		Find(&recs).Error; err != nil {
		return nil, err
	}

	for _, rec := range recs {
		prices[rec.VariantID] = rec.Amount
	}
	return prices, nil
}
