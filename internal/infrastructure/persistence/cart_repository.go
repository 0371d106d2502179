package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
)

// cartRecord is the row shape of the carts table
type cartRecord struct {
	ID        uuid.UUID
	Currency  string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (cartRecord) TableName() string { return "carts" }

// cartLineRecord flattens cart.LineItem and its optional bundle context into
// one row. The bundle columns are nullable; a line without a bundle_id is a
// plain line owned by the surrounding platform.
type cartLineRecord struct {
	ID                uuid.UUID
	CartID            uuid.UUID
	VariantID         uuid.UUID
	Quantity          int64
	UnitPrice         int64
	BundleID          *uuid.UUID
	BundleItemID      *uuid.UUID
	OriginalUnitPrice *int64
	DiscountApplied   bool
	DiscountKind      *string
	DiscountShare     *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (cartLineRecord) TableName() string { return "cart_line_items" }

func toLineRecord(cartID uuid.UUID, line cart.LineItem) cartLineRecord {
	rec := cartLineRecord{
		ID:        line.ID,
		CartID:    cartID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	}
	if line.Bundle != nil {
		bundleID := line.Bundle.BundleID
		itemID := line.Bundle.BundleItemID
		original := line.Bundle.OriginalUnitPrice
		kind := line.Bundle.DiscountKind
		share := line.Bundle.DiscountShare
		rec.BundleID = &bundleID
		rec.BundleItemID = &itemID
		rec.OriginalUnitPrice = &original
		rec.DiscountApplied = line.Bundle.DiscountApplied
		rec.DiscountKind = &kind
		rec.DiscountShare = &share
	}
	return rec
}

func (rec cartLineRecord) toDomain() cart.LineItem {
	line := cart.LineItem{
		ID:        rec.ID,
		CartID:    rec.CartID,
		VariantID: rec.VariantID,
		Quantity:  rec.Quantity,
		UnitPrice: rec.UnitPrice,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.BundleID != nil && rec.BundleItemID != nil {
		ctx := cart.BundleLineContext{
			BundleID:        *rec.BundleID,
			BundleItemID:    *rec.BundleItemID,
			DiscountApplied: rec.DiscountApplied,
		}
		if rec.OriginalUnitPrice != nil {
			ctx.OriginalUnitPrice = *rec.OriginalUnitPrice
		}
		if rec.DiscountKind != nil {
			ctx.DiscountKind = *rec.DiscountKind
		}
		if rec.DiscountShare != nil {
			ctx.DiscountShare = *rec.DiscountShare
		}
		line.Bundle = &ctx
	}
	return line
}

// GormCartStore implements cart.Store using GORM
type GormCartStore struct {
	db *gorm.DB
}

var _ cart.Store = (*GormCartStore)(nil)

// NewGormCartStore creates a new GormCartStore
func NewGormCartStore(db *gorm.DB) *GormCartStore {
	return &GormCartStore{db: db}
}

// GetCart loads a cart with all its line items in insertion order
func (s *GormCartStore) GetCart(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var rec cartRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var lineRecs []cartLineRecord
	if err := s.db.WithContext(ctx).
		Where("cart_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&lineRecs).Error; err != nil {
		return nil, err
	}

	c := &cart.Cart{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        rec.ID,
				CreatedAt: rec.CreatedAt,
				UpdatedAt: rec.UpdatedAt,
			},
			Version: rec.Version,
		},
		Currency: valueobject.Currency(rec.Currency),
		Items:    make([]cart.LineItem, 0, len(lineRecs)),
	}
	for _, lineRec := range lineRecs {
		c.Items = append(c.Items, lineRec.toDomain())
	}
	return c, nil
}

// UpsertLineItems inserts new lines and updates existing ones by ID
func (s *GormCartStore) UpsertLineItems(ctx context.Context, cartID uuid.UUID, items []cart.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	recs := make([]cartLineRecord, 0, len(items))
	for _, item := range items {
		recs = append(recs, toLineRecord(cartID, item))
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&recs).Error
}

// DeleteLineItems removes the given lines; unknown IDs are ignored
func (s *GormCartStore) DeleteLineItems(ctx context.Context, cartID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, ids).
		Delete(&cartLineRecord{}).Error
}

// CartIDsWithBundle returns the distinct carts holding lines of the bundle
func (s *GormCartStore) CartIDsWithBundle(ctx context.Context, bundleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&cartLineRecord{}).
		Distinct("cart_id").
		Where("bundle_id = ?", bundleID).
		Order("cart_id ASC").
		Pluck("cart_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
