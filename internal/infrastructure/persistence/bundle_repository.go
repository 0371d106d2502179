package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bundleshop/backend/internal/domain/bundle"
	"github.com/bundleshop/backend/internal/domain/shared"
)

// GormBundleRepository implements bundle.Repository using GORM
type GormBundleRepository struct {
	db *gorm.DB
}

var _ bundle.Repository = (*GormBundleRepository)(nil)

// NewGormBundleRepository creates a new GormBundleRepository
func NewGormBundleRepository(db *gorm.DB) *GormBundleRepository {
	return &GormBundleRepository{db: db}
}

// FindByID loads a bundle with its items in sort order. With activeOnly set,
// an inactive bundle reads as shared.ErrNotFound.
func (r *GormBundleRepository) FindByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*bundle.Bundle, error) {
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var b bundle.Bundle
	if err := query.First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindAll returns bundles matching the filter, items preloaded
func (r *GormBundleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]bundle.Bundle, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&bundle.Bundle{}), filter)

	orderBy := ValidateSortField(filter.OrderBy, BundleSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var bundles []bundle.Bundle
	if err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Find(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}

// Count returns the number of bundles matching the filter
func (r *GormBundleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&bundle.Bundle{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the bundle and replaces its item rows. Item editing is a full
// replace at the domain level, so stale rows are deleted rather than diffed.
func (r *GormBundleRepository) Save(ctx context.Context, b *bundle.Bundle) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(b).Error; err != nil {
			return err
		}

		if err := tx.Where("bundle_id = ?", b.ID).Delete(&bundle.BundleItem{}).Error; err != nil {
			return err
		}
		if len(b.Items) == 0 {
			return nil
		}
		return tx.Create(&b.Items).Error
	})
}

// Delete removes the bundle and its item rows
func (r *GormBundleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bundle_id = ?", id).Delete(&bundle.BundleItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&bundle.Bundle{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormBundleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	return query
}
