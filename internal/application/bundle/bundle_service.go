package bundle

import (
	"context"

	"github.com/bundleshop/backend/internal/domain/bundle"
	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BundleService handles merchant-facing bundle administration. Changes to a
// bundle definition propagate to carts that hold the bundle: after an update
// or deletion the affected carts are recalculated so their prices reflect the
// new configuration.
type BundleService struct {
	bundles        bundle.Repository
	carts          cart.Store
	sync           *CartSyncService
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewBundleService creates a new BundleService
func NewBundleService(bundles bundle.Repository, carts cart.Store, sync *CartSyncService, logger *zap.Logger) *BundleService {
	return &BundleService{
		bundles: bundles,
		carts:   carts,
		sync:    sync,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for bundle lifecycle events
func (s *BundleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new bundle definition
func (s *BundleService) Create(ctx context.Context, req CreateBundleRequest) (*BundleResponse, error) {
	items := toItemSpecs(req.Items)
	b, err := bundle.NewBundle(req.Title, bundle.SelectionMode(req.Mode), toDiscountConfig(req.Discount), items)
	if err != nil {
		return nil, err
	}

	if req.PickCount != nil {
		if err := b.SetPickCount(*req.PickCount); err != nil {
			return nil, err
		}
	}
	if req.MinItems != nil || req.MaxItems != nil {
		minItems := 0
		if req.MinItems != nil {
			minItems = *req.MinItems
		}
		if err := b.SetItemRange(minItems, req.MaxItems); err != nil {
			return nil, err
		}
	}

	if err := s.bundles.Save(ctx, b); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, b)

	response := ToBundleResponse(b)
	return &response, nil
}

// GetByID retrieves a bundle by ID, including inactive ones
func (s *BundleService) GetByID(ctx context.Context, id uuid.UUID) (*BundleResponse, error) {
	b, err := s.bundles.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	response := ToBundleResponse(b)
	return &response, nil
}

// List retrieves bundles with filtering and pagination
func (s *BundleService) List(ctx context.Context, filter BundleListFilter) ([]BundleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Active != nil {
		domainFilter.Filters["active"] = *filter.Active
	}

	bundles, err := s.bundles.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.bundles.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToBundleResponses(bundles), total, nil
}

// Update modifies a bundle definition and recalculates carts that hold it
func (s *BundleService) Update(ctx context.Context, id uuid.UUID, req UpdateBundleRequest) (*BundleResponse, error) {
	b, err := s.bundles.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := b.Rename(*req.Title); err != nil {
			return nil, err
		}
	}
	if len(req.Items) > 0 {
		if err := b.ReplaceItems(toItemSpecs(req.Items)); err != nil {
			return nil, err
		}
	}
	if req.Discount != nil {
		if err := b.UpdateDiscount(toDiscountConfig(*req.Discount)); err != nil {
			return nil, err
		}
	}
	if req.PickCount != nil {
		if err := b.SetPickCount(*req.PickCount); err != nil {
			return nil, err
		}
	}
	if req.MinItems != nil || req.MaxItems != nil {
		minItems := b.MinItems
		if req.MinItems != nil {
			minItems = *req.MinItems
		}
		maxItems := b.MaxItems
		if req.MaxItems != nil {
			maxItems = req.MaxItems
		}
		if err := b.SetItemRange(minItems, maxItems); err != nil {
			return nil, err
		}
	}
	if req.Active != nil {
		if *req.Active {
			b.Activate()
		} else {
			b.Deactivate()
			b.AddDomainEvent(bundle.NewBundleDeactivatedEvent(b))
		}
	}

	b.AddDomainEvent(bundle.NewBundleUpdatedEvent(b))
	if err := s.bundles.Save(ctx, b); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, b)

	s.recalculateAffectedCarts(ctx, id)

	response := ToBundleResponse(b)
	return &response, nil
}

// Delete removes a bundle definition. Carts that hold the bundle keep their
// lines at the recorded original prices; the cascade detaches each affected
// cart's group, one cart at a time, so one failing cart does not block the
// rest.
func (s *BundleService) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.bundles.FindByID(ctx, id, false)
	if err != nil {
		return err
	}

	if err := s.bundles.Delete(ctx, id); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, bundle.NewBundleDeletedEvent(b)); err != nil {
			s.logger.Warn("failed to publish bundle deleted event",
				zap.String("bundle_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.recalculateAffectedCarts(ctx, id)
	return nil
}

// recalculateAffectedCarts reprices every cart holding the bundle. The
// recalculation itself resolves what happened to the bundle (changed,
// deactivated or deleted) and converges each cart accordingly.
func (s *BundleService) recalculateAffectedCarts(ctx context.Context, bundleID uuid.UUID) {
	cartIDs, err := s.carts.CartIDsWithBundle(ctx, bundleID)
	if err != nil {
		s.logger.Error("failed to list carts holding bundle",
			zap.String("bundle_id", bundleID.String()),
			zap.Error(err),
		)
		return
	}

	for _, cartID := range cartIDs {
		if _, err := s.sync.Recalculate(ctx, cartID, &bundleID); err != nil {
			s.logger.Error("failed to recalculate cart after bundle change",
				zap.String("bundle_id", bundleID.String()),
				zap.String("cart_id", cartID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *BundleService) publishEvents(ctx context.Context, b *bundle.Bundle) {
	if s.eventPublisher == nil {
		return
	}
	events := b.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish bundle events",
			zap.String("bundle_id", b.ID.String()),
			zap.Error(err),
		)
	}
	b.ClearDomainEvents()
}

func toItemSpecs(inputs []BundleItemInput) []bundle.BundleItemSpec {
	specs := make([]bundle.BundleItemSpec, 0, len(inputs))
	for _, in := range inputs {
		specs = append(specs, bundle.BundleItemSpec{
			ProductID:       in.ProductID,
			VariantID:       in.VariantID,
			DefaultQuantity: in.DefaultQuantity,
			Required:        in.Required,
			PriceOverride:   in.PriceOverride,
		})
	}
	return specs
}

func toDiscountConfig(in DiscountConfigInput) bundle.DiscountConfig {
	return bundle.DiscountConfig{
		PercentTier2: decimal.NewFromFloat(in.PercentTier2),
		PercentTier3: decimal.NewFromFloat(in.PercentTier3),
		AmountTier2:  in.AmountTier2,
		AmountTier3:  in.AmountTier3,
	}
}
