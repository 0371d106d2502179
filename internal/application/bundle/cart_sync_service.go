package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/bundleshop/backend/internal/domain/bundle"
	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartSyncService keeps a cart's line items consistent with bundle
// selections: it prices selections, allocates group discounts across lines,
// and rebuilds or removes bundle groups as multi-step sagas.
type CartSyncService struct {
	bundles        bundle.Repository
	carts          cart.Store
	prices         cart.PriceLookup
	saga           *SagaRunner
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCartSyncService creates a new CartSyncService
func NewCartSyncService(bundles bundle.Repository, carts cart.Store, prices cart.PriceLookup, logger *zap.Logger) *CartSyncService {
	return &CartSyncService{
		bundles: bundles,
		carts:   carts,
		prices:  prices,
		saga:    NewSagaRunner(logger),
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for cart change notifications
func (s *CartSyncService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// AddBundle adds a bundle selection to the cart as a discounted line group.
// If the cart already holds a group for this bundle, the group is rebuilt
// from the new selection.
func (s *CartSyncService) AddBundle(ctx context.Context, cartID uuid.UUID, req AddBundleRequest) (*CartResponse, error) {
	if len(req.Selection) == 0 {
		return nil, &shared.DomainError{Code: "VALIDATION_FAILED", Message: "Selection cannot be empty"}
	}
	return s.applySelection(ctx, cartID, req.BundleID, toSelection(req.Selection), "bundle added")
}

// UpdateSelection replaces the cart's selection for one bundle. Changing the
// selection rebuilds the whole group so the discount tier and allocation
// always reflect the current item count. An empty selection removes the
// group.
func (s *CartSyncService) UpdateSelection(ctx context.Context, cartID uuid.UUID, req UpdateSelectionRequest) (*CartResponse, error) {
	if len(req.Selection) == 0 {
		return s.RemoveBundle(ctx, cartID, req.BundleID)
	}
	return s.applySelection(ctx, cartID, req.BundleID, toSelection(req.Selection), "selection updated")
}

// RemoveItem removes one item from a bundle group in the cart. The remaining
// selection is revalidated against the bundle's rules and the group rebuilt;
// removing the last item removes the group.
func (s *CartSyncService) RemoveItem(ctx context.Context, cartID, bundleID, bundleItemID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	lines := c.LinesForBundle(bundleID)
	if len(lines) == 0 {
		return nil, &shared.DomainError{Code: "NOT_FOUND", Message: "Cart has no line group for this bundle"}
	}

	remaining := make([]bundle.SelectedItem, 0, len(lines))
	found := false
	for _, line := range lines {
		if line.Bundle.BundleItemID == bundleItemID {
			found = true
			continue
		}
		remaining = append(remaining, bundle.SelectedItem{
			BundleItemID: line.Bundle.BundleItemID,
			VariantID:    line.VariantID,
			Quantity:     line.Quantity,
		})
	}
	if !found {
		return nil, &shared.DomainError{Code: "NOT_FOUND", Message: "Bundle item is not in this cart's group"}
	}

	if len(remaining) == 0 {
		return s.RemoveBundle(ctx, cartID, bundleID)
	}
	return s.applySelection(ctx, cartID, bundleID, remaining, "item removed")
}

// RemoveBundle removes a bundle's whole line group from the cart. Removing a
// bundle the cart does not hold is a no-op, so retries converge.
func (s *CartSyncService) RemoveBundle(ctx context.Context, cartID, bundleID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	existing := c.LinesForBundle(bundleID)
	if len(existing) > 0 {
		ids := c.LineIDsForBundle(bundleID)
		err = s.saga.Run(ctx, "remove bundle", []SagaStep{
			{
				Name: "delete bundle lines",
				Forward: func(ctx context.Context) error {
					if err := s.carts.DeleteLineItems(ctx, cartID, ids); err != nil {
						return writeFailure("delete bundle lines", err)
					}
					return nil
				},
				Compensate: func(ctx context.Context) error {
					return s.carts.UpsertLineItems(ctx, cartID, existing)
				},
			},
		})
		if err != nil {
			return nil, err
		}
		s.publishCartChanged(ctx, cartID, &bundleID, "bundle removed")
	}

	return s.canonicalCart(ctx, cartID)
}

// GetCart returns the cart's persisted state
func (s *CartSyncService) GetCart(ctx context.Context, cartID uuid.UUID) (*CartResponse, error) {
	return s.canonicalCart(ctx, cartID)
}

// Recalculate reprices the cart's bundle groups from live bundle
// configuration and live prices. A nil bundleID recalculates every group. A
// failure in one group is logged and does not abort the others, and a run
// that changes nothing writes nothing.
func (s *CartSyncService) Recalculate(ctx context.Context, cartID uuid.UUID, bundleID *uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	groupIDs := c.BundleIDs()
	if bundleID != nil {
		groupIDs = []uuid.UUID{*bundleID}
	}

	for _, gid := range groupIDs {
		if err := s.recalculateGroup(ctx, c, gid); err != nil {
			s.logger.Error("bundle group recalculation failed",
				zap.String("cart_id", cartID.String()),
				zap.String("bundle_id", gid.String()),
				zap.Error(err),
			)
		}
	}

	return s.canonicalCart(ctx, cartID)
}

// applySelection validates a selection, prices it, and rebuilds the cart's
// line group for the bundle as a saga: the previous group lines are removed
// first and restored if writing the new lines fails.
func (s *CartSyncService) applySelection(ctx context.Context, cartID, bundleID uuid.UUID, selection []bundle.SelectedItem, reason string) (*CartResponse, error) {
	c, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	b, err := s.bundles.FindByID(ctx, bundleID, true)
	if err != nil {
		return nil, err
	}

	if err := bundle.ValidateSelection(b, selection); err != nil {
		return nil, err
	}

	unitPrices, err := s.resolveUnitPrices(ctx, b, selection, c.Currency)
	if err != nil {
		return nil, err
	}

	newLines, err := buildGroupLines(cartID, b, selection, unitPrices)
	if err != nil {
		return nil, err
	}

	existing := c.LinesForBundle(bundleID)
	existingIDs := c.LineIDsForBundle(bundleID)
	newIDs := make([]uuid.UUID, 0, len(newLines))
	for _, line := range newLines {
		newIDs = append(newIDs, line.ID)
	}

	steps := make([]SagaStep, 0, 2)
	if len(existing) > 0 {
		steps = append(steps, SagaStep{
			Name: "remove previous bundle lines",
			Forward: func(ctx context.Context) error {
				if err := s.carts.DeleteLineItems(ctx, cartID, existingIDs); err != nil {
					return writeFailure("remove previous bundle lines", err)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.carts.UpsertLineItems(ctx, cartID, existing)
			},
		})
	}
	steps = append(steps, SagaStep{
		Name: "write bundle lines",
		Forward: func(ctx context.Context) error {
			if err := s.carts.UpsertLineItems(ctx, cartID, newLines); err != nil {
				return writeFailure("write bundle lines", err)
			}
			return nil
		},
		Compensate: func(ctx context.Context) error {
			return s.carts.DeleteLineItems(ctx, cartID, newIDs)
		},
	})

	if err := s.saga.Run(ctx, reason, steps); err != nil {
		return nil, err
	}

	s.publishCartChanged(ctx, cartID, &bundleID, reason)

	return s.canonicalCart(ctx, cartID)
}

// resolveUnitPrices determines the pre-discount unit price for every selected
// item: a configured per-item override wins, otherwise the live price in the
// cart's currency.
func (s *CartSyncService) resolveUnitPrices(ctx context.Context, b *bundle.Bundle, selection []bundle.SelectedItem, currency valueobject.Currency) (map[uuid.UUID]int64, error) {
	unitPrices := make(map[uuid.UUID]int64, len(selection))
	var lookupIDs []uuid.UUID
	for _, sel := range selection {
		item := b.GetItem(sel.BundleItemID)
		if item != nil && item.PriceOverride != nil {
			unitPrices[sel.VariantID] = *item.PriceOverride
			continue
		}
		lookupIDs = append(lookupIDs, sel.VariantID)
	}

	if len(lookupIDs) > 0 {
		live, err := s.prices.GetPrices(ctx, lookupIDs, currency)
		if err != nil {
			return nil, err
		}
		for _, variantID := range lookupIDs {
			price, ok := live[variantID]
			if !ok {
				return nil, &shared.DomainError{
					Code:    "PRICE_UNAVAILABLE",
					Message: fmt.Sprintf("No price for variant %s in currency %s", variantID, currency),
				}
			}
			unitPrices[variantID] = price
		}
	}

	return unitPrices, nil
}

// buildGroupLines turns a validated, priced selection into the cart lines of
// one bundle group, with the tier discount allocated across them.
func buildGroupLines(cartID uuid.UUID, b *bundle.Bundle, selection []bundle.SelectedItem, unitPrices map[uuid.UUID]int64) ([]cart.LineItem, error) {
	allocItems := make([]bundle.AllocationItem, 0, len(selection))
	var groupTotal int64
	for _, sel := range selection {
		item := bundle.AllocationItem{
			UnitPrice: unitPrices[sel.VariantID],
			Quantity:  sel.Quantity,
		}
		allocItems = append(allocItems, item)
		groupTotal += item.Weight()
	}

	discount := bundle.ComputeTierDiscount(bundle.TotalQuantity(selection), b.Discount)
	allocations := bundle.AllocateProportional(allocItems, discount.TotalFor(groupTotal))

	lines := make([]cart.LineItem, 0, len(selection))
	for i, sel := range selection {
		alloc := allocations[i]
		line, err := cart.NewBundleLineItem(cartID, sel.VariantID, sel.Quantity, alloc.NewUnitPrice, cart.BundleLineContext{
			BundleID:          b.ID,
			BundleItemID:      sel.BundleItemID,
			OriginalUnitPrice: allocItems[i].UnitPrice,
			DiscountApplied:   alloc.Discount > 0,
			DiscountKind:      string(discount.Kind),
			DiscountShare:     alloc.Discount,
		})
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// recalculateGroup reprices one bundle group from live configuration. Lines
// are written only when the recalculated price or context differs from what
// the cart already holds, so repeated runs settle into no-ops.
func (s *CartSyncService) recalculateGroup(ctx context.Context, c *cart.Cart, bundleID uuid.UUID) error {
	lines := c.LinesForBundle(bundleID)
	if len(lines) == 0 {
		return nil
	}

	b, err := s.bundles.FindByID(ctx, bundleID, false)
	if err != nil {
		if isNotFound(err) {
			// The bundle definition is gone. The lines stay in the cart at
			// their recorded original prices, no longer part of any group.
			return s.detachGroup(ctx, c.ID, lines)
		}
		return err
	}

	if !b.Active {
		return s.resetGroup(ctx, c.ID, lines)
	}

	// Lines whose bundle item was removed from the configuration leave the
	// group; the rest reprice against live configuration and prices.
	var grouped []cart.LineItem
	var orphaned []cart.LineItem
	for _, line := range lines {
		if b.GetItem(line.Bundle.BundleItemID) == nil {
			orphaned = append(orphaned, line)
		} else {
			grouped = append(grouped, line)
		}
	}
	if len(orphaned) > 0 {
		if err := s.detachGroup(ctx, c.ID, orphaned); err != nil {
			return err
		}
	}
	if len(grouped) == 0 {
		return nil
	}

	originals, err := s.resolveRecalcPrices(ctx, b, grouped, c.Currency)
	if err != nil {
		return err
	}

	allocItems := make([]bundle.AllocationItem, 0, len(grouped))
	var groupTotal, itemCount int64
	for i := range grouped {
		item := bundle.AllocationItem{
			UnitPrice: originals[i],
			Quantity:  grouped[i].Quantity,
		}
		allocItems = append(allocItems, item)
		groupTotal += item.Weight()
		itemCount += grouped[i].Quantity
	}

	discount := bundle.ComputeTierDiscount(itemCount, b.Discount)
	allocations := bundle.AllocateProportional(allocItems, discount.TotalFor(groupTotal))

	var changed []cart.LineItem
	for i := range grouped {
		line := grouped[i]
		alloc := allocations[i]
		target := cart.BundleLineContext{
			BundleID:          bundleID,
			BundleItemID:      line.Bundle.BundleItemID,
			OriginalUnitPrice: originals[i],
			DiscountApplied:   alloc.Discount > 0,
			DiscountKind:      string(discount.Kind),
			DiscountShare:     alloc.Discount,
		}
		if line.UnitPrice == alloc.NewUnitPrice && *line.Bundle == target {
			continue
		}
		line.Reprice(alloc.NewUnitPrice)
		line.Bundle = &target
		changed = append(changed, line)
	}

	if len(changed) == 0 {
		return nil
	}
	if err := s.carts.UpsertLineItems(ctx, c.ID, changed); err != nil {
		return writeFailure("write recalculated lines", err)
	}
	return nil
}

// resolveRecalcPrices resolves the pre-discount unit price of each grouped
// line during recalculation: item override, then live price, then the
// recorded original when the live price is gone. Recalculation degrades
// rather than failing a cart over a missing price.
func (s *CartSyncService) resolveRecalcPrices(ctx context.Context, b *bundle.Bundle, lines []cart.LineItem, currency valueobject.Currency) ([]int64, error) {
	originals := make([]int64, len(lines))
	var lookupIDs []uuid.UUID
	for i := range lines {
		item := b.GetItem(lines[i].Bundle.BundleItemID)
		if item != nil && item.PriceOverride != nil {
			originals[i] = *item.PriceOverride
			continue
		}
		originals[i] = lines[i].Bundle.OriginalUnitPrice
		lookupIDs = append(lookupIDs, lines[i].VariantID)
	}

	if len(lookupIDs) == 0 {
		return originals, nil
	}
	live, err := s.prices.GetPrices(ctx, lookupIDs, currency)
	if err != nil {
		s.logger.Warn("live price lookup failed during recalculation, using recorded originals",
			zap.String("bundle_id", b.ID.String()),
			zap.Error(err),
		)
		return originals, nil
	}
	for i := range lines {
		if price, ok := live[lines[i].VariantID]; ok {
			item := b.GetItem(lines[i].Bundle.BundleItemID)
			if item == nil || item.PriceOverride == nil {
				originals[i] = price
			}
		}
	}
	return originals, nil
}

// detachGroup restores lines to their original prices and removes their
// bundle context, writing only lines that actually change.
func (s *CartSyncService) detachGroup(ctx context.Context, cartID uuid.UUID, lines []cart.LineItem) error {
	changed := make([]cart.LineItem, 0, len(lines))
	for _, line := range lines {
		before := line.UnitPrice
		line.DetachBundle()
		if line.UnitPrice != before || line.Bundle == nil {
			changed = append(changed, line)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	if err := s.carts.UpsertLineItems(ctx, cartID, changed); err != nil {
		return writeFailure("detach bundle lines", err)
	}
	return nil
}

// resetGroup reprices a deactivated bundle's lines back to their original
// unit prices while keeping the bundle linkage, so reactivating the bundle
// lets the next recalculation restore the discount.
func (s *CartSyncService) resetGroup(ctx context.Context, cartID uuid.UUID, lines []cart.LineItem) error {
	var changed []cart.LineItem
	for _, line := range lines {
		target := cart.BundleLineContext{
			BundleID:          line.Bundle.BundleID,
			BundleItemID:      line.Bundle.BundleItemID,
			OriginalUnitPrice: line.Bundle.OriginalUnitPrice,
			DiscountApplied:   false,
			DiscountKind:      string(bundle.DiscountNone),
			DiscountShare:     0,
		}
		if line.UnitPrice == line.Bundle.OriginalUnitPrice && *line.Bundle == target {
			continue
		}
		line.Reprice(line.Bundle.OriginalUnitPrice)
		line.Bundle = &target
		changed = append(changed, line)
	}
	if len(changed) == 0 {
		return nil
	}
	if err := s.carts.UpsertLineItems(ctx, cartID, changed); err != nil {
		return writeFailure("reset bundle lines", err)
	}
	return nil
}

// canonicalCart refetches and converts the cart after a mutation so callers
// always see persisted state, not an in-memory guess.
func (s *CartSyncService) canonicalCart(ctx context.Context, cartID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	response := ToCartResponse(c)
	return &response, nil
}

func (s *CartSyncService) publishCartChanged(ctx context.Context, cartID uuid.UUID, bundleID *uuid.UUID, reason string) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, cart.NewCartChangedEvent(cartID, bundleID, reason)); err != nil {
		s.logger.Warn("failed to publish cart changed event",
			zap.String("cart_id", cartID.String()),
			zap.Error(err),
		)
	}
}

func writeFailure(operation string, err error) error {
	return &shared.DomainError{
		Code:    "WRITE_FAILED",
		Message: fmt.Sprintf("%s: %s", operation, err.Error()),
	}
}

func isNotFound(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND"
}
