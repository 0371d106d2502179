package bundle

import (
	"context"
	"testing"

	"github.com/bundleshop/backend/internal/domain/bundle"
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type adminFixture struct {
	*syncFixture
	svc *BundleService
}

func newAdminFixture() *adminFixture {
	f := newSyncFixture()
	return &adminFixture{
		syncFixture: f,
		svc:         NewBundleService(f.bundles, f.store, f.svc, zap.NewNop()),
	}
}

func itemInputs(variants ...uuid.UUID) []BundleItemInput {
	inputs := make([]BundleItemInput, len(variants))
	for i, v := range variants {
		inputs[i] = BundleItemInput{ProductID: uuid.New(), VariantID: v, DefaultQuantity: 1}
	}
	return inputs
}

func TestBundleService_Create(t *testing.T) {
	t.Run("creates a bundle", func(t *testing.T) {
		f := newAdminFixture()
		f.bundles.On("Save", mock.Anything, mock.AnythingOfType("*bundle.Bundle")).Return(nil)

		result, err := f.svc.Create(context.Background(), CreateBundleRequest{
			Title: "Breakfast Set",
			Mode:  "PICK_ANY",
			Discount: DiscountConfigInput{
				PercentTier2: 10,
				PercentTier3: 20,
			},
			Items: itemInputs(uuid.New(), uuid.New(), uuid.New()),
		})

		require.NoError(t, err)
		assert.Equal(t, "Breakfast Set", result.Title)
		assert.Equal(t, "PICK_ANY", result.Mode)
		assert.True(t, result.Active)
		assert.Len(t, result.Items, 3)
		assert.Equal(t, float64(10), result.Discount.PercentTier2)
		f.bundles.AssertExpectations(t)
	})

	t.Run("creates a pick-exact bundle with its count", func(t *testing.T) {
		f := newAdminFixture()
		f.bundles.On("Save", mock.Anything, mock.AnythingOfType("*bundle.Bundle")).Return(nil)

		count := 2
		result, err := f.svc.Create(context.Background(), CreateBundleRequest{
			Title:     "Pick Two",
			Mode:      "PICK_EXACT",
			PickCount: &count,
			Items:     itemInputs(uuid.New(), uuid.New(), uuid.New()),
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.PickCount)
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		f := newAdminFixture()

		_, err := f.svc.Create(context.Background(), CreateBundleRequest{
			Title: "Broken",
			Mode:  "SOMETIMES",
			Items: itemInputs(uuid.New()),
		})

		assert.Equal(t, "INVALID_MODE", errCode(t, err))
		f.bundles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid discount", func(t *testing.T) {
		f := newAdminFixture()

		_, err := f.svc.Create(context.Background(), CreateBundleRequest{
			Title:    "Broken",
			Mode:     "PICK_ANY",
			Discount: DiscountConfigInput{PercentTier2: 150},
			Items:    itemInputs(uuid.New()),
		})

		assert.Equal(t, "INVALID_DISCOUNT", errCode(t, err))
	})

	t.Run("rejects an empty item list", func(t *testing.T) {
		f := newAdminFixture()

		_, err := f.svc.Create(context.Background(), CreateBundleRequest{
			Title: "Empty",
			Mode:  "PICK_ANY",
		})

		assert.Equal(t, "NO_ITEMS", errCode(t, err))
	})
}

func TestBundleService_List(t *testing.T) {
	t.Run("applies listing defaults", func(t *testing.T) {
		f := newAdminFixture()
		f.bundles.On("FindAll", mock.Anything, mock.MatchedBy(func(filter shared.Filter) bool {
			return filter.Page == 1 && filter.PageSize == 20 &&
				filter.OrderBy == "created_at" && filter.OrderDir == "desc"
		})).Return([]bundle.Bundle{}, nil)
		f.bundles.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

		_, total, err := f.svc.List(context.Background(), BundleListFilter{})

		require.NoError(t, err)
		assert.Zero(t, total)
		f.bundles.AssertExpectations(t)
	})

	t.Run("passes the active filter through", func(t *testing.T) {
		f := newAdminFixture()
		active := true
		f.bundles.On("FindAll", mock.Anything, mock.MatchedBy(func(filter shared.Filter) bool {
			return filter.Filters["active"] == true
		})).Return([]bundle.Bundle{}, nil)
		f.bundles.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

		_, _, err := f.svc.List(context.Background(), BundleListFilter{Active: &active})

		require.NoError(t, err)
		f.bundles.AssertExpectations(t)
	})
}

func TestBundleService_Update(t *testing.T) {
	vA, vB, vC := uuid.New(), uuid.New(), uuid.New()

	t.Run("updates the discount and reprices affected carts", func(t *testing.T) {
		f := newAdminFixture()
		b := pickAnyBundle(bundle.DiscountConfig{AmountTier3: 300}, vA, vB, vC)

		// A cart already holds the bundle at the old discount.
		f.bundles.On("FindByID", mock.Anything, b.ID, true).Return(b, nil)
		f.prices.On("GetPrices", mock.Anything, mock.Anything, valueobject.USD).
			Return(map[uuid.UUID]int64{vA: 1000, vB: 1500, vC: 700}, nil)
		c := f.seedCart(t)
		_, err := f.syncFixture.svc.AddBundle(context.Background(), c.ID, AddBundleRequest{
			BundleID:  b.ID,
			Selection: fullSelection(b),
		})
		require.NoError(t, err)

		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil)
		f.bundles.On("Save", mock.Anything, b).Return(nil)

		_, err = f.svc.Update(context.Background(), b.ID, UpdateBundleRequest{
			Discount: &DiscountConfigInput{AmountTier3: 600},
		})
		require.NoError(t, err)

		stored, err := f.store.GetCart(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3200-600), stored.Subtotal())
	})

	t.Run("deactivating reprices carts back to originals", func(t *testing.T) {
		f := newAdminFixture()
		b := pickAnyBundle(bundle.DiscountConfig{AmountTier3: 300}, vA, vB, vC)

		f.bundles.On("FindByID", mock.Anything, b.ID, true).Return(b, nil)
		f.prices.On("GetPrices", mock.Anything, mock.Anything, valueobject.USD).
			Return(map[uuid.UUID]int64{vA: 1000, vB: 1500, vC: 700}, nil)
		c := f.seedCart(t)
		_, err := f.syncFixture.svc.AddBundle(context.Background(), c.ID, AddBundleRequest{
			BundleID:  b.ID,
			Selection: fullSelection(b),
		})
		require.NoError(t, err)

		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil)
		f.bundles.On("Save", mock.Anything, b).Return(nil)

		inactive := false
		result, err := f.svc.Update(context.Background(), b.ID, UpdateBundleRequest{Active: &inactive})
		require.NoError(t, err)
		assert.False(t, result.Active)

		stored, err := f.store.GetCart(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3200), stored.Subtotal())
		for _, item := range stored.Items {
			assert.False(t, item.Bundle.DiscountApplied)
		}
	})

	t.Run("fails for an unknown bundle", func(t *testing.T) {
		f := newAdminFixture()
		id := uuid.New()
		f.bundles.On("FindByID", mock.Anything, id, false).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Update(context.Background(), id, UpdateBundleRequest{})
		assert.Equal(t, "NOT_FOUND", errCode(t, err))
	})

	t.Run("rejects an invalid rename", func(t *testing.T) {
		f := newAdminFixture()
		b := pickAnyBundle(bundle.DiscountConfig{}, vA)
		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil)

		empty := ""
		_, err := f.svc.Update(context.Background(), b.ID, UpdateBundleRequest{Title: &empty})
		assert.Equal(t, "INVALID_TITLE", errCode(t, err))
		f.bundles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestBundleService_Delete(t *testing.T) {
	vA, vB, vC := uuid.New(), uuid.New(), uuid.New()

	t.Run("deletes the bundle and detaches cart lines", func(t *testing.T) {
		f := newAdminFixture()
		b := pickAnyBundle(bundle.DiscountConfig{AmountTier3: 300}, vA, vB, vC)

		f.bundles.On("FindByID", mock.Anything, b.ID, true).Return(b, nil)
		f.prices.On("GetPrices", mock.Anything, mock.Anything, valueobject.USD).
			Return(map[uuid.UUID]int64{vA: 1000, vB: 1500, vC: 700}, nil)
		c := f.seedCart(t)
		_, err := f.syncFixture.svc.AddBundle(context.Background(), c.ID, AddBundleRequest{
			BundleID:  b.ID,
			Selection: fullSelection(b),
		})
		require.NoError(t, err)

		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil).Once()
		f.bundles.On("Delete", mock.Anything, b.ID).Return(nil)
		// After deletion the definition is gone for the cascade's lookups.
		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(nil, shared.ErrNotFound)

		require.NoError(t, f.svc.Delete(context.Background(), b.ID))

		stored, err := f.store.GetCart(context.Background(), c.ID)
		require.NoError(t, err)
		require.Len(t, stored.Items, 3)
		assert.Equal(t, int64(3200), stored.Subtotal())
		for _, item := range stored.Items {
			assert.Nil(t, item.Bundle)
		}
		f.bundles.AssertExpectations(t)
	})

	t.Run("fails for an unknown bundle", func(t *testing.T) {
		f := newAdminFixture()
		id := uuid.New()
		f.bundles.On("FindByID", mock.Anything, id, false).Return(nil, shared.ErrNotFound)

		err := f.svc.Delete(context.Background(), id)
		assert.Equal(t, "NOT_FOUND", errCode(t, err))
		f.bundles.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestToDiscountConfig(t *testing.T) {
	cfg := toDiscountConfig(DiscountConfigInput{
		PercentTier2: 12.5,
		PercentTier3: 20,
		AmountTier2:  150,
	})

	assert.True(t, cfg.PercentTier2.Equal(decimal.NewFromFloat(12.5)))
	assert.True(t, cfg.PercentTier3.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(150), cfg.AmountTier2)
	assert.Zero(t, cfg.AmountTier3)
}
