package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bundleshop/backend/internal/domain/cart"
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/bundleshop/backend/internal/domain/shared/valueobject"
)

func cartLineColumns() []string {
	return []string{
		"id", "cart_id", "variant_id", "quantity", "unit_price",
		"bundle_id", "bundle_item_id", "original_unit_price",
		"discount_applied", "discount_kind", "discount_share",
		"created_at", "updated_at",
	}
}

func TestGormCartStore_GetCart(t *testing.T) {
	t.Run("loads cart with plain and bundle lines", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		cartID := uuid.New()
		bundleID := uuid.New()
		bundleItemID := uuid.New()
		plainLineID := uuid.New()
		bundleLineID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE id = \$1 .* LIMIT .*`).
			WithArgs(cartID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "currency", "version", "created_at", "updated_at"}).
				AddRow(cartID, "EUR", 1, now, now))

		mock.ExpectQuery(`SELECT \* FROM "cart_line_items" WHERE cart_id = \$1 ORDER BY created_at ASC, id ASC`).
			WithArgs(cartID).
			WillReturnRows(sqlmock.NewRows(cartLineColumns()).
				AddRow(plainLineID, cartID, uuid.New(), int64(2), int64(499),
					nil, nil, nil, false, nil, nil, now, now).
				AddRow(bundleLineID, cartID, uuid.New(), int64(1), int64(906),
					bundleID, bundleItemID, int64(1000), true, "fixed", int64(94), now, now))

		c, err := store.GetCart(context.Background(), cartID)

		require.NoError(t, err)
		assert.Equal(t, valueobject.Currency("EUR"), c.Currency)
		require.Len(t, c.Items, 2)

		assert.Nil(t, c.Items[0].Bundle)
		assert.Equal(t, int64(998), c.Items[0].ExtendedTotal())

		require.NotNil(t, c.Items[1].Bundle)
		assert.Equal(t, bundleID, c.Items[1].Bundle.BundleID)
		assert.Equal(t, bundleItemID, c.Items[1].Bundle.BundleItemID)
		assert.Equal(t, int64(1000), c.Items[1].Bundle.OriginalUnitPrice)
		assert.Equal(t, "fixed", c.Items[1].Bundle.DiscountKind)
		assert.Equal(t, int64(94), c.Items[1].Bundle.DiscountShare)
		assert.True(t, c.Items[1].Bundle.DiscountApplied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps record-not-found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		cartID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "carts" WHERE id = \$1 .* LIMIT .*`).
			WithArgs(cartID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := store.GetCart(context.Background(), cartID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCartStore_UpsertLineItems(t *testing.T) {
	t.Run("empty slice is a no-op", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		err := store.UpsertLineItems(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("writes lines with conflict handling on id", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		cartID := uuid.New()
		line, err := cart.NewBundleLineItem(cartID, uuid.New(), 1, 906, cart.BundleLineContext{
			BundleID:          uuid.New(),
			BundleItemID:      uuid.New(),
			OriginalUnitPrice: 1000,
			DiscountApplied:   true,
			DiscountKind:      "fixed",
			DiscountShare:     94,
		})
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "cart_line_items" .* ON CONFLICT \("id"\) DO UPDATE SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = store.UpsertLineItems(context.Background(), cartID, []cart.LineItem{*line})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCartStore_DeleteLineItems(t *testing.T) {
	t.Run("empty slice is a no-op", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		err := store.DeleteLineItems(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes by cart and line IDs", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		cartID := uuid.New()
		ids := []uuid.UUID{uuid.New(), uuid.New()}

		mock.ExpectExec(`DELETE FROM "cart_line_items" WHERE cart_id = \$1 AND id IN \(\$2,\$3\)`).
			WithArgs(cartID, ids[0], ids[1]).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := store.DeleteLineItems(context.Background(), cartID, ids)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCartStore_CartIDsWithBundle(t *testing.T) {
	t.Run("returns distinct cart ids", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		bundleID := uuid.New()
		cartA := uuid.New()
		cartB := uuid.New()

		mock.ExpectQuery(`SELECT DISTINCT "cart_id" FROM "cart_line_items" WHERE bundle_id = \$1 ORDER BY cart_id ASC`).
			WithArgs(bundleID).
			WillReturnRows(sqlmock.NewRows([]string{"cart_id"}).AddRow(cartA).AddRow(cartB))

		ids, err := store.CartIDsWithBundle(context.Background(), bundleID)

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{cartA, cartB}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no carts yields empty slice", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		store := NewGormCartStore(gormDB)

		bundleID := uuid.New()
		mock.ExpectQuery(`SELECT DISTINCT "cart_id" FROM "cart_line_items" WHERE bundle_id = \$1 ORDER BY cart_id ASC`).
			WithArgs(bundleID).
			WillReturnRows(sqlmock.NewRows([]string{"cart_id"}))

		ids, err := store.CartIDsWithBundle(context.Background(), bundleID)

		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
