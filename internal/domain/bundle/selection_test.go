package bundle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBundle(t *testing.T, mode SelectionMode, itemCount int) *Bundle {
	t.Helper()
	specs := make([]BundleItemSpec, itemCount)
	for i := range specs {
		specs[i] = BundleItemSpec{
			ProductID:       uuid.New(),
			VariantID:       uuid.New(),
			DefaultQuantity: 1,
		}
	}
	b, err := NewBundle("Test Bundle", mode, DiscountConfig{}, specs)
	require.NoError(t, err)
	return b
}

func selectItems(b *Bundle, indexes ...int) []SelectedItem {
	selection := make([]SelectedItem, 0, len(indexes))
	for _, i := range indexes {
		selection = append(selection, SelectedItem{
			BundleItemID: b.Items[i].ID,
			VariantID:    b.Items[i].VariantID,
			Quantity:     1,
		})
	}
	return selection
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainErrCode(err))
}

func TestValidateSelection_AllRequired(t *testing.T) {
	b := newTestBundle(t, SelectionAllRequired, 3)

	t.Run("full selection passes", func(t *testing.T) {
		assert.NoError(t, ValidateSelection(b, selectItems(b, 0, 1, 2)))
	})

	t.Run("partial selection fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, selectItems(b, 0, 1)))
	})

	t.Run("empty selection fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, nil))
	})
}

func TestValidateSelection_PickAny(t *testing.T) {
	b := newTestBundle(t, SelectionPickAny, 3)

	t.Run("one item passes", func(t *testing.T) {
		assert.NoError(t, ValidateSelection(b, selectItems(b, 1)))
	})

	t.Run("empty selection fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, nil))
	})
}

func TestValidateSelection_PickExact(t *testing.T) {
	b := newTestBundle(t, SelectionPickExact, 5)
	require.NoError(t, b.SetPickCount(3))

	t.Run("exact count passes", func(t *testing.T) {
		assert.NoError(t, ValidateSelection(b, selectItems(b, 0, 2, 4)))
	})

	t.Run("two of three fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, selectItems(b, 0, 2)))
	})

	t.Run("too many fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, selectItems(b, 0, 1, 2, 3)))
	})
}

func TestValidateSelection_Flexible(t *testing.T) {
	b := newTestBundle(t, SelectionFlexible, 5)
	max := 4
	require.NoError(t, b.SetItemRange(2, &max))

	t.Run("within range passes", func(t *testing.T) {
		assert.NoError(t, ValidateSelection(b, selectItems(b, 0, 1, 2)))
	})

	t.Run("below minimum fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, selectItems(b, 0)))
	})

	t.Run("above maximum fails", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, selectItems(b, 0, 1, 2, 3, 4)))
	})

	t.Run("unbounded above when max absent", func(t *testing.T) {
		open := newTestBundle(t, SelectionFlexible, 5)
		require.NoError(t, open.SetItemRange(1, nil))
		assert.NoError(t, ValidateSelection(open, selectItems(open, 0, 1, 2, 3, 4)))
	})
}

func TestValidateSelection_RequiredItems(t *testing.T) {
	b := newTestBundle(t, SelectionPickAny, 3)
	b.Items[1].Required = true

	t.Run("missing required item fails even in pick-any", func(t *testing.T) {
		assertValidation(t, ValidateSelection(b, selectItems(b, 0)))
	})

	t.Run("required item present passes", func(t *testing.T) {
		assert.NoError(t, ValidateSelection(b, selectItems(b, 0, 1)))
	})
}

func TestValidateSelection_InputShape(t *testing.T) {
	b := newTestBundle(t, SelectionPickAny, 2)

	t.Run("unknown item id fails", func(t *testing.T) {
		sel := []SelectedItem{{BundleItemID: uuid.New(), VariantID: uuid.New(), Quantity: 1}}
		assertValidation(t, ValidateSelection(b, sel))
	})

	t.Run("duplicate item fails", func(t *testing.T) {
		sel := selectItems(b, 0, 0)
		assertValidation(t, ValidateSelection(b, sel))
	})

	t.Run("non-positive quantity fails", func(t *testing.T) {
		sel := selectItems(b, 0)
		sel[0].Quantity = 0
		assertValidation(t, ValidateSelection(b, sel))
	})
}

func TestTotalQuantity(t *testing.T) {
	sel := []SelectedItem{
		{BundleItemID: uuid.New(), Quantity: 2},
		{BundleItemID: uuid.New(), Quantity: 3},
	}
	assert.Equal(t, int64(5), TotalQuantity(sel))
	assert.Equal(t, int64(0), TotalQuantity(nil))
}
