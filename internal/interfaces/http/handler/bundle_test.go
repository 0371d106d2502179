package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	bundleapp "github.com/bundleshop/backend/internal/application/bundle"
	"github.com/bundleshop/backend/internal/domain/bundle"
	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createRequest(mode string) bundleapp.CreateBundleRequest {
	return bundleapp.CreateBundleRequest{
		Title: "Starter Kit",
		Mode:  mode,
		Discount: bundleapp.DiscountConfigInput{
			PercentTier2: 10,
			PercentTier3: 20,
		},
		Items: []bundleapp.BundleItemInput{
			{ProductID: uuid.New(), VariantID: uuid.New(), DefaultQuantity: 1},
			{ProductID: uuid.New(), VariantID: uuid.New(), DefaultQuantity: 2},
		},
	}
}

func TestBundleHandler_Create(t *testing.T) {
	t.Run("creates bundle and returns 201", func(t *testing.T) {
		f := newWebFixture()
		f.bundles.On("Save", mock.Anything, mock.Anything).Return(nil)

		w := f.request(http.MethodPost, "/api/v1/bundles", createRequest("ALL_REQUIRED"))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var result bundleapp.BundleResponse
		decodeData(t, w, &result)
		assert.Equal(t, "Starter Kit", result.Title)
		assert.Equal(t, "ALL_REQUIRED", result.Mode)
		assert.Len(t, result.Items, 2)
		assert.True(t, result.Active)
		f.bundles.AssertExpectations(t)
	})

	t.Run("maps invalid mode to 400", func(t *testing.T) {
		f := newWebFixture()

		w := f.request(http.MethodPost, "/api/v1/bundles", createRequest("EVERYTHING"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_MODE", decodeError(t, w).Code)
	})

	t.Run("rejects body missing required fields", func(t *testing.T) {
		f := newWebFixture()

		w := f.request(http.MethodPost, "/api/v1/bundles", map[string]any{"title": "No items"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBundleHandler_GetByID(t *testing.T) {
	t.Run("returns bundle", func(t *testing.T) {
		f := newWebFixture()
		b := pickAnyBundle(bundle.DiscountConfig{AmountTier2: 100}, uuid.New(), uuid.New())
		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil)

		w := f.request(http.MethodGet, "/api/v1/bundles/"+b.ID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var result bundleapp.BundleResponse
		decodeData(t, w, &result)
		assert.Equal(t, b.ID, result.ID)
		assert.Equal(t, int64(100), result.Discount.AmountTier2)
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		f := newWebFixture()
		id := uuid.New()
		f.bundles.On("FindByID", mock.Anything, id, false).Return(nil, shared.ErrNotFound)

		w := f.request(http.MethodGet, "/api/v1/bundles/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		f := newWebFixture()

		w := f.request(http.MethodGet, "/api/v1/bundles/nope", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBundleHandler_List(t *testing.T) {
	f := newWebFixture()
	b := pickAnyBundle(bundle.DiscountConfig{}, uuid.New(), uuid.New())
	f.bundles.On("FindAll", mock.Anything, mock.Anything).Return([]bundle.Bundle{*b}, nil)
	f.bundles.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	w := f.request(http.MethodGet, "/api/v1/bundles?page=1&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var envelope struct {
		Success bool                       `json:"success"`
		Data    []bundleapp.BundleResponse `json:"data"`
		Meta    *struct {
			Total    int64 `json:"total"`
			Page     int   `json:"page"`
			PageSize int   `json:"page_size"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, int64(1), envelope.Meta.Total)
	assert.Equal(t, 1, envelope.Meta.Page)
	assert.Equal(t, 10, envelope.Meta.PageSize)
}

func TestBundleHandler_Update(t *testing.T) {
	t.Run("renames bundle", func(t *testing.T) {
		f := newWebFixture()
		b := pickAnyBundle(bundle.DiscountConfig{}, uuid.New(), uuid.New())
		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil)
		f.bundles.On("Save", mock.Anything, mock.Anything).Return(nil)

		title := "Renamed Kit"
		w := f.request(http.MethodPut, "/api/v1/bundles/"+b.ID.String(), bundleapp.UpdateBundleRequest{
			Title: &title,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var result bundleapp.BundleResponse
		decodeData(t, w, &result)
		assert.Equal(t, "Renamed Kit", result.Title)
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		f := newWebFixture()
		id := uuid.New()
		f.bundles.On("FindByID", mock.Anything, id, false).Return(nil, shared.ErrNotFound)

		title := "Renamed Kit"
		w := f.request(http.MethodPut, "/api/v1/bundles/"+id.String(), bundleapp.UpdateBundleRequest{
			Title: &title,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBundleHandler_Delete(t *testing.T) {
	t.Run("deletes and returns 204", func(t *testing.T) {
		f := newWebFixture()
		b := pickAnyBundle(bundle.DiscountConfig{}, uuid.New(), uuid.New())
		f.bundles.On("FindByID", mock.Anything, b.ID, false).Return(b, nil)
		f.bundles.On("Delete", mock.Anything, b.ID).Return(nil)

		w := f.request(http.MethodDelete, "/api/v1/bundles/"+b.ID.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		f.bundles.AssertExpectations(t)
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		f := newWebFixture()
		id := uuid.New()
		f.bundles.On("FindByID", mock.Anything, id, false).Return(nil, shared.ErrNotFound)

		w := f.request(http.MethodDelete, "/api/v1/bundles/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		f.bundles.AssertNotCalled(t, "Delete", mock.Anything, id)
	})
}
