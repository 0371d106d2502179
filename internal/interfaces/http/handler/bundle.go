package handler

import (
	bundleapp "github.com/bundleshop/backend/internal/application/bundle"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BundleHandler handles the merchant-facing bundle configuration endpoints
type BundleHandler struct {
	BaseHandler
	bundleService *bundleapp.BundleService
}

// NewBundleHandler creates a new BundleHandler
func NewBundleHandler(bundleService *bundleapp.BundleService) *BundleHandler {
	return &BundleHandler{
		bundleService: bundleService,
	}
}

// RegisterRoutes registers bundle routes on the given group
func (h *BundleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bundles := rg.Group("/bundles")
	{
		bundles.POST("", h.Create)
		bundles.GET("", h.List)
		bundles.GET("/:id", h.GetByID)
		bundles.PUT("/:id", h.Update)
		bundles.DELETE("/:id", h.Delete)
	}
}

// Create creates a new bundle definition
func (h *BundleHandler) Create(c *gin.Context) {
	var req bundleapp.CreateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	b, err := h.bundleService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, b)
}

// GetByID retrieves a bundle by its ID
func (h *BundleHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle ID")
		return
	}

	b, err := h.bundleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// List returns a filtered, paginated bundle listing
func (h *BundleHandler) List(c *gin.Context) {
	var filter bundleapp.BundleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 20
	}

	bundles, total, err := h.bundleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, bundles, total, filter.Page, filter.PageSize)
}

// Update updates a bundle definition. A changed item set or discount
// triggers recalculation of every cart that holds the bundle.
func (h *BundleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle ID")
		return
	}

	var req bundleapp.UpdateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	b, err := h.bundleService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// Delete removes a bundle definition
func (h *BundleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle ID")
		return
	}

	if err := h.bundleService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
