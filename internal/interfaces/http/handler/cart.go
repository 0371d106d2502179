package handler

import (
	bundleapp "github.com/bundleshop/backend/internal/application/bundle"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler handles cart synchronization endpoints. Every mutation
// returns the canonical cart state after the write.
type CartHandler struct {
	BaseHandler
	syncService *bundleapp.CartSyncService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(syncService *bundleapp.CartSyncService) *CartHandler {
	return &CartHandler{
		syncService: syncService,
	}
}

// RegisterRoutes registers cart routes on the given group
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	carts := rg.Group("/carts")
	{
		carts.GET("/:id", h.GetCart)
		carts.POST("/:id/bundles", h.AddBundle)
		carts.PUT("/:id/bundles/:bundleId", h.UpdateSelection)
		carts.DELETE("/:id/bundles/:bundleId", h.RemoveBundle)
		carts.DELETE("/:id/bundles/:bundleId/items/:itemId", h.RemoveItem)
		carts.POST("/:id/recalculate", h.Recalculate)
	}
}

// UpdateSelectionBody replaces the cart's selection for the bundle in the
// path. An empty selection removes the bundle group.
type UpdateSelectionBody struct {
	Selection []bundleapp.SelectedItemInput `json:"selection" binding:"dive"`
}

// GetCart returns the cart's current state
func (h *CartHandler) GetCart(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart ID")
		return
	}

	cart, err := h.syncService.GetCart(c.Request.Context(), cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// AddBundle adds a configured bundle selection to the cart
func (h *CartHandler) AddBundle(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart ID")
		return
	}

	var req bundleapp.AddBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cart, err := h.syncService.AddBundle(c.Request.Context(), cartID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// UpdateSelection replaces the cart's selection for one bundle
func (h *CartHandler) UpdateSelection(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart ID")
		return
	}
	bundleID, err := uuid.Parse(c.Param("bundleId"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle ID")
		return
	}

	var body UpdateSelectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := bundleapp.UpdateSelectionRequest{
		BundleID:  bundleID,
		Selection: body.Selection,
	}
	cart, err := h.syncService.UpdateSelection(c.Request.Context(), cartID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// RemoveBundle removes a bundle group from the cart
func (h *CartHandler) RemoveBundle(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart ID")
		return
	}
	bundleID, err := uuid.Parse(c.Param("bundleId"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle ID")
		return
	}

	cart, err := h.syncService.RemoveBundle(c.Request.Context(), cartID, bundleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// RemoveItem removes a single line from a bundle group. The remaining
// group is revalidated and repriced against the bundle's rules.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart ID")
		return
	}
	bundleID, err := uuid.Parse(c.Param("bundleId"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle ID")
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "Invalid bundle item ID")
		return
	}

	cart, err := h.syncService.RemoveItem(c.Request.Context(), cartID, bundleID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// Recalculate reprices the cart's bundle groups from live configuration.
// An optional bundle_id query restricts the run to one group.
func (h *CartHandler) Recalculate(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart ID")
		return
	}

	var bundleID *uuid.UUID
	if raw := c.Query("bundle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid bundle ID")
			return
		}
		bundleID = &id
	}

	cart, err := h.syncService.Recalculate(c.Request.Context(), cartID, bundleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}
