package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tabapp "github.com/salonsuite/backend/internal/application/tab"
	"github.com/salonsuite/backend/internal/domain/tab"
	"github.com/salonsuite/backend/internal/interfaces/http/dto"
)

// TabHandler handles tab lifecycle and settlement API endpoints
type TabHandler struct {
	BaseHandler
	tabs *tabapp.Service
}

// NewTabHandler creates a new TabHandler
func NewTabHandler(tabs *tabapp.Service) *TabHandler {
	return &TabHandler{tabs: tabs}
}

// RegisterRoutes registers the tab routes on the given group
func (h *TabHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tabs := rg.Group("/tabs")
	{
		tabs.POST("", h.Open)
		tabs.POST("/quick-access", h.QuickAccess)
		tabs.GET("", h.List)
		tabs.GET("/:id", h.Get)
		tabs.GET("/:id/details", h.GetDetails)
		tabs.GET("/:id/events", h.ListEvents)

		tabs.PUT("/:id/client", h.LinkClient)
		tabs.DELETE("/:id/client", h.UnlinkClient)
		tabs.POST("/:id/notes", h.AddNote)

		tabs.GET("/:id/items", h.ListItems)
		tabs.POST("/:id/items", h.AddItem)
		tabs.PATCH("/:id/items/:itemId", h.UpdateItem)
		tabs.DELETE("/:id/items/:itemId", h.RemoveItem)
		tabs.PUT("/:id/discount", h.ApplyDiscount)

		tabs.GET("/:id/payments", h.ListPayments)
		tabs.POST("/:id/payments", h.AddPayment)
		tabs.POST("/:id/close-service", h.CloseService)
		tabs.POST("/:id/close", h.Close)
		tabs.POST("/:id/cancel", h.Cancel)
		tabs.POST("/:id/reopen", h.Reopen)
	}
}

// tabListRequest carries the list query parameters
type tabListRequest struct {
	dto.ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=OPEN IN_SERVICE WAITING_PAYMENT CLOSED CANCELED"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}

// Open opens a new tab
func (h *TabHandler) Open(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req tabapp.OpenTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.Open(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// QuickAccess finds the active tab at a card number or opens a new one
func (h *TabHandler) QuickAccess(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req tabapp.QuickAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.QuickAccess(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List returns the tenant's tabs with filtering and pagination
func (h *TabHandler) List(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req tabListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := tabapp.ListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
	if req.Status != "" {
		status := tab.TabStatus(req.Status)
		filter.Status = &status
	}
	if req.ClientID != "" {
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			h.BadRequest(c, "Invalid client ID format")
			return
		}
		filter.ClientID = &clientID
	}

	tabs, total, err := h.tabs.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, tabs, total, req.Page, req.PageSize)
}

// Get returns a single tab
func (h *TabHandler) Get(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tabs.Get(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetDetails returns a tab with its audit timeline
func (h *TabHandler) GetDetails(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tabs.GetDetails(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListEvents returns the audit events of a tab
func (h *TabHandler) ListEvents(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	events, err := h.tabs.ListEvents(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// LinkClient attaches a client to a tab
func (h *TabHandler) LinkClient(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.LinkClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.LinkClient(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UnlinkClient detaches the client from a tab
func (h *TabHandler) UnlinkClient(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tabs.UnlinkClient(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AddNote appends a note to a tab
func (h *TabHandler) AddNote(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.AddNote(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListItems returns the line items of a tab
func (h *TabHandler) ListItems(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.tabs.ListItems(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// AddItem adds a line item to a tab
func (h *TabHandler) AddItem(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.AddItem(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// UpdateItem updates a line item
func (h *TabHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}

	var req tabapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.UpdateItem(c.Request.Context(), actor, tabID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveItem soft-cancels a line item
func (h *TabHandler) RemoveItem(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}

	// Reason travels in the body; an empty body means no reason given
	var req tabapp.RemoveItemRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.tabs.RemoveItem(c.Request.Context(), actor, tabID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ApplyDiscount applies the tab-level manual discount
func (h *TabHandler) ApplyDiscount(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.ManualDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.ApplyManualDiscount(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListPayments returns the payments of a tab
func (h *TabHandler) ListPayments(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	payments, err := h.tabs.ListPayments(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// AddPayment records a payment, possibly auto-closing the tab
func (h *TabHandler) AddPayment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.AddPayment(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// CloseService closes the service phase, running the consumption pass
func (h *TabHandler) CloseService(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tabs.CloseService(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Close settles and closes a tab at the cashier
func (h *TabHandler) Close(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tabs.CloseCashier(c.Request.Context(), actor, tabID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel cancels a tab with compensation
func (h *TabHandler) Cancel(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.CancelTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.Cancel(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reopen reopens a closed tab
func (h *TabHandler) Reopen(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}
	tabID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req tabapp.ReopenTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tabs.Reopen(c.Request.Context(), actor, tabID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// pathID parses a UUID path parameter
func (h *TabHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
