package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dropflow/backend/internal/application/checkout"
	"github.com/dropflow/backend/internal/application/report"
)

// OrderHandler exposes the back-office order book
type OrderHandler struct {
	BaseHandler
	reports  *report.Service
	checkout *checkout.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(reports *report.Service, checkoutSvc *checkout.Service) *OrderHandler {
	return &OrderHandler{reports: reports, checkout: checkoutSvc}
}

// listResponse bundles the order page with the fresh profit summary, the
// way the back office consumes it.
type listResponse struct {
	Orders  any             `json:"orders"`
	Summary *report.Summary `json:"summary"`
}

// List returns orders newest-first with aggregate figures
// GET /api/v1/orders?status=fulfilled&limit=50&offset=0
func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.reports.ListOrders(c.Request.Context(), report.ListRequest{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, listResponse{Orders: orders, Summary: summary})
}

// Get returns a single order with its fulfillment record
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.reports.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Retry re-queues a failed or parked order for another fulfillment attempt
// POST /api/v1/orders/:id/retry
func (h *OrderHandler) Retry(c *gin.Context) {
	result, err := h.checkout.RetryFulfillment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Summary returns the profit report on its own
// GET /api/v1/reports/profit
func (h *OrderHandler) Summary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Clear wipes the order book. Operator-only.
// DELETE /api/v1/orders
func (h *OrderHandler) Clear(c *gin.Context) {
	removed, err := h.reports.ClearOrders(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"orders_removed": removed})
}
