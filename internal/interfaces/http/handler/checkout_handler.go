package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dropflow/backend/internal/application/checkout"
)

// CheckoutHandler exposes the buyer-facing checkout flow
type CheckoutHandler struct {
	BaseHandler
	service *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// Create opens a hosted checkout session for a product
// POST /api/v1/checkout
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req checkout.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	resp, err := h.service.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Verify confirms a payment and creates the order. The buyer's success page
// calls this; it is safe to call repeatedly for the same session.
// GET /api/v1/checkout/verify?session_id=cs_...
func (h *CheckoutHandler) Verify(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		h.BadRequest(c, "session_id query parameter is required")
		return
	}

	result, err := h.service.HandlePaymentConfirmation(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
