package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dropflow/backend/internal/application/catalog"
)

// ProductHandler exposes the storefront listings
type ProductHandler struct {
	BaseHandler
	service *catalog.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *catalog.Service) *ProductHandler {
	return &ProductHandler{service: service}
}

// List returns sellable listings with marketing copy and buyer prices
// GET /api/v1/products?limit=20
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	listings, err := h.service.ListProducts(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"products": listings})
}
