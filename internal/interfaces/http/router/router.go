package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dropflow/backend/internal/infrastructure/logger"
	"github.com/dropflow/backend/internal/interfaces/http/handler"
	"github.com/dropflow/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Checkout *handler.CheckoutHandler
	Orders   *handler.OrderHandler
	Products *handler.ProductHandler
	Health   *handler.HealthHandler
}

// Config controls router behavior
type Config struct {
	// AdminAPIKey guards destructive and operator endpoints
	AdminAPIKey string
	// AllowOrigins for CORS; empty rejects cross-origin calls
	AllowOrigins []string
	// ReleaseMode switches gin out of debug logging
	ReleaseMode bool
}

// New builds the HTTP engine with all routes mounted.
//
// The buyer surface (checkout, verify, products) is open; the order book is
// readable without a key so the dashboard stays simple, but anything that
// mutates orders or wipes data requires the admin key.
func New(cfg Config, h Handlers, log *zap.Logger) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(cfg.AllowOrigins),
	)

	engine.GET("/healthz", h.Health.Check)

	api := engine.Group("/api/v1")
	{
		api.POST("/checkout", h.Checkout.Create)
		api.GET("/checkout/verify", h.Checkout.Verify)

		api.GET("/products", h.Products.List)

		api.GET("/orders", h.Orders.List)
		api.GET("/orders/:id", h.Orders.Get)
		api.GET("/reports/profit", h.Orders.Summary)

		admin := api.Group("", middleware.AdminKey(cfg.AdminAPIKey))
		{
			admin.POST("/orders/:id/retry", h.Orders.Retry)
			admin.DELETE("/orders", h.Orders.Clear)
		}
	}

	return engine
}
