package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/middleware"
)

type Handlers struct {
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Products *ProductHandler
	Cart     *CartHandler
	Payments *PaymentHandler
	Orders   *OrderHandler
	Health   *HealthHandler
}

// NewRouter mounts the API under /api/v1. Everything except auth, the
// product catalogue and health checks requires a bearer token.
func NewRouter(h Handlers, jwtSecret string, mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)

	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)

	authed := middleware.AuthMiddleware(jwtSecret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		products := v1.Group("/products")
		products.GET("", h.Products.List)
		products.GET("/:id", h.Products.GetByID)
		products.POST("", authed, middleware.AdminOnly(), h.Products.Create)

		profile := v1.Group("/profile", authed)
		profile.GET("", h.Profile.Get)
		profile.PATCH("", h.Profile.Update)

		cart := v1.Group("/cart", authed)
		cart.GET("", h.Cart.List)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/:id", h.Cart.UpdateQuantity)
		cart.DELETE("/:id", h.Cart.Remove)

		payments := v1.Group("/payments", authed)
		payments.GET("/key", h.Payments.Key)
		payments.POST("/orders", h.Payments.CreateOrder)
		payments.POST("/verify", h.Payments.Verify)

		orders := v1.Group("/orders", authed)
		orders.POST("", h.Orders.PlaceOrder)
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
	}
	return router
}
