package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/repositories"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Session  SessionConfig
	Accounts Accounts
	Catalog  Catalog
	Orders   OrderService
	Payments PaymentFlow
	Failures FailureLog
	Store    repositories.Pinger
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/healthz", Health(deps.Store))

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", Register(deps.Accounts, deps.Session))
		auth.POST("/login", Login(deps.Accounts, deps.Session))
		auth.POST("/logout", Logout(deps.Session))
		auth.GET("/me", middleware.UserAuth(deps.Session.Secret), GetMe(deps.Accounts))
	}

	api.GET("/products", GetProducts(deps.Catalog))
	api.GET("/products/:slug", GetProductBySlug(deps.Catalog))

	paystack := api.Group("/paystack")
	{
		paystack.POST("/initialize", InitializePayment(deps.Payments))
		paystack.POST("/verify", VerifyPayment(deps.Payments))
		paystack.POST("/webhook", PaystackWebhook(deps.Payments))
	}

	user := api.Group("/user")
	user.Use(middleware.UserAuth(deps.Session.Secret))
	{
		user.GET("/orders", GetMyOrders(deps.Orders))
		user.GET("/orders/:id", GetMyOrder(deps.Orders))
	}

	api.POST("/admin/login", AdminLogin(deps.Accounts, deps.Session))

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(deps.Session.Secret, deps.Accounts))
	{
		admin.GET("/orders", GetAdminOrders(deps.Orders))
		admin.GET("/orders/:id", GetAdminOrder(deps.Orders))
		admin.PUT("/orders/:id/status", UpdateOrderStatus(deps.Orders))
		admin.GET("/stats", GetOrderStats(deps.Orders))
		admin.GET("/notifications/failures", GetNotificationFailures(deps.Failures))
	}
}
