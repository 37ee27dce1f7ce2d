package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/repositories"
)

const maxFailureListing = 200

func GetAdminOrders(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		list, err := service.AdminList(c.Request.Context(), orders.AdminListFilter{
			Status: c.Query("status"),
			Search: c.Query("search"),
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		if list == nil {
			list = []models.Order{}
		}
		respondSuccess(c, http.StatusOK, "", list)
	}
}

func GetAdminOrder(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders/:id"
		defer handlePanic(c, route)

		order, err := service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "", order)
	}
}

type updateOrderStatusRequest struct {
	OrderStatus    string `json:"orderStatus" binding:"required"`
	TrackingNumber string `json:"trackingNumber"`
	Note           string `json:"note"`
}

func UpdateOrderStatus(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id/status"
		defer handlePanic(c, route)

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		actor := middleware.UserID(c)
		if admin, ok := middleware.CurrentUser(c); ok {
			actor = admin.ID.Hex()
		}

		order, err := service.UpdateStatus(c.Request.Context(), orders.StatusUpdate{
			OrderID:        c.Param("id"),
			Status:         models.OrderStatus(strings.TrimSpace(req.OrderStatus)),
			TrackingNumber: req.TrackingNumber,
			Note:           req.Note,
			ActorID:        actor,
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "Order status updated successfully", order)
	}
}

func GetOrderStats(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/stats"
		defer handlePanic(c, route)

		stats, err := service.Stats(c.Request.Context())
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		if stats.Recent == nil {
			stats.Recent = []models.Order{}
		}
		respondSuccess(c, http.StatusOK, "", gin.H{
			"salesToday":     stats.SalesToday,
			"salesThisWeek":  stats.SalesThisWeek,
			"salesThisMonth": stats.SalesThisMonth,
			"totalOrders":    stats.TotalOrders,
			"byStatus":       stats.ByStatus,
			"recentOrders":   stats.Recent,
		})
	}
}

// FailureLog lists undeliverable notifications.
type FailureLog interface {
	Recent(ctx context.Context, limit int64) ([]repositories.NotificationFailure, error)
}

func GetNotificationFailures(failures FailureLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/notifications/failures"
		defer handlePanic(c, route)

		limit, err := parseLimit(c.Query("limit"), maxFailureListing)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if limit == 0 {
			limit = 50
		}

		list, err := failures.Recent(c.Request.Context(), limit)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if list == nil {
			list = []repositories.NotificationFailure{}
		}
		respondSuccess(c, http.StatusOK, "", list)
	}
}
