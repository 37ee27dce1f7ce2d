package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/repositories"
)

// OrderService is the order surface shared by customer and admin handlers.
type OrderService interface {
	Get(ctx context.Context, id string) (models.Order, error)
	GetForUser(ctx context.Context, userID, id string) (models.Order, error)
	ListForUser(ctx context.Context, userID, status string, page int64) (orders.UserOrderPage, error)
	AdminList(ctx context.Context, filter orders.AdminListFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, cmd orders.StatusUpdate) (models.Order, error)
	Stats(ctx context.Context) (repositories.OrderStats, error)
}

func GetMyOrders(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/user/orders"
		defer handlePanic(c, route)

		page, err := parsePage(c.Query("page"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		result, err := service.ListForUser(c.Request.Context(), middleware.UserID(c), c.Query("status"), page)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		if result.Orders == nil {
			result.Orders = []models.Order{}
		}
		respondSuccess(c, http.StatusOK, "", result)
	}
}

func GetMyOrder(service OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/user/orders/:id"
		defer handlePanic(c, route)

		order, err := service.GetForUser(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		respondSuccess(c, http.StatusOK, "", order)
	}
}
