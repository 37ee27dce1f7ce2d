package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/observability"
	"storefront/internal/orders"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		observability.FromContext(c.Request.Context()).Error("panic recovered",
			zap.String("route", route),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	logger := observability.FromContext(c.Request.Context()).With(
		zap.String("route", route),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("returning error", zap.String("message", message))
	} else {
		logger.Info("returning error", zap.String("message", message))
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondSuccess(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "email":
				details = append(details, fmt.Sprintf("%s must be a valid email", field))
			case "min", "gt":
				details = append(details, fmt.Sprintf("%s is too small", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		respondWithError(c, http.StatusBadRequest, route, strings.Join(details, ", "))
		return
	}

	respondWithError(c, http.StatusBadRequest, route, "Invalid request body")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondOrderError maps order-flow errors onto status codes. Unknown errors
// are logged with their cause and surface as a generic 500.
func respondOrderError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, orders.ErrMissingReference):
		respondWithError(c, http.StatusBadRequest, route, "Reference is required")
	case errors.Is(err, orders.ErrMissingSignature):
		respondWithError(c, http.StatusBadRequest, route, "Missing signature")
	case errors.Is(err, orders.ErrSignatureMismatch):
		respondWithError(c, http.StatusUnauthorized, route, "Invalid signature")
	case errors.Is(err, orders.ErrVerificationFailed):
		respondWithError(c, http.StatusBadRequest, route, "Payment verification failed")
	case errors.Is(err, orders.ErrUserNotFound):
		respondWithError(c, http.StatusNotFound, route, "User not found")
	case errors.Is(err, orders.ErrEmptyCart):
		respondWithError(c, http.StatusBadRequest, route, "No items in order")
	case errors.Is(err, orders.ErrOrderNotFound):
		respondWithError(c, http.StatusNotFound, route, "Order not found")
	case errors.Is(err, orders.ErrInvalidStatus):
		respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
	case errors.Is(err, orders.ErrInvalidTransition):
		respondWithError(c, http.StatusConflict, route, "Status transition not allowed")
	case errors.Is(err, orders.ErrConflict):
		respondWithError(c, http.StatusConflict, route, "Order was modified concurrently, retry")
	case errors.Is(err, orders.ErrInvalidInput):
		respondWithError(c, http.StatusBadRequest, route, "Invalid request")
	default:
		observability.FromContext(c.Request.Context()).Error("order operation failed",
			zap.String("route", route), zap.Error(err))
		respondWithError(c, http.StatusInternalServerError, route, "Internal server error")
	}
}
