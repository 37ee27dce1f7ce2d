package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/observability"
	"storefront/internal/orders"
	"storefront/internal/payments"
)

// maxWebhookBody bounds the raw webhook payload read before signature checks.
const maxWebhookBody = 1 << 20

// PaymentFlow is the checkout side of the order service.
type PaymentFlow interface {
	Initialize(ctx context.Context, in orders.InitializeInput) (orders.InitializeResult, error)
	VerifyPayment(ctx context.Context, reference string) (orders.VerifyResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (orders.WebhookResult, error)
}

type initializePaymentRequest struct {
	Email    string         `json:"email" binding:"required,email"`
	Amount   float64        `json:"amount" binding:"required,gt=0"`
	Metadata map[string]any `json:"metadata"`
}

func InitializePayment(flow PaymentFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/paystack/initialize"
		defer handlePanic(c, route)

		var req initializePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		result, err := flow.Initialize(c.Request.Context(), orders.InitializeInput{
			Email:    req.Email,
			Amount:   req.Amount,
			Metadata: req.Metadata,
		})
		if err != nil {
			var providerErr *payments.ProviderError
			if errors.As(err, &providerErr) {
				respondWithError(c, http.StatusBadRequest, route, providerErr.Message)
				return
			}
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"authorization_url": result.AuthorizationURL,
			"reference":         result.Reference,
		})
	}
}

type verifyPaymentRequest struct {
	Reference string `json:"reference"`
}

func VerifyPayment(flow PaymentFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/paystack/verify"
		defer handlePanic(c, route)

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		result, err := flow.VerifyPayment(c.Request.Context(), req.Reference)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		message := "Payment verified successfully"
		if result.AlreadyProcessed {
			message = "Order already processed"
		}
		respondSuccess(c, http.StatusOK, message, gin.H{
			"transaction": result.Transaction,
			"order":       result.Order,
		})
	}
}

// PaystackWebhook reads the raw body untouched so the HMAC is computed over
// exactly the bytes the provider signed.
func PaystackWebhook(flow PaymentFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/paystack/webhook"
		defer handlePanic(c, route)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid body")
			return
		}

		result, err := flow.HandleWebhook(c.Request.Context(), body, c.GetHeader(payments.SignatureHeader))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		logger := observability.FromContext(c.Request.Context()).With(zap.String("event", result.Event))
		switch {
		case !result.Handled:
			logger.Debug("webhook acknowledged")
			respondSuccess(c, http.StatusOK, "Webhook received", nil)
		case result.Order.AlreadyProcessed:
			logger.Info("webhook replay", zap.String("reference", result.Order.Order.PaymentReference))
			respondSuccess(c, http.StatusOK, "Order already processed", nil)
		default:
			c.JSON(http.StatusOK, gin.H{
				"success":     true,
				"message":     "Order created successfully",
				"orderId":     result.Order.Order.ID.Hex(),
				"orderNumber": result.Order.Order.OrderNumber,
			})
		}
	}
}
