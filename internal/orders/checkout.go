package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/payments"
)

// PaymentGateway is the provider API the checkout flow depends on.
type PaymentGateway interface {
	Initialize(ctx context.Context, req payments.InitializeRequest) (payments.Authorization, error)
	Verify(ctx context.Context, reference string) (payments.Transaction, error)
}

// Reconciler turns a confirmed transaction into an order.
type Reconciler interface {
	Reconcile(ctx context.Context, tx payments.Transaction) (ReconcileResult, error)
}

type CheckoutDeps struct {
	Gateway       PaymentGateway
	Reconciler    Reconciler
	WebhookSecret string
	Currency      string
	CallbackURL   string
	Logger        *zap.Logger
}

// Checkout handles the payment side of the order flow: starting a hosted
// checkout, client-triggered verification and provider webhooks.
type Checkout struct {
	gateway     PaymentGateway
	reconciler  Reconciler
	secret      string
	currency    string
	callbackURL string
	logger      *zap.Logger
}

func NewCheckout(deps CheckoutDeps) (*Checkout, error) {
	if deps.Gateway == nil {
		return nil, errors.New("checkout: payment gateway is required")
	}
	if deps.Reconciler == nil {
		return nil, errors.New("checkout: reconciler is required")
	}
	c := &Checkout{
		gateway:     deps.Gateway,
		reconciler:  deps.Reconciler,
		secret:      deps.WebhookSecret,
		currency:    strings.TrimSpace(deps.Currency),
		callbackURL: strings.TrimSpace(deps.CallbackURL),
		logger:      deps.Logger,
	}
	if c.currency == "" {
		c.currency = defaultCurrency
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

type InitializeInput struct {
	Email    string
	Amount   float64
	Metadata map[string]any
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// Initialize starts a Paystack transaction with a fresh PS_ reference. The
// amount is given in major units.
func (c *Checkout) Initialize(ctx context.Context, in InitializeInput) (InitializeResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Amount <= 0 {
		return InitializeResult{}, fmt.Errorf("%w: email and amount are required", ErrInvalidInput)
	}

	reference := NewPaymentReference()
	metadata := make(map[string]any, len(in.Metadata)+1)
	maps.Copy(metadata, in.Metadata)
	metadata["reference"] = reference

	auth, err := c.gateway.Initialize(ctx, payments.InitializeRequest{
		Email:       email,
		Amount:      decimal.NewFromFloat(in.Amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:    c.currency,
		Reference:   reference,
		CallbackURL: c.callbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		return InitializeResult{}, err
	}

	c.logger.Info("payment initialized", zap.String("reference", reference))
	return InitializeResult{AuthorizationURL: auth.AuthorizationURL, Reference: reference}, nil
}

// NewPaymentReference returns a unique, sortable reference.
func NewPaymentReference() string {
	return "PS_" + ulid.Make().String()
}

type VerifyResult struct {
	Transaction      payments.Transaction
	Order            models.Order
	AlreadyProcessed bool
}

// VerifyPayment confirms the reference with the provider and reconciles it.
func (c *Checkout) VerifyPayment(ctx context.Context, reference string) (VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyResult{}, ErrMissingReference
	}

	tx, err := c.gateway.Verify(ctx, reference)
	if err != nil {
		c.logger.Warn("payment verification request failed", zap.String("reference", reference), zap.Error(err))
		return VerifyResult{}, errors.Join(ErrVerificationFailed, err)
	}
	if !tx.Succeeded() {
		return VerifyResult{}, fmt.Errorf("%w: transaction status %q", ErrVerificationFailed, tx.Status)
	}
	if strings.TrimSpace(tx.Reference) == "" {
		tx.Reference = reference
	}

	result, err := c.reconciler.Reconcile(ctx, tx)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Transaction: tx, Order: result.Order, AlreadyProcessed: result.AlreadyProcessed}, nil
}

type WebhookResult struct {
	// Handled is false for events that do not create orders.
	Handled bool
	Event   string
	Order   ReconcileResult
}

// HandleWebhook validates the signature over the raw body before parsing it.
func (c *Checkout) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookResult, error) {
	if err := payments.VerifySignature(c.secret, body, signature); err != nil {
		switch {
		case errors.Is(err, payments.ErrMissingSignature):
			return WebhookResult{}, ErrMissingSignature
		case errors.Is(err, payments.ErrInvalidSignature):
			return WebhookResult{}, ErrSignatureMismatch
		default:
			return WebhookResult{}, err
		}
	}

	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return WebhookResult{}, fmt.Errorf("%w: malformed webhook payload", ErrInvalidInput)
	}
	if envelope.Event != payments.EventChargeSuccess {
		c.logger.Info("webhook ignored", zap.String("event", envelope.Event))
		return WebhookResult{Event: envelope.Event}, nil
	}

	event := payments.Event{Event: envelope.Event}
	if err := json.Unmarshal(envelope.Data, &event.Data); err != nil {
		return WebhookResult{}, fmt.Errorf("%w: malformed charge payload", ErrInvalidInput)
	}
	if !event.Data.Succeeded() {
		c.logger.Info("webhook ignored", zap.String("event", event.Event), zap.String("status", event.Data.Status))
		return WebhookResult{Event: event.Event}, nil
	}

	result, err := c.reconciler.Reconcile(ctx, event.Data)
	if err != nil {
		return WebhookResult{Event: event.Event}, err
	}
	return WebhookResult{Handled: true, Event: event.Event, Order: result}, nil
}
