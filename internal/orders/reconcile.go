package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"
)

const (
	notAvailable        = "N/A"
	paymentConfirmedMsg = "Payment confirmed via Paystack"
)

// ReconcileResult reports the order a payment maps to.
type ReconcileResult struct {
	Order            models.Order
	AlreadyProcessed bool
}

// Reconcile creates the order for a successful transaction, or returns the
// existing one when the reference was already processed. The caller is
// responsible for having confirmed the transaction with the provider.
//
// Work for one reference is serialised through the locker, and the unique
// paymentReference index catches anything that slips past it.
func (s *Service) Reconcile(ctx context.Context, tx payments.Transaction) (ReconcileResult, error) {
	reference := strings.TrimSpace(tx.Reference)
	if reference == "" {
		return ReconcileResult{}, ErrMissingReference
	}
	logger := s.logger.With(zap.String("reference", reference))

	unlock, err := s.locker.Lock(ctx, "payment:"+reference)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("lock payment %s: %w", reference, err)
	}
	defer unlock()

	existing, err := s.orders.FindByPaymentReference(ctx, reference)
	switch {
	case err == nil:
		logger.Info("payment already reconciled", zap.String("order_number", existing.OrderNumber))
		return ReconcileResult{Order: existing, AlreadyProcessed: true}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return ReconcileResult{}, fmt.Errorf("lookup order by reference: %w", err)
	}

	email := strings.TrimSpace(tx.Customer.Email)
	if email == "" {
		return ReconcileResult{}, fmt.Errorf("%w: customer email missing", ErrUserNotFound)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("paid transaction has no matching user", zap.String("email", email))
			return ReconcileResult{}, ErrUserNotFound
		}
		return ReconcileResult{}, fmt.Errorf("lookup user: %w", err)
	}

	order, err := s.buildOrder(tx, reference, user)
	if err != nil {
		return ReconcileResult{}, err
	}
	if order.OrderNumber, err = s.nextOrderNumber(ctx, order.CreatedAt); err != nil {
		return ReconcileResult{}, err
	}

	var created models.Order
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		inserted, err := s.orders.Insert(txCtx, order)
		if err != nil {
			return err
		}
		if err := s.ledger.Deduct(txCtx, inserted.Items); err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			if existing, findErr := s.orders.FindByPaymentReference(ctx, reference); findErr == nil {
				logger.Info("payment reconciled concurrently", zap.String("order_number", existing.OrderNumber))
				return ReconcileResult{Order: existing, AlreadyProcessed: true}, nil
			}
		}
		return ReconcileResult{}, fmt.Errorf("create order: %w", err)
	}

	logger.Info("order created from payment",
		zap.String("order_id", created.ID.Hex()),
		zap.String("order_number", created.OrderNumber),
		zap.Float64("total", created.Total),
	)

	s.dispatch(ctx, confirmationMessage(created, user))
	s.dispatch(ctx, adminNewOrderMessage(created, user, s.adminEmail))

	return ReconcileResult{Order: created}, nil
}

// buildOrder converts transaction metadata into an order document. Subtotal is
// recomputed from line items; shipping fee and tax are taken as supplied; the
// total is the amount the provider captured.
func (s *Service) buildOrder(tx payments.Transaction, reference string, user models.User) (models.Order, error) {
	meta := tx.Metadata
	if len(meta.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(meta.Items))
	subtotal := decimal.Zero
	for i, item := range meta.Items {
		if strings.TrimSpace(item.ID) == "" || item.Quantity <= 0 {
			return models.Order{}, fmt.Errorf("%w: item %d needs an id and a positive quantity", ErrInvalidInput, i)
		}
		price := decimal.NewFromFloat(item.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: item.ID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Slug:      item.Slug,
		})
	}

	now := s.now()
	addr := meta.ShippingAddress
	fullName := firstNonEmpty(addr.FullName, tx.Customer.DisplayName(), user.Name, notAvailable)

	return models.Order{
		UserID: user.ID,
		Items:  items,
		ShippingAddress: models.ShippingAddress{
			FullName:   fullName,
			Address:    firstNonEmpty(addr.Address, notAvailable),
			City:       firstNonEmpty(addr.City, notAvailable),
			State:      strings.TrimSpace(addr.State),
			PostalCode: firstNonEmpty(addr.PostalCode, notAvailable),
			Country:    firstNonEmpty(addr.Country, notAvailable),
			Phone:      strings.TrimSpace(addr.Phone),
		},
		PaymentMethod:    defaultPaymentMethod,
		PaymentStatus:    models.PaymentStatusPaid,
		PaymentReference: reference,
		OrderStatus:      models.OrderStatusPaid,
		StatusHistory: []models.StatusHistoryEntry{{
			Status:    models.OrderStatusPaid,
			Timestamp: now,
			ChangedBy: models.ChangedBySystem,
			Note:      paymentConfirmedMsg,
		}},
		Subtotal:    subtotal.Round(2).InexactFloat64(),
		ShippingFee: meta.ShippingFee,
		Tax:         meta.Tax,
		Total:       decimal.NewFromInt(tx.Amount).Div(decimal.NewFromInt(100)).InexactFloat64(),
		Currency:    s.currency,
		IsNewOrder:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
