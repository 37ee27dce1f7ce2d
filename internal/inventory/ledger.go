// Package inventory adjusts product stock for the line items of an order.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

type Ledger struct {
	products repositories.ProductRepository
	logger   *zap.Logger
}

func NewLedger(products repositories.ProductRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{products: products, logger: logger}
}

// Deduct lowers stock for every line item, flooring each product at zero.
// Items whose product no longer exists are skipped.
func (l *Ledger) Deduct(ctx context.Context, items []models.OrderItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		err := l.products.DecrementStockClamped(ctx, item.ProductID, item.Quantity)
		if err := l.skipMissing(err, "deduct", item); err != nil {
			return err
		}
	}
	return nil
}

// Restore returns each line item's quantity to stock. There is no upper bound.
func (l *Ledger) Restore(ctx context.Context, items []models.OrderItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		err := l.products.IncrementStock(ctx, item.ProductID, item.Quantity)
		if err := l.skipMissing(err, "restore", item); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) skipMissing(err error, op string, item models.OrderItem) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		l.logger.Warn("stock adjustment skipped for missing product",
			zap.String("op", op),
			zap.String("product_id", item.ProductID),
			zap.Int("quantity", item.Quantity),
		)
		return nil
	}
	return fmt.Errorf("inventory %s %s: %w", op, item.ProductID, err)
}
