package orders

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const defaultCancelReason = "Order cancelled by admin"

// StatusUpdate is an admin request to move an order to a new status.
type StatusUpdate struct {
	OrderID        string
	Status         models.OrderStatus
	TrackingNumber string
	Note           string
	ActorID        string
}

// UpdateStatus appends a history entry, moves the order to the target status
// and applies the transition's inventory effect in one transaction. The
// customer email is dispatched after commit and never fails the update.
func (s *Service) UpdateStatus(ctx context.Context, cmd StatusUpdate) (models.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return models.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	if !cmd.Status.Valid() {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, cmd.Status)
	}
	note := strings.TrimSpace(cmd.Note)
	tracking := strings.TrimSpace(cmd.TrackingNumber)

	var (
		updated    models.Order
		transition Transition
	)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return translateRepoError(err)
		}

		transition, err = s.machine.Plan(current.OrderStatus, cmd.Status)
		if err != nil {
			return err
		}

		now := s.now()
		if n := len(current.StatusHistory); n > 0 && now.Before(current.StatusHistory[n-1].Timestamp) {
			now = current.StatusHistory[n-1].Timestamp
		}
		entryNote := note
		if entryNote == "" {
			entryNote = fmt.Sprintf("Status changed from %s to %s", current.OrderStatus, cmd.Status)
		}

		updated, err = s.orders.ApplyStatusChange(txCtx, orderID, repositories.StatusChange{
			ExpectedStatus: current.OrderStatus,
			Status:         cmd.Status,
			Entry: models.StatusHistoryEntry{
				Status:    cmd.Status,
				Timestamp: now,
				ChangedBy: cmd.ActorID,
				Note:      entryNote,
			},
			TrackingNumber: tracking,
			UpdatedAt:      now,
		})
		if err != nil {
			return translateRepoError(err)
		}

		switch transition.Inventory {
		case InventoryRestock:
			return s.ledger.Restore(txCtx, updated.Items)
		case InventoryDeduct:
			return s.ledger.Deduct(txCtx, updated.Items)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("order_number", updated.OrderNumber),
		zap.String("from", string(transition.From)),
		zap.String("to", string(transition.To)),
		zap.String("inventory", transition.Inventory.String()),
		zap.String("actor", cmd.ActorID),
	)

	if transition.Notification != "" {
		s.notifyStatusChange(ctx, updated, transition, note)
	}
	return updated, nil
}

func (s *Service) notifyStatusChange(ctx context.Context, order models.Order, transition Transition, note string) {
	user, err := s.users.FindByID(ctx, order.UserID.Hex())
	if err != nil {
		s.logger.Warn("skipping status email, customer not found",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return
	}

	reason := note
	if reason == "" {
		reason = defaultCancelReason
	}
	s.dispatch(ctx, statusMessage(transition.Notification, order, user, reason))
}
