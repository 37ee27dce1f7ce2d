package orders

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/notify"
)

// dispatch hands msg to the dispatcher and only logs on failure.
func (s *Service) dispatch(ctx context.Context, msg notify.Message) {
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		s.logger.Warn("notification dispatch failed",
			zap.String("message_id", msg.ID),
			zap.String("kind", string(msg.Kind)),
			zap.String("order_number", msg.OrderNumber),
			zap.Error(err),
		)
	}
}

func orderMessage(kind notify.Kind, to string, order models.Order, user models.User) notify.Message {
	msg := notify.NewMessage(kind, to)
	msg.OrderNumber = order.OrderNumber
	msg.CustomerName = user.Name
	msg.CustomerEmail = user.Email
	msg.Subtotal = order.Subtotal
	msg.ShippingFee = order.ShippingFee
	msg.Tax = order.Tax
	msg.Total = order.Total
	msg.Currency = order.Currency
	msg.OrderDate = order.CreatedAt
	msg.TrackingNumber = order.TrackingNumber
	msg.Address = notify.Address{
		FullName:   order.ShippingAddress.FullName,
		Address:    order.ShippingAddress.Address,
		City:       order.ShippingAddress.City,
		PostalCode: order.ShippingAddress.PostalCode,
		Country:    order.ShippingAddress.Country,
	}
	for _, item := range order.Items {
		msg.Items = append(msg.Items, notify.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Image:    item.Image,
		})
	}
	return msg
}

func confirmationMessage(order models.Order, user models.User) notify.Message {
	return orderMessage(notify.KindOrderConfirmation, user.Email, order, user)
}

func adminNewOrderMessage(order models.Order, user models.User, adminEmail string) notify.Message {
	return orderMessage(notify.KindAdminNewOrder, adminEmail, order, user)
}

func statusMessage(kind notify.Kind, order models.Order, user models.User, reason string) notify.Message {
	msg := orderMessage(kind, user.Email, order, user)
	if kind == notify.KindOrderCancelled {
		msg.Reason = reason
	}
	return msg
}
