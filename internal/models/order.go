package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ChangedBySystem marks history entries written by the payment flow rather than an admin.
const ChangedBySystem = "system"

// OrderItem is a snapshot of the product taken when the order is created. It is
// never refreshed from the live product document.
type OrderItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Image     string  `bson:"image" json:"image"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Slug      string  `bson:"slug" json:"slug"`
}

type ShippingAddress struct {
	FullName   string `bson:"fullName" json:"fullName"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// StatusHistoryEntry is one line of the order audit trail. Entries are only
// ever appended.
type StatusHistoryEntry struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	ChangedBy string      `bson:"changedBy,omitempty" json:"changedBy,omitempty"`
	Note      string      `bson:"note,omitempty" json:"note,omitempty"`
}

// Order defines the persisted order document.
type Order struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrderNumber      string               `bson:"orderNumber" json:"orderNumber"`
	UserID           primitive.ObjectID   `bson:"user" json:"user"`
	Items            []OrderItem          `bson:"items" json:"items"`
	ShippingAddress  ShippingAddress      `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod    string               `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus    PaymentStatus        `bson:"paymentStatus" json:"paymentStatus"`
	PaymentReference string               `bson:"paymentReference" json:"paymentReference"`
	OrderStatus      OrderStatus          `bson:"orderStatus" json:"orderStatus"`
	StatusHistory    []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	Subtotal         float64              `bson:"subtotal" json:"subtotal"`
	ShippingFee      float64              `bson:"shippingFee" json:"shippingFee"`
	Tax              float64              `bson:"tax" json:"tax"`
	Total            float64              `bson:"total" json:"total"`
	Currency         string               `bson:"currency" json:"currency"`
	Notes            string               `bson:"notes,omitempty" json:"notes,omitempty"`
	IsNewOrder       bool                 `bson:"isNewOrder" json:"isNewOrder"`
	TrackingNumber   string               `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ItemCount is the total number of units across all line items.
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
