// Package notify renders and delivers transactional order emails. Delivery
// runs off the request path with retries, and undeliverable messages are
// written to a failure log instead of being surfaced to callers.
package notify

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindAdminNewOrder     Kind = "admin_new_order"
	KindOrderShipped      Kind = "order_shipped"
	KindOrderDelivered    Kind = "order_delivered"
	KindOrderCancelled    Kind = "order_cancelled"
)

func (k Kind) Valid() bool {
	switch k {
	case KindOrderConfirmation, KindAdminNewOrder, KindOrderShipped, KindOrderDelivered, KindOrderCancelled:
		return true
	}
	return false
}

type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
}

type Address struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Message is everything needed to render one email. It is self-contained so
// it can travel through Kafka.
type Message struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind"`
	To             string     `json:"to"`
	OrderNumber    string     `json:"orderNumber"`
	CustomerName   string     `json:"customerName"`
	CustomerEmail  string     `json:"customerEmail"`
	Items          []LineItem `json:"items,omitempty"`
	Subtotal       float64    `json:"subtotal"`
	ShippingFee    float64    `json:"shippingFee"`
	Tax            float64    `json:"tax"`
	Total          float64    `json:"total"`
	Currency       string     `json:"currency"`
	Address        Address    `json:"address"`
	OrderDate      time.Time  `json:"orderDate"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NewMessage stamps a fresh id and creation time.
func NewMessage(kind Kind, to string) Message {
	return Message{
		ID:        ulid.Make().String(),
		Kind:      kind,
		To:        to,
		CreatedAt: time.Now().UTC(),
	}
}

func (m Message) ItemCount() int {
	count := 0
	for _, item := range m.Items {
		count += item.Quantity
	}
	return count
}
