package payments

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Transaction is the subset of a Paystack transaction the order flow reads.
type Transaction struct {
	ID        int64    `json:"id"`
	Status    string   `json:"status"`
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	PaidAt    string   `json:"paid_at,omitempty"`
	Customer  Customer `json:"customer"`
	Metadata  Metadata `json:"metadata"`
}

func (t Transaction) Succeeded() bool {
	return t.Status == StatusSuccess
}

type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name,omitempty"`
}

// DisplayName prefers an explicit name, then first and last name.
func (c Customer) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// MetadataItem is one cart line as sent by the checkout page.
type MetadataItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Slug     string  `json:"slug"`
}

type MetadataAddress struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// Metadata is the checkout payload echoed back by Paystack. Shipping fee and
// tax are client supplied.
type Metadata struct {
	Items           []MetadataItem  `json:"items"`
	ShippingAddress MetadataAddress `json:"shippingAddress"`
	ShippingFee     float64         `json:"shippingFee"`
	Tax             float64         `json:"tax"`
	Reference       string          `json:"reference,omitempty"`
}

// UnmarshalJSON accepts either an object or a JSON-encoded string, since
// Paystack returns metadata as a string for some integrations.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = Metadata{}
		return nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return err
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			*m = Metadata{}
			return nil
		}
		trimmed = []byte(encoded)
	}

	type alias Metadata
	var decoded alias
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*m = Metadata(decoded)
	return nil
}

// Event is a webhook delivery.
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}
