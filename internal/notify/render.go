package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[Kind]string{
	KindOrderConfirmation: "Order Confirmation - %s",
	KindAdminNewOrder:     "New Order: %s",
	KindOrderShipped:      "Your Order Has Shipped - %s",
	KindOrderDelivered:    "Order Delivered - %s",
	KindOrderCancelled:    "Order Cancelled - %s",
}

var templateNames = map[Kind]string{
	KindOrderConfirmation: "confirmation.html",
	KindAdminNewOrder:     "admin_new_order.html",
	KindOrderShipped:      "shipped.html",
	KindOrderDelivered:    "delivered.html",
	KindOrderCancelled:    "cancelled.html",
}

// Email is a rendered message ready for a Mailer.
type Email struct {
	To      string
	Subject string
	HTML    string
}

type Renderer struct {
	baseURL   string
	templates *template.Template
}

func NewRenderer(baseURL string) (*Renderer, error) {
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"money": formatMoney,
		"date":  func(layout string, t time.Time) string { return t.Format(layout) },
		"mul":   func(price float64, qty int) float64 { return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64() },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/"), templates: tmpl}, nil
}

func (r *Renderer) Render(msg Message) (Email, error) {
	name, ok := templateNames[msg.Kind]
	if !ok {
		return Email{}, fmt.Errorf("notify: unknown message kind %q", msg.Kind)
	}
	if strings.TrimSpace(msg.To) == "" {
		return Email{}, fmt.Errorf("notify: message %s has no recipient", msg.ID)
	}

	subject := fmt.Sprintf(subjects[msg.Kind], msg.OrderNumber)
	if msg.Kind == KindAdminNewOrder {
		subject += " - " + formatMoney(msg.Currency, msg.Total)
	}

	var buf bytes.Buffer
	data := struct {
		Message
		BaseURL string
	}{Message: msg, BaseURL: r.baseURL}
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Email{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Email{To: msg.To, Subject: subject, HTML: buf.String()}, nil
}

// formatMoney renders an amount with thousands separators and two decimals,
// e.g. "KES 12,500.00".
func formatMoney(currency string, amount float64) string {
	fixed := decimal.NewFromFloat(amount).Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	out := sign + grouped.String() + "." + frac
	if currency == "" {
		return out
	}
	return currency + " " + out
}
