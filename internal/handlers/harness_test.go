package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/inventory"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/repositories/memory"
)

const (
	webhookSecret = "sk_test_webhook"
	sessionSecret = "session-secret"
	testPassword  = "hunter22"
)

type captureDispatcher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (d *captureDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *captureDispatcher) kinds() []notify.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Kind, 0, len(d.msgs))
	for _, msg := range d.msgs {
		out = append(out, msg.Kind)
	}
	return out
}

type stubGateway struct {
	transactions map[string]payments.Transaction
}

func (g *stubGateway) Initialize(_ context.Context, req payments.InitializeRequest) (payments.Authorization, error) {
	return payments.Authorization{AuthorizationURL: "https://checkout.paystack.com/abc", Reference: req.Reference}, nil
}

func (g *stubGateway) Verify(_ context.Context, reference string) (payments.Transaction, error) {
	tx, ok := g.transactions[reference]
	if !ok {
		return payments.Transaction{}, &payments.ProviderError{StatusCode: http.StatusBadRequest, Message: "Transaction reference not found"}
	}
	return tx, nil
}

type harness struct {
	router     *gin.Engine
	store      *memory.Store
	dispatcher *captureDispatcher
	gateway    *stubGateway
	customer   models.User
	admin      models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	dispatcher := &captureDispatcher{}
	gateway := &stubGateway{transactions: map[string]payments.Transaction{}}

	service, err := orders.NewService(orders.ServiceDeps{
		Orders:     store.Orders,
		Users:      store.Users,
		Counters:   store.Counters,
		Ledger:     inventory.NewLedger(store.Products, nil),
		Dispatcher: dispatcher,
	})
	require.NoError(t, err)

	checkout, err := orders.NewCheckout(orders.CheckoutDeps{
		Gateway:       gateway,
		Reconciler:    service,
		WebhookSecret: webhookSecret,
	})
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Session:  SessionConfig{Secret: sessionSecret, TTL: time.Hour},
		Accounts: store.Users,
		Catalog:  store.Products,
		Orders:   service,
		Payments: checkout,
		Failures: store.NotificationFailures,
		Store:    store,
	})

	h := &harness{router: r, store: store, dispatcher: dispatcher, gateway: gateway}
	h.customer = h.addUser(t, "jane@example.com", "Jane Doe", models.RoleUser)
	h.admin = h.addUser(t, "ops@example.com", "Ops", models.RoleAdmin)
	return h
}

func (h *harness) addUser(t *testing.T, email, name, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := h.store.Users.Insert(context.Background(), models.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	return user
}

func (h *harness) addProduct(slug string, stock int) string {
	return h.store.Products.Put(models.Product{Name: slug, Slug: slug, Price: 1000, Stock: stock})
}

func (h *harness) session(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	token, err := middleware.IssueToken(user, sessionSecret, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.TokenCookie, Value: token}
}

func (h *harness) do(t *testing.T, method, path string, body any, cookie *http.Cookie, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func chargeSuccess(reference, email string, items ...payments.MetadataItem) payments.Event {
	var amount int64
	for _, item := range items {
		amount += int64(item.Price*100) * int64(item.Quantity)
	}
	return payments.Event{
		Event: payments.EventChargeSuccess,
		Data: payments.Transaction{
			Status:    payments.StatusSuccess,
			Reference: reference,
			Amount:    amount,
			Currency:  "KES",
			Customer:  payments.Customer{Email: email, FirstName: "Jane", LastName: "Doe"},
			Metadata: payments.Metadata{
				Items:           items,
				ShippingAddress: payments.MetadataAddress{Address: "1 Moi Avenue", City: "Nairobi", Country: "Kenya"},
			},
		},
	}
}

func (h *harness) postWebhook(t *testing.T, event payments.Event, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return h.do(t, http.MethodPost, "/api/paystack/webhook", body, nil,
		payments.SignatureHeader, payments.Sign(secret, body))
}

// placeOrder creates an order through the webhook and returns its id.
func (h *harness) placeOrder(t *testing.T, reference, productID string, quantity int) string {
	t.Helper()
	w := h.postWebhook(t, chargeSuccess(reference, h.customer.Email,
		payments.MetadataItem{ID: productID, Name: "Item", Price: 1000, Quantity: quantity}), webhookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	require.NotEmpty(t, resp.OrderID)
	return resp.OrderID
}
