package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/inventory"
	"storefront/internal/locks"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/payments"
	"storefront/internal/repositories/memory"
)

const testAdminEmail = "ops@shop.example.com"

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return d.err
}

func (d *recordingDispatcher) Messages() []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Message(nil), d.msgs...)
}

func (d *recordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = nil
}

// steppingClock advances one second on every read.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store      *memory.Store
	dispatcher *recordingDispatcher
	service    *Service
	user       models.User
}

func newFixture(t *testing.T, configure ...func(*ServiceDeps)) *fixture {
	t.Helper()

	store := memory.NewStore()
	dispatcher := &recordingDispatcher{}
	clock := &steppingClock{now: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)}

	deps := ServiceDeps{
		Orders:     store.Orders,
		Users:      store.Users,
		Counters:   store.Counters,
		Ledger:     inventory.NewLedger(store.Products, nil),
		Locker:     locks.NewMemory(),
		Dispatcher: dispatcher,
		Clock:      clock.Now,
		AdminEmail: testAdminEmail,
	}
	for _, fn := range configure {
		fn(&deps)
	}
	service, err := NewService(deps)
	require.NoError(t, err)

	user, err := store.Users.Insert(context.Background(), models.User{
		Email: "jane@example.com",
		Name:  "Jane Doe",
		Role:  models.RoleUser,
	})
	require.NoError(t, err)

	return &fixture{store: store, dispatcher: dispatcher, service: service, user: user}
}

func (f *fixture) addProduct(name string, stock int) string {
	return f.store.Products.Put(models.Product{Name: name, Slug: name, Price: 1000, Stock: stock})
}

// paidTransaction builds a successful transaction whose captured amount equals
// the cart subtotal.
func paidTransaction(reference, email string, items ...payments.MetadataItem) payments.Transaction {
	var amount int64
	for _, item := range items {
		amount += int64(item.Price*100) * int64(item.Quantity)
	}
	return payments.Transaction{
		Status:    payments.StatusSuccess,
		Reference: reference,
		Amount:    amount,
		Currency:  "KES",
		Customer:  payments.Customer{Email: email, FirstName: "Jane", LastName: "Doe"},
		Metadata: payments.Metadata{
			Items: items,
			ShippingAddress: payments.MetadataAddress{
				Address: "1 Moi Avenue",
				City:    "Nairobi",
				Country: "Kenya",
			},
		},
	}
}

// createOrder reconciles a fresh payment for one line item and clears
// recorded notifications.
func (f *fixture) createOrder(t *testing.T, reference, productID string, quantity int) models.Order {
	t.Helper()
	result, err := f.service.Reconcile(context.Background(), paidTransaction(reference, f.user.Email,
		payments.MetadataItem{ID: productID, Name: "Item", Price: 1000, Quantity: quantity}))
	require.NoError(t, err)
	require.False(t, result.AlreadyProcessed)
	f.dispatcher.Reset()
	return result.Order
}

// advance walks an order through statuses and clears recorded notifications.
func (f *fixture) advance(t *testing.T, id string, statuses ...models.OrderStatus) models.Order {
	t.Helper()
	var order models.Order
	for _, status := range statuses {
		var err error
		order, err = f.service.UpdateStatus(context.Background(), StatusUpdate{OrderID: id, Status: status, ActorID: "admin-1"})
		require.NoError(t, err)
	}
	f.dispatcher.Reset()
	return order
}
