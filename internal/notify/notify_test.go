package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/repositories/memory"
)

type recordingMailer struct {
	mu       sync.Mutex
	failures int
	sent     []Email
	calls    int
}

func (m *recordingMailer) Send(_ context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp: 421 try again later")
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer("https://shop.example.com/")
	require.NoError(t, err)
	return renderer
}

func sampleMessage(kind Kind) Message {
	msg := NewMessage(kind, "jane@example.com")
	msg.OrderNumber = "#SWU-2026-00001"
	msg.CustomerName = "Jane"
	msg.CustomerEmail = "jane@example.com"
	msg.Currency = "KES"
	msg.Items = []LineItem{{Name: "Mug & Saucer", Quantity: 2, Price: 1000}}
	msg.Subtotal = 2000
	msg.Total = 2000
	msg.OrderDate = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	return msg
}

func TestRenderEachKind(t *testing.T) {
	renderer := newTestRenderer(t)

	cases := map[Kind]string{
		KindOrderConfirmation: "Order Confirmation - #SWU-2026-00001",
		KindAdminNewOrder:     "New Order: #SWU-2026-00001 - KES 2,000.00",
		KindOrderShipped:      "Your Order Has Shipped - #SWU-2026-00001",
		KindOrderDelivered:    "Order Delivered - #SWU-2026-00001",
		KindOrderCancelled:    "Order Cancelled - #SWU-2026-00001",
	}
	for kind, subject := range cases {
		email, err := renderer.Render(sampleMessage(kind))
		require.NoError(t, err, kind)
		assert.Equal(t, subject, email.Subject)
		assert.Contains(t, email.HTML, "#SWU-2026-00001")
		assert.Equal(t, "jane@example.com", email.To)
	}
}

func TestRenderEscapesAndFormats(t *testing.T) {
	renderer := newTestRenderer(t)

	msg := sampleMessage(KindOrderConfirmation)
	email, err := renderer.Render(msg)
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "Mug &amp; Saucer")
	assert.Contains(t, email.HTML, "KES 2,000.00")
	assert.Contains(t, email.HTML, "March 04, 2026")
	assert.Contains(t, email.HTML, "https://shop.example.com/account/orders")

	shipped := sampleMessage(KindOrderShipped)
	shipped.TrackingNumber = "TRK-42"
	email, err = renderer.Render(shipped)
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "TRK-42")

	cancelled := sampleMessage(KindOrderCancelled)
	cancelled.Reason = "Out of stock"
	email, err = renderer.Render(cancelled)
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "Out of stock")
}

func TestRenderRejectsUnknownKindAndMissingRecipient(t *testing.T) {
	renderer := newTestRenderer(t)

	_, err := renderer.Render(Message{Kind: "sms"})
	assert.Error(t, err)

	msg := sampleMessage(KindOrderDelivered)
	msg.To = ""
	_, err = renderer.Render(msg)
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "KES 0.00", formatMoney("KES", 0))
	assert.Equal(t, "KES 999.50", formatMoney("KES", 999.5))
	assert.Equal(t, "KES 1,234,567.89", formatMoney("KES", 1234567.891))
	assert.Equal(t, "-1,000.00", formatMoney("", -1000))
}

func TestDelivererRetriesTransientFailures(t *testing.T) {
	mailer := &recordingMailer{failures: 2}
	failures := &memory.NotificationFailureRepository{}
	deliverer := NewDeliverer(newTestRenderer(t), mailer, failures, nil,
		WithMaxAttempts(3), WithBackoff(time.Millisecond, 2*time.Millisecond))

	require.NoError(t, deliverer.Deliver(context.Background(), sampleMessage(KindOrderShipped)))
	assert.Len(t, mailer.Sent(), 1)

	recorded, err := failures.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestDelivererRecordsExhaustedMessages(t *testing.T) {
	mailer := &recordingMailer{failures: 100}
	failures := &memory.NotificationFailureRepository{}
	deliverer := NewDeliverer(newTestRenderer(t), mailer, failures, nil,
		WithMaxAttempts(3), WithBackoff(time.Millisecond, 2*time.Millisecond))

	msg := sampleMessage(KindOrderCancelled)
	err := deliverer.Deliver(context.Background(), msg)
	require.Error(t, err)

	recorded, err := failures.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, msg.ID, recorded[0].MessageID)
	assert.Equal(t, 3, recorded[0].Attempts)
	assert.Equal(t, string(KindOrderCancelled), recorded[0].Kind)
	assert.Contains(t, recorded[0].LastError, "421")
}

func TestDelivererDoesNotRetryRenderErrors(t *testing.T) {
	mailer := &recordingMailer{}
	failures := &memory.NotificationFailureRepository{}
	deliverer := NewDeliverer(newTestRenderer(t), mailer, failures, nil, WithMaxAttempts(5))

	err := deliverer.Deliver(context.Background(), Message{ID: "x", Kind: "fax", To: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, 0, mailer.calls)

	recorded, _ := failures.Recent(context.Background(), 10)
	require.Len(t, recorded, 1)
	assert.Equal(t, 1, recorded[0].Attempts)
}

func TestAsyncDispatcherDeliversAndDrains(t *testing.T) {
	mailer := &recordingMailer{}
	deliverer := NewDeliverer(newTestRenderer(t), mailer, nil, nil)
	dispatcher := NewAsyncDispatcher(deliverer, 2, 16, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Dispatch(context.Background(), sampleMessage(KindOrderDelivered)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Close(ctx))
	assert.Len(t, mailer.Sent(), 5)

	assert.ErrorIs(t, dispatcher.Dispatch(context.Background(), sampleMessage(KindOrderDelivered)), ErrClosed)
	assert.NoError(t, dispatcher.Close(ctx))
}

type blockingMailer struct {
	release chan struct{}
}

func (m blockingMailer) Send(ctx context.Context, _ Email) error {
	select {
	case <-m.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestAsyncDispatcherDropsWhenFull(t *testing.T) {
	mailer := blockingMailer{release: make(chan struct{})}
	failures := &memory.NotificationFailureRepository{}
	deliverer := NewDeliverer(newTestRenderer(t), mailer, failures, nil, WithMaxAttempts(1))
	dispatcher := NewAsyncDispatcher(deliverer, 1, 1, nil)

	var full bool
	for i := 0; i < 10 && !full; i++ {
		err := dispatcher.Dispatch(context.Background(), sampleMessage(KindOrderShipped))
		full = errors.Is(err, ErrQueueFull)
	}
	assert.True(t, full)

	recorded, _ := failures.Recent(context.Background(), 10)
	assert.NotEmpty(t, recorded)

	close(mailer.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Close(ctx))
}
