package notify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"storefront/internal/repositories"
)

const (
	defaultMaxAttempts     = 5
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
)

// Deliverer renders a message and sends it, retrying transient mailer
// failures with exponential backoff. Messages that exhaust their attempts are
// written to the failure log.
type Deliverer struct {
	renderer        *Renderer
	mailer          Mailer
	failures        repositories.NotificationFailureRepository
	logger          *zap.Logger
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

type DelivererOption func(*Deliverer)

func WithMaxAttempts(n int) DelivererOption {
	return func(d *Deliverer) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff overrides the retry intervals.
func WithBackoff(initial, max time.Duration) DelivererOption {
	return func(d *Deliverer) {
		if initial > 0 {
			d.initialInterval = initial
		}
		if max > 0 {
			d.maxInterval = max
		}
	}
}

func NewDeliverer(renderer *Renderer, mailer Mailer, failures repositories.NotificationFailureRepository, logger *zap.Logger, opts ...DelivererOption) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deliverer{
		renderer:        renderer,
		mailer:          mailer,
		failures:        failures,
		logger:          logger,
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver returns the final error after retries, once it has been recorded.
func (d *Deliverer) Deliver(ctx context.Context, msg Message) error {
	logger := d.logger.With(
		zap.String("message_id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("order_number", msg.OrderNumber),
	)

	attempts := 0
	operation := func() error {
		attempts++
		email, err := d.renderer.Render(msg)
		if err != nil {
			return backoff.Permanent(err)
		}
		return d.mailer.Send(ctx, email)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.initialInterval
	policy.MaxInterval = d.maxInterval
	policy.MaxElapsedTime = 0

	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(d.maxAttempts-1)), ctx)
	err := backoff.RetryNotify(operation, retry, func(err error, wait time.Duration) {
		logger.Warn("email send failed, retrying", zap.Int("attempt", attempts), zap.Duration("wait", wait), zap.Error(err))
	})
	if err == nil {
		logger.Info("email sent", zap.String("to", msg.To), zap.Int("attempts", attempts))
		return nil
	}

	logger.Error("email delivery failed", zap.Int("attempts", attempts), zap.Error(err))
	d.recordFailure(msg, attempts, err)
	return err
}

func (d *Deliverer) recordFailure(msg Message, attempts int, cause error) {
	if d.failures == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	failure := repositories.NotificationFailure{
		MessageID:   msg.ID,
		Kind:        string(msg.Kind),
		Recipient:   msg.To,
		OrderNumber: msg.OrderNumber,
		Attempts:    attempts,
		LastError:   cause.Error(),
		FailedAt:    time.Now().UTC(),
	}
	if err := d.failures.Record(ctx, failure); err != nil {
		d.logger.Error("failed to record notification failure", zap.String("message_id", msg.ID), zap.Error(err))
	}
}
