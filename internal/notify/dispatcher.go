package notify

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("notify: queue full")
	ErrClosed    = errors.New("notify: dispatcher closed")
)

// Dispatcher hands a message off for delivery without waiting for it to be
// sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// AsyncDispatcher delivers messages on a bounded in-process queue drained by
// a fixed worker pool.
type AsyncDispatcher struct {
	deliverer *Deliverer
	logger    *zap.Logger
	queue     chan Message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func NewAsyncDispatcher(deliverer *Deliverer, workers, queueSize int, logger *zap.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &AsyncDispatcher{
		deliverer: deliverer,
		logger:    logger,
		queue:     make(chan Message, queueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Warn("notification queue full, dropping message",
			zap.String("message_id", msg.ID),
			zap.String("kind", string(msg.Kind)),
		)
		d.deliverer.recordFailure(msg, 0, ErrQueueFull)
		return ErrQueueFull
	}
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		_ = d.deliverer.Deliver(d.ctx, msg)
	}
}

// Close stops accepting messages and waits for queued ones to drain. When ctx
// ends first, in-flight retries are cancelled.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
