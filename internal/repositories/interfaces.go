package repositories

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrConflict is returned when a conditional update matched no document
	// because the stored state changed underneath the caller.
	ErrConflict = errors.New("repository: conflict")
)

// Transactor runs fn as one atomic unit. Repositories called with the context
// handed to fn participate in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a function to the Transactor interface.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTransaction runs fn directly. Used for standalone Mongo deployments that
// cannot open multi-document transactions.
var NoTransaction Transactor = TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

// StatusChange is applied to an order by the status machine.
type StatusChange struct {
	ExpectedStatus models.OrderStatus
	Status         models.OrderStatus
	Entry          models.StatusHistoryEntry
	TrackingNumber string
	UpdatedAt      time.Time
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status models.OrderStatus
	Search string
	Limit  int64
}

// UserOrderFilter narrows a customer's own order listing.
type UserOrderFilter struct {
	Status models.OrderStatus
	Page   int64
	Limit  int64
}

// OrderStats aggregates dashboard numbers for the admin overview.
type OrderStats struct {
	SalesToday     float64
	SalesThisWeek  float64
	SalesThisMonth float64
	TotalOrders    int64
	ByStatus       map[models.OrderStatus]int64
	Recent         []models.Order
}

// StatsWindow carries the lower bounds used by Stats.
type StatsWindow struct {
	DayStart   time.Time
	WeekStart  time.Time
	MonthStart time.Time
	RecentSize int64
}

type OrderRepository interface {
	Insert(ctx context.Context, order models.Order) (models.Order, error)
	FindByID(ctx context.Context, id string) (models.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (models.Order, error)
	FindForUser(ctx context.Context, userID, orderID string) (models.Order, error)
	// ApplyStatusChange appends the history entry and sets the new status only
	// when the stored status still equals change.ExpectedStatus.
	ApplyStatusChange(ctx context.Context, id string, change StatusChange) (models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	ListForUser(ctx context.Context, userID string, filter UserOrderFilter) ([]models.Order, int64, error)
	Stats(ctx context.Context, window StatsWindow) (OrderStats, error)
}

// ProductRepository exposes the stock primitives used by the inventory ledger
// plus the catalog reads.
type ProductRepository interface {
	IncrementStock(ctx context.Context, productID string, quantity int) error
	DecrementStockClamped(ctx context.Context, productID string, quantity int) error
	FindByID(ctx context.Context, id string) (models.Product, error)
	FindBySlug(ctx context.Context, slug string) (models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
}

type ProductFilter struct {
	Category string
	Search   string
	Limit    int64
}

type UserRepository interface {
	Insert(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// CounterRepository hands out strictly increasing sequence values per name.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

// NotificationFailure is one undeliverable notification kept for operators.
type NotificationFailure struct {
	MessageID   string    `bson:"messageId" json:"messageId"`
	Kind        string    `bson:"kind" json:"kind"`
	Recipient   string    `bson:"recipient" json:"recipient"`
	OrderNumber string    `bson:"orderNumber" json:"orderNumber"`
	Attempts    int       `bson:"attempts" json:"attempts"`
	LastError   string    `bson:"lastError" json:"lastError"`
	FailedAt    time.Time `bson:"failedAt" json:"failedAt"`
}

type NotificationFailureRepository interface {
	Record(ctx context.Context, failure NotificationFailure) error
	Recent(ctx context.Context, limit int64) ([]NotificationFailure, error)
}

// Pinger reports store reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
