// Package orders turns confirmed payments into orders and drives the order
// status lifecycle with its inventory and notification side effects.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/inventory"
	"storefront/internal/locks"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/repositories"
)

const (
	defaultOrderNumberPrefix = "SWU"
	defaultCurrency          = "KES"
	defaultPaymentMethod     = "paystack"
	defaultAdminEmail        = "admin@shopwithus.com"

	userOrdersPageSize = 10
	adminOrdersLimit   = 100
	recentOrdersSize   = 10
)

// ServiceDeps wires the collaborators of Service.
type ServiceDeps struct {
	Orders       repositories.OrderRepository
	Users        repositories.UserRepository
	Counters     repositories.CounterRepository
	Ledger       *inventory.Ledger
	Transactor   repositories.Transactor
	Locker       locks.Locker
	Dispatcher   notify.Dispatcher
	StateMachine *StateMachine
	Logger       *zap.Logger
	Clock        func() time.Time

	OrderNumberPrefix string
	Currency          string
	AdminEmail        string
}

type Service struct {
	orders     repositories.OrderRepository
	users      repositories.UserRepository
	counters   repositories.CounterRepository
	ledger     *inventory.Ledger
	tx         repositories.Transactor
	locker     locks.Locker
	dispatcher notify.Dispatcher
	machine    *StateMachine
	logger     *zap.Logger
	clock      func() time.Time

	prefix     string
	currency   string
	adminEmail string
}

func NewService(deps ServiceDeps) (*Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, errors.New("order service: order repository is required")
	case deps.Users == nil:
		return nil, errors.New("order service: user repository is required")
	case deps.Counters == nil:
		return nil, errors.New("order service: counter repository is required")
	case deps.Ledger == nil:
		return nil, errors.New("order service: inventory ledger is required")
	case deps.Dispatcher == nil:
		return nil, errors.New("order service: notification dispatcher is required")
	}

	s := &Service{
		orders:     deps.Orders,
		users:      deps.Users,
		counters:   deps.Counters,
		ledger:     deps.Ledger,
		tx:         deps.Transactor,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		machine:    deps.StateMachine,
		logger:     deps.Logger,
		clock:      deps.Clock,
		prefix:     strings.TrimSpace(deps.OrderNumberPrefix),
		currency:   strings.TrimSpace(deps.Currency),
		adminEmail: strings.TrimSpace(deps.AdminEmail),
	}
	if s.tx == nil {
		s.tx = repositories.NoTransaction
	}
	if s.locker == nil {
		s.locker = locks.NewMemory()
	}
	if s.machine == nil {
		s.machine = NewStateMachine(false)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.prefix == "" {
		s.prefix = defaultOrderNumberPrefix
	}
	if s.currency == "" {
		s.currency = defaultCurrency
	}
	if s.adminEmail == "" {
		s.adminEmail = defaultAdminEmail
	}
	return s, nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// nextOrderNumber allocates #PREFIX-YEAR-NNNNN from a per-year counter.
func (s *Service) nextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, fmt.Sprintf("orders:%04d", now.Year()))
	if err != nil {
		return "", fmt.Errorf("allocate order number: %w", err)
	}
	return FormatOrderNumber(s.prefix, now.Year(), seq), nil
}

func FormatOrderNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("#%s-%d-%05d", prefix, year, seq)
}

// Get returns any order by id.
func (s *Service) Get(ctx context.Context, id string) (models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, translateRepoError(err)
	}
	return order, nil
}

// GetForUser returns the order only when it belongs to userID.
func (s *Service) GetForUser(ctx context.Context, userID, id string) (models.Order, error) {
	order, err := s.orders.FindForUser(ctx, userID, id)
	if err != nil {
		return models.Order{}, translateRepoError(err)
	}
	return order, nil
}

// AdminListFilter narrows the back-office order list.
type AdminListFilter struct {
	Status string
	Search string
}

func (s *Service) AdminList(ctx context.Context, filter AdminListFilter) ([]models.Order, error) {
	repoFilter := repositories.OrderFilter{Search: strings.TrimSpace(filter.Search), Limit: adminOrdersLimit}
	if status := strings.TrimSpace(filter.Status); status != "" && status != "all" {
		if !models.OrderStatus(status).Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		repoFilter.Status = models.OrderStatus(status)
	}
	return s.orders.List(ctx, repoFilter)
}

// UserOrderPage is one page of a customer's orders.
type UserOrderPage struct {
	Orders     []models.Order `json:"orders"`
	Page       int64          `json:"page"`
	TotalPages int64          `json:"totalPages"`
	Total      int64          `json:"total"`
}

func (s *Service) ListForUser(ctx context.Context, userID, status string, page int64) (UserOrderPage, error) {
	if page < 1 {
		page = 1
	}
	filter := repositories.UserOrderFilter{Page: page, Limit: userOrdersPageSize}
	if status = strings.TrimSpace(status); status != "" && status != "all" {
		if !models.OrderStatus(status).Valid() {
			return UserOrderPage{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		filter.Status = models.OrderStatus(status)
	}

	orders, total, err := s.orders.ListForUser(ctx, userID, filter)
	if err != nil {
		return UserOrderPage{}, err
	}
	return UserOrderPage{
		Orders:     orders,
		Page:       page,
		TotalPages: (total + userOrdersPageSize - 1) / userOrdersPageSize,
		Total:      total,
	}, nil
}

// Stats computes dashboard figures relative to now. Weeks start on Monday.
func (s *Service) Stats(ctx context.Context) (repositories.OrderStats, error) {
	return s.orders.Stats(ctx, StatsWindowAt(s.now()))
}

func StatsWindowAt(now time.Time) repositories.StatsWindow {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return repositories.StatsWindow{
		DayStart:   day,
		WeekStart:  day.AddDate(0, 0, -offset),
		MonthStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		RecentSize: recentOrdersSize,
	}
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repositories.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
