// Package memory provides in-memory repositories for tests and local
// development (STORE_DRIVER=memory). They enforce the same uniqueness and
// conditional-update rules as the Mongo indexes and filters.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

type Store struct {
	Orders               *OrderRepository
	Products             *ProductRepository
	Users                *UserRepository
	Counters             *CounterRepository
	NotificationFailures *NotificationFailureRepository
}

func NewStore() *Store {
	return &Store{
		Orders:               NewOrderRepository(),
		Products:             NewProductRepository(),
		Users:                NewUserRepository(),
		Counters:             NewCounterRepository(),
		NotificationFailures: &NotificationFailureRepository{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// OrderRepository stores orders keyed by hex id.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]models.Order)}
}

func (r *OrderRepository) Insert(_ context.Context, order models.Order) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.PaymentReference == order.PaymentReference {
			return models.Order{}, repositories.ErrDuplicate
		}
		if order.OrderNumber != "" && existing.OrderNumber == order.OrderNumber {
			return models.Order{}, repositories.ErrDuplicate
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	r.orders[order.ID.Hex()] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return models.Order{}, repositories.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) FindByPaymentReference(_ context.Context, reference string) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range r.orders {
		if order.PaymentReference == reference {
			return cloneOrder(order), nil
		}
	}
	return models.Order{}, repositories.ErrNotFound
}

func (r *OrderRepository) FindForUser(_ context.Context, userID, orderID string) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || order.UserID.Hex() != userID {
		return models.Order{}, repositories.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) ApplyStatusChange(_ context.Context, id string, change repositories.StatusChange) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return models.Order{}, repositories.ErrNotFound
	}
	if order.OrderStatus != change.ExpectedStatus {
		return models.Order{}, repositories.ErrConflict
	}

	order.OrderStatus = change.Status
	order.IsNewOrder = false
	order.UpdatedAt = change.UpdatedAt
	if change.TrackingNumber != "" {
		order.TrackingNumber = change.TrackingNumber
	}
	order.StatusHistory = append(order.StatusHistory, change.Entry)
	r.orders[id] = order
	return cloneOrder(order), nil
}

func (r *OrderRepository) List(_ context.Context, filter repositories.OrderFilter) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Order, 0)
	for _, order := range r.orders {
		if filter.Status != "" && order.OrderStatus != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(order.OrderNumber), search) &&
			!strings.Contains(strings.ToLower(order.PaymentReference), search) {
			continue
		}
		out = append(out, cloneOrder(order))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsNewOrder != out[j].IsNewOrder {
			return out[i].IsNewOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OrderRepository) ListForUser(_ context.Context, userID string, filter repositories.UserOrderFilter) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID.Hex() != userID {
			continue
		}
		if filter.Status != "" && order.OrderStatus != filter.Status {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []models.Order{}, total, nil
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *OrderRepository) Stats(_ context.Context, window repositories.StatsWindow) (repositories.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := repositories.OrderStats{ByStatus: map[models.OrderStatus]int64{}}
	all := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		all = append(all, cloneOrder(order))
		stats.TotalOrders++
		stats.ByStatus[order.OrderStatus]++
		if order.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		if !order.CreatedAt.Before(window.DayStart) {
			stats.SalesToday += order.Total
		}
		if !order.CreatedAt.Before(window.WeekStart) {
			stats.SalesThisWeek += order.Total
		}
		if !order.CreatedAt.Before(window.MonthStart) {
			stats.SalesThisMonth += order.Total
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	size := window.RecentSize
	if size <= 0 {
		size = 10
	}
	if int64(len(all)) > size {
		all = all[:size]
	}
	stats.Recent = all
	return stats, nil
}

func cloneOrder(order models.Order) models.Order {
	order.Items = append([]models.OrderItem(nil), order.Items...)
	order.StatusHistory = append([]models.StatusHistoryEntry(nil), order.StatusHistory...)
	return order
}

// ProductRepository keeps products keyed by hex id.
type ProductRepository struct {
	mu       sync.Mutex
	products map[string]models.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]models.Product)}
}

// Put inserts or replaces a product and returns its hex id.
func (r *ProductRepository) Put(product models.Product) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	r.products[product.ID.Hex()] = product
	return product.ID.Hex()
}

// Stock returns the current stock for id, or -1 when the product is unknown.
func (r *ProductRepository) Stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return -1
	}
	return product.Stock
}

func (r *ProductRepository) IncrementStock(_ context.Context, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return repositories.ErrNotFound
	}
	product.Stock += quantity
	product.UpdatedAt = time.Now().UTC()
	r.products[productID] = product
	return nil
}

func (r *ProductRepository) DecrementStockClamped(_ context.Context, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return repositories.ErrNotFound
	}
	product.Stock -= quantity
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.UpdatedAt = time.Now().UTC()
	r.products[productID] = product
	return nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return models.Product{}, repositories.ErrNotFound
	}
	product.InStock = product.Stock > 0
	return product, nil
}

func (r *ProductRepository) FindBySlug(_ context.Context, slug string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, product := range r.products {
		if product.Slug == slug {
			product.InStock = product.Stock > 0
			return product, nil
		}
	}
	return models.Product{}, repositories.ErrNotFound
}

func (r *ProductRepository) List(_ context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Product, 0)
	for _, product := range r.products {
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(product.Name), search) {
			continue
		}
		product.InStock = product.Stock > 0
		out = append(out, product)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UserRepository keeps users keyed by hex id with a unique email.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]models.User)}
}

func (r *UserRepository) Insert(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return models.User{}, repositories.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID.Hex()] = user
	return user, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

type CounterRepository struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewCounterRepository() *CounterRepository {
	return &CounterRepository{values: make(map[string]int64)}
}

func (r *CounterRepository) Next(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[name]++
	return r.values[name], nil
}

type NotificationFailureRepository struct {
	mu       sync.Mutex
	failures []repositories.NotificationFailure
}

func (r *NotificationFailureRepository) Record(_ context.Context, failure repositories.NotificationFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, failure)
	return nil
}

func (r *NotificationFailureRepository) Recent(_ context.Context, limit int64) ([]repositories.NotificationFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]repositories.NotificationFailure, 0, len(r.failures))
	for i := len(r.failures) - 1; i >= 0; i-- {
		out = append(out, r.failures[i])
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}
