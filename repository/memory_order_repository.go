package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yashrajoria/order-saga-service/models"
)

// MemoryOrderRepository is an in-memory OrderRepository used by tests and for
// running the service without Postgres.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*models.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[uuid.UUID]*models.Order)}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *MemoryOrderRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			matched = append(matched, order)
		}
	}
	return paginate(matched, page, limit)
}

func (r *MemoryOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		matched = append(matched, order)
	}
	return paginate(matched, page, limit)
}

func (r *MemoryOrderRepository) Update(ctx context.Context, order *models.Order) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func paginate(orders []*models.Order, page, limit int) ([]models.Order, int64, error) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	total := int64(len(orders))
	start := (page - 1) * limit
	if start >= len(orders) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}

	out := make([]models.Order, 0, end-start)
	for _, order := range orders[start:end] {
		out = append(out, *cloneOrder(order))
	}
	return out, total, nil
}

func cloneOrder(order *models.Order) *models.Order {
	clone := *order
	clone.OrderItems = append([]models.OrderItem(nil), order.OrderItems...)
	return &clone
}
