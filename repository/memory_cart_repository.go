package repository

import (
	"context"
	"sync"
	"time"

	"github.com/yashrajoria/order-saga-service/models"
)

// MemoryCartRepository implements CartRepository with the same optimistic
// concurrency semantics as the Redis implementation.
type MemoryCartRepository struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*models.Cart)}
}

func (r *MemoryCartRepository) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[customerID]
	if !ok {
		return nil, nil
	}
	return cloneCart(cart), nil
}

func (r *MemoryCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[cart.CustomerID]
	if !ok {
		if cart.Version != 0 {
			return ErrCartVersionConflict
		}
	} else if stored.Version != cart.Version {
		return ErrCartVersionConflict
	}

	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
	r.carts[cart.CustomerID] = cloneCart(cart)
	return nil
}

func cloneCart(cart *models.Cart) *models.Cart {
	clone := *cart
	clone.Items = append([]models.CartItem(nil), cart.Items...)
	return &clone
}
