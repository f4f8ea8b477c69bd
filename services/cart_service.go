package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yashrajoria/order-saga-service/models"
	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
	"github.com/yashrajoria/order-saga-service/pkg/logger"
	"github.com/yashrajoria/order-saga-service/repository"
)

// maxCartRetries bounds optimistic-concurrency retries on a version conflict.
const maxCartRetries = 3

// CartService manages the per-customer staging area before an order exists.
// All mutations are read-modify-write against one customer-scoped record and
// retry on a lost optimistic-concurrency race.
type CartService struct {
	carts     repository.CartRepository
	products  ProductGateway
	inventory InventoryGateway
}

func NewCartService(carts repository.CartRepository, products ProductGateway, inventory InventoryGateway) *CartService {
	return &CartService{carts: carts, products: products, inventory: inventory}
}

// GetCart returns the customer's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load cart", err)
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}
	if err := s.carts.Save(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrCartVersionConflict) {
			// raced with a concurrent first write; the stored cart wins
			cart, err = s.carts.Get(ctx, customerID)
			if err == nil && cart != nil {
				return cart, nil
			}
		}
		return nil, apperrors.Persistence("failed to create cart", err)
	}
	return cart, nil
}

// AddItem validates availability, then upserts the product into the cart,
// merging quantity when the product is already present.
func (s *CartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("quantity must be greater than zero")
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, customerID, func(cart *models.Cart) error {
		desired := quantity
		if i := cart.FindItem(productID); i >= 0 {
			desired += cart.Items[i].Quantity
		}

		available, err := s.checkAvailability(ctx, productID, desired)
		if err != nil {
			return err
		}

		item := models.CartItem{
			ProductID:      productID,
			SellerID:       product.SellerID,
			ProductName:    product.Name,
			ImageURL:       product.ImageURL,
			Quantity:       desired,
			UnitPrice:      product.Price,
			AvailableStock: available,
			AddedAt:        time.Now().UTC(),
		}
		if i := cart.FindItem(productID); i >= 0 {
			item.AddedAt = cart.Items[i].AddedAt
			cart.Items[i] = item
		} else {
			cart.Items = append(cart.Items, item)
		}
		return nil
	})
}

// UpdateItemQuantity overwrites an item's quantity; a quantity of zero or
// less removes the item.
func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, customerID, productID)
	}

	return s.mutate(ctx, customerID, func(cart *models.Cart) error {
		i := cart.FindItem(productID)
		if i < 0 {
			return apperrors.NotFound("item not in cart")
		}

		available, err := s.checkAvailability(ctx, productID, quantity)
		if err != nil {
			return err
		}

		cart.Items[i].Quantity = quantity
		cart.Items[i].AvailableStock = available
		return nil
	})
}

// RemoveItem deletes the product's line from the cart. Removing a product
// that is not in the cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string) (*models.Cart, error) {
	return s.mutate(ctx, customerID, func(cart *models.Cart) error {
		items := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ProductID != productID {
				items = append(items, item)
			}
		}
		cart.Items = items
		return nil
	})
}

// ClearCart empties the cart without deleting the record.
func (s *CartService) ClearCart(ctx context.Context, customerID string) (*models.Cart, error) {
	return s.mutate(ctx, customerID, func(cart *models.Cart) error {
		cart.Items = []models.CartItem{}
		return nil
	})
}

// mutate runs the read-modify-write cycle with bounded retries so a
// concurrent mutation of the same cart cannot silently lose an update.
func (s *CartService) mutate(ctx context.Context, customerID string, apply func(cart *models.Cart) error) (*models.Cart, error) {
	for attempt := 0; attempt < maxCartRetries; attempt++ {
		cart, err := s.carts.Get(ctx, customerID)
		if err != nil {
			return nil, apperrors.Persistence("failed to load cart", err)
		}
		if cart == nil {
			cart = &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}
		}

		if err := apply(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()

		err = s.carts.Save(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if errors.Is(err, repository.ErrCartVersionConflict) {
			logger.Log.Debug("cart save conflict, retrying",
				zap.String("customer_id", customerID), zap.Int("attempt", attempt+1))
			continue
		}
		return nil, apperrors.Persistence("failed to save cart", err)
	}
	return nil, apperrors.Conflict("cart was modified concurrently, please retry")
}

func (s *CartService) checkAvailability(ctx context.Context, productID string, quantity int) (int, error) {
	check, err := s.inventory.CheckStock(ctx, []ReserveItem{{ProductID: productID, Quantity: quantity}})
	if err != nil {
		return 0, err
	}
	for _, item := range check.Items {
		if item.ProductID != productID {
			continue
		}
		if !item.Available {
			return 0, apperrors.ConflictWithDetails("insufficient stock", []models.UnavailableItem{{
				ProductID: productID,
				Required:  quantity,
				Available: item.AvailableStock,
			}})
		}
		return item.AvailableStock, nil
	}
	return 0, apperrors.UpstreamRejected("inventory response missing product " + productID)
}
