package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yashrajoria/order-saga-service/models"
)

// ErrCartVersionConflict is returned when a save loses an optimistic
// concurrency race; callers re-read the cart and retry the mutation.
var ErrCartVersionConflict = errors.New("cart version conflict")

// CartRepository defines the interface for cart data access. Get returns
// (nil, nil) when the customer has no cart yet.
type CartRepository interface {
	Get(ctx context.Context, customerID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
}

// RedisCartRepository stores one JSON cart per customer. Saves use WATCH so a
// concurrent write to the same cart (two browser tabs) fails with
// ErrCartVersionConflict instead of silently losing an update.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func (r *RedisCartRepository) key(customerID string) string {
	return fmt.Sprintf("cart:customer:%s", customerID)
}

func (r *RedisCartRepository) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.key(customerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	key := r.key(cart.CustomerID)

	next := *cart
	next.Version = cart.Version + 1
	next.UpdatedAt = time.Now().UTC()

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			if cart.Version != 0 {
				return ErrCartVersionConflict
			}
		case err != nil:
			return err
		default:
			var stored models.Cart
			if err := json.Unmarshal([]byte(data), &stored); err != nil {
				return err
			}
			if stored.Version != cart.Version {
				return ErrCartVersionConflict
			}
		}

		payload, err := json.Marshal(&next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrCartVersionConflict
	}
	if err != nil {
		return err
	}

	cart.Version = next.Version
	cart.UpdatedAt = next.UpdatedAt
	return nil
}
