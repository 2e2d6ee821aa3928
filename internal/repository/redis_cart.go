package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stridelab/stridefit/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const cartKeyPrefix = "cart:session:"

// cartTTL keeps abandoned carts around for a week before Redis
// reclaims them; every save refreshes the window.
const cartTTL = 7 * 24 * time.Hour

// RedisCartRepository implements domain.CartRepository using Redis.
// The cart is stored as one JSON snapshot per browser session; a save
// replaces the whole snapshot, so concurrent tabs converge on
// last-write-wins.
type RedisCartRepository struct {
	client *redis.Client
}

// NewRedisCartRepository creates a new Redis cart repository
func NewRedisCartRepository(client *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
	}
}

// Get retrieves the cart snapshot for a session.
// Returns domain.ErrNotFound when no cart exists yet.
func (r *RedisCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "cart.Get",
		trace.WithAttributes(attribute.String("cart.session_id", sessionID)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Save persists the cart snapshot and refreshes its TTL
func (r *RedisCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "cart.Save",
		trace.WithAttributes(
			attribute.String("cart.session_id", cart.SessionID),
			attribute.Int("cart.items", len(cart.Items)),
		),
	)
	defer span.End()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKeyPrefix+cart.SessionID, data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the cart snapshot for a session. Deleting an absent
// cart is not an error.
func (r *RedisCartRepository) Delete(ctx context.Context, sessionID string) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "cart.Delete",
		trace.WithAttributes(attribute.String("cart.session_id", sessionID)),
	)
	defer span.End()

	if err := r.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
