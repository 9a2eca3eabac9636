package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront-eng/salesync/internal/model"
)

// Repository persists cart line sets in redis as JSON blobs keyed by
// cart ID. The in-memory store owns the data; the repository only makes
// it survive restarts.
type Repository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings a redis instance.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// NewRepository creates a cart repository over an existing redis client.
func NewRepository(client *redis.Client, ttl time.Duration) *Repository {
	return &Repository{client: client, ttl: ttl}
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Save stores the full line set for a cart, replacing any previous value.
func (r *Repository) Save(ctx context.Context, cartID string, lines []model.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal cart lines: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(cartID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart in redis: %w", err)
	}
	return nil
}

// Load fetches a cart's line set. A missing key is an empty cart.
func (r *Repository) Load(ctx context.Context, cartID string) ([]model.CartLine, error) {
	val, err := r.client.Get(ctx, cartKey(cartID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart from redis: %w", err)
	}

	var lines []model.CartLine
	if err := json.Unmarshal([]byte(val), &lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart lines: %w", err)
	}
	return lines, nil
}

// Delete removes a persisted cart.
func (r *Repository) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart from redis: %w", err)
	}
	return nil
}

func cartKey(cartID string) string {
	return "cart:" + cartID
}
