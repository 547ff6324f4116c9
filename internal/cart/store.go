package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/redis"
)

// Storage persists serialized carts. Load returns nil data when nothing is stored.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store binds carts to durable storage: every mutation is followed by Save.
type Store struct {
	storage Storage
}

func NewStore(storage Storage) (*Store, error) {
	if storage == nil {
		return nil, errors.New("cart storage required")
	}
	return &Store{storage: storage}, nil
}

// Load returns the stored cart for the user or an empty one.
func (s *Store) Load(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	data, err := s.storage.Load(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if data == nil {
		return New(), nil
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, userID uuid.UUID, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Save(ctx, userID.String(), data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.storage.Delete(ctx, userID.String()); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

type redisCartClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// RedisStorage keeps carts under cho:cart:<userId> with a sliding TTL.
type RedisStorage struct {
	client redisCartClient
	ttl    time.Duration
}

func NewRedisStorage(client redisCartClient, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl < 0 {
		return nil, errors.New("cart ttl must be non-negative")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.client.CartKey(key))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(value), nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.client.CartKey(key), string(data), r.ttl)
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.CartKey(key))
}
