package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// RedisStore implements Store backed by Redis. Flags live forever under a
// fixed key prefix; "0" and an absent key both read as false.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store connected to the given Redis address.
func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb, prefix: "timelock:queued:"}
}

// Ping verifies connectivity. Used by integration tests to skip when no
// Redis is available.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(id contracts.TxID) string {
	return s.prefix + id.Hex()
}

func (s *RedisStore) IsQueued(ctx context.Context, id contracts.TxID) (bool, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get queued flag: %w", err)
	}
	return val == "1", nil
}

func (s *RedisStore) SetQueued(ctx context.Context, id contracts.TxID, queued bool) error {
	val := "0"
	if queued {
		val = "1"
	}
	if err := s.client.Set(ctx, s.key(id), val, 0).Err(); err != nil {
		return fmt.Errorf("set queued flag: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
