package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrResultNotFound = errors.New("checkout result not found")

// ResultStore remembers successful checkouts by idempotency key so a
// repeated request returns the original result.
type ResultStore interface {
	Get(ctx context.Context, buyerID, key string) (*Result, error)
	Save(ctx context.Context, buyerID, key string, res *Result) error
}

type RedisResultStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ ResultStore = (*RedisResultStore)(nil)

func NewRedisResultStore(client redis.Cmdable, ttl time.Duration) *RedisResultStore {
	return &RedisResultStore{client: client, ttl: ttl}
}

func (r *RedisResultStore) Get(ctx context.Context, buyerID, key string) (*Result, error) {
	data, err := r.client.Get(ctx, resultKey(buyerID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal checkout result failed: %w", err)
	}
	return &res, nil
}

func (r *RedisResultStore) Save(ctx context.Context, buyerID, key string, res *Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal checkout result failed: %w", err)
	}
	if err := r.client.Set(ctx, resultKey(buyerID, key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func resultKey(buyerID, key string) string {
	return fmt.Sprintf("checkout:idem:%s:%s", buyerID, key)
}
