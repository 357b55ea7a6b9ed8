package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"seaborne/voyagedesk/internal/logging"
)

const (
	redisCacheNamespace = "voyagedesk:cache:"
	redisCacheTimeout   = 500 * time.Millisecond
)

// RedisCacheService shares derived state between server instances. Values
// are stored as JSON under a namespace; a Redis failure is logged and
// treated as a miss.
type RedisCacheService struct {
	client *redis.Client
}

var _ CacheInterface = (*RedisCacheService)(nil)

func NewRedisCacheService(client *redis.Client) *RedisCacheService {
	return &RedisCacheService{client: client}
}

func (r *RedisCacheService) op() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisCacheTimeout)
}

func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal value", "key", key, "error", err)
		return
	}

	ctx, cancel := r.op()
	defer cancel()
	if err := r.client.Set(ctx, redisCacheNamespace+key, data, duration).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	ctx, cancel := r.op()
	defer cancel()

	data, err := r.client.Get(ctx, redisCacheNamespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err)
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		logging.Warn("Redis cache: dropping undecodable value", "key", key, "error", err)
		r.Delete(key)
		return nil, false
	}
	return result, true
}

func (r *RedisCacheService) Delete(key string) {
	ctx, cancel := r.op()
	defer cancel()
	if err := r.client.Del(ctx, redisCacheNamespace+key).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err)
	}
}

// GetOrSet stores the loaded value with SETNX, so a value written by
// another instance in the meantime is kept and returned.
func (r *RedisCacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := r.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(val)
	if err != nil {
		return val, nil
	}

	ctx, cancel := r.op()
	defer cancel()
	stored, err := r.client.SetNX(ctx, redisCacheNamespace+key, data, duration).Result()
	if err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err)
		return val, nil
	}
	if !stored {
		if existing, found := r.Get(key); found {
			return existing, nil
		}
	}
	return val, nil
}

// Close is a no-op; the client is shared and closed by the server.
func (r *RedisCacheService) Close() error {
	return nil
}
