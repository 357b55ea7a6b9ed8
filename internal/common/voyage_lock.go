package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/logging"
)

// VoyageLocker serialises writes to one voyage's report chain.
type VoyageLocker interface {
	// Lock blocks until the voyage is held or wait elapses, in which case
	// ErrVoyageLocked is returned. The returned func releases the lock.
	Lock(ctx context.Context, voyageID string, wait time.Duration) (func(), error)
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisVoyageLocker holds a lease in Redis so every server instance sees it.
type RedisVoyageLocker struct {
	client *redis.Client
	ttl    time.Duration
}

var _ VoyageLocker = (*RedisVoyageLocker)(nil)

func NewRedisVoyageLocker(client *redis.Client, ttl time.Duration) *RedisVoyageLocker {
	return &RedisVoyageLocker{client: client, ttl: ttl}
}

func (l *RedisVoyageLocker) Lock(ctx context.Context, voyageID string, wait time.Duration) (func(), error) {
	key := constants.VoyageLockKeyPrefix + voyageID
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire voyage lock: %w", err)
		}
		if ok {
			return func() {
				// the request context may be done by now
				if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
					logging.Warn("Failed to release voyage lock", "voyage_id", voyageID, "error", err)
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: voyage %s", constants.ErrVoyageLocked, voyageID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// LocalVoyageLocker is the in-process VoyageLocker.
type LocalVoyageLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ VoyageLocker = (*LocalVoyageLocker)(nil)

func NewLocalVoyageLocker() *LocalVoyageLocker {
	return &LocalVoyageLocker{slots: map[string]chan struct{}{}}
}

func (l *LocalVoyageLocker) Lock(ctx context.Context, voyageID string, wait time.Duration) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[voyageID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[voyageID] = slot
	}
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: voyage %s", constants.ErrVoyageLocked, voyageID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
