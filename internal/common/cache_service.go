package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService keeps derived state in process memory. It is used when Redis
// is disabled and in tests.
type CacheService struct {
	cache *cache.Cache
}

var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultTTL, cleanupInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultTTL, cleanupInterval)}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

// GetOrSet loads on a miss. If another caller stored the key meanwhile,
// its value wins.
func (cs *CacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := cs.cache.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	if err := cs.cache.Add(key, val, duration); err != nil {
		if existing, found := cs.cache.Get(key); found {
			return existing, nil
		}
		cs.cache.Set(key, val, duration)
	}
	return val, nil
}

// ItemCount reports the number of live entries.
func (cs *CacheService) ItemCount() int {
	return cs.cache.ItemCount()
}

func (cs *CacheService) Close() error {
	cs.cache.Flush()
	return nil
}
