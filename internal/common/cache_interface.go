package common

import (
	"time"

	"seaborne/voyagedesk/internal/constants"
)

// CacheInterface is the cache for derived voyage data. Values written to the
// Redis implementation come back JSON-decoded, so callers store plain values
// (strings, numbers, maps) rather than structs.
type CacheInterface interface {
	Set(key string, value interface{}, duration time.Duration)

	// Get returns the value and true if present.
	Get(key string) (interface{}, bool)

	Delete(key string)

	// GetOrSet returns the cached value or stores the loader's result.
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	Close() error
}

// StateKey is the cache key of a derived state for a voyage or vessel id.
func StateKey(prefix constants.CachePrefix, id string) string {
	return string(prefix) + id
}
