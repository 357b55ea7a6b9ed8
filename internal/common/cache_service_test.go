package common

import (
	"errors"
	"testing"
	"time"

	"seaborne/voyagedesk/internal/constants"
)

func TestCacheService_GetOrSet(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	key := StateKey(constants.CachePrefixVoyageState, "voyage-1")
	if key != "VOYAGE_STATE_voyage-1" {
		t.Fatalf("Unexpected key %s", key)
	}

	loads := 0
	loader := func() (any, error) {
		loads++
		return "AT_SEA", nil
	}

	for i := 0; i < 2; i++ {
		val, err := cs.GetOrSet(key, time.Minute, loader)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if val != "AT_SEA" {
			t.Errorf("Expected AT_SEA, got %v", val)
		}
	}
	if loads != 1 {
		t.Errorf("Expected 1 load, got %d", loads)
	}

	cs.Delete(key)
	if cs.ItemCount() != 0 {
		t.Errorf("Expected empty cache after delete, got %d items", cs.ItemCount())
	}
}

func TestCacheService_LoaderErrorNotCached(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)

	_, err := cs.GetOrSet("k", time.Minute, func() (any, error) { return nil, errors.New("db down") })
	if err == nil {
		t.Fatal("Expected loader error")
	}
	if _, found := cs.Get("k"); found {
		t.Error("Expected failed load not to be cached")
	}
}
