package objstore

import (
	"fmt"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lni/dragonboat/v4/logger"
	"sort"
	"sync/atomic"
)

var Logger = logger.GetLogger("objstore")

// DefaultCapacity is used when a capacity <= 0 is requested
const DefaultCapacity = 10_000

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IObjectStore stores object graphs under string keys
type IObjectStore interface {
	// Put stores value under key. It returns true if an older value was evicted
	// to make room for the new entry.
	Put(key string, value any) (evicted bool)
	// Get returns the value for key. The boolean indicates whether the key was found.
	Get(key string) (value any, loaded bool)
	// Delete removes key. It returns whether the key was present.
	Delete(key string) (deleted bool)
	// Keys returns all keys in sorted order
	Keys() []string
	// Len returns the number of stored entries
	Len() int
	// Stats returns usage counters of the store
	Stats() Stats
}

// Stats are counters collected since the store was created
type Stats struct {
	Capacity  int
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// String renders the stats on a single line
func (s Stats) String() string {
	return fmt.Sprintf("len=%d/%d hits=%d misses=%d evictions=%d", s.Len, s.Capacity, s.Hits, s.Misses, s.Evictions)
}

// --------------------------------------------------------------------------
// LRU Implementation
// --------------------------------------------------------------------------

type storeImpl struct {
	cache    *lru.Cache[string, any]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewLocalStore creates a store holding at most capacity entries
func NewLocalStore(capacity int) (IObjectStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	cache, err := lru.New[string, any](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create object cache: %w", err)
	}

	return &storeImpl{cache: cache, capacity: capacity}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IObjectStore)
// --------------------------------------------------------------------------

func (s *storeImpl) Put(key string, value any) bool {
	// the eviction callback of the cache also fires on Remove, so evictions
	// are counted here
	evicted := s.cache.Add(key, value)
	if evicted {
		s.evictions.Add(1)
		Logger.Debugf("evicted oldest object to store %q", key)
	}
	return evicted
}

func (s *storeImpl) Get(key string) (any, bool) {
	v, ok := s.cache.Get(key)
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok
}

func (s *storeImpl) Delete(key string) bool {
	return s.cache.Remove(key)
}

func (s *storeImpl) Keys() []string {
	keys := s.cache.Keys()
	sort.Strings(keys)
	return keys
}

func (s *storeImpl) Len() int {
	return s.cache.Len()
}

func (s *storeImpl) Stats() Stats {
	return Stats{
		Capacity:  s.capacity,
		Len:       s.cache.Len(),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}
