// Package cache provides in-memory caching for computed aggregate views.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/yourusername/pitwall/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Key identifies a computed view for one dataset snapshot
type Key struct {
	SnapshotID uuid.UUID
	View       string
	Args       []interface{}
}

// String returns string representation of cache key
func (k Key) String() string {
	parts := make([]string, 0, len(k.Args)+2)
	parts = append(parts, k.SnapshotID.String(), k.View)
	for _, arg := range k.Args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return strings.Join(parts, ":")
}

// ViewCache memoizes view results per snapshot. Concurrent misses on the same
// key share a single computation.
type ViewCache struct {
	cache     *gocache.Cache
	group     singleflight.Group
	ttl       time.Duration
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewViewCache creates a new view cache
func NewViewCache(ttl, cleanupInterval time.Duration) *ViewCache {
	return &ViewCache{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Fetch returns the cached value for key, computing and storing it on a miss.
// Errors are returned to every waiting caller and never cached.
func (vc *ViewCache) Fetch(key Key, compute func() (interface{}, error)) (interface{}, error) {
	k := key.String()
	if value, found := vc.cache.Get(k); found {
		vc.record(true)
		return value, nil
	}
	vc.record(false)

	value, err, _ := vc.group.Do(k, func() (interface{}, error) {
		if value, found := vc.cache.Get(k); found {
			return value, nil
		}
		value, err := compute()
		if err != nil {
			return nil, err
		}
		vc.cache.Set(k, value, vc.ttl)
		return value, nil
	})
	return value, err
}

// Invalidate removes every entry computed from the given snapshot
func (vc *ViewCache) Invalidate(snapshotID uuid.UUID) int {
	prefix := snapshotID.String() + ":"
	removed := 0
	for k := range vc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			vc.cache.Delete(k)
			removed++
		}
	}
	return removed
}

// Flush empties the cache and resets its statistics
func (vc *ViewCache) Flush() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	vc.cache.Flush()
	vc.hitCount = 0
	vc.missCount = 0
	metrics.UpdateCacheHitRatio(0)
}

// Stats returns cache statistics
func (vc *ViewCache) Stats() (hits, misses uint64, ratio float64) {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	hits = vc.hitCount
	misses = vc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (vc *ViewCache) ItemCount() int {
	return vc.cache.ItemCount()
}

func (vc *ViewCache) record(hit bool) {
	vc.mu.Lock()
	if hit {
		vc.hitCount++
	} else {
		vc.missCount++
	}
	vc.mu.Unlock()

	_, _, ratio := vc.Stats()
	metrics.UpdateCacheHitRatio(ratio)
}
