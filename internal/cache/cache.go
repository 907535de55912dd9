package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TTL memoizes values per key for a fixed window. Concurrent loads of the
// same key share one in-flight call. Errors are never stored.
type TTL[V any] struct {
	window time.Duration
	now    func() time.Time

	mutex   sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group

	hits   int
	misses int
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// NewTTL creates a cache whose entries expire after window.
func NewTTL[V any](window time.Duration) *TTL[V] {
	return &TTL[V]{
		window:  window,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key when it is younger than the window,
// otherwise it calls load once for all concurrent callers and stores the result.
// The shared load runs on a context detached from ctx, so a caller giving up
// early neither cancels nor fails the others waiting on the same key. load
// must bound its own duration.
func (c *TTL[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	var zero V
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A concurrent flight may have filled the entry while we waited.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		c.mutex.Lock()
		c.misses++
		c.mutex.Unlock()

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}

		c.mutex.Lock()
		c.entries[key] = entry[V]{value: v, storedAt: c.now()}
		c.mutex.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		log.Printf("DEBUG: cache: caller left in-flight load for %s: %v", key, ctx.Err())
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Printf("DEBUG: cache: shared in-flight load for %s", key)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *TTL[V]) lookup(key string) (V, bool) {
	c.mutex.RLock()
	e, found := c.entries[key]
	c.mutex.RUnlock()

	if !found || c.now().Sub(e.storedAt) >= c.window {
		var zero V
		return zero, false
	}

	c.mutex.Lock()
	c.hits++
	c.mutex.Unlock()
	return e.value, true
}

// Purge drops expired entries and returns how many were removed.
func (c *TTL[V]) Purge() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for k, e := range c.entries {
		if c.now().Sub(e.storedAt) >= c.window {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats returns statistics about cache hits and misses.
func (c *TTL[V]) Stats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.hits, c.misses
}
