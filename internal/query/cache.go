// Package query caches backend reads by key and drops them when a mutation
// reports the key stale.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchTimeout bounds a shared fetch once it is detached from its callers.
const FetchTimeout = 30 * time.Second

// Event describes an invalidation. All is set by InvalidateAll.
type Event struct {
	Keys []string
	All  bool
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
	epoch   uint64

	group singleflight.Group

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

func New() *Cache {
	return &Cache{
		entries: map[string]any{},
		subs:    map[int]func(Event){},
	}
}

// Get returns the cached value for key or calls fetch. Concurrent misses on
// the same key share one fetch, which runs detached from any single caller:
// a caller whose ctx ends gets ctx.Err() while the others still get the
// result. A result that raced with an invalidation is returned but not cached.
func (c *Cache) Get(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Peek(key); ok {
		return v, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.RLock()
		start := c.epoch
		c.mu.RUnlock()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == start {
			c.entries[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (c *Cache) Peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// Update replaces the cached value for key with fn's result. It reports false
// when nothing is cached under key.
func (c *Cache) Update(key string, fn func(any) any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false
	}
	c.entries[key] = fn(v)
	return true
}

// Invalidate drops each key and every key below it ("servers" also drops
// "servers/abc").
func (c *Cache) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	c.epoch++
	for k := range c.entries {
		for _, p := range keys {
			if k == p || strings.HasPrefix(k, p+"/") {
				delete(c.entries, k)
				break
			}
		}
		c.group.Forget(k)
	}
	c.mu.Unlock()
	for _, p := range keys {
		c.group.Forget(p)
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	c.publish(Event{Keys: sorted})
}

// InvalidateAll empties the cache. Every view re-fetches on its next read.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.epoch++
	for k := range c.entries {
		c.group.Forget(k)
	}
	c.entries = map[string]any{}
	c.mu.Unlock()
	c.publish(Event{All: true})
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Subscribe registers fn for invalidation events and returns a cancel func.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) publish(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Fetch is Get with a typed result.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %q holds %T", key, v)
	}
	return t, nil
}

// UpdateAs is Update with a typed value. Entries of another type are left alone.
func UpdateAs[T any](c *Cache, key string, fn func(T) T) bool {
	updated := false
	c.Update(key, func(v any) any {
		t, ok := v.(T)
		if !ok {
			return v
		}
		updated = true
		return fn(t)
	})
	return updated
}
