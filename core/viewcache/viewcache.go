// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package viewcache caches the HTML of server rendered views

Views are keyed by name and query. The first caller for a key loads the view, concurrent
callers for the same key join that load instead of issuing their own request. Successful
loads are kept until they are evicted or invalidated, failed loads are never kept, so the
next caller tries again.

Example:

	cache, err := viewcache.New(c, viewcache.WithMaxEntries(512))
	html, err := cache.Get(ctx, "book_list", query.Query{"author": "Tolkien"})
*/
package viewcache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/relabs-tech/rowclient/core/logger"
	"github.com/relabs-tech/rowclient/core/query"
)

// Loader loads the HTML of a view. *client.Client is a Loader.
type Loader interface {
	LoadView(ctx context.Context, name string, q query.Query) (string, error)
}

// LoaderFunc is a function that implements Loader
type LoaderFunc func(ctx context.Context, name string, q query.Query) (string, error)

// LoadView calls f
func (f LoaderFunc) LoadView(ctx context.Context, name string, q query.Query) (string, error) {
	return f(ctx, name, q)
}

// Stats are the counters of a cache
type Stats struct {
	// Hits counts calls answered from the cache
	Hits int64
	// Misses counts calls which had to wait for a load
	Misses int64
	// Loads counts calls to the loader
	Loads int64
	// Failures counts failed loads
	Failures int64
}

type store interface {
	Get(key string) (string, bool)
	Add(key, html string) bool
	Remove(key string) bool
	Purge()
	Len() int
}

// Cache is a view cache. It is safe for concurrent use.
type Cache struct {
	loader Loader
	store  store
	group  singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	loads    atomic.Int64
	failures atomic.Int64
}

// Option configures a Cache
type Option func(*options)

type options struct {
	maxEntries int
}

// WithMaxEntries bounds the cache to n entries, evicting the least recently used.
// n <= 0 means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// New creates a cache which loads views with loader
func New(loader Loader, opts ...Option) (*Cache, error) {
	if loader == nil {
		return nil, fmt.Errorf("viewcache: loader is required")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache{loader: loader}
	if o.maxEntries > 0 {
		l, err := lru.New[string, string](o.maxEntries)
		if err != nil {
			return nil, fmt.Errorf("viewcache: %w", err)
		}
		c.store = l
	} else {
		c.store = &mapStore{entries: map[string]string{}}
	}
	return c, nil
}

// Get returns the HTML of the view name with query q, loading it if it is not cached.
//
// The load is shared by all callers for the same key and is not canceled when ctx is.
// A caller whose ctx ends stops waiting and gets ctx.Err().
func (c *Cache) Get(ctx context.Context, name string, q query.Query) (string, error) {
	key := q.CacheKey(name)
	if html, ok := c.store.Get(key); ok {
		c.hits.Inc()
		return html, nil
	}
	c.misses.Inc()

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// a load for key may have settled between the lookup above and this call
		if html, ok := c.store.Get(key); ok {
			return html, nil
		}
		c.loads.Inc()
		html, err := c.loader.LoadView(loadCtx, name, q)
		if err != nil {
			c.failures.Inc()
			logger.FromContext(loadCtx).WithError(err).WithField("view", name).Debugln("cannot load view")
			return nil, err
		}
		c.store.Add(key, html)
		return html, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Peek returns the cached HTML of a view without loading it
func (c *Cache) Peek(name string, q query.Query) (string, bool) {
	return c.store.Get(q.CacheKey(name))
}

// Invalidate removes a view from the cache. It returns true if the view was cached.
func (c *Cache) Invalidate(name string, q query.Query) bool {
	return c.store.Remove(q.CacheKey(name))
}

// Purge removes all views from the cache
func (c *Cache) Purge() {
	c.store.Purge()
}

// Len returns the number of cached views
func (c *Cache) Len() int {
	return c.store.Len()
}

// Stats returns the counters of the cache
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Loads:    c.loads.Load(),
		Failures: c.failures.Load(),
	}
}

// mapStore is the unbounded store
type mapStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func (m *mapStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	html, ok := m.entries[key]
	return html, ok
}

func (m *mapStore) Add(key, html string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = html
	return false
}

func (m *mapStore) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok
}

func (m *mapStore) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]string{}
}

func (m *mapStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
