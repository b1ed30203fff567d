// Package cache provides a thread-safe generic cache with optional expiry and
// the rendered preview cache.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	ttl   time.Duration
	now   func() time.Time
}

// NewCache returns a cache whose entries never expire.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return NewTTLCache[K, V](0)
}

// NewTTLCache returns a cache whose entries expire ttl after they were set.
// A zero ttl disables expiry.
func NewTTLCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]entry[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.items[key] = e
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Failed loads are not cached.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// Len counts entries that have not expired.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.items {
		if !c.expired(e) {
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}

// RenderedContent is a sanitized HTML rendering of post content.
type RenderedContent struct {
	HTML []byte
}

var renderedMarkdownCache = NewCache[string, *RenderedContent]()

func GetRenderedMarkdown(contentHash, syntaxTheme string) (*RenderedContent, bool) {
	key := contentHash + ":" + syntaxTheme
	return renderedMarkdownCache.Get(key)
}

func SetRenderedMarkdown(contentHash, syntaxTheme string, html []byte) {
	key := contentHash + ":" + syntaxTheme
	renderedMarkdownCache.Set(key, &RenderedContent{HTML: html})
}

func ClearRenderedMarkdownCache() {
	renderedMarkdownCache.Clear()
}
