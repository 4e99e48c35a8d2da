package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"gamelink/internal/models"
)

// CodeCache provides thread-safe in-memory cache for pending links keyed by code
type CodeCache struct {
	mu    sync.RWMutex
	cache map[string]models.PendingLink
	// generation advances on every invalidation; fills that started under an
	// older generation are dropped
	generation uint64
}

// NewCodeCache creates a new code cache instance
func NewCodeCache() *CodeCache {
	return &CodeCache{
		cache: make(map[string]models.PendingLink),
	}
}

// Get returns a cached link only while it is still active at now
func (c *CodeCache) Get(code string, now time.Time) (models.PendingLink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	link, found := c.cache[code]
	if !found || !link.Active(now) {
		return models.PendingLink{}, false
	}
	return link, true
}

// Generation is read before a store lookup and passed to Fill afterwards
func (c *CodeCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Set stores a link under its code
func (c *CodeCache) Set(link models.PendingLink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[link.Code] = link
}

// Fill stores a link read from the store unless an invalidation happened
// since generation was taken
func (c *CodeCache) Fill(link models.PendingLink, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.cache[link.Code] = link
	return true
}

// Invalidate removes a link from cache and rejects in-flight fills
func (c *CodeCache) Invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	delete(c.cache, code)
}

// Prune drops every entry that is no longer active
func (c *CodeCache) Prune(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for code, link := range c.cache {
		if !link.Active(now) {
			delete(c.cache, code)
		}
	}
}

// Size returns the number of cached entries (for monitoring/debugging)
func (c *CodeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// CachedPendingLink is a read-through cache in front of a single-process
// PendingLink store. Every mutation goes through it, so a cached entry is
// evicted whenever the store stops holding it. Only FindByCode is served
// from memory.
type CachedPendingLink struct {
	store PendingLink
	cache *CodeCache
}

func NewCachedPendingLink(store PendingLink) *CachedPendingLink {
	return &CachedPendingLink{store: store, cache: NewCodeCache()}
}

func (r *CachedPendingLink) RequestCode(ctx context.Context, requesterID, code string, now time.Time, ttl time.Duration) (*models.PendingLink, error) {
	link, err := r.store.RequestCode(ctx, requesterID, code, now, ttl)
	if err != nil {
		return nil, err
	}
	r.cache.Set(*link)
	return link, nil
}

func (r *CachedPendingLink) FindByCode(ctx context.Context, code string, now time.Time) (*models.PendingLink, error) {
	if link, ok := r.cache.Get(code, now); ok {
		return &link, nil
	}

	generation := r.cache.Generation()
	link, err := r.store.FindByCode(ctx, code, now)
	if err != nil {
		return nil, err
	}
	r.cache.Fill(*link, generation)
	return link, nil
}

func (r *CachedPendingLink) Consume(ctx context.Context, code, requesterID string, now time.Time) (*models.PendingLink, error) {
	link, err := r.store.Consume(ctx, code, requesterID, now)
	if err == nil || errors.Is(err, ErrAlreadyConsumed) {
		r.cache.Invalidate(code)
	}
	return link, err
}

func (r *CachedPendingLink) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	swept, err := r.store.SweepExpired(ctx, now)
	r.cache.Prune(now)
	return swept, err
}
