// Package cache provides memoization stores for computed style profiles.
package cache

import (
	"context"
	"sync"

	"github.com/jonathan/ghostpen/internal/types"
)

// ProfileCache memoizes style profiles by author id.
// Stored profiles are treated as immutable; callers must not modify them.
type ProfileCache interface {
	Get(ctx context.Context, authorID string) (*types.StyleProfile, bool, error)
	Put(ctx context.Context, profile *types.StyleProfile) error
	Invalidate(ctx context.Context, authorID string) error
	Clear(ctx context.Context) error
}

// MemoryCache is an unbounded in-process cache. Entries live until they are
// invalidated or the cache is cleared.
type MemoryCache struct {
	mu       sync.RWMutex
	profiles map[string]*types.StyleProfile
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{profiles: make(map[string]*types.StyleProfile)}
}

// Get returns the cached profile for authorID.
func (c *MemoryCache) Get(_ context.Context, authorID string) (*types.StyleProfile, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[authorID]
	return p, ok, nil
}

// Put stores profile under its author id, replacing any previous entry.
func (c *MemoryCache) Put(_ context.Context, profile *types.StyleProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[profile.AuthorID] = profile
	return nil
}

// Invalidate removes the entry for authorID.
func (c *MemoryCache) Invalidate(_ context.Context, authorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, authorID)
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = make(map[string]*types.StyleProfile)
	return nil
}

// Len returns the number of cached profiles.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}
