// Package cache provides analysis result caching keyed by conversation id.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

// AnalysisCache stores completed analyses with a time-to-live. The analysis
// pipeline is pure and idempotent, so callers are free to use a no-op cache.
type AnalysisCache interface {
	// Get returns the cached analysis for a conversation, or nil on a miss.
	Get(ctx context.Context, conversationID string) *model.PulseAnalysis

	// Set stores an analysis for a conversation for the given TTL.
	Set(ctx context.Context, conversationID string, analysis *model.PulseAnalysis, ttl time.Duration)

	// Invalidate drops the cached analysis for a conversation, if any.
	Invalidate(ctx context.Context, conversationID string)
}

type entry struct {
	analysis  *model.PulseAnalysis
	expiresAt time.Time
}

// MemoryCache is an in-memory TTL cache for analyses.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached analysis, or nil if absent or expired. Expired
// entries are dropped lazily on read.
func (c *MemoryCache) Get(ctx context.Context, conversationID string) *model.PulseAnalysis {
	c.mu.RLock()
	e, ok := c.entries[conversationID]
	c.mu.RUnlock()

	if !ok {
		return nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[conversationID]; still && c.now().After(cur.expiresAt) {
			delete(c.entries, conversationID)
		}
		c.mu.Unlock()
		return nil
	}
	return e.analysis
}

// Set stores an analysis with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, conversationID string, analysis *model.PulseAnalysis, ttl time.Duration) {
	c.mu.Lock()
	c.entries[conversationID] = entry{
		analysis:  analysis,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the cached analysis for a conversation.
func (c *MemoryCache) Invalidate(ctx context.Context, conversationID string) {
	c.mu.Lock()
	delete(c.entries, conversationID)
	c.mu.Unlock()
}

// NoopCache never hits. It satisfies callers that want caching disabled.
type NoopCache struct{}

// NewNoopCache creates a cache that always misses.
func NewNoopCache() *NoopCache { return &NoopCache{} }

// Get always returns nil.
func (NoopCache) Get(ctx context.Context, conversationID string) *model.PulseAnalysis { return nil }

// Set is a no-op.
func (NoopCache) Set(ctx context.Context, conversationID string, analysis *model.PulseAnalysis, ttl time.Duration) {
}

// Invalidate is a no-op.
func (NoopCache) Invalidate(ctx context.Context, conversationID string) {}
