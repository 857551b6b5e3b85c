// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pyast

import (
	"sync"
	"sync/atomic"
)

// InferenceCache memoizes inference results across resolution calls.
//
// Description:
//
//	The cache is an explicit object owned by the caller of the analysis
//	pass, never a global. Callers must Invalidate it between independent
//	passes over the same mutated source; the engine itself never decides
//	when entries are stale.
//
// Thread Safety: Safe for concurrent use.
type InferenceCache struct {
	mu      sync.RWMutex
	entries map[NodeID][]string
	hits    atomic.Uint64
	misses  atomic.Uint64
	maxSize int
}

// CacheOption configures an InferenceCache.
type CacheOption func(*InferenceCache)

// WithCacheMaxSize bounds the number of cached entries. When the bound is
// reached, new entries are not stored (0 = unbounded).
func WithCacheMaxSize(n int) CacheOption {
	return func(c *InferenceCache) {
		c.maxSize = n
	}
}

// NewInferenceCache creates an empty cache.
func NewInferenceCache(opts ...CacheOption) *InferenceCache {
	c := &InferenceCache{entries: make(map[NodeID][]string)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get returns the cached candidates and whether the entry exists.
// A cached nil (inference yielded Unknown) is a valid hit.
func (c *InferenceCache) get(id NodeID) ([]string, bool) {
	c.mu.RLock()
	v, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// put stores candidates for a node.
func (c *InferenceCache) put(id NodeID, candidates []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		return
	}
	c.entries[id] = candidates
}

// Invalidate drops every entry. Call between analysis passes whenever the
// underlying source may have changed.
func (c *InferenceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[NodeID][]string)
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Stats returns current cache counters.
func (c *InferenceCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
