package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"
)

// CachedAnalysis is one stored model response.
type CachedAnalysis struct {
	Signature string
	Response  string
	HitCount  int
	LastHit   time.Time
	CreatedAt time.Time
}

// AnalysisCache keeps recent analyses keyed by content signature, so a
// long-lived surface like the MCP server does not pay twice for an unchanged
// design or library. LRU eviction bounds memory.
type AnalysisCache struct {
	cache   map[string]*CachedAnalysis
	order   []string
	maxSize int
	mu      sync.RWMutex
	hits    int64
	misses  int64
}

// Signature derives a stable cache key from an analysis kind and its
// inputs. Any input change produces a different key.
func Signature(kind string, inputs ...string) string {
	h := sha256.New()
	io.WriteString(h, kind)
	for _, in := range inputs {
		io.WriteString(h, "\x00")
		io.WriteString(h, in)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewAnalysisCache creates a cache holding at most maxSize entries.
func NewAnalysisCache(maxSize int) *AnalysisCache {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &AnalysisCache{
		cache:   make(map[string]*CachedAnalysis),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns the cached analysis for a signature, or nil.
func (c *AnalysisCache) Get(signature string) *CachedAnalysis {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[signature]
	if !ok {
		c.misses++
		return nil
	}

	c.hits++
	entry.HitCount++
	entry.LastHit = time.Now()
	c.moveToFront(signature)

	return entry
}

// Put stores a model response under a signature.
func (c *AnalysisCache) Put(signature, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.cache[signature]; exists {
		entry.Response = response
		c.moveToFront(signature)
		return
	}

	if len(c.cache) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.cache[signature] = &CachedAnalysis{
		Signature: signature,
		Response:  response,
		HitCount:  0,
		LastHit:   now,
		CreatedAt: now,
	}
	c.order = append([]string{signature}, c.order...)
}

// Contains checks membership without touching LRU order.
func (c *AnalysisCache) Contains(signature string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[signature]
	return ok
}

// Clear drops every entry and resets counters.
func (c *AnalysisCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*CachedAnalysis)
	c.order = make([]string, 0, c.maxSize)
	c.hits = 0
	c.misses = 0
}

// Size returns the current entry count.
func (c *AnalysisCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// CacheStats summarizes hit-rate performance.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Size    int
	MaxSize int
	HitRate float64
}

func (c *AnalysisCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hitRate := float64(0)
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    len(c.cache),
		MaxSize: c.maxSize,
		HitRate: hitRate,
	}
}

func (c *AnalysisCache) moveToFront(signature string) {
	c.removeFromOrder(signature)
	c.order = append([]string{signature}, c.order...)
}

func (c *AnalysisCache) removeFromOrder(signature string) {
	for i, s := range c.order {
		if s == signature {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *AnalysisCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[len(c.order)-1]
	delete(c.cache, oldest)
	c.order = c.order[:len(c.order)-1]
}
