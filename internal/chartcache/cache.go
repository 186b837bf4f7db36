// Package chartcache keeps recently computed fee charts in memory so
// repeated refreshes of the same block do not rebuild the curve.
package chartcache

import (
	"log"
	"sync"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/fees"
)

const pruneInterval = 60 * time.Second

type key struct {
	height int
	mode   fees.Mode
}

type entry struct {
	chart    *fees.Chart
	storedAt time.Time
}

// Cache maps (height, mode) to a computed chart. Charts are shared between
// readers and must not be modified.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]*entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	gen     uint64 // bumped by every Invalidate
	stopCh  chan struct{}
	once    sync.Once
}

func New(ttl time.Duration, maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		entries: make(map[key]*entry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background pruning goroutine.
func (c *Cache) Start() {
	go c.pruneLoop()
}

// Stop halts the background pruning.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}

// Get returns the cached chart, or nil if absent or expired.
func (c *Cache) Get(height int, mode fees.Mode) *fees.Chart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key{height, mode}]
	if !ok || c.expired(e) {
		return nil
	}
	return e.chart
}

// Put stores a chart, evicting the oldest entry when full.
func (c *Cache) Put(height int, mode fees.Mode, chart *fees.Chart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key{height, mode}, chart)
}

// Generation returns a token for PutIfCurrent. Read it before loading the
// records a chart is built from.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// PutIfCurrent stores chart only if no Invalidate ran since gen was read,
// so a chart built from replaced records is never cached.
func (c *Cache) PutIfCurrent(height int, mode fees.Mode, gen uint64, chart *fees.Chart) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.store(key{height, mode}, chart)
	return true
}

// Invalidate drops every chart of a height, e.g. after new records arrive.
func (c *Cache) Invalidate(height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for k := range c.entries {
		if k.height == height {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached charts, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) store(k key, chart *fees.Chart) {
	if _, ok := c.entries[k]; !ok && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[k] = &entry{chart: chart, storedAt: c.now()}
}

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl
}

func (c *Cache) evictOldest() {
	var oldestKey key
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache) pruneLoop() {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if n := c.prune(); n > 0 {
				log.Printf("[cache] Pruned %d expired charts", n)
			}
		}
	}
}

func (c *Cache) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}
