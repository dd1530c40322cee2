package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// cacheKey identifies a scan by file name and content.
type cacheKey string

func keyFor(path, source string) cacheKey {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return cacheKey(hex.EncodeToString(h.Sum(nil)))
}

// CacheStats exposes basic metrics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Entries   int64
	Evictions int64
}

// scanCache is a thread-safe LRU of scan results with a max entry count.
type scanCache struct {
	mu       sync.Mutex
	capacity int
	llHead   *lruNode
	llTail   *lruNode
	table    map[cacheKey]*lruNode
	stats    CacheStats
}

type lruNode struct {
	key  cacheKey
	val  *ScanResult
	prev *lruNode
	next *lruNode
}

func newScanCache(capacity int) *scanCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &scanCache{capacity: capacity, table: make(map[cacheKey]*lruNode)}
}

func (c *scanCache) moveToFront(n *lruNode) {
	if c.llHead == n {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if c.llTail == n {
		c.llTail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = c.llHead
	if c.llHead != nil {
		c.llHead.prev = n
	}
	c.llHead = n
	if c.llTail == nil {
		c.llTail = n
	}
}

func (c *scanCache) evictIfNeeded() {
	for len(c.table) > c.capacity && c.llTail != nil {
		n := c.llTail
		delete(c.table, n.key)
		if n.prev != nil {
			n.prev.next = nil
		}
		c.llTail = n.prev
		if c.llTail == nil {
			c.llHead = nil
		}
		c.stats.Evictions++
	}
	c.stats.Entries = int64(len(c.table))
}

func (c *scanCache) get(key cacheKey) (*ScanResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.table[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.moveToFront(n)
	return n.val, true
}

func (c *scanCache) put(key cacheKey, r *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.table[key]; ok {
		n.val = r
		c.moveToFront(n)
		return
	}
	n := &lruNode{key: key, val: r}
	c.table[key] = n
	c.moveToFront(n)
	c.evictIfNeeded()
}

func (c *scanCache) snapshot() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
