package display

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRowCacheSize is the default maximum number of cached rows.
const DefaultRowCacheSize = 512

// RowCache caches rendered display rows with LRU eviction. Entries
// are validated against a hash of the row's source content, so a row
// whose content changed reads as a miss.
type RowCache struct {
	mu        sync.Mutex
	entries   map[uint32]*rowCacheEntry
	maxSize   int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type rowCacheEntry struct {
	cells      []Cell
	rowHash    uint64
	lastAccess time.Time
}

// RowCacheStats reports cache effectiveness counters.
type RowCacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	MaxSize   int
}

// NewRowCache creates a row cache holding at most maxSize rows.
func NewRowCache(maxSize int) *RowCache {
	if maxSize <= 0 {
		maxSize = DefaultRowCacheSize
	}
	return &RowCache{
		entries: make(map[uint32]*rowCacheEntry),
		maxSize: maxSize,
	}
}

// Get returns the cached cells for a row if present and still valid
// for the given source chunks.
func (c *RowCache) Get(row uint32, chunks []rowChunk, truncated bool) ([]Cell, bool) {
	hash := hashChunks(chunks, truncated)

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[row]
	if !ok || entry.rowHash != hash {
		c.misses.Add(1)
		return nil, false
	}
	entry.lastAccess = time.Now()
	c.hits.Add(1)
	return entry.cells, true
}

// Put stores rendered cells for a row.
func (c *RowCache) Put(row uint32, chunks []rowChunk, truncated bool, cells []Cell) {
	hash := hashChunks(chunks, truncated)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[row] = &rowCacheEntry{
		cells:      cells,
		rowHash:    hash,
		lastAccess: time.Now(),
	}
	if len(c.entries) > c.maxSize {
		c.evictLocked()
	}
}

// Clear drops all cached rows.
func (c *RowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint32]*rowCacheEntry)
}

// Size returns the number of cached rows.
func (c *RowCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache effectiveness counters.
func (c *RowCache) Stats() RowCacheStats {
	c.mu.Lock()
	size := len(c.entries)
	maxSize := c.maxSize
	c.mu.Unlock()
	return RowCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
		MaxSize:   maxSize,
	}
}

// evictLocked removes the least recently used entry. Must hold mu.
func (c *RowCache) evictLocked() {
	var oldestRow uint32
	var oldestTime time.Time
	first := true
	for row, entry := range c.entries {
		if first || entry.lastAccess.Before(oldestTime) {
			oldestRow = row
			oldestTime = entry.lastAccess
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestRow)
		c.evictions.Add(1)
	}
}

// hashChunks fingerprints a row's source content.
func hashChunks(chunks []rowChunk, truncated bool) uint64 {
	h := fnv.New64a()
	for _, ch := range chunks {
		if ch.fold {
			h.Write([]byte{0xFF})
			continue
		}
		h.Write([]byte{0x00})
		h.Write([]byte(ch.text))
	}
	if truncated {
		h.Write([]byte{0x01})
	}
	return h.Sum64()
}
