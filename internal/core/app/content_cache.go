package app

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ContentCache remembers a content digest per path so that watch mode can
// skip files whose bytes did not change between events.
type ContentCache struct {
	mu     sync.RWMutex
	hashes map[string]uint64
}

func NewContentCache() *ContentCache {
	return &ContentCache{hashes: make(map[string]uint64)}
}

// Changed records content for path and reports whether it differs from the
// previous recording.
func (c *ContentCache) Changed(path string, content []byte) bool {
	sum := xxhash.Sum64(content)
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.hashes[path]
	c.hashes[path] = sum
	return !ok || prev != sum
}

func (c *ContentCache) Drop(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hashes, path)
}

func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hashes)
}
