// # internal/cache/memory.go
package cache

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"didact/internal/shared/observability"
)

// MemoryTier is the fastest tier: an LRU keyed by content hash with a byte
// budget. simplelru is not goroutine-safe, so every access holds mu.
type MemoryTier struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, Entry]
	maxBytes int64
	curBytes int64
}

// NewMemoryTier builds a memory tier bounded by maxBytes. Capacity on the
// underlying LRU is an entry-count ceiling only; the byte budget is what
// actually drives eviction.
func NewMemoryTier(maxBytes int64) (*MemoryTier, error) {
	t := &MemoryTier{maxBytes: maxBytes}
	lru, err := simplelru.NewLRU[string, Entry](1<<16, func(key string, e Entry) {
		t.curBytes -= entryBytes(key, e)
		observability.CacheEvictionsTotal.Inc()
	})
	if err != nil {
		return nil, err
	}
	t.lru = lru
	return t, nil
}

func (t *MemoryTier) Name() string { return "memory" }

func (t *MemoryTier) Get(_ context.Context, key string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.lru.Get(key)
	if !ok {
		return nil, nil
	}
	copied := entry
	copied.Value = append([]byte(nil), entry.Value...)
	return &copied, nil
}

func (t *MemoryTier) Put(_ context.Context, key string, entry Entry) error {
	stored := entry
	stored.Value = append([]byte(nil), entry.Value...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.lru.Peek(key); ok {
		t.curBytes -= entryBytes(key, prev)
	}
	t.lru.Add(key, stored)
	t.curBytes += entryBytes(key, stored)

	// Evict oldest-first until the byte budget holds. The eviction
	// callback adjusts curBytes.
	for t.curBytes > t.maxBytes && t.lru.Len() > 1 {
		if _, _, ok := t.lru.RemoveOldest(); !ok {
			break
		}
	}
	return nil
}

func (t *MemoryTier) Delete(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lru.Remove(key)
	return nil
}

func (t *MemoryTier) Close() error { return nil }

// Len reports the current entry count, for tests and health checks.
func (t *MemoryTier) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lru.Len()
}

func entryBytes(key string, e Entry) int64 {
	return int64(len(key) + len(e.Value))
}
