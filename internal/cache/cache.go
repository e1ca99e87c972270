package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/errs"
	"github.com/lspbridge/lspbridge/internal/types"
)

// Stats is the point-in-time snapshot Report/Stats expose, and the input
// chooseAdaptivePolicy uses to pick a policy on each adaptive eviction
// pass.
type Stats struct {
	Entries         int
	SizeBytes       int64
	MaxEntries      int
	MaxMemoryBytes  int64
	Hits            int64
	Misses          int64
	Evictions       int64
}

// HitRate returns Hits / (Hits + Misses), or 0 with no lookups yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// entry is the access-order list element's payload: the key (needed to
// delete the entries map slot on eviction) plus the CacheEntry itself.
type entry[K comparable, V any] struct {
	key  K
	data types.CacheEntry[V]
}

// Cache is a generic, size- and count-bounded cache with the five
// eviction policies spec.md §4.G names. One sync.RWMutex guards the entry
// map and the access-order list together (spec.md §5: "never two caches
// share a lock" — each Cache owns its own mutex).
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	cfg     config.CacheOptions
	policy  Policy
	entries map[K]*list.Element
	order   *list.List // front = most recently used, back = least recently used

	size      int64
	hits      int64
	misses    int64
	evictions int64
}

// New constructs a Cache from cfg, which must already satisfy
// cfg.Validate() (New does not re-validate; callers construct Options
// once at startup per spec.md §6).
func New[K comparable, V any](cfg config.CacheOptions) *Cache[K, V] {
	return &Cache[K, V]{
		cfg:     cfg,
		policy:  parsePolicy(cfg.Policy),
		entries: make(map[K]*list.Element),
		order:   list.New(),
	}
}

// Get looks up key, touching its access bookkeeping (spec.md §3's EMA
// rule) and moving it to the front of the access-order list on a hit.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(elem)
	e := elem.Value.(*entry[K, V])
	e.data.Touch(time.Now())
	return e.data.Data, true
}

// Put inserts or replaces key's value, evicting under the configured
// policy first if the insert would cross the high water mark. sizeBytes
// is the caller-supplied size of value (the Memory Manager does not
// introspect V).
func (c *Cache[K, V]) Put(key K, value V, sizeBytes int64) error {
	if sizeBytes < 0 {
		return errs.New(errs.KindCacheBackend, "size_bytes must be >= 0")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		old := existing.Value.(*entry[K, V])
		c.size -= old.data.SizeBytes
		c.order.Remove(existing)
		delete(c.entries, key)
	}

	c.evictIfNeeded(sizeBytes)

	now := time.Now()
	e := &entry[K, V]{
		key: key,
		data: types.CacheEntry[V]{
			Data:            value,
			SizeBytes:       sizeBytes,
			CreatedAt:       now,
			LastAccessed:    now,
			AccessCount:     1,
			AccessFrequency: 1.0,
		},
	}
	elem := c.order.PushFront(e)
	c.entries[key] = elem
	c.size += sizeBytes
	return nil
}

// Delete removes key if present, reporting whether it was.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear empties the cache, resetting size and entry count but not the
// hit/miss/eviction counters (spec.md §4.G's reset scope is storage, not
// statistics).
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.order = list.New()
	c.size = 0
}

// Stats returns a snapshot of current size, entry count, and cumulative
// hit/miss/eviction counters (spec.md §8 invariant 4: current_size equals
// the sum of entry sizes, current_entries equals the map's length).
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Entries:        len(c.entries),
		SizeBytes:      c.size,
		MaxEntries:     c.cfg.MaxEntries,
		MaxMemoryBytes: c.cfg.MaxMemoryBytes,
		Hits:           c.hits,
		Misses:         c.misses,
		Evictions:      c.evictions,
	}
}

// Report renders Stats as the human-readable summary line LSPbridge's
// diagnostics surface logs on demand.
func (c *Cache[K, V]) Report() string {
	s := c.Stats()
	return fmt.Sprintf(
		"cache: entries=%d/%d size=%d/%d hit_rate=%.2f evictions=%d",
		s.Entries, s.MaxEntries, s.SizeBytes, s.MaxMemoryBytes, s.HitRate(), s.Evictions,
	)
}

// removeElement deletes elem from both the list and the map and debits
// its size, assuming c.mu is already held for writing.
func (c *Cache[K, V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	c.order.Remove(elem)
	delete(c.entries, e.key)
	c.size -= e.data.SizeBytes
}

// evictIfNeeded implements EvictionManager::evict_if_needed: if admitting
// incomingSize would cross the high water mark on either size or entry
// count, evict in batches of cfg.EvictionBatchSize (ordered by the
// configured policy) until both current_size and current_entries are at
// or below the low water mark, or the batch is exhausted. Assumes c.mu is
// already held for writing.
func (c *Cache[K, V]) evictIfNeeded(incomingSize int64) {
	sizeThreshold := float64(c.cfg.MaxMemoryBytes) * c.cfg.HighWaterMark
	countThreshold := float64(c.cfg.MaxEntries) * c.cfg.HighWaterMark

	willExceedSize := float64(c.size+incomingSize) > sizeThreshold
	willExceedCount := float64(len(c.entries)+1) > countThreshold
	if !willExceedSize && !willExceedCount {
		return
	}

	targetSize := float64(c.cfg.MaxMemoryBytes) * c.cfg.LowWaterMark
	targetCount := float64(c.cfg.MaxEntries) * c.cfg.LowWaterMark

	candidates := make([]candidate[K], 0, len(c.entries))
	now := time.Now()
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		e := elem.Value.(*entry[K, V])
		candidates = append(candidates, candidate[K]{
			key:       e.key,
			size:      e.data.SizeBytes,
			frequency: e.data.AccessFrequency,
			ageNanos:  int64(e.data.Age(now)),
		})
	}

	orderVictims(c.policy, candidates, Stats{
		Entries:        len(c.entries),
		SizeBytes:      c.size,
		MaxEntries:     c.cfg.MaxEntries,
		MaxMemoryBytes: c.cfg.MaxMemoryBytes,
		Hits:           c.hits,
		Misses:         c.misses,
	})

	evicted := 0
	for _, victim := range candidates {
		if evicted >= c.cfg.EvictionBatchSize {
			break
		}
		if float64(c.size) <= targetSize && float64(len(c.entries)) <= targetCount {
			break
		}
		elem, ok := c.entries[victim.key]
		if !ok {
			continue
		}
		c.removeElement(elem)
		c.evictions++
		evicted++
	}
}
