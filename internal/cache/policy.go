// Package cache implements the Memory Manager (spec.md §4.G): a generic,
// size- and count-bounded cache with pluggable eviction policies. Grounded
// on original_source/src/core/memory_manager/eviction.rs's
// EvictionStrategy-per-policy design and the teacher's
// internal/semantic/lru_cache.go's container/list + map + sync.RWMutex
// idiom for the access-order structure.
package cache

import "sort"

// Policy selects which victim-ordering rule Cache.evictIfNeeded uses once the
// high water mark is crossed.
type Policy string

const (
	PolicyLRU          Policy = "lru"
	PolicyLFU          Policy = "lfu"
	PolicySizeWeighted Policy = "size_weighted"
	PolicyAgeWeighted  Policy = "age_weighted"
	PolicyAdaptive     Policy = "adaptive"
)

// candidate is one entry under eviction consideration: just enough
// bookkeeping to rank it under any policy without re-touching the entry
// map during sort.
type candidate[K comparable] struct {
	key       K
	size      int64
	frequency float64
	ageNanos  int64
}

// orderVictims sorts candidates from first-to-evict to last-to-evict
// under policy. Ties keep the input order (sort.SliceStable), which for
// LRU is access-order (oldest-accessed first, matching the teacher's
// list.Back()-is-oldest convention).
func orderVictims[K comparable](policy Policy, candidates []candidate[K], stats Stats) {
	switch policy {
	case PolicyLFU:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].frequency < candidates[j].frequency
		})
	case PolicySizeWeighted:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].size > candidates[j].size
		})
	case PolicyAgeWeighted:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].ageNanos > candidates[j].ageNanos
		})
	case PolicyAdaptive:
		orderVictims(chooseAdaptivePolicy(stats), candidates, stats)
	case PolicyLRU:
		fallthrough
	default:
		// candidates arrives in access order (least-recently-used first);
		// nothing to sort.
	}
}

// chooseAdaptivePolicy implements AdaptiveEviction::choose_strategy: pick
// the policy best suited to current memory pressure, hit rate, and
// average entry size, re-evaluated on every eviction pass.
func chooseAdaptivePolicy(s Stats) Policy {
	memoryPressure := 0.0
	if s.MaxMemoryBytes > 0 {
		memoryPressure = float64(s.SizeBytes) / float64(s.MaxMemoryBytes)
	}
	hitRate := 0.0
	if total := s.Hits + s.Misses; total > 0 {
		hitRate = float64(s.Hits) / float64(total)
	}
	averageEntrySize := int64(1024)
	if s.Entries > 0 {
		averageEntrySize = s.SizeBytes / int64(s.Entries)
	}

	switch {
	case memoryPressure > 0.9:
		return PolicySizeWeighted
	case hitRate < 0.5:
		return PolicyLRU
	case hitRate > 0.8:
		return PolicyLFU
	case averageEntrySize > 1024*1024:
		return PolicySizeWeighted
	default:
		return PolicyAgeWeighted
	}
}

// parsePolicy maps config.CacheOptions.Policy's string form onto Policy,
// defaulting to LRU for an unrecognized value (config.CacheOptions.Validate
// does not constrain the string, so Cache itself must be permissive).
func parsePolicy(s string) Policy {
	switch Policy(s) {
	case PolicyLRU, PolicyLFU, PolicySizeWeighted, PolicyAgeWeighted, PolicyAdaptive:
		return Policy(s)
	default:
		return PolicyLRU
	}
}
