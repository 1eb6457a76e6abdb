// Package cache is an in-memory result cache with LRU eviction and per-entry
// TTLs.
//
// [LRU] owns its entries on a single goroutine; callers talk to it over
// channels and never lock. [NewTyped] narrows it to one value type, which
// is how similarity results are cached:
//
//	lru := cache.NewLRU(cache.LRUOpts{Size: 1024})
//	defer lru.Close()
//
//	matches := cache.NewTyped[[]similar.Match](lru)
//	matches.Put(similar.Key(vec, 5), found, cache.WithTTL(10*time.Minute))
//	if m, ok := matches.Get(similar.Key(vec, 5)); ok {
//	    // served without touching the store
//	}
//
// Expired entries are evicted lazily on access. [LRU.Stats] and [StatsOf]
// report hits, misses, evictions and the current size:
//
//	if s, ok := cache.StatsOf(matches); ok {
//	    log.Info("similar cache", slog.Uint64("hits", s.Hits), slog.Uint64("misses", s.Misses))
//	}
package cache
