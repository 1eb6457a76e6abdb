package cache

import "time"

type PutOptions struct {
	// TTL bounds how long an entry may be served. Zero keeps it until evicted.
	TTL time.Duration
}

type PutOption func(*PutOptions)

func WithTTL(ttl time.Duration) PutOption {
	return func(o *PutOptions) { o.TTL = ttl }
}

// Cache stores untyped values. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, val any, opts ...PutOption)
}

// TypedCache narrows a Cache to values of type T.
type TypedCache[T any] interface {
	Get(key string) (T, bool)
	Put(key string, val T, opts ...PutOption)
}

// Statser is implemented by caches that count hits and misses.
type Statser interface {
	Stats() Stats
}

type typedCache[T any] struct {
	c Cache
}

// NewTyped wraps c. A stored value of another type reads as a miss.
func NewTyped[T any](c Cache) TypedCache[T] { return typedCache[T]{c: c} }

func (t typedCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := t.c.Get(key)
	if !ok {
		return zero, false
	}
	out, ok := v.(T)
	if !ok {
		return zero, false
	}
	return out, true
}

func (t typedCache[T]) Put(key string, val T, opts ...PutOption) {
	t.c.Put(key, val, opts...)
}

// Stats returns the wrapped cache's counters.
func (t typedCache[T]) Stats() Stats {
	if s, ok := t.c.(Statser); ok {
		return s.Stats()
	}
	return Stats{}
}

// StatsOf reports c's counters when it keeps any.
func StatsOf(c any) (Stats, bool) {
	s, ok := c.(Statser)
	if !ok {
		return Stats{}, false
	}
	return s.Stats(), true
}

var (
	_ TypedCache[any] = typedCache[any]{}
	_ Statser         = typedCache[any]{}
	_ Statser         = (*LRU)(nil)
)
