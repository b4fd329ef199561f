// Package cmap contains a sharded concurrent map whose values can be awaited.
//
// A caller that finds a key missing can claim it and compute the value while later callers
// wait for it to be set, instead of computing it again themselves. If the computation fails
// an error is stored instead, which the waiters receive.
package cmap

import (
	"fmt"
	"sync"
)

// DefaultShardCount is a reasonable default shard count for large maps.
const DefaultShardCount = 1 << 8

// SmallShardCount is a shard count for maps that only ever hold a handful of keys.
const SmallShardCount = 1 << 2

// A Map is the top-level map type. All functions on it are threadsafe.
// It should be constructed via New() rather than creating an instance directly.
type Map[K comparable, V any] struct {
	shards []shard[K, V]
	hasher func(K) uint64
	mask   uint64
}

// New creates a new Map using the given hasher to hash items in it.
// The shard count must be a power of 2; it will panic if not.
func New[K comparable, V any](shardCount uint64, hasher func(K) uint64) *Map[K, V] {
	mask := shardCount - 1
	if shardCount == 0 || (shardCount&mask) != 0 {
		panic(fmt.Sprintf("Shard count %d is not a power of 2", shardCount))
	}
	m := &Map[K, V]{
		shards: make([]shard[K, V], shardCount),
		mask:   mask,
		hasher: hasher,
	}
	for i := range m.shards {
		m.shards[i].m = map[K]*slot[V]{}
	}
	return m
}

func (m *Map[K, V]) shard(key K) *shard[K, V] {
	return &m.shards[m.hasher(key)&m.mask]
}

// Set stores a value for the key, overwriting anything there and waking anything waiting on it.
func (m *Map[K, V]) Set(key K, val V) {
	m.shard(key).set(key, &slot[V]{val: val})
}

// SetError stores an error for the key in place of a value.
func (m *Map[K, V]) SetError(key K, err error) {
	m.shard(key).set(key, &slot[V]{err: err})
}

// Get returns the value for the given key, or its zero value if it hasn't been set.
// If an error has been stored for the key, that is returned instead.
func (m *Map[K, V]) Get(key K) (V, error) {
	v, _, _, err := m.shard(key).get(key, false)
	return v, err
}

// GetOrWait returns the value or, if the key isn't set, a channel that closes once it is.
// The caller will need to call GetOrWait again after the channel closes.
// first is true for the one call that found the key entirely absent; that caller is expected
// to set it eventually. It's always false if the channel is nil.
func (m *Map[K, V]) GetOrWait(key K) (val V, wait <-chan struct{}, first bool, err error) {
	return m.shard(key).get(key, true)
}

// Len returns the number of keys that have been set. Keys that are only awaited don't count.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		n += m.shards[i].len()
	}
	return n
}

// A slot holds either a result for a key, or the channel that waiters block on until there is one.
type slot[V any] struct {
	val  V
	err  error
	wait chan struct{}
}

type shard[K comparable, V any] struct {
	m map[K]*slot[V]
	l sync.Mutex
}

func (s *shard[K, V]) set(key K, next *slot[V]) {
	s.l.Lock()
	defer s.l.Unlock()
	if existing := s.m[key]; existing != nil && existing.wait != nil {
		close(existing.wait)
	}
	s.m[key] = next
}

func (s *shard[K, V]) get(key K, wait bool) (val V, ch <-chan struct{}, first bool, err error) {
	s.l.Lock()
	defer s.l.Unlock()
	if existing := s.m[key]; existing != nil {
		if existing.wait != nil {
			return val, existing.wait, false, nil
		}
		return existing.val, nil, false, existing.err
	} else if !wait {
		return val, nil, false, nil
	}
	c := make(chan struct{})
	s.m[key] = &slot[V]{wait: c}
	return val, c, true, nil
}

func (s *shard[K, V]) len() int {
	s.l.Lock()
	defer s.l.Unlock()
	n := 0
	for _, v := range s.m {
		if v.wait == nil {
			n++
		}
	}
	return n
}
