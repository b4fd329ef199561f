// Package synccache memoizes values derived from the published sync state.
//
// Each value is computed at most once per sync generation, however many goroutines ask
// for it at once; later callers wait for the first one to finish. Publishing a new
// generation drops every entry at once.
package synccache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/cmap"
	"github.com/thought-machine/blazesync/src/core"
)

var log = logging.Log

// A Key identifies one consumer of the cache. Keys are obtained from Register.
type Key string

// An entry is one memoized result. Absent results are memoized too.
type entry struct {
	val     any
	present bool
}

// A generation is the cache for one published sync.
type generation struct {
	data    *core.ProjectData
	entries *cmap.Map[Key, entry]
}

// A Cache is owned by a project's sync session. The zero value is not usable; use New.
type Cache struct {
	current atomic.Pointer[generation]
	keys    map[Key]struct{}
	mutex   sync.Mutex
}

// New returns a new, empty cache. Nothing is available from it until the first Publish.
func New() *Cache {
	return &Cache{keys: map[Key]struct{}{}}
}

// Register claims a key for a consumer. Registering the same name twice is an error since
// two consumers would otherwise receive each other's values.
func (c *Cache) Register(name string) (Key, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	key := Key(name)
	if _, present := c.keys[key]; present {
		return "", fmt.Errorf("sync cache key %s is already registered", name)
	}
	c.keys[key] = struct{}{}
	return key, nil
}

// MustRegister is like Register but panics on failure.
func (c *Cache) MustRegister(name string) Key {
	key, err := c.Register(name)
	if err != nil {
		panic(err)
	}
	return key
}

func (c *Cache) isRegistered(key Key) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, present := c.keys[key]
	return present
}

// Publish makes the given project data current and discards everything computed from
// the previous one. Readers either see the old generation or the new one, never a mixture.
func (c *Cache) Publish(data *core.ProjectData) {
	c.current.Store(&generation{
		data:    data,
		entries: cmap.New[Key, entry](cmap.SmallShardCount, cmap.XXHashOf[Key]),
	})
}

// Clear drops the current generation without replacing it, eg. when the project is closed.
func (c *Cache) Clear() {
	c.current.Store(nil)
}

// Current returns the currently published project data, or nil if no sync has completed.
func (c *Cache) Current() *core.ProjectData {
	if gen := c.current.Load(); gen != nil {
		return gen.data
	}
	return nil
}

// Get returns the value for the given key in the current generation, computing it if
// nobody has yet. The second return value is false if there's no current sync or the
// computation produced nothing.
// compute must not have side effects; it sees only the generation it was called for, and
// its result is dropped along with that generation.
func Get[V any](c *Cache, key Key, compute func(*core.ProjectData) (V, bool)) (V, bool) {
	var zero V
	if !c.isRegistered(key) {
		log.Errorf("Sync cache key %s used without being registered", key)
		return zero, false
	}
	gen := c.current.Load()
	if gen == nil {
		return zero, false
	}
	for {
		e, wait, first, err := gen.entries.GetOrWait(key)
		if err != nil {
			log.Warning("Cached value %s is unavailable: %s", key, err)
			return zero, false
		} else if wait == nil {
			return unwrap[V](key, e)
		} else if first {
			return computeEntry(gen, key, compute)
		}
		<-wait
	}
}

// computeEntry runs compute and stores its result. If compute panics, anyone waiting
// for it is released with an error before the panic continues.
func computeEntry[V any](gen *generation, key Key, compute func(*core.ProjectData) (V, bool)) (v V, ok bool) {
	stored := false
	defer func() {
		if !stored {
			gen.entries.SetError(key, fmt.Errorf("computing %s failed", key))
		}
	}()
	v, ok = compute(gen.data)
	gen.entries.Set(key, entry{val: v, present: ok})
	stored = true
	return v, ok
}

func unwrap[V any](key Key, e entry) (V, bool) {
	if !e.present {
		var zero V
		return zero, false
	}
	v, ok := e.val.(V)
	if !ok {
		log.Errorf("Cached value %s has type %T, not the requested type", key, e.val)
	}
	return v, ok
}
