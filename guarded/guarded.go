// Package guarded wraps sht.Table behind a sync.RWMutex, giving it the
// sync.Map-shaped method set Go programmers already expect from a
// concurrent map, for callers who need one table shared across goroutines.
// sht.Table itself stays single-threaded, since the probe engine, grow,
// and the iterator lock all assume an exclusive caller.
package guarded

import (
	"sync"

	"github.com/ipilcher/sht"
)

// Guarded is a concurrency-safe wrapper around an *sht.Table. The zero
// value is not usable; construct one with New.
type Guarded[K comparable, V comparable] struct {
	mu sync.RWMutex
	t  *sht.Table[K, V]
}

// New constructs a Guarded table, forwarding opts to sht.New.
func New[K comparable, V comparable](opts ...sht.Option[K, V]) *Guarded[K, V] {
	return &Guarded[K, V]{t: sht.New(opts...)}
}

// Load returns the value stored for key, and whether it was present.
func (g *Guarded[K, V]) Load(key K) (value V, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.t.Get(key)
}

// Store sets the value for key, overwriting any existing value.
func (g *Guarded[K, V]) Store(key K, value V) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.t.Set(key, value)
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores and returns value. loaded reports whether the value came from the
// table rather than from the value argument.
func (g *Guarded[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.t.Get(key); ok {
		return v, true
	}
	g.t.Add(key, value)
	return value, false
}

// LoadAndDelete deletes the value for key, returning the value it held, if
// any.
func (g *Guarded[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok, _ := g.t.Pop(key)
	return v, ok
}

// Delete deletes the value for key.
func (g *Guarded[K, V]) Delete(key K) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.t.Delete(key)
}

// Swap stores value for key and returns the value it replaced, if any.
func (g *Guarded[K, V]) Swap(key K, value V) (previous V, loaded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	previous, loaded = g.t.Get(key)
	g.t.Set(key, value)
	return previous, loaded
}

// CompareAndSwap stores new for key if the current value equals old.
func (g *Guarded[K, V]) CompareAndSwap(key K, old, newValue V) (swapped bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.t.Get(key)
	if !ok || cur != old {
		return false
	}
	g.t.Set(key, newValue)
	return true
}

// CompareAndDelete deletes the entry for key if its current value equals
// old.
func (g *Guarded[K, V]) CompareAndDelete(key K, old V) (deleted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.t.Get(key)
	if !ok || cur != old {
		return false
	}
	g.t.Delete(key)
	return true
}

// Range calls fn for each key/value pair, stopping early if fn returns
// false. fn must not call back into g; Range already holds the read lock
// for the duration of the call.
func (g *Guarded[K, V]) Range(fn func(key K, value V) bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.t.Each(fn)
}

// Clear deletes all entries.
func (g *Guarded[K, V]) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.t.Clear()
}

// Size returns the number of entries currently stored.
func (g *Guarded[K, V]) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.t.Size()
}

// Close releases the underlying table's storage. A closed Guarded must
// not be used again.
func (g *Guarded[K, V]) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.t.Close()
}
