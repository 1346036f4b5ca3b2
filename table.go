// Package sht implements an open-addressed, linear-probed hash table using
// Robin Hood displacement with explicit probe-sequence-length accounting.
//
// A Table is not safe for concurrent use. Callers that need concurrent
// access should wrap a Table in github.com/ipilcher/sht/guarded, which
// adds a sync.RWMutex around the same operations.
package sht

import "fmt"

const (
	// maxTableSize is the largest number of buckets a table may hold: the
	// bucket word's hash field is 24 bits wide, and the probe engine relies
	// on never needing more index bits than that to stay inside a uint32.
	maxTableSize = 1 << 24

	// maxShared is the largest number of simultaneous read-only iterators
	// a table will hand out.
	maxShared = 0x7FFF

	// lockExclusive marks the lock field as held by a single read-write
	// iterator.
	lockExclusive = 0xFFFF

	defaultLFT      = 85 // load factor threshold, percent
	defaultPSLLimit = 127
	defaultCapacity = 6
)

// EqualFunc reports whether two keys that hashed alike are actually equal.
// A nil EqualFunc (the default) falls back to Go's built-in == on K.
type EqualFunc[K comparable] func(a, b K) bool

// FreeFunc is called on a value removed from a table (by Delete, Clear, or
// Close) or overwritten by Set, so callers can release resources the value
// owns. Pop, Replace and Swap hand the value back instead and do not call
// it. It is optional; the zero value is a no-op.
type FreeFunc[V any] func(v V)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Table is a Robin Hood hash table mapping keys of type K to values of
// type V. The zero value is not usable; construct one with New.
type Table[K comparable, V any] struct {
	ctrl    []bucketWord
	entries []entry[K, V]

	mask  uint32 // tsize - 1
	tsize uint32
	count uint32
	thold uint32 // count at which the next insert triggers a grow

	lft      uint8 // load factor threshold, percent of tsize
	pslLimit uint8 // circuit breaker: no entry may reach this probe sequence length

	pslSum    uint64 // sum of all occupied entries' PSLs, for Table.Load
	peakPSL   uint8  // largest PSL seen since the last grow or Clear
	atLimitCt uint32 // number of entries currently sitting at pslLimit-1

	hashFn HashFunc[K]
	eqFn   EqualFunc[K]
	freeFn FreeFunc[V]

	err  Err
	lock uint16 // 0 unlocked, 1..maxShared shared count, lockExclusive exclusive

	reserveCap int // capacity requested via WithCapacity, consumed by New
}

// Option configures a Table at construction time. Options are applied in
// order inside New; passing an invalid value aborts the program, since by
// the time New returns there would be no safe way to report the mistake
// through a zero-value Table.
type Option[K comparable, V any] func(*Table[K, V])

// WithHasher overrides the table's hash function. The default, installed
// when no WithHasher option is given, is DefaultHasher[K]().
func WithHasher[K comparable, V any](fn HashFunc[K]) Option[K, V] {
	return func(t *Table[K, V]) {
		if fn == nil {
			abort("sht.WithHasher: nil hash function")
		}
		t.hashFn = fn
	}
}

// WithEqual overrides key equality. Without it, keys are compared with ==.
func WithEqual[K comparable, V any](fn EqualFunc[K]) Option[K, V] {
	return func(t *Table[K, V]) {
		t.eqFn = fn
	}
}

// WithFree installs a callback invoked on values as they're evicted from
// the table by Delete, Clear, or Close, and on the old value when Set
// overwrites it. Pop does not call it.
func WithFree[K comparable, V any](fn FreeFunc[V]) Option[K, V] {
	return func(t *Table[K, V]) {
		t.freeFn = fn
	}
}

// WithLFT sets the load factor threshold as a percentage (1-100) of table
// size at which the table grows. The default is 85.
func WithLFT[K comparable, V any](pct uint8) Option[K, V] {
	return func(t *Table[K, V]) {
		if pct < 1 || pct > 100 {
			abort(fmt.Sprintf("sht.WithLFT: %d out of range [1, 100]", pct))
		}
		t.lft = pct
	}
}

// WithPSLLimit sets the circuit breaker against pathological hash
// functions: an insert whose probe sequence length would reach limit
// fails with ErrBadHash instead of probing forever. The default is 127,
// the largest value the 7-bit PSL field can hold.
func WithPSLLimit[K comparable, V any](limit uint8) Option[K, V] {
	return func(t *Table[K, V]) {
		if limit < 1 || limit > 127 {
			abort(fmt.Sprintf("sht.WithPSLLimit: %d out of range [1, 127]", limit))
		}
		t.pslLimit = limit
	}
}

// WithCapacity reserves room for at least n entries before the first
// insert would otherwise trigger a grow.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(t *Table[K, V]) {
		if n < 0 {
			abort(fmt.Sprintf("sht.WithCapacity: negative capacity %d", n))
		}
		t.reserveCap = n
	}
}

// New constructs a Table. With no options, it uses DefaultHasher[K](),
// == for equality, an 85% load factor threshold, and a PSL circuit
// breaker of 127.
func New[K comparable, V any](opts ...Option[K, V]) *Table[K, V] {
	t := &Table[K, V]{
		lft:      defaultLFT,
		pslLimit: defaultPSLLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.hashFn == nil {
		t.hashFn = DefaultHasher[K]()
	}

	capacity := t.reserveCap
	if capacity == 0 {
		capacity = defaultCapacity
	}
	t.allocArrays(capToTsize(capacity, t.lft))
	return t
}

// capToTsize converts a requested entry capacity and load factor threshold
// into the smallest power-of-2 table size that keeps the table below
// threshold at that capacity. It aborts if the request is too large to ever
// satisfy, which is appropriate for its caller (New): it has no Err return
// path to report the problem through.
func capToTsize(capacity int, lft uint8) uint32 {
	ts, err := tryCapToTsize(capacity, lft)
	if err != ErrOK {
		abort(fmt.Sprintf("sht: requested capacity %d too large", capacity))
	}
	return ts
}

// tryCapToTsize is capToTsize without the abort, for callers (Reserve) that
// have an Err return path and should use it instead of panicking.
func tryCapToTsize(capacity int, lft uint8) (uint32, Err) {
	if capacity <= 0 {
		capacity = 1
	}
	scaled := (uint64(capacity)*100 + uint64(lft) - 1) / uint64(lft)
	if scaled > maxTableSize {
		return 0, ErrTooBig
	}
	ts := nextPowerOf2(uint32(scaled))
	if ts < 2 {
		ts = 2
	}
	return ts, ErrOK
}

// Size returns the number of entries currently stored.
func (t *Table[K, V]) Size() int {
	return int(t.count)
}

// Empty reports whether the table holds no entries.
func (t *Table[K, V]) Empty() bool {
	return t.count == 0
}

// Cap returns the number of buckets currently allocated.
func (t *Table[K, V]) Cap() int {
	return int(t.tsize)
}

// LastErr returns the error code left by the most recent operation that
// can fail at runtime (Add, Set, Reserve). Each such call overwrites it
// with its result, except that Add and Set leave it unchanged when they
// are refused with ErrIterLock because an iterator is open.
func (t *Table[K, V]) LastErr() Err {
	return t.err
}

// Load returns the table's average probe sequence length across all
// occupied entries, a measure of clustering. It returns 0 for an empty
// table.
func (t *Table[K, V]) Load() float64 {
	if t.count == 0 {
		return 0
	}
	return float64(t.pslSum) / float64(t.count)
}

// PeakPSL returns the largest probe sequence length any entry has reached
// since the table was created, last grown, or last cleared.
func (t *Table[K, V]) PeakPSL() int {
	return int(t.peakPSL)
}

// Reserve grows the table, if necessary, so it can hold at least n entries
// without triggering an automatic grow. It returns ErrTooBig if n would
// require more than 2^24 buckets.
func (t *Table[K, V]) Reserve(n int) Err {
	t.err = ErrOK
	if t.lock != 0 {
		t.err = ErrIterLock
		return ErrIterLock
	}
	want, err := tryCapToTsize(n, t.lft)
	if err != ErrOK {
		t.err = err
		return err
	}
	if want <= t.tsize {
		return ErrOK
	}
	if err := t.growTo(want); err != ErrOK {
		t.err = err
		return err
	}
	return ErrOK
}

// Clear removes all entries, calling the table's FreeFunc (if any) on
// each value, but keeps the current allocation.
//
// Clear fails with ErrIterLock, without touching the table, if any
// iterator currently holds it.
func (t *Table[K, V]) Clear() Err {
	if t.lock != 0 {
		return ErrIterLock
	}
	if t.freeFn != nil {
		for i, w := range t.ctrl {
			if !w.empty() {
				t.freeFn(t.entries[i].value)
			}
		}
	}
	for i := range t.ctrl {
		t.ctrl[i] = emptyWord
	}
	var zero entry[K, V]
	for i := range t.entries {
		t.entries[i] = zero
	}
	t.count = 0
	t.pslSum = 0
	t.peakPSL = 0
	t.atLimitCt = 0
	return ErrOK
}

// Close releases the table's storage, calling FreeFunc on every remaining
// value first. A closed Table must not be used again.
//
// Close aborts if any iterator currently holds the table: unlike the
// runtime failures the other methods report with an Err, closing a table
// out from under a live iterator corrupts memory the iterator still
// holds a pointer into, so this is treated as a programming error rather
// than a recoverable condition.
func (t *Table[K, V]) Close() {
	if t.lock != 0 {
		abort("sht: Close called with an iterator still open")
	}
	if t.freeFn != nil {
		for i, w := range t.ctrl {
			if !w.empty() {
				t.freeFn(t.entries[i].value)
			}
		}
	}
	t.ctrl = nil
	t.entries = nil
}

func (t *Table[K, V]) keysEqual(a, b K) bool {
	if t.eqFn != nil {
		return t.eqFn(a, b)
	}
	return a == b
}
