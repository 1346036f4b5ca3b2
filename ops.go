package sht

// Add inserts key with value only if key is not already present. It
// reports whether the key already existed (in which case value was not
// stored) and an error if growing the table to make room failed.
//
// Add fails with ErrIterLock, without touching the table, if any iterator
// (read-only or read-write) is currently open.
func (t *Table[K, V]) Add(key K, value V) (existed bool, err Err) {
	if t.lock != 0 {
		return false, ErrIterLock
	}
	existed, err = t.insert(key, value, false)
	t.err = err
	return existed, err
}

// Set inserts key with value, overwriting any existing value for key. It
// reports whether the key already existed.
//
// Set fails with ErrIterLock, without touching the table, if any iterator
// (read-only or read-write) is currently open.
func (t *Table[K, V]) Set(key K, value V) (existed bool, err Err) {
	if t.lock != 0 {
		return false, ErrIterLock
	}
	existed, err = t.insert(key, value, true)
	t.err = err
	return existed, err
}

// Get returns the value stored for key, if any.
func (t *Table[K, V]) Get(key K) (value V, ok bool) {
	hash24 := uint32(t.hashFn(key)) & hash24Mask
	pos, _, found := t.probeScan(hash24, key)
	if !found {
		return value, false
	}
	return t.entries[pos].value, true
}

// GetPtr returns a pointer to the stored value for key, or nil if key is
// not present. The pointer is valid until the next structural mutation
// (Add, Set, Delete, Pop, Clear, or a grow triggered by any of those), and
// lets a caller mutate a value in place without a find-then-replace
// round trip.
func (t *Table[K, V]) GetPtr(key K) *V {
	hash24 := uint32(t.hashFn(key)) & hash24Mask
	pos, _, found := t.probeScan(hash24, key)
	if !found {
		return nil
	}
	return &t.entries[pos].value
}

// Replace overwrites the value stored for an existing key, returning the
// value it replaced. It does nothing and reports existed == false if key
// is not present; no entry is created.
//
// Replace hands the displaced value back to the caller instead of passing
// it to FreeFunc, the same return-ownership contract Pop uses. That's a
// deliberate deviation from grouping it with the release-on-overwrite
// operations: Set is the only overwrite path that actually releases
// through FreeFunc. A caller that wants the FreeFunc behavior can get it
// by calling FreeFunc on the returned value itself.
func (t *Table[K, V]) Replace(key K, value V) (old V, existed bool) {
	hash24 := uint32(t.hashFn(key)) & hash24Mask
	pos, _, found := t.probeScan(hash24, key)
	if !found {
		return old, false
	}
	old = t.entries[pos].value
	t.entries[pos].value = value
	return old, true
}

// Swap is Replace by another name, for callers porting code that thinks of
// the operation as an atomic get-and-set rather than a conditional update.
func (t *Table[K, V]) Swap(key K, value V) (old V, existed bool) {
	return t.Replace(key, value)
}

// Delete removes key, if present, calling the table's FreeFunc on its
// value. It reports whether anything was removed.
//
// Delete fails with ErrIterLock, without touching the table, if any
// iterator (read-only or read-write) is currently open.
func (t *Table[K, V]) Delete(key K) (deleted bool, err Err) {
	if t.lock != 0 {
		return false, ErrIterLock
	}
	hash24 := uint32(t.hashFn(key)) & hash24Mask
	pos, _, found := t.probeScan(hash24, key)
	if !found {
		return false, ErrOK
	}
	t.removeAt(pos)
	return true, ErrOK
}

// Pop removes key, if present, and returns the value it held, bypassing
// FreeFunc so the caller takes ownership instead.
//
// Pop fails with ErrIterLock, without touching the table, if any iterator
// (read-only or read-write) is currently open.
func (t *Table[K, V]) Pop(key K) (value V, ok bool, err Err) {
	if t.lock != 0 {
		return value, false, ErrIterLock
	}
	hash24 := uint32(t.hashFn(key)) & hash24Mask
	pos, _, found := t.probeScan(hash24, key)
	if !found {
		return value, false, ErrOK
	}
	value = t.entries[pos].value
	w := t.ctrl[pos]
	t.recordRemoveStats(w.psl())
	t.shift(pos)
	return value, true, ErrOK
}

// Each calls fn for every entry in unspecified order, stopping early if fn
// returns false. It does not take the iterator lock, so fn must not
// mutate the table; callers that need to are better served by ROIter or
// RWIter.
func (t *Table[K, V]) Each(fn func(key K, value V) bool) {
	for i, w := range t.ctrl {
		if w.empty() {
			continue
		}
		if !fn(t.entries[i].key, t.entries[i].value) {
			return
		}
	}
}
