package sht

// Iterator locking keeps concurrent structural mutation from invalidating
// an in-progress traversal. The table's lock field holds one of three
// kinds of state: 0 (unlocked), 1..maxShared (that many read-only
// iterators outstanding), or lockExclusive (one read-write iterator
// outstanding). Read-only iterators share; a read-write iterator is
// exclusive of everything, including other read-write iterators.

type iterCursor[K comparable, V any] struct {
	t       *Table[K, V]
	pos     uint32
	started bool
	done    bool
	valid   bool // pos currently points at a live entry returned by Next
	recheck bool // Delete shifted a not-yet-visited entry into pos
	closed  bool
}

func (c *iterCursor[K, V]) next() (key K, value V, ok bool) {
	if c.done {
		return key, value, false
	}

	switch {
	case c.recheck:
		c.recheck = false
	case !c.started:
		c.started = true
	default:
		c.pos++
	}

	for c.pos < uint32(len(c.t.ctrl)) {
		if !c.t.ctrl[c.pos].empty() {
			c.valid = true
			return c.t.entries[c.pos].key, c.t.entries[c.pos].value, true
		}
		c.pos++
	}

	c.done = true
	c.valid = false
	return key, value, false
}

func (c *iterCursor[K, V]) replaceCurrent(value V) Err {
	if !c.valid {
		return ErrIterNoLast
	}
	c.t.entries[c.pos].value = value
	return ErrOK
}

// deleteCurrent removes the entry Next last returned. The backward shift
// may pull an entry the iterator hasn't visited yet into pos, so the next
// call to next() re-examines pos instead of stepping past it.
func (c *iterCursor[K, V]) deleteCurrent() Err {
	if !c.valid {
		return ErrIterNoLast
	}
	c.t.removeAt(c.pos)
	c.valid = false
	c.recheck = true
	return ErrOK
}

// RoIter is a read-only iterator over a Table. Any number of RoIters (up
// to an internal limit) may be outstanding at once, but none may coexist
// with an RwIter. Close it when done, even after exhausting it, since the
// lock it holds isn't released automatically.
type RoIter[K comparable, V any] struct {
	cur iterCursor[K, V]
}

// ROIter opens a read-only iterator. It fails with ErrIterLock if a
// read-write iterator currently holds the table, or ErrIterCount if the
// table already has the maximum number of read-only iterators open.
func (t *Table[K, V]) ROIter() (*RoIter[K, V], Err) {
	if t.lock == lockExclusive {
		return nil, ErrIterLock
	}
	if t.lock >= maxShared {
		return nil, ErrIterCount
	}
	t.lock++
	return &RoIter[K, V]{cur: iterCursor[K, V]{t: t}}, ErrOK
}

// Next advances to the next occupied entry and reports it. ok is false
// once the table has been exhausted.
func (it *RoIter[K, V]) Next() (key K, value V, ok bool) {
	return it.cur.next()
}

// Close releases the iterator's hold on the table. It is safe to call more
// than once.
func (it *RoIter[K, V]) Close() {
	if it.cur.closed {
		return
	}
	it.cur.closed = true
	it.cur.t.lock--
}

// RwIter is a read-write iterator over a Table: it can delete or replace
// the value of the entry it's currently positioned at. Only one RwIter (and
// no RoIter) may be outstanding at a time. Close it when done.
type RwIter[K comparable, V any] struct {
	cur iterCursor[K, V]
}

// RWIter opens a read-write iterator. It fails with ErrIterLock, without
// changing the table, if any iterator (read-only or read-write) is
// currently outstanding.
func (t *Table[K, V]) RWIter() (*RwIter[K, V], Err) {
	if t.lock != 0 {
		return nil, ErrIterLock
	}
	t.lock = lockExclusive
	return &RwIter[K, V]{cur: iterCursor[K, V]{t: t}}, ErrOK
}

// Next advances to the next occupied entry and reports it. ok is false
// once the table has been exhausted.
func (it *RwIter[K, V]) Next() (key K, value V, ok bool) {
	return it.cur.next()
}

// Replace overwrites the value of the entry Next last returned. It fails
// with ErrIterNoLast if Next hasn't been called yet, or if the entry it
// last returned has since been deleted.
func (it *RwIter[K, V]) Replace(value V) Err {
	return it.cur.replaceCurrent(value)
}

// Delete removes the entry Next last returned. It fails with
// ErrIterNoLast under the same conditions as Replace.
func (it *RwIter[K, V]) Delete() Err {
	return it.cur.deleteCurrent()
}

// Close releases the iterator's exclusive hold on the table. It is safe to
// call more than once. RwIter deliberately does not promote RoIter's
// Close: the two release different lock states, and an accidental method
// promotion here would be easy to misuse across a type change.
func (it *RwIter[K, V]) Close() {
	if it.cur.closed {
		return
	}
	it.cur.closed = true
	it.cur.t.lock = 0
}
