package sht

// allocArrays (re)allocates the table's storage at the given size and
// resets it to empty. tsize must already be a power of two.
func (t *Table[K, V]) allocArrays(tsize uint32) {
	t.ctrl = make([]bucketWord, tsize)
	for i := range t.ctrl {
		t.ctrl[i] = emptyWord
	}
	t.entries = make([]entry[K, V], tsize)

	t.tsize = tsize
	t.mask = tsize - 1
	t.thold = tsize * uint32(t.lft) / 100
	if t.thold == 0 {
		t.thold = 1
	}

	t.count = 0
	t.pslSum = 0
	t.peakPSL = 0
	t.atLimitCt = 0
}

// grow doubles the table's size and rehashes every occupied entry into the
// new arrays.
func (t *Table[K, V]) grow() Err {
	return t.growTo(t.tsize * 2)
}

// growTo reallocates to newSize (which must be a power of two no smaller
// than the current size) and replays every occupied entry through the
// insertion-placement routine, using each entry's stored 24-bit hash
// rather than recomputing it: the hash field is sized to exactly the
// largest table this package allows, so it always carries enough bits to
// rehash correctly no matter how the table grows.
func (t *Table[K, V]) growTo(newSize uint32) Err {
	if newSize > maxTableSize {
		return ErrTooBig
	}

	oldCtrl := t.ctrl
	oldEntries := t.entries

	t.allocArrays(newSize)

	for i, w := range oldCtrl {
		if w.empty() {
			continue
		}
		hash24 := w.hash24()
		pos := hash24 & t.mask
		t.placeNew(hash24, pos, 0, oldEntries[i])
	}

	return ErrOK
}
