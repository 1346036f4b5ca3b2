package sht

// removeAt evicts the occupied slot at pos, calling the table's FreeFunc on
// its value (if any), then closes the gap with a backward shift.
func (t *Table[K, V]) removeAt(pos uint32) {
	w := t.ctrl[pos]
	if t.freeFn != nil {
		t.freeFn(t.entries[pos].value)
	}
	t.recordRemoveStats(w.psl())
	t.shift(pos)
}

// shift closes the gap left at pos by walking forward and pulling each
// subsequent displaced entry (PSL > 0) back one slot, decrementing its PSL
// to match, until it reaches either an empty slot or an entry already at
// its ideal bucket (PSL 0) — the point beyond which nothing can be pulled
// back any further. The walk is entirely modular (via t.mask), so a run
// that straddles the end of the array wraps into index 0 exactly as it
// would continue probing forward; there's no separate wraparound case to
// special-case the way a flat, non-modular buffer would need.
//
// removeAt has already folded the vacated slot's own PSL out of pslSum and
// atLimitCt; every slot pulled back here is a separate entry whose PSL is
// dropping by one, so each one gets the same treatment on its own behalf.
func (t *Table[K, V]) shift(pos uint32) {
	cur := pos
	for {
		next := (cur + 1) & t.mask
		w := t.ctrl[next]
		if w.empty() || w.psl() == 0 {
			t.ctrl[cur] = emptyWord
			var zero entry[K, V]
			t.entries[cur] = zero
			return
		}
		t.pslSum--
		if w.psl() == t.pslLimit-1 && t.atLimitCt > 0 {
			t.atLimitCt--
		}
		t.ctrl[cur] = w.withPSL(w.psl() - 1)
		t.entries[cur] = t.entries[next]
		cur = next
	}
}
