package sht

// probeScan walks the probe chain for key starting at its ideal bucket,
// stopping as soon as it proves the key can't be present: either an empty
// slot, or an occupied slot whose own PSL is smaller than how far we've
// already walked (Robin Hood's invariant guarantees anything with a
// shorter PSL than ours was inserted closer to its own ideal bucket, so
// our key, if present, would have appeared already).
//
// It returns the position and PSL at which a new entry would have to begin
// its displacement walk, and whether an equal key was found there instead.
// It never mutates the table, so callers can check capacity or circuit
// breakers before committing to an insert.
func (t *Table[K, V]) probeScan(hash24 uint32, key K) (pos uint32, psl uint8, found bool) {
	pos = hash24 & t.mask
	for {
		w := t.ctrl[pos]
		if w.empty() {
			return pos, psl, false
		}
		if w.psl() < psl {
			return pos, psl, false
		}
		if w.hash24() == hash24 && t.keysEqual(key, t.entries[pos].key) {
			return pos, psl, true
		}
		pos = (pos + 1) & t.mask
		psl++
	}
}

// placeNew runs the mutating half of Robin Hood insertion: starting at pos
// with candidate e at the given PSL, it walks forward, swapping the
// candidate into any slot occupied by an entry with a smaller PSL (that
// entry then continues the walk in the candidate's place), until it finds
// an empty slot to land in.
//
// Every entry the walk carries forward — the one being placed, or an
// occupant it displaced — may pass several occupants it doesn't outrank,
// and each such step raises that entry's stored PSL by one, exactly
// mirroring what a backward-shift deletion later undoes. The entry being
// placed is folded into pslSum/peakPSL/atLimitCt at its starting PSL, up
// front; every step the loop takes afterward adds one PSL unit for
// whichever entry is currently being carried. On the insert path the new
// key settles at pos itself (probeScan stops exactly where it lands or
// displaces); during a grow's replay it may walk several slots first.
//
// Go's copy-by-assignment semantics let a single pair of local variables
// (cw, ce) serve the role the original probe routine filled with a
// two-element scratch array toggled by a parity bit; there's no separate
// scratch buffer to manage here.
func (t *Table[K, V]) placeNew(hash24 uint32, pos uint32, psl uint8, e entry[K, V]) {
	cw := makeBucketWord(hash24, psl)
	ce := e

	t.count++
	t.recordPSL(psl)

	for {
		occ := t.ctrl[pos]
		if occ.empty() {
			t.ctrl[pos] = cw
			t.entries[pos] = ce
			return
		}
		if occ.psl() < cw.psl() {
			t.ctrl[pos], cw = cw, occ
			t.entries[pos], ce = ce, t.entries[pos]
		}
		pos = (pos + 1) & t.mask
		if cw.psl() >= t.pslLimit-1 {
			// insert already checked the new key's own landing PSL against
			// pslLimit before calling placeNew; reaching this point means a
			// carried entry's PSL would cross the ceiling purely by being
			// carried past occupants it doesn't outrank, which the circuit
			// breaker is supposed to make unreachable.
			abort("sht: PSL limit exceeded inside probe engine")
		}
		cw = cw.withPSL(cw.psl() + 1)
		t.pslSum++
		if cw.psl() > t.peakPSL {
			t.peakPSL = cw.psl()
		}
		if cw.psl() == t.pslLimit-1 {
			t.atLimitCt++
		}
	}
}

// recordPSL folds a single entry's PSL into the table-wide stats, for an
// entry placed at that PSL. Any further steps placeNew carries the entry
// are added by placeNew itself.
func (t *Table[K, V]) recordPSL(psl uint8) {
	t.pslSum += uint64(psl)
	if psl > t.peakPSL {
		t.peakPSL = psl
	}
	if psl == t.pslLimit-1 {
		t.atLimitCt++
	}
}

func (t *Table[K, V]) recordRemoveStats(psl uint8) {
	t.count--
	t.pslSum -= uint64(psl)
	if psl == t.pslLimit-1 && t.atLimitCt > 0 {
		t.atLimitCt--
	}
}

// insert is the shared implementation behind Add and Set. overwrite
// controls whether finding an existing key replaces its value (Set) or
// leaves it untouched (Add).
//
// A new key whose landing PSL would reach pslLimit fails with ErrBadHash
// before anything is mutated, rather than being allowed to land exactly
// at the limit: the limit is a hard ceiling on how far any entry is ever
// allowed to sit from its ideal bucket, so once the chain is long enough
// that a new arrival would have to cross it, the insert is refused until
// something along that chain is removed.
func (t *Table[K, V]) insert(key K, value V, overwrite bool) (existed bool, err Err) {
	for {
		hash24 := uint32(t.hashFn(key)) & hash24Mask
		pos, psl, found := t.probeScan(hash24, key)
		if found {
			if overwrite {
				old := t.entries[pos].value
				t.entries[pos].value = value
				if t.freeFn != nil {
					t.freeFn(old)
				}
			}
			return true, ErrOK
		}

		if psl >= t.pslLimit {
			return false, ErrBadHash
		}

		if t.count >= t.thold {
			if gerr := t.grow(); gerr != ErrOK {
				return false, gerr
			}
			continue
		}

		t.placeNew(hash24, pos, psl, entry[K, V]{key: key, value: value})
		return false, ErrOK
	}
}
