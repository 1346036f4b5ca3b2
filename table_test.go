package sht

import (
	"testing"
)

// identityHasher lets a test pick the exact 24-bit hash prefix a key maps
// to, so probe-chain layouts can be arranged deterministically instead of
// depending on DefaultHasher's distribution.
func identityHasher(key uint32) uint32 {
	return key
}

func constHasher(key uint32) uint32 {
	return 0
}

func TestFillAndGrow(t *testing.T) {
	tbl := New[uint32, uint32](
		WithHasher[uint32, uint32](identityHasher),
		WithLFT[uint32, uint32](85),
		WithCapacity[uint32, uint32](6),
	)

	if tbl.Cap() != 8 {
		t.Fatalf("initial tsize = %d, want 8", tbl.Cap())
	}
	if tbl.thold != 6 {
		t.Fatalf("initial thold = %d, want 6", tbl.thold)
	}

	for i := uint32(0); i < 6; i++ {
		if existed, err := tbl.Add(i, i*10); existed || err != ErrOK {
			t.Fatalf("Add(%d): existed=%v err=%v", i, existed, err)
		}
	}
	if tbl.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", tbl.Size())
	}

	// The seventh insert must trigger a grow to tsize=16, thold=13.
	if existed, err := tbl.Add(6, 60); existed || err != ErrOK {
		t.Fatalf("Add(6): existed=%v err=%v", existed, err)
	}
	if tbl.Cap() != 16 {
		t.Fatalf("post-grow tsize = %d, want 16", tbl.Cap())
	}
	if tbl.thold != 13 {
		t.Fatalf("post-grow thold = %d, want 13", tbl.thold)
	}
	if tbl.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", tbl.Size())
	}

	for i := uint32(0); i < 7; i++ {
		v, ok := tbl.Get(i)
		if !ok || v != i*10 {
			t.Fatalf("Get(%d) = (%d, %v), want (%d, true)", i, v, ok, i*10)
		}
	}
}

// chainedHasher lets a test assign each key an exact 24-bit hash prefix so
// a probe chain's shape can be arranged deterministically.
func chainedHasher(hashes map[uint32]uint32) HashFunc[uint32] {
	return func(key uint32) uint32 {
		return hashes[key]
	}
}

func TestRobinHoodDisplacement(t *testing.T) {
	const keyX, keyY, keyZ = 1, 2, 3

	tbl := New[uint32, uint32](
		WithHasher[uint32, uint32](chainedHasher(map[uint32]uint32{
			keyX: 0,
			keyY: 1,
			keyZ: 0,
		})),
		WithLFT[uint32, uint32](100),
		WithCapacity[uint32, uint32](8),
	)
	if tbl.Cap() != 8 {
		t.Fatalf("tsize = %d, want 8", tbl.Cap())
	}

	// X (hash 0) lands at its ideal slot 0, PSL 0.
	if existed, err := tbl.Add(uint32(keyX), uint32(keyX)); existed || err != ErrOK {
		t.Fatalf("Add(X): existed=%v err=%v", existed, err)
	}
	// Y (hash 1) lands at its own ideal slot 1, PSL 0: no collision with X.
	if existed, err := tbl.Add(uint32(keyY), uint32(keyY)); existed || err != ErrOK {
		t.Fatalf("Add(Y): existed=%v err=%v", existed, err)
	}

	// Z (hash 0) collides with X at slot 0 (tie, PSL 0 == PSL 0, no swap,
	// advance), then reaches slot 1 with PSL 1 against Y's PSL 0. Z's PSL
	// now strictly exceeds Y's, so Z displaces Y: Z takes slot 1, and Y
	// continues the walk carrying its own old PSL 0, landing in the first
	// empty slot (2) at PSL 1.
	if existed, err := tbl.Add(uint32(keyZ), uint32(keyZ)); existed || err != ErrOK {
		t.Fatalf("Add(Z): existed=%v err=%v", existed, err)
	}

	type want struct {
		key uint32
		psl uint8
	}
	wants := []want{
		{keyX, 0},
		{keyZ, 1},
		{keyY, 1},
	}
	for i, w := range wants {
		cw := tbl.ctrl[i]
		if cw.empty() {
			t.Fatalf("slot %d unexpectedly empty", i)
		}
		if cw.psl() != w.psl {
			t.Fatalf("slot %d: psl = %d, want %d", i, cw.psl(), w.psl)
		}
		if tbl.entries[i].key != w.key {
			t.Fatalf("slot %d: key = %d, want %d", i, tbl.entries[i].key, w.key)
		}
	}
	if !tbl.ctrl[3].empty() {
		t.Fatalf("slot 3 should still be empty")
	}
	if tbl.pslSum != 2 {
		t.Fatalf("pslSum = %d, want 2 (X:0 + Z:1 + Y:1)", tbl.pslSum)
	}
}

func TestPSLCircuitBreaker(t *testing.T) {
	tbl := New[uint32, uint32](
		WithHasher[uint32, uint32](constHasher),
		WithLFT[uint32, uint32](100),
		WithCapacity[uint32, uint32](8),
		WithPSLLimit[uint32, uint32](3),
	)

	for i, key := range []uint32{1, 2, 3} {
		if existed, err := tbl.Add(key, key); existed || err != ErrOK {
			t.Fatalf("Add(%d) [%d]: existed=%v err=%v", key, i, existed, err)
		}
	}
	if tbl.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", tbl.Size())
	}

	if existed, err := tbl.Add(uint32(4), uint32(4)); err != ErrBadHash || existed {
		t.Fatalf("Add(4): existed=%v err=%v, want err=ErrBadHash", existed, err)
	}
	if tbl.Size() != 3 {
		t.Fatalf("Size() after failed insert = %d, want 3", tbl.Size())
	}

	// Removing the colliding entry at the limit clears the breaker.
	deleted, err := tbl.Delete(uint32(3))
	if !deleted || err != ErrOK {
		t.Fatalf("Delete(3): deleted=%v err=%v", deleted, err)
	}
	if existed, err := tbl.Add(uint32(4), uint32(4)); existed || err != ErrOK {
		t.Fatalf("Add(4) after clearing breaker: existed=%v err=%v", existed, err)
	}
}

func TestIteratorLock(t *testing.T) {
	tbl := New[uint32, uint32](WithHasher[uint32, uint32](identityHasher))
	tbl.Add(1, 10)
	tbl.Add(2, 20)

	ro1, err := tbl.ROIter()
	if err != ErrOK {
		t.Fatalf("ROIter(): err=%v", err)
	}
	ro2, err := tbl.ROIter()
	if err != ErrOK {
		t.Fatalf("second ROIter(): err=%v", err)
	}

	if _, err := tbl.RWIter(); err != ErrIterLock {
		t.Fatalf("RWIter() while RO iterators live: err=%v, want ErrIterLock", err)
	}
	if existed, err := tbl.Add(3, 30); err != ErrIterLock || existed {
		t.Fatalf("Add while RO iterators live: existed=%v err=%v, want ErrIterLock", existed, err)
	}

	ro1.Close()
	ro2.Close()

	if existed, err := tbl.Add(3, 30); existed || err != ErrOK {
		t.Fatalf("Add after closing RO iterators: existed=%v err=%v", existed, err)
	}

	rw, err := tbl.RWIter()
	if err != ErrOK {
		t.Fatalf("RWIter(): err=%v", err)
	}
	if _, err := tbl.ROIter(); err != ErrIterLock {
		t.Fatalf("ROIter() while RW iterator live: err=%v, want ErrIterLock", err)
	}
	rw.Close()

	if _, err := tbl.ROIter(); err != ErrOK {
		t.Fatalf("ROIter() after closing RW iterator: err=%v", err)
	}
}

func TestIteratorDeleteDoesNotSkip(t *testing.T) {
	tbl := New[uint32, uint32](
		WithHasher[uint32, uint32](constHasher),
		WithLFT[uint32, uint32](100),
		WithCapacity[uint32, uint32](8),
	)
	for _, key := range []uint32{1, 2, 3, 4} {
		tbl.Add(key, key*100)
	}

	rw, err := tbl.RWIter()
	if err != ErrOK {
		t.Fatalf("RWIter(): err=%v", err)
	}
	defer rw.Close()

	seen := map[uint32]bool{}
	for {
		k, _, ok := rw.Next()
		if !ok {
			break
		}
		seen[k] = true
		if k == 1 {
			if derr := rw.Delete(); derr != ErrOK {
				t.Fatalf("Delete(): err=%v", derr)
			}
		}
	}

	for _, key := range []uint32{1, 2, 3, 4} {
		if !seen[key] {
			t.Fatalf("iteration skipped key %d after a mid-traversal delete", key)
		}
	}
	if tbl.Size() != 3 {
		t.Fatalf("Size() after iterator delete = %d, want 3", tbl.Size())
	}

	if err := rw.Replace(999); err != ErrIterNoLast {
		t.Fatalf("Replace() after exhausting iterator: err=%v, want ErrIterNoLast", err)
	}
}

func TestReplaceAndSwap(t *testing.T) {
	tbl := New[uint32, uint32](WithHasher[uint32, uint32](identityHasher))
	tbl.Add(1, 100)

	if old, existed := tbl.Replace(1, 200); !existed || old != 100 {
		t.Fatalf("Replace(1, 200) = (%d, %v), want (100, true)", old, existed)
	}
	if old, existed := tbl.Replace(2, 999); existed || old != 0 {
		t.Fatalf("Replace(2, 999) on absent key = (%d, %v), want (0, false)", old, existed)
	}
	if v, ok := tbl.Get(2); ok {
		t.Fatalf("Replace on absent key created an entry: Get(2) = (%d, %v)", v, ok)
	}

	old, existed := tbl.Swap(1, 300)
	if !existed || old != 200 {
		t.Fatalf("Swap(1, 300) = (%d, %v), want (200, true)", old, existed)
	}
	if v, _ := tbl.Get(1); v != 300 {
		t.Fatalf("Get(1) after Swap = %d, want 300", v)
	}
}

func TestGetPtrMutatesInPlace(t *testing.T) {
	tbl := New[uint32, uint32](WithHasher[uint32, uint32](identityHasher))
	tbl.Add(1, 1)

	p := tbl.GetPtr(1)
	if p == nil {
		t.Fatalf("GetPtr(1) = nil")
	}
	*p = 42
	if v, _ := tbl.Get(1); v != 42 {
		t.Fatalf("Get(1) after GetPtr mutation = %d, want 42", v)
	}

	if tbl.GetPtr(2) != nil {
		t.Fatalf("GetPtr(2) on absent key did not return nil")
	}
}

func TestPopBypassesFreeFunc(t *testing.T) {
	var freed []uint32
	tbl := New[uint32, uint32](
		WithHasher[uint32, uint32](identityHasher),
		WithFree[uint32, uint32](func(v uint32) { freed = append(freed, v) }),
	)
	tbl.Add(1, 10)
	tbl.Add(2, 20)

	v, ok, err := tbl.Pop(1)
	if !ok || err != ErrOK || v != 10 {
		t.Fatalf("Pop(1) = (%d, %v, %v), want (10, true, ErrOK)", v, ok, err)
	}
	if len(freed) != 0 {
		t.Fatalf("FreeFunc called on a Pop'd value: %v", freed)
	}

	if deleted, err := tbl.Delete(2); !deleted || err != ErrOK {
		t.Fatalf("Delete(2): deleted=%v err=%v", deleted, err)
	}
	if len(freed) != 1 || freed[0] != 20 {
		t.Fatalf("FreeFunc not called on Delete: %v", freed)
	}
}

func TestInvariantIndexFromHashAndPSL(t *testing.T) {
	tbl := New[uint32, uint32](WithHasher[uint32, uint32](identityHasher))
	for i := uint32(0); i < 200; i++ {
		tbl.Add(i, i)
	}

	for i, w := range tbl.ctrl {
		if w.empty() {
			continue
		}
		ideal := w.hash24() & tbl.mask
		want := (ideal + uint32(w.psl())) & tbl.mask
		if want != uint32(i) {
			t.Fatalf("slot %d: ideal=%d psl=%d, expected index %d", i, ideal, w.psl(), want)
		}
	}
}
