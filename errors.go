package sht

import "fmt"

// Err is a sticky error code, as described by spec.md's error taxonomy.
// It implements the standard error interface so callers can use errors.Is
// against the exported sentinel values.
type Err uint8

const (
	// ErrOK means no error occurred.
	ErrOK Err = iota
	// ErrAlloc means memory allocation failed. Kept for API parity with
	// the original C taxonomy; Go's make() panics rather than returning
	// an error on out-of-memory, so this code is never returned by this
	// package today.
	ErrAlloc
	// ErrBadESize means the entry type is too large. Kept for taxonomy
	// parity; unreachable, since V's size is fixed at compile time.
	ErrBadESize
	// ErrTooBig means the requested or grown table size exceeds the
	// 2^24 bucket limit.
	ErrTooBig
	// ErrBadHash means the PSL hard limit was hit (the circuit breaker
	// against a pathological hash function).
	ErrBadHash
	// ErrIterLock means a new iterator is incompatible with the current
	// lock state, or that a structural mutation (Add, Set, Delete, Pop,
	// Clear, Reserve) was refused because an iterator is open.
	ErrIterLock
	// ErrIterCount means the table already has the maximum number of
	// read-only iterators.
	ErrIterCount
	// ErrIterNoLast means an iterator mutation was attempted before the
	// first Next() call, or after iteration has ended.
	ErrIterNoLast

	errCount
)

var errMessages = [errCount]string{
	ErrOK:         "no error",
	ErrAlloc:      "memory allocation failed",
	ErrBadESize:   "entry type too large",
	ErrTooBig:     "requested table size too large",
	ErrBadHash:    "too many hash collisions",
	ErrIterLock:   "can't acquire iterator lock",
	ErrIterCount:  "table has too many iterators",
	ErrIterNoLast: "iterator at beginning or end",
}

// Msg returns the human-readable description of an error code.
func Msg(err Err) string {
	if err >= errCount {
		abort(fmt.Sprintf("sht.Msg: invalid error code %d", err))
	}
	return errMessages[err]
}

// Error implements the error interface.
func (e Err) Error() string {
	return Msg(e)
}
