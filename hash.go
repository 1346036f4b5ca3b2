package sht

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"
)

// HashFunc computes the hash of a key. Only the low 32 bits are ever used;
// the table further truncates that to the low 24 bits it stores in each
// bucket word.
type HashFunc[K comparable] func(key K) uint32

// DefaultHasher returns the hasher used when a table is constructed without
// WithHasher. It dispatches on K's reflected kind the same way the rest of
// the ecosystem's generic hash map implementations do, since Go generics
// have no way to ask "does K have a Hash method" without boxing K in an
// interface first.
func DefaultHasher[K comparable]() HashFunc[K] {
	var key K
	kind := reflect.ValueOf(&key).Elem().Type().Kind()

	switch kind {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		switch unsafe.Sizeof(key) {
		case 2:
			return *(*func(K) uint32)(unsafe.Pointer(&hashWord))
		case 4:
			return *(*func(K) uint32)(unsafe.Pointer(&hashDword))
		case 8:
			return *(*func(K) uint32)(unsafe.Pointer(&hashQword))
		default:
			abort("sht.DefaultHasher: unsupported integer byte size")
		}

	case reflect.Int8, reflect.Uint8:
		return *(*func(K) uint32)(unsafe.Pointer(&hashByte))
	case reflect.Int16, reflect.Uint16:
		return *(*func(K) uint32)(unsafe.Pointer(&hashWord))
	case reflect.Int32, reflect.Uint32:
		return *(*func(K) uint32)(unsafe.Pointer(&hashDword))
	case reflect.Int64, reflect.Uint64:
		return *(*func(K) uint32)(unsafe.Pointer(&hashQword))
	case reflect.Float32:
		return *(*func(K) uint32)(unsafe.Pointer(&hashFloat32))
	case reflect.Float64:
		return *(*func(K) uint32)(unsafe.Pointer(&hashFloat64))
	case reflect.String:
		return *(*func(K) uint32)(unsafe.Pointer(&hashString))

	default:
		abort(fmt.Sprintf("sht.DefaultHasher: unsupported key kind %v", kind))
	}

	panic("unreachable")
}

// The finalizers below are MurmurHash3's mixing steps, truncated to 32 bits.
// They're cheap, well distributed for fixed-width keys, and need no state.

var hashByte = func(in uint8) uint32 {
	key := uint32(in)
	key *= 0xcc9e2d51
	key = (key << 15) | (key >> 17)
	key *= 0x1b873593
	return key
}

var hashWord = func(in uint16) uint32 {
	key := uint32(in)
	key *= 0xcc9e2d51
	key = (key << 15) | (key >> 17)
	key *= 0x1b873593
	return key
}

var hashDword = func(key uint32) uint32 {
	key *= 0xcc9e2d51
	key = (key << 15) | (key >> 17)
	key *= 0x1b873593
	return key
}

var hashFloat32 = func(in float32) uint32 {
	p := unsafe.Pointer(&in)
	key := *(*uint32)(p)

	key *= 0xcc9e2d51
	key = (key << 15) | (key >> 17)
	key *= 0x1b873593
	return key
}

// hashQword implements MurmurHash3's 64-bit finalizer, folded down to 32 bits.
var hashQword = func(key uint64) uint32 {
	key ^= key >> 33
	key *= 0xff51afd7ed558ccd
	key ^= key >> 33
	key *= 0xc4ceb9fe1a85ec53
	key ^= key >> 33
	return uint32(key) ^ uint32(key>>32)
}

var hashFloat64 = func(in float64) uint32 {
	p := unsafe.Pointer(&in)
	key := *(*uint64)(p)

	key ^= key >> 33
	key *= 0xff51afd7ed558ccd
	key ^= key >> 33
	key *= 0xc4ceb9fe1a85ec53
	key ^= key >> 33
	return uint32(key) ^ uint32(key>>32)
}

// hashString implements a simplified, faster variant of FNV-1a that's good
// enough for hashing short-to-medium strings into bucket words.
var hashString = func(s string) uint32 {
	b := *(*[]byte)(unsafe.Pointer(&struct {
		Data unsafe.Pointer
		Len  int
		Cap  int
	}{unsafe.Pointer(unsafe.StringData(s)), len(s), len(s)}))

	const prime64 = uint64(1099511628211)
	h := uint64(14695981039346656037)

	for len(b) >= 8 {
		x := binary.BigEndian.Uint32(b)
		b = b[4:]
		y := binary.BigEndian.Uint32(b)
		b = b[4:]
		z := (uint64(x) << 32) | uint64(y)
		h = (h ^ z) * prime64
	}

	if len(b) >= 4 {
		x := binary.BigEndian.Uint16(b)
		b = b[2:]
		y := binary.BigEndian.Uint16(b)
		b = b[2:]
		z := (uint64(x) << 16) | uint64(y)
		h = (h ^ z) * prime64
	}

	if len(b) >= 2 {
		h = (h ^ uint64(b[0]^b[1])) * prime64
		b = b[2:]
	}

	if len(b) > 0 {
		h = (h ^ uint64(b[0])) * prime64
	}

	return uint32(h) ^ uint32(h>>32)
}
