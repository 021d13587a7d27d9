// Package bitcast reinterprets typed values as the raw integer words used by
// the hardware lanes, and computes per-type value-bits masks.
//
// Conversions copy object bytes rather than dereferencing a cast pointer, so
// a T with alignment 1 (for example [4]byte) converts without a misaligned
// load. The word's in-memory bytes always equal T's bytes; the numeric value
// of the word therefore depends on host endianness, which is consistent with
// what package rawmem loads from the same memory.
package bitcast

import (
	"unsafe"
)

// Word is the set of raw integer widths backing the hardware lanes.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Pair is a 128-bit raw value, low half first in memory.
type Pair [2]uint64

// SizeOf returns the object size of T.
func SizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// ToWord copies the bytes of v into a W. When T is smaller than W the
// remaining bytes of the word are zero.
func ToWord[W Word, T any](v T) W {
	var w W
	n := min(unsafe.Sizeof(v), unsafe.Sizeof(w))
	copy(bytesOf(unsafe.Pointer(&w), n), bytesOf(unsafe.Pointer(&v), n))
	return w
}

// FromWord copies the leading bytes of w into a T.
func FromWord[T any, W Word](w W) T {
	var v T
	n := min(unsafe.Sizeof(v), unsafe.Sizeof(w))
	copy(bytesOf(unsafe.Pointer(&v), n), bytesOf(unsafe.Pointer(&w), n))
	return v
}

// ToPair copies the bytes of a 16-byte v into a Pair.
func ToPair[T any](v T) Pair {
	var p Pair
	n := min(unsafe.Sizeof(v), unsafe.Sizeof(p))
	copy(bytesOf(unsafe.Pointer(&p), n), bytesOf(unsafe.Pointer(&v), n))
	return p
}

// FromPair copies a Pair into a 16-byte T.
func FromPair[T any](p Pair) T {
	var v T
	n := min(unsafe.Sizeof(v), unsafe.Sizeof(p))
	copy(bytesOf(unsafe.Pointer(&v), n), bytesOf(unsafe.Pointer(&p), n))
	return v
}

// Bytes returns the object representation of *p as a byte slice aliasing it.
func Bytes[T any](p *T) []byte {
	return bytesOf(unsafe.Pointer(p), unsafe.Sizeof(*p))
}

func bytesOf(p unsafe.Pointer, n uintptr) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}
