// Package rawmem is the platform boundary of the atomics layer: single-width
// interlocked operations on raw memory addresses.
//
// Widths 4 and 8 map directly onto sync/atomic. Go exposes no 8- or 16-bit
// atomics, so widths 1 and 2 operate on the naturally aligned 32-bit word
// that contains the target bytes, retrying a word CAS whenever a neighbouring
// byte changes underneath. Width 16 uses CMPXCHG16B where the CPU has it
// (see Has128).
//
// Every function requires addr to be aligned to its width. All operations
// are sequentially consistent, which satisfies every weaker order.
//
// Naming follows the interlocked family: Exchange returns the previous
// value, CompareExchange returns the observed value and whether the swap
// happened, ExchangeAdd/And/Or/Xor return the previous value, and
// Increment/Decrement return the new value.
package rawmem

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/exp/constraints"
	"golang.org/x/sys/cpu"
)

// Is32Bit reports whether the host has 32-bit pointers. On such hosts
// 64-bit read-modify-write operations are emulated with CAS loops.
const Is32Bit = unsafe.Sizeof(uintptr(0)) == 4

// fenceWord backs ReadWriteBarrier.
var fenceWord uint32

// ReadWriteBarrier prevents the compiler and CPU from reordering memory
// accesses across the call. Go has no standalone fence, so this performs an
// atomic load, which the Go memory model orders with all other atomics.
func ReadWriteBarrier() {
	atomic.LoadUint32(&fenceWord)
}

// subword locates a 1- or 2-byte value inside its containing 32-bit word.
// It returns the word, the bit shift of the value and the in-word mask.
func subword(addr unsafe.Pointer, width uintptr) (w *uint32, shift, mask uint32) {
	off := uintptr(addr) & 3
	w = (*uint32)(unsafe.Add(addr, -int(off)))
	if cpu.IsBigEndian {
		shift = uint32(4-off-width) * 8
	} else {
		shift = uint32(off) * 8
	}
	mask = (1<<(width*8) - 1) << shift
	return w, shift, mask
}

// updateSubword applies f to the width-byte value at addr and returns the
// previous value. Neighbouring bytes in the containing word are preserved.
func updateSubword(addr unsafe.Pointer, width uintptr, f func(old uint32) uint32) uint32 {
	w, shift, mask := subword(addr, width)
	for {
		word := atomic.LoadUint32(w)
		old := (word & mask) >> shift
		next := (word &^ mask) | ((f(old) << shift) & mask)
		if atomic.CompareAndSwapUint32(w, word, next) {
			return old
		}
	}
}

// update applies f with a load/CAS retry loop and returns the previous value.
func update[W constraints.Unsigned](load func() W, cas func(old, new W) bool, f func(W) W) W {
	for {
		old := load()
		if cas(old, f(old)) {
			return old
		}
	}
}

// ----- 8-bit -----

// Load8 atomically loads the byte at addr.
func Load8(addr unsafe.Pointer) uint8 {
	w, shift, _ := subword(addr, 1)
	return uint8(atomic.LoadUint32(w) >> shift)
}

// Store8 atomically stores v at addr.
func Store8(addr unsafe.Pointer, v uint8) {
	updateSubword(addr, 1, func(uint32) uint32 { return uint32(v) })
}

// Exchange8 stores v and returns the previous byte.
func Exchange8(addr unsafe.Pointer, v uint8) uint8 {
	return uint8(updateSubword(addr, 1, func(uint32) uint32 { return uint32(v) }))
}

// CompareExchange8 stores next if the byte equals old.
func CompareExchange8(addr unsafe.Pointer, old, next uint8) (prev uint8, swapped bool) {
	p, ok := compareExchangeSubword(addr, 1, uint32(old), uint32(next))
	return uint8(p), ok
}

// ExchangeAdd8 adds delta and returns the previous byte.
func ExchangeAdd8(addr unsafe.Pointer, delta uint8) uint8 {
	return uint8(updateSubword(addr, 1, func(o uint32) uint32 { return o + uint32(delta) }))
}

// And8 applies bitwise AND and returns the previous byte.
func And8(addr unsafe.Pointer, v uint8) uint8 {
	return uint8(updateSubword(addr, 1, func(o uint32) uint32 { return o & uint32(v) }))
}

// Or8 applies bitwise OR and returns the previous byte.
func Or8(addr unsafe.Pointer, v uint8) uint8 {
	return uint8(updateSubword(addr, 1, func(o uint32) uint32 { return o | uint32(v) }))
}

// Xor8 applies bitwise XOR and returns the previous byte.
func Xor8(addr unsafe.Pointer, v uint8) uint8 {
	return uint8(updateSubword(addr, 1, func(o uint32) uint32 { return o ^ uint32(v) }))
}

// ----- 16-bit -----

// Load16 atomically loads the 16-bit value at addr.
func Load16(addr unsafe.Pointer) uint16 {
	w, shift, _ := subword(addr, 2)
	return uint16(atomic.LoadUint32(w) >> shift)
}

// Store16 atomically stores v at addr.
func Store16(addr unsafe.Pointer, v uint16) {
	updateSubword(addr, 2, func(uint32) uint32 { return uint32(v) })
}

// Exchange16 stores v and returns the previous value.
func Exchange16(addr unsafe.Pointer, v uint16) uint16 {
	return uint16(updateSubword(addr, 2, func(uint32) uint32 { return uint32(v) }))
}

// CompareExchange16 stores next if the value equals old.
func CompareExchange16(addr unsafe.Pointer, old, next uint16) (prev uint16, swapped bool) {
	p, ok := compareExchangeSubword(addr, 2, uint32(old), uint32(next))
	return uint16(p), ok
}

// ExchangeAdd16 adds delta and returns the previous value.
func ExchangeAdd16(addr unsafe.Pointer, delta uint16) uint16 {
	return uint16(updateSubword(addr, 2, func(o uint32) uint32 { return o + uint32(delta) }))
}

// And16 applies bitwise AND and returns the previous value.
func And16(addr unsafe.Pointer, v uint16) uint16 {
	return uint16(updateSubword(addr, 2, func(o uint32) uint32 { return o & uint32(v) }))
}

// Or16 applies bitwise OR and returns the previous value.
func Or16(addr unsafe.Pointer, v uint16) uint16 {
	return uint16(updateSubword(addr, 2, func(o uint32) uint32 { return o | uint32(v) }))
}

// Xor16 applies bitwise XOR and returns the previous value.
func Xor16(addr unsafe.Pointer, v uint16) uint16 {
	return uint16(updateSubword(addr, 2, func(o uint32) uint32 { return o ^ uint32(v) }))
}

// Increment16 adds one and returns the new value.
func Increment16(addr unsafe.Pointer) uint16 { return ExchangeAdd16(addr, 1) + 1 }

// Decrement16 subtracts one and returns the new value.
func Decrement16(addr unsafe.Pointer) uint16 { return ExchangeAdd16(addr, 0xFFFF) - 1 }

func compareExchangeSubword(addr unsafe.Pointer, width uintptr, old, next uint32) (uint32, bool) {
	w, shift, mask := subword(addr, width)
	for {
		word := atomic.LoadUint32(w)
		cur := (word & mask) >> shift
		if cur != old {
			return cur, false
		}
		if atomic.CompareAndSwapUint32(w, word, (word&^mask)|((next<<shift)&mask)) {
			return cur, true
		}
		// A neighbouring byte changed; the target may still equal old.
	}
}

// ----- 32-bit -----

func p32(addr unsafe.Pointer) *uint32 { return (*uint32)(addr) }

// Load32 atomically loads the 32-bit value at addr.
func Load32(addr unsafe.Pointer) uint32 { return atomic.LoadUint32(p32(addr)) }

// Store32 atomically stores v at addr.
func Store32(addr unsafe.Pointer, v uint32) { atomic.StoreUint32(p32(addr), v) }

// Exchange32 stores v and returns the previous value.
func Exchange32(addr unsafe.Pointer, v uint32) uint32 { return atomic.SwapUint32(p32(addr), v) }

// CompareExchange32 stores next if the value equals old.
func CompareExchange32(addr unsafe.Pointer, old, next uint32) (prev uint32, swapped bool) {
	for {
		if atomic.CompareAndSwapUint32(p32(addr), old, next) {
			return old, true
		}
		prev = atomic.LoadUint32(p32(addr))
		if prev != old {
			return prev, false
		}
	}
}

// ExchangeAdd32 adds delta and returns the previous value.
func ExchangeAdd32(addr unsafe.Pointer, delta uint32) uint32 {
	return atomic.AddUint32(p32(addr), delta) - delta
}

// And32 applies bitwise AND and returns the previous value.
func And32(addr unsafe.Pointer, v uint32) uint32 { return atomic.AndUint32(p32(addr), v) }

// Or32 applies bitwise OR and returns the previous value.
func Or32(addr unsafe.Pointer, v uint32) uint32 { return atomic.OrUint32(p32(addr), v) }

// Xor32 applies bitwise XOR and returns the previous value.
func Xor32(addr unsafe.Pointer, v uint32) uint32 {
	p := p32(addr)
	return update(
		func() uint32 { return atomic.LoadUint32(p) },
		func(o, n uint32) bool { return atomic.CompareAndSwapUint32(p, o, n) },
		func(o uint32) uint32 { return o ^ v },
	)
}

// Increment32 adds one and returns the new value.
func Increment32(addr unsafe.Pointer) uint32 { return atomic.AddUint32(p32(addr), 1) }

// Decrement32 subtracts one and returns the new value.
func Decrement32(addr unsafe.Pointer) uint32 { return atomic.AddUint32(p32(addr), ^uint32(0)) }

// ----- 64-bit -----

func p64(addr unsafe.Pointer) *uint64 { return (*uint64)(addr) }

// Load64 atomically loads the 64-bit value at addr.
func Load64(addr unsafe.Pointer) uint64 { return atomic.LoadUint64(p64(addr)) }

// Store64 atomically stores v at addr.
func Store64(addr unsafe.Pointer, v uint64) { atomic.StoreUint64(p64(addr), v) }

// Exchange64 stores v and returns the previous value.
func Exchange64(addr unsafe.Pointer, v uint64) uint64 { return atomic.SwapUint64(p64(addr), v) }

// CompareExchange64 stores next if the value equals old.
func CompareExchange64(addr unsafe.Pointer, old, next uint64) (prev uint64, swapped bool) {
	for {
		if atomic.CompareAndSwapUint64(p64(addr), old, next) {
			return old, true
		}
		prev = atomic.LoadUint64(p64(addr))
		if prev != old {
			return prev, false
		}
	}
}

// rmw64 runs a 64-bit read-modify-write as a CAS loop. Used where no
// single-instruction form exists.
func rmw64(addr unsafe.Pointer, f func(uint64) uint64) uint64 {
	p := p64(addr)
	return update(
		func() uint64 { return atomic.LoadUint64(p) },
		func(o, n uint64) bool { return atomic.CompareAndSwapUint64(p, o, n) },
		f,
	)
}

// ExchangeAdd64 adds delta and returns the previous value.
func ExchangeAdd64(addr unsafe.Pointer, delta uint64) uint64 {
	if Is32Bit {
		return rmw64(addr, func(o uint64) uint64 { return o + delta })
	}
	return atomic.AddUint64(p64(addr), delta) - delta
}

// And64 applies bitwise AND and returns the previous value.
func And64(addr unsafe.Pointer, v uint64) uint64 {
	if Is32Bit {
		return rmw64(addr, func(o uint64) uint64 { return o & v })
	}
	return atomic.AndUint64(p64(addr), v)
}

// Or64 applies bitwise OR and returns the previous value.
func Or64(addr unsafe.Pointer, v uint64) uint64 {
	if Is32Bit {
		return rmw64(addr, func(o uint64) uint64 { return o | v })
	}
	return atomic.OrUint64(p64(addr), v)
}

// Xor64 applies bitwise XOR and returns the previous value.
func Xor64(addr unsafe.Pointer, v uint64) uint64 {
	return rmw64(addr, func(o uint64) uint64 { return o ^ v })
}

// Increment64 adds one and returns the new value.
func Increment64(addr unsafe.Pointer) uint64 { return ExchangeAdd64(addr, 1) + 1 }

// Decrement64 subtracts one and returns the new value.
func Decrement64(addr unsafe.Pointer) uint64 { return ExchangeAdd64(addr, ^uint64(0)) - 1 }

// ----- pointer word -----

func pp(addr unsafe.Pointer) *unsafe.Pointer { return (*unsafe.Pointer)(addr) }

// LoadPointer atomically loads the pointer word at addr.
func LoadPointer(addr unsafe.Pointer) unsafe.Pointer { return atomic.LoadPointer(pp(addr)) }

// StorePointer atomically stores v at addr.
func StorePointer(addr, v unsafe.Pointer) { atomic.StorePointer(pp(addr), v) }

// ExchangePointer stores v and returns the previous pointer.
func ExchangePointer(addr, v unsafe.Pointer) unsafe.Pointer { return atomic.SwapPointer(pp(addr), v) }

// CompareExchangePointer stores next if the word equals old.
func CompareExchangePointer(addr, old, next unsafe.Pointer) (prev unsafe.Pointer, swapped bool) {
	for {
		if atomic.CompareAndSwapPointer(pp(addr), old, next) {
			return old, true
		}
		prev = atomic.LoadPointer(pp(addr))
		if prev != old {
			return prev, false
		}
	}
}
