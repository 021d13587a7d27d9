package rawmem

import (
	"unsafe"
)

// Bits holds a raw value of up to 16 bytes, low word first. Narrower values
// occupy the low bits of Bits[0].
type Bits [2]uint64

// CompareExchange128 stores next at the 16-byte aligned addr if the 128-bit
// value equals old. It must only be called when Has128 is true.
func CompareExchange128(addr unsafe.Pointer, old, next Bits) (prev Bits, swapped bool) {
	lo, hi, ok := cmpxchg16b((*uint64)(addr), old[0], old[1], next[0], next[1])
	return Bits{lo, hi}, ok
}

// Load128 atomically loads 16 bytes by compare-exchanging zero with zero.
// The location must be writable.
func Load128(addr unsafe.Pointer) Bits {
	prev, _ := CompareExchange128(addr, Bits{}, Bits{})
	return prev
}

// Exchange128 stores v and returns the previous value.
func Exchange128(addr unsafe.Pointer, v Bits) Bits {
	old := Load128(addr)
	for {
		prev, ok := CompareExchange128(addr, old, v)
		if ok {
			return prev
		}
		old = prev
	}
}

// Store128 atomically stores v.
func Store128(addr unsafe.Pointer, v Bits) {
	Exchange128(addr, v)
}

// LoadBits atomically loads a width-byte value. Width must be 1, 2, 4, 8
// or 16; width 16 requires Has128.
func LoadBits(addr unsafe.Pointer, width uintptr) Bits {
	switch width {
	case 1:
		return Bits{uint64(Load8(addr))}
	case 2:
		return Bits{uint64(Load16(addr))}
	case 4:
		return Bits{uint64(Load32(addr))}
	case 8:
		return Bits{Load64(addr)}
	case 16:
		return Load128(addr)
	default:
		panic("rawmem: unsupported width")
	}
}
