//go:build !amd64

package rawmem

// Has128 reports whether 16-byte compare-exchange is available.
var Has128 = false

func cmpxchg16b(addr *uint64, oldLo, oldHi, newLo, newHi uint64) (prevLo, prevHi uint64, swapped bool) {
	panic("rawmem: 16-byte compare-exchange not supported on this platform")
}
