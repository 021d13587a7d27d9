//go:build amd64

package rawmem

import "golang.org/x/sys/cpu"

// Has128 reports whether 16-byte compare-exchange is available.
var Has128 = cpu.X86.HasCX16

//go:noescape
func cmpxchg16b(addr *uint64, oldLo, oldHi, newLo, newHi uint64) (prevLo, prevHi uint64, swapped bool)
