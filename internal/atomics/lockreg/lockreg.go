package lockreg

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/kolkov/atomiclanes/internal/atomics/spinlock"
)

// DefaultSlots is the array size used when none is configured.
const DefaultSlots = 1 << 16

// maxProbes bounds linear probing before an address spills to overflow.
const maxProbes = 8

// entry binds one referent address to its lock.
//
// The lock sits first and the entry is padded to 24 bytes so adjacent
// entries allocated back to back do not share a lock word.
type entry struct {
	lock spinlock.SpinLock
	addr uintptr
	_    [8]byte
}

// Registry is the address-to-lock table.
type Registry struct {
	slots []atomic.Pointer[entry]
	shift uint // 64 - log2(len(slots))
	mask  uint64

	// overflow holds addresses whose probe window was full.
	// Key: uintptr, Value: *entry.
	overflow sync.Map
	spilled  atomic.Int64
}

// New creates a registry with the given number of slots. slots must be a
// power of two of at least 16.
func New(slots int) (*Registry, error) {
	if slots < 16 || slots&(slots-1) != 0 {
		return nil, fmt.Errorf("lockreg: slot count %d is not a power of two >= 16", slots)
	}
	return &Registry{
		slots: make([]atomic.Pointer[entry], slots),
		shift: uint(64 - bits.TrailingZeros(uint(slots))),
		mask:  uint64(slots - 1),
	}, nil
}

// home computes the home slot of addr with a multiplicative hash, taking the
// top bits of the product.
func (r *Registry) home(addr uintptr) uint64 {
	const goldenRatio = 0x9E3779B97F4A7C15
	return (uint64(addr) * goldenRatio) >> r.shift
}

// Lookup returns the lock for addr, or nil if none has been created yet.
// It never allocates.
func (r *Registry) Lookup(addr uintptr) *spinlock.SpinLock {
	h := r.home(addr)
	for i := uint64(0); i < maxProbes; i++ {
		e := r.slots[(h+i)&r.mask].Load()
		if e == nil {
			return nil
		}
		if e.addr == addr {
			return &e.lock
		}
	}
	if v, ok := r.overflow.Load(addr); ok {
		return &v.(*entry).lock
	}
	return nil
}

// LockFor returns the lock for addr, creating it on first use. Concurrent
// callers for the same address always receive the same lock.
func (r *Registry) LockFor(addr uintptr) *spinlock.SpinLock {
	if l := r.Lookup(addr); l != nil {
		return l
	}

	fresh := &entry{addr: addr}
	h := r.home(addr)
	for i := uint64(0); i < maxProbes; i++ {
		slot := &r.slots[(h+i)&r.mask]
		e := slot.Load()
		if e == nil {
			if slot.CompareAndSwap(nil, fresh) {
				return &fresh.lock
			}
			// Lost the race for this slot; see who won it.
			e = slot.Load()
		}
		if e.addr == addr {
			return &e.lock
		}
	}

	// Probe window full. Slots are never cleared, so an address that spilled
	// can never later appear in its window.
	v, loaded := r.overflow.LoadOrStore(addr, fresh)
	if !loaded {
		r.spilled.Add(1)
	}
	return &v.(*entry).lock
}

// Stats describes registry occupancy.
type Stats struct {
	// Slots is the array size.
	Slots int
	// Occupied counts non-empty array slots.
	Occupied int
	// Displaced counts entries not stored in their home slot.
	Displaced int
	// Overflow counts addresses held in the overflow map.
	Overflow int
}

// LoadFactor returns Occupied/Slots.
func (s Stats) LoadFactor() float64 {
	if s.Slots == 0 {
		return 0
	}
	return float64(s.Occupied) / float64(s.Slots)
}

// Stats scans the registry. Diagnostic only; O(slots).
func (r *Registry) Stats() Stats {
	st := Stats{Slots: len(r.slots), Overflow: int(r.spilled.Load())}
	for i := range r.slots {
		e := r.slots[i].Load()
		if e == nil {
			continue
		}
		st.Occupied++
		if r.home(e.addr) != uint64(i) {
			st.Displaced++
		}
	}
	return st
}
