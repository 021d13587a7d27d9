package lane

import (
	"unsafe"

	"github.com/kolkov/atomiclanes/internal/atomics/bitcast"
	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
	"github.com/kolkov/atomiclanes/internal/atomics/waitq"
)

// LockedLane serves any T by guarding the slot with the cell's spin lock.
// Equality is bytewise on value bits, so pointer-bearing fields compare by
// identity rather than by what they point to.
type LockedLane[T any] struct {
	mask *bitcast.Mask
}

func newLocked[T any]() *LockedLane[T] {
	return &LockedLane[T]{mask: bitcast.MaskOf[T]()}
}

// Kind returns Locked.
func (l *LockedLane[T]) Kind() Kind { return Locked }

// Store writes v under the lock.
func (l *LockedLane[T]) Store(c Cell[T], v T, o memorder.Order) {
	if !memorder.CheckStore(o) {
		return
	}
	c.Lock.Lock()
	*c.Ptr = v
	c.Lock.Unlock()
}

// Load copies the value out under the lock.
func (l *LockedLane[T]) Load(c Cell[T], o memorder.Order) T {
	if !memorder.CheckLoad(o) {
		var zero T
		return zero
	}
	c.Lock.Lock()
	v := *c.Ptr
	c.Lock.Unlock()
	return v
}

// Exchange swaps the value under the lock.
func (l *LockedLane[T]) Exchange(c Cell[T], v T, o memorder.Order) T {
	if !memorder.Check(o) {
		var zero T
		return zero
	}
	c.Lock.Lock()
	old := *c.Ptr
	*c.Ptr = v
	c.Lock.Unlock()
	return old
}

// CompareExchange compares value bits under the lock.
func (l *LockedLane[T]) CompareExchange(c Cell[T], expected *T, desired T, o memorder.Order) bool {
	if !memorder.Check(o) {
		return false
	}
	c.Lock.Lock()
	if l.mask.Equal(c.addr(), unsafe.Pointer(expected)) {
		*c.Ptr = desired
		c.Lock.Unlock()
		return true
	}
	observed := *c.Ptr
	c.Lock.Unlock()
	*expected = observed
	return false
}

// Wait blocks while the value bits equal those of old. The re-check before
// parking runs under the wait bucket lock and takes the cell lock inside it;
// the cell lock is never held while parked.
func (l *LockedLane[T]) Wait(c Cell[T], old T, o memorder.Order) {
	if !memorder.CheckLoad(o) {
		return
	}
	stillEqual := func() bool {
		c.Lock.Lock()
		eq := l.mask.Equal(c.addr(), unsafe.Pointer(&old))
		c.Lock.Unlock()
		return eq
	}
	for stillEqual() {
		c.Park.WaitIndirect(c.addr(), stillEqual, waitq.NoTimeout)
	}
}

// NotifyOne wakes one waiter on the cell.
func (l *LockedLane[T]) NotifyOne(c Cell[T]) { notifyOne(c) }

// NotifyAll wakes every waiter on the cell.
func (l *LockedLane[T]) NotifyAll(c Cell[T]) { notifyAll(c) }
