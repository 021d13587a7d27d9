package lane

import (
	"unsafe"

	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
	"github.com/kolkov/atomiclanes/internal/atomics/waitq"
)

// Ptr is the lane for values that are exactly one pointer word the garbage
// collector must see: *U, maps, channels, funcs, unsafe.Pointer and structs
// wrapping one of those. It uses the pointer atomics so every store goes
// through the write barrier.
type Ptr[T any] struct{}

// Kind returns LanePtr.
func (Ptr[T]) Kind() Kind { return LanePtr }

func slotOf[T any](c Cell[T]) unsafe.Pointer { return c.addr() }

func ptrBits[T any](v *T) unsafe.Pointer { return *(*unsafe.Pointer)(unsafe.Pointer(v)) }

func fromPtrBits[T any](p unsafe.Pointer) T { return *(*T)(unsafe.Pointer(&p)) }

// Store writes v.
func (Ptr[T]) Store(c Cell[T], v T, o memorder.Order) {
	if !memorder.CheckStore(o) {
		return
	}
	releaseFence(o)
	rawmem.StorePointer(slotOf(c), ptrBits(&v))
}

// Load reads the value.
func (Ptr[T]) Load(c Cell[T], o memorder.Order) T {
	if !memorder.CheckLoad(o) {
		var zero T
		return zero
	}
	p := rawmem.LoadPointer(slotOf(c))
	acquireFence(o)
	return fromPtrBits[T](p)
}

// Exchange writes v and returns the previous value.
func (Ptr[T]) Exchange(c Cell[T], v T, o memorder.Order) T {
	if !memorder.Check(o) {
		var zero T
		return zero
	}
	releaseFence(o)
	old := rawmem.ExchangePointer(slotOf(c), ptrBits(&v))
	acquireFence(o)
	return fromPtrBits[T](old)
}

// CompareExchange swaps in desired if the stored pointer equals *expected.
// Pointer words have no padding.
func (Ptr[T]) CompareExchange(c Cell[T], expected *T, desired T, o memorder.Order) bool {
	if !memorder.Check(o) {
		return false
	}
	releaseFence(o)
	prev, ok := rawmem.CompareExchangePointer(slotOf(c), ptrBits(expected), ptrBits(&desired))
	if ok {
		acquireFence(o)
		return true
	}
	*expected = fromPtrBits[T](prev)
	return false
}

// Wait blocks while the stored pointer equals old.
func (Ptr[T]) Wait(c Cell[T], old T, o memorder.Order) {
	if !memorder.CheckLoad(o) {
		return
	}
	exp := ptrBits(&old)
	for {
		cur := rawmem.LoadPointer(slotOf(c))
		if cur != exp {
			acquireFence(o)
			return
		}
		c.Park.WaitIndirect(c.addr(), func() bool {
			return rawmem.LoadPointer(slotOf(c)) == exp
		}, waitq.NoTimeout)
	}
}

// NotifyOne wakes one waiter on the cell.
func (Ptr[T]) NotifyOne(c Cell[T]) { notifyOne(c) }

// NotifyAll wakes every waiter on the cell.
func (Ptr[T]) NotifyAll(c Cell[T]) { notifyAll(c) }
