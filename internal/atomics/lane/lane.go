// Package lane implements the storage strategies behind every atomic cell.
//
// A lane is chosen once per cell from the value type's size, alignment and
// pointer content:
//
//	Locked   any type; a spin lock guards the slot
//	Lane1    1-byte values, via the containing 32-bit word
//	Lane2    2-byte values, via the containing 32-bit word
//	Lane4    4-byte values, native 32-bit atomics
//	Lane8    8-byte values, native 64-bit atomics
//	Lane16   16-byte pointer-free values behind a reference (CMPXCHG16B)
//	LanePtr  single-pointer values, GC-visible pointer atomics
//
// Lanes are stateless apart from per-type constants (the value-bits mask),
// so one lane value is shared by every cell of a type. All per-cell state
// travels in a Cell.
//
// Every operation validates its memory order first and does nothing when
// validation fails (which only happens under a test handler; the default
// handler does not return).
package lane

import (
	"strconv"
	"unsafe"

	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
	"github.com/kolkov/atomiclanes/internal/atomics/spinlock"
	"github.com/kolkov/atomiclanes/internal/atomics/waitq"
)

// Kind identifies a lane.
type Kind int

const (
	Locked Kind = iota
	Lane1
	Lane2
	Lane4
	Lane8
	Lane16
	LanePtr
)

// String returns the lane name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Locked:
		return "locked"
	case Lane1:
		return "lane1"
	case Lane2:
		return "lane2"
	case Lane4:
		return "lane4"
	case Lane8:
		return "lane8"
	case Lane16:
		return "lane16"
	case LanePtr:
		return "laneptr"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// LockFree reports whether operations on the lane never take a lock.
func (k Kind) LockFree() bool { return k != Locked }

// Cell is the per-cell state a lane operates on.
type Cell[T any] struct {
	// Ptr addresses the value. It is also the wait/notify key.
	Ptr *T
	// Lock guards the value on the locked lane; other lanes ignore it.
	Lock *spinlock.SpinLock
	// Park is the wait table used by Wait and Notify.
	Park *waitq.Table
}

func (c Cell[T]) addr() unsafe.Pointer { return unsafe.Pointer(c.Ptr) }

// Lane is the operation set shared by every storage strategy.
type Lane[T any] interface {
	Kind() Kind
	Store(c Cell[T], v T, o memorder.Order)
	Load(c Cell[T], o memorder.Order) T
	Exchange(c Cell[T], v T, o memorder.Order) T
	// CompareExchange is the strong variant: it never fails spuriously. On
	// failure *expected receives the observed value.
	CompareExchange(c Cell[T], expected *T, desired T, o memorder.Order) bool
	// Wait blocks while the value equals old. It returns as soon as the
	// value is observed to differ, re-checking after every wakeup.
	Wait(c Cell[T], old T, o memorder.Order)
	NotifyOne(c Cell[T])
	NotifyAll(c Cell[T])
}

// Op is a fetch-and-op operator.
type Op int

const (
	OpAdd Op = iota
	OpAnd
	OpOr
	OpXor
)

// Arith is implemented by lanes with native fetch-and-op support. Operands
// and results are raw bits in the low bytes of a uint64; arithmetic wraps at
// the lane width.
type Arith interface {
	FetchOp(addr unsafe.Pointer, op Op, v uint64, o memorder.Order) (old uint64)
}

// releaseFence orders earlier accesses before a store-side operation.
func releaseFence(o memorder.Order) {
	if o == memorder.Release || o == memorder.AcqRel {
		rawmem.ReadWriteBarrier()
	}
}

// acquireFence orders later accesses after a load-side operation.
func acquireFence(o memorder.Order) {
	if o == memorder.Consume || o == memorder.Acquire || o == memorder.AcqRel {
		rawmem.ReadWriteBarrier()
	}
}

func notifyOne[T any](c Cell[T]) { c.Park.NotifyOne(c.addr()) }

func notifyAll[T any](c Cell[T]) { c.Park.NotifyAll(c.addr()) }
