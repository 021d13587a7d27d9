package atomic

import (
	"reflect"
	stdatomic "sync/atomic"

	"github.com/kolkov/atomiclanes/internal/atomics/lane"
	"github.com/kolkov/atomiclanes/internal/atomics/procctx"
	"github.com/kolkov/atomiclanes/internal/atomics/spinlock"
)

// Value is an atomic cell owning a T. The zero value holds T's zero value
// and is ready to use. A Value must not be copied after first use.
//
// The lane is chosen from T: widths 1, 2, 4 and 8 without pointers are
// lock-free, single-pointer types use GC-visible pointer atomics, and
// everything else is guarded by a spin lock stored in the Value.
type Value[T any] struct {
	_    [0]stdatomic.Uint64 // 8-byte alignment for slot, even on 32-bit hosts
	slot T
	lock spinlock.SpinLock
}

// valuePlacement is where every Value keeps its slot.
func valuePlacement(ctx *procctx.Context) lane.Placement {
	return lane.Placement{Align: 8, ForceLocked: ctx.Options().ForceLocked}
}

type valueKey struct{ t reflect.Type }

// valueLane returns the memoized lane of Value[T] in ctx.
func valueLane[T any](ctx *procctx.Context) lane.Lane[T] {
	key := valueKey{reflect.TypeFor[T]()}
	if l, ok := ctx.Lanes().Load(key); ok {
		return l.(lane.Lane[T])
	}
	l, _ := ctx.Lanes().LoadOrStore(key, lane.Select[T](valuePlacement(ctx)))
	return l.(lane.Lane[T])
}

// NewValue returns a Value holding v.
func NewValue[T any](v T) *Value[T] {
	x := new(Value[T])
	x.slot = v
	return x
}

func (v *Value[T]) env() (lane.Lane[T], lane.Cell[T]) {
	ctx := procctx.Default()
	return valueLane[T](ctx), lane.Cell[T]{Ptr: &v.slot, Lock: &v.lock, Park: ctx.Waits()}
}

// Lane reports the storage strategy serving this Value.
func (v *Value[T]) Lane() LaneKind {
	return valueLane[T](procctx.Default()).Kind()
}

// Store atomically stores x.
func (v *Value[T]) Store(x T) { v.StoreExplicit(x, SeqCst) }

// StoreExplicit stores x with order o, which must be Relaxed, Release or
// SeqCst.
func (v *Value[T]) StoreExplicit(x T, o MemoryOrder) {
	l, c := v.env()
	l.Store(c, x, o)
}

// Load atomically loads the value.
func (v *Value[T]) Load() T { return v.LoadExplicit(SeqCst) }

// LoadExplicit loads with order o, which must be Relaxed, Consume, Acquire
// or SeqCst.
func (v *Value[T]) LoadExplicit(o MemoryOrder) T {
	l, c := v.env()
	return l.Load(c, o)
}

// Swap stores x and returns the previous value.
func (v *Value[T]) Swap(x T) T { return v.SwapExplicit(x, SeqCst) }

// SwapExplicit is Swap with order o.
func (v *Value[T]) SwapExplicit(x T, o MemoryOrder) T {
	l, c := v.env()
	return l.Exchange(c, x, o)
}

// CompareAndSwap stores desired if the value equals *expected and reports
// whether it did. Equality ignores padding bytes. On failure *expected is
// overwritten with the value observed; on success it is left alone. It
// never fails spuriously.
func (v *Value[T]) CompareAndSwap(expected *T, desired T) bool {
	return v.CompareAndSwapExplicit(expected, desired, SeqCst)
}

// CompareAndSwapExplicit is CompareAndSwap with order o.
func (v *Value[T]) CompareAndSwapExplicit(expected *T, desired T, o MemoryOrder) bool {
	l, c := v.env()
	return l.CompareExchange(c, expected, desired, o)
}

// Wait blocks until the value is observed to differ from old. It returns
// immediately if it already differs. Wakeups come from NotifyOne or
// NotifyAll after a store.
func (v *Value[T]) Wait(old T) { v.WaitExplicit(old, SeqCst) }

// WaitExplicit is Wait with a load order.
func (v *Value[T]) WaitExplicit(old T, o MemoryOrder) {
	l, c := v.env()
	l.Wait(c, old, o)
}

// NotifyOne wakes one goroutine blocked in Wait on v.
func (v *Value[T]) NotifyOne() {
	l, c := v.env()
	l.NotifyOne(c)
}

// NotifyAll wakes every goroutine blocked in Wait on v.
func (v *Value[T]) NotifyAll() {
	l, c := v.env()
	l.NotifyAll(c)
}
