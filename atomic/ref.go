package atomic

import (
	"reflect"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/kolkov/atomiclanes/internal/atomics/lane"
	"github.com/kolkov/atomiclanes/internal/atomics/procctx"
)

// Ref performs atomic operations on a T the caller owns. It never owns the
// referent; it only synchronizes access to it. All access to the referent
// must go through Refs for as long as any Ref is in use.
//
// The lane is chosen from T and the referent's actual alignment. A 16-byte
// pointer-free T at a 16-byte aligned address uses CMPXCHG16B on amd64.
// When no lane fits, the Ref borrows a spin lock from its context's lock
// registry, keyed by the referent's address, so every Ref over the same
// object shares one lock.
//
// One- and two-byte referents are updated through their containing 32-bit
// word; the neighbouring bytes are written back unchanged.
type Ref[T any] struct {
	cell lane.Cell[T]
	l    lane.Lane[T]
}

type refKey struct {
	t reflect.Type
	k lane.Kind
}

// NewRef returns a Ref over *p bound to the default context.
func NewRef[T any](p *T) *Ref[T] {
	return newRef(procctx.Default(), p)
}

// NewRefIn returns a Ref over *p bound to ctx. It panics if p is nil or ctx
// is closed.
func NewRefIn[T any](ctx *Context, p *T) *Ref[T] {
	return newRef(ctx.c, p)
}

func newRef[T any](ctx *procctx.Context, p *T) *Ref[T] {
	if p == nil {
		panic("atomic: NewRef of nil pointer")
	}
	if ctx.Closed() {
		panic("atomic: NewRef on closed Context")
	}

	addr := uintptr(unsafe.Pointer(p))
	pl := lane.Placement{
		Align:       lane.AddrAlign(addr),
		Wide:        true,
		ForceLocked: ctx.Options().ForceLocked,
	}
	key := refKey{reflect.TypeFor[T](), lane.KindFor(reflect.TypeFor[T](), pl)}
	l, ok := ctx.Lanes().Load(key)
	if !ok {
		l, _ = ctx.Lanes().LoadOrStore(key, lane.Select[T](pl))
	}

	r := &Ref[T]{
		cell: lane.Cell[T]{Ptr: p, Park: ctx.Waits()},
		l:    l.(lane.Lane[T]),
	}
	if key.k == lane.Locked {
		// Resolved once; the registry never evicts, and the Ref keeps the
		// pointer regardless.
		r.cell.Lock = ctx.Locks().LockFor(addr)
	}
	return r
}

// Lane reports the storage strategy serving this Ref.
func (r *Ref[T]) Lane() LaneKind { return r.l.Kind() }

// Store atomically stores x into the referent.
func (r *Ref[T]) Store(x T) { r.l.Store(r.cell, x, SeqCst) }

// StoreExplicit is Store with order o.
func (r *Ref[T]) StoreExplicit(x T, o MemoryOrder) { r.l.Store(r.cell, x, o) }

// Load atomically loads the referent.
func (r *Ref[T]) Load() T { return r.l.Load(r.cell, SeqCst) }

// LoadExplicit is Load with order o.
func (r *Ref[T]) LoadExplicit(o MemoryOrder) T { return r.l.Load(r.cell, o) }

// Swap stores x and returns the previous value.
func (r *Ref[T]) Swap(x T) T { return r.l.Exchange(r.cell, x, SeqCst) }

// SwapExplicit is Swap with order o.
func (r *Ref[T]) SwapExplicit(x T, o MemoryOrder) T { return r.l.Exchange(r.cell, x, o) }

// CompareAndSwap stores desired if the referent equals *expected. See
// Value.CompareAndSwap.
func (r *Ref[T]) CompareAndSwap(expected *T, desired T) bool {
	return r.l.CompareExchange(r.cell, expected, desired, SeqCst)
}

// CompareAndSwapExplicit is CompareAndSwap with order o.
func (r *Ref[T]) CompareAndSwapExplicit(expected *T, desired T, o MemoryOrder) bool {
	return r.l.CompareExchange(r.cell, expected, desired, o)
}

// Wait blocks until the referent is observed to differ from old.
func (r *Ref[T]) Wait(old T) { r.l.Wait(r.cell, old, SeqCst) }

// WaitExplicit is Wait with order o.
func (r *Ref[T]) WaitExplicit(old T, o MemoryOrder) { r.l.Wait(r.cell, old, o) }

// NotifyOne wakes one goroutine waiting on the referent.
func (r *Ref[T]) NotifyOne() { r.l.NotifyOne(r.cell) }

// NotifyAll wakes every goroutine waiting on the referent.
func (r *Ref[T]) NotifyAll() { r.l.NotifyAll(r.cell) }

// IntRef is a Ref with integer arithmetic.
type IntRef[T constraints.Integer] struct {
	Ref[T]
}

// NewIntRef returns an IntRef over *p bound to the default context.
func NewIntRef[T constraints.Integer](p *T) *IntRef[T] {
	return &IntRef[T]{Ref: *newRef(procctx.Default(), p)}
}

// NewIntRefIn returns an IntRef over *p bound to ctx.
func NewIntRefIn[T constraints.Integer](ctx *Context, p *T) *IntRef[T] {
	return &IntRef[T]{Ref: *newRef(ctx.c, p)}
}

// FetchAdd adds x and returns the previous value.
func (r *IntRef[T]) FetchAdd(x T) T { return r.FetchAddExplicit(x, SeqCst) }

// FetchAddExplicit is FetchAdd with order o.
func (r *IntRef[T]) FetchAddExplicit(x T, o MemoryOrder) T {
	return fetchInt(r.l, r.cell, lane.OpAdd, x, o)
}

// FetchSub subtracts x and returns the previous value.
func (r *IntRef[T]) FetchSub(x T) T { return r.FetchAddExplicit(-x, SeqCst) }

// FetchSubExplicit is FetchSub with order o.
func (r *IntRef[T]) FetchSubExplicit(x T, o MemoryOrder) T { return r.FetchAddExplicit(-x, o) }

// FetchAnd applies bitwise AND and returns the previous value.
func (r *IntRef[T]) FetchAnd(x T) T { return r.FetchAndExplicit(x, SeqCst) }

// FetchAndExplicit is FetchAnd with order o.
func (r *IntRef[T]) FetchAndExplicit(x T, o MemoryOrder) T {
	return fetchInt(r.l, r.cell, lane.OpAnd, x, o)
}

// FetchOr applies bitwise OR and returns the previous value.
func (r *IntRef[T]) FetchOr(x T) T { return r.FetchOrExplicit(x, SeqCst) }

// FetchOrExplicit is FetchOr with order o.
func (r *IntRef[T]) FetchOrExplicit(x T, o MemoryOrder) T {
	return fetchInt(r.l, r.cell, lane.OpOr, x, o)
}

// FetchXor applies bitwise XOR and returns the previous value.
func (r *IntRef[T]) FetchXor(x T) T { return r.FetchXorExplicit(x, SeqCst) }

// FetchXorExplicit is FetchXor with order o.
func (r *IntRef[T]) FetchXorExplicit(x T, o MemoryOrder) T {
	return fetchInt(r.l, r.cell, lane.OpXor, x, o)
}

// Add adds x and returns the new value.
func (r *IntRef[T]) Add(x T) T { return r.FetchAdd(x) + x }

// Sub subtracts x and returns the new value.
func (r *IntRef[T]) Sub(x T) T { return r.FetchSub(x) - x }

// Inc increments and returns the new value.
func (r *IntRef[T]) Inc() T { return r.Add(1) }

// Dec decrements and returns the new value.
func (r *IntRef[T]) Dec() T { return r.Sub(1) }

// PostInc increments and returns the previous value.
func (r *IntRef[T]) PostInc() T { return r.FetchAdd(1) }

// PostDec decrements and returns the previous value.
func (r *IntRef[T]) PostDec() T { return r.FetchSub(1) }

// FloatRef is a Ref with floating-point arithmetic.
type FloatRef[T constraints.Float] struct {
	Ref[T]
}

// NewFloatRef returns a FloatRef over *p bound to the default context.
func NewFloatRef[T constraints.Float](p *T) *FloatRef[T] {
	return &FloatRef[T]{Ref: *newRef(procctx.Default(), p)}
}

// NewFloatRefIn returns a FloatRef over *p bound to ctx.
func NewFloatRefIn[T constraints.Float](ctx *Context, p *T) *FloatRef[T] {
	return &FloatRef[T]{Ref: *newRef(ctx.c, p)}
}

// FetchAdd adds delta and returns the previous value.
func (r *FloatRef[T]) FetchAdd(delta T) T { return r.FetchAddExplicit(delta, SeqCst) }

// FetchAddExplicit is FetchAdd with order o.
func (r *FloatRef[T]) FetchAddExplicit(delta T, o MemoryOrder) T {
	return fetchFloat(r.l, r.cell, delta, o)
}

// FetchSub subtracts delta and returns the previous value.
func (r *FloatRef[T]) FetchSub(delta T) T { return r.FetchAddExplicit(-delta, SeqCst) }

// FetchSubExplicit is FetchSub with order o.
func (r *FloatRef[T]) FetchSubExplicit(delta T, o MemoryOrder) T {
	return r.FetchAddExplicit(-delta, o)
}

// Add adds delta and returns the new value.
func (r *FloatRef[T]) Add(delta T) T { return r.FetchAdd(delta) + delta }

// Sub subtracts delta and returns the new value.
func (r *FloatRef[T]) Sub(delta T) T { return r.FetchSub(delta) - delta }
