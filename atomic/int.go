package atomic

import (
	"golang.org/x/exp/constraints"

	"github.com/kolkov/atomiclanes/internal/atomics/lane"
)

// Int is an atomic integer. It has every Value operation plus fetch-and-op
// arithmetic, which wraps like ordinary Go integer arithmetic.
type Int[T constraints.Integer] struct {
	Value[T]
}

// NewInt returns an Int holding v.
func NewInt[T constraints.Integer](v T) *Int[T] {
	x := new(Int[T])
	x.slot = v
	return x
}

// FetchAdd adds x and returns the previous value.
func (i *Int[T]) FetchAdd(x T) T { return i.FetchAddExplicit(x, SeqCst) }

// FetchAddExplicit is FetchAdd with order o.
func (i *Int[T]) FetchAddExplicit(x T, o MemoryOrder) T {
	l, c := i.env()
	return fetchInt(l, c, lane.OpAdd, x, o)
}

// FetchSub subtracts x and returns the previous value. It is FetchAdd(-x).
func (i *Int[T]) FetchSub(x T) T { return i.FetchAddExplicit(-x, SeqCst) }

// FetchSubExplicit is FetchSub with order o.
func (i *Int[T]) FetchSubExplicit(x T, o MemoryOrder) T { return i.FetchAddExplicit(-x, o) }

// FetchAnd applies bitwise AND and returns the previous value.
func (i *Int[T]) FetchAnd(x T) T { return i.FetchAndExplicit(x, SeqCst) }

// FetchAndExplicit is FetchAnd with order o.
func (i *Int[T]) FetchAndExplicit(x T, o MemoryOrder) T {
	l, c := i.env()
	return fetchInt(l, c, lane.OpAnd, x, o)
}

// FetchOr applies bitwise OR and returns the previous value.
func (i *Int[T]) FetchOr(x T) T { return i.FetchOrExplicit(x, SeqCst) }

// FetchOrExplicit is FetchOr with order o.
func (i *Int[T]) FetchOrExplicit(x T, o MemoryOrder) T {
	l, c := i.env()
	return fetchInt(l, c, lane.OpOr, x, o)
}

// FetchXor applies bitwise XOR and returns the previous value.
func (i *Int[T]) FetchXor(x T) T { return i.FetchXorExplicit(x, SeqCst) }

// FetchXorExplicit is FetchXor with order o.
func (i *Int[T]) FetchXorExplicit(x T, o MemoryOrder) T {
	l, c := i.env()
	return fetchInt(l, c, lane.OpXor, x, o)
}

// Add adds x and returns the new value.
func (i *Int[T]) Add(x T) T { return i.FetchAdd(x) + x }

// Sub subtracts x and returns the new value.
func (i *Int[T]) Sub(x T) T { return i.FetchSub(x) - x }

// Inc increments and returns the new value.
func (i *Int[T]) Inc() T { return i.Add(1) }

// Dec decrements and returns the new value.
func (i *Int[T]) Dec() T { return i.Sub(1) }

// PostInc increments and returns the previous value.
func (i *Int[T]) PostInc() T { return i.FetchAdd(1) }

// PostDec decrements and returns the previous value.
func (i *Int[T]) PostDec() T { return i.FetchSub(1) }
