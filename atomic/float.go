package atomic

import (
	"golang.org/x/exp/constraints"
)

// Float is an atomic floating-point value. Arithmetic is a compare-exchange
// loop over the value's bits, so readers never observe a torn value.
// Comparison is bitwise: +0 and -0 differ, and a NaN equals itself.
type Float[T constraints.Float] struct {
	Value[T]
}

// NewFloat returns a Float holding v.
func NewFloat[T constraints.Float](v T) *Float[T] {
	x := new(Float[T])
	x.slot = v
	return x
}

// FetchAdd adds delta and returns the previous value.
func (f *Float[T]) FetchAdd(delta T) T { return f.FetchAddExplicit(delta, SeqCst) }

// FetchAddExplicit is FetchAdd with order o.
func (f *Float[T]) FetchAddExplicit(delta T, o MemoryOrder) T {
	l, c := f.env()
	return fetchFloat(l, c, delta, o)
}

// FetchSub subtracts delta and returns the previous value.
func (f *Float[T]) FetchSub(delta T) T { return f.FetchAddExplicit(-delta, SeqCst) }

// FetchSubExplicit is FetchSub with order o.
func (f *Float[T]) FetchSubExplicit(delta T, o MemoryOrder) T { return f.FetchAddExplicit(-delta, o) }

// Add adds delta and returns the new value.
func (f *Float[T]) Add(delta T) T { return f.FetchAdd(delta) + delta }

// Sub subtracts delta and returns the new value.
func (f *Float[T]) Sub(delta T) T { return f.FetchSub(delta) - delta }
