package atomic

import (
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/kolkov/atomiclanes/internal/atomics/lane"
	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
)

// fetchInt applies op and returns the previous value. Lanes with native
// fetch-and-op use it; the locked lane runs a load/compare-exchange loop.
func fetchInt[T constraints.Integer](l lane.Lane[T], c lane.Cell[T], op lane.Op, x T, o MemoryOrder) T {
	if !memorder.Check(o) {
		return 0
	}
	if ar, ok := l.(lane.Arith); ok {
		return T(ar.FetchOp(unsafe.Pointer(c.Ptr), op, uint64(x), o))
	}
	old := l.Load(c, Relaxed)
	for !l.CompareExchange(c, &old, applyInt(op, old, x), o) {
	}
	return old
}

func applyInt[T constraints.Integer](op lane.Op, a, b T) T {
	switch op {
	case lane.OpAdd:
		return a + b
	case lane.OpAnd:
		return a & b
	case lane.OpOr:
		return a | b
	case lane.OpXor:
		return a ^ b
	}
	panic("atomic: unknown fetch op")
}

// fetchFloat adds delta with a compare-exchange loop; there is no hardware
// floating-point fetch-add. Comparison is bitwise, so a stored NaN does not
// stall the loop.
func fetchFloat[T constraints.Float](l lane.Lane[T], c lane.Cell[T], delta T, o MemoryOrder) T {
	if !memorder.Check(o) {
		return 0
	}
	old := l.Load(c, Relaxed)
	for !l.CompareExchange(c, &old, old+delta, o) {
	}
	return old
}

// fetchPtr advances a *T by n elements with a compare-exchange loop so the
// stored value stays a GC-visible pointer.
func fetchPtr[T any](l lane.Lane[*T], c lane.Cell[*T], n int, o MemoryOrder) *T {
	if !memorder.Check(o) {
		return nil
	}
	old := l.Load(c, Relaxed)
	for !l.CompareExchange(c, &old, advance(old, n), o) {
	}
	return old
}

func advance[T any](p *T, n int) *T {
	var zero T
	return (*T)(unsafe.Add(unsafe.Pointer(p), n*int(unsafe.Sizeof(zero))))
}
