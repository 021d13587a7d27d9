package lane

import (
	"github.com/kolkov/atomiclanes/internal/atomics/bitcast"
	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
	"github.com/kolkov/atomiclanes/internal/atomics/waitq"
)

// Wide is the 16-byte lane. It requires rawmem.Has128, a 16-byte aligned
// referent and a pointer-free T, and is only selected for references: a
// load is a compare-exchange, so the referent must be writable.
type Wide[T any] struct {
	mask bitcast.Pair
	full bool
}

func newWide[T any]() *Wide[T] {
	m := bitcast.MaskOf[T]()
	return &Wide[T]{mask: m.PairMask(), full: m.Full()}
}

// Kind returns Lane16.
func (l *Wide[T]) Kind() Kind { return Lane16 }

func toBits[T any](v T) rawmem.Bits { return rawmem.Bits(bitcast.ToPair(v)) }

func fromBits[T any](b rawmem.Bits) T { return bitcast.FromPair[T](bitcast.Pair(b)) }

// Store writes v with a compare-exchange loop.
func (l *Wide[T]) Store(c Cell[T], v T, o memorder.Order) {
	if !memorder.CheckStore(o) {
		return
	}
	releaseFence(o)
	rawmem.Store128(c.addr(), toBits(v))
}

// Load reads the value with a compare-exchange of zero against zero.
func (l *Wide[T]) Load(c Cell[T], o memorder.Order) T {
	if !memorder.CheckLoad(o) {
		var zero T
		return zero
	}
	b := rawmem.Load128(c.addr())
	acquireFence(o)
	return fromBits[T](b)
}

// Exchange writes v and returns the previous value.
func (l *Wide[T]) Exchange(c Cell[T], v T, o memorder.Order) T {
	if !memorder.Check(o) {
		var zero T
		return zero
	}
	releaseFence(o)
	old := rawmem.Exchange128(c.addr(), toBits(v))
	acquireFence(o)
	return fromBits[T](old)
}

// CompareExchange swaps the full 16 bytes, retrying on padding-only
// mismatches. On success *expected is left unchanged.
func (l *Wide[T]) CompareExchange(c Cell[T], expected *T, desired T, o memorder.Order) bool {
	if !memorder.Check(o) {
		return false
	}
	exp := toBits(*expected)
	des := toBits(desired)
	m := rawmem.Bits(l.mask)

	releaseFence(o)
	for {
		prev, ok := rawmem.CompareExchange128(c.addr(), exp, des)
		if ok {
			acquireFence(o)
			return true
		}
		if !l.full && (prev[0]^exp[0])&m[0] == 0 && (prev[1]^exp[1])&m[1] == 0 {
			exp = rawmem.Bits(bitcast.MergePair(bitcast.Pair(exp), bitcast.Pair(prev), l.mask))
			continue
		}
		*expected = fromBits[T](prev)
		return false
	}
}

// Wait blocks while the value bits equal those of old.
func (l *Wide[T]) Wait(c Cell[T], old T, o memorder.Order) {
	if !memorder.CheckLoad(o) {
		return
	}
	exp := toBits(old)
	m := rawmem.Bits(l.mask)
	for {
		cur := rawmem.Load128(c.addr())
		if (cur[0]^exp[0])&m[0] != 0 || (cur[1]^exp[1])&m[1] != 0 {
			acquireFence(o)
			return
		}
		c.Park.WaitDirect(c.addr(), 16, cur, waitq.NoTimeout)
	}
}

// NotifyOne wakes one waiter on the cell.
func (l *Wide[T]) NotifyOne(c Cell[T]) { notifyOne(c) }

// NotifyAll wakes every waiter on the cell.
func (l *Wide[T]) NotifyAll(c Cell[T]) { notifyAll(c) }
