package lane

import (
	"unsafe"

	"github.com/kolkov/atomiclanes/internal/atomics/bitcast"
	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
	"github.com/kolkov/atomiclanes/internal/atomics/waitq"
)

// wordOps binds one hardware width to its rawmem primitives.
type wordOps[W bitcast.Word] struct {
	kind  Kind
	width uintptr
	load  func(unsafe.Pointer) W
	store func(unsafe.Pointer, W)
	xchg  func(unsafe.Pointer, W) W
	cas   func(unsafe.Pointer, W, W) (W, bool)
	add   func(unsafe.Pointer, W) W
	and   func(unsafe.Pointer, W) W
	or    func(unsafe.Pointer, W) W
	xor   func(unsafe.Pointer, W) W
}

var (
	ops1 = &wordOps[uint8]{
		kind: Lane1, width: 1,
		load: rawmem.Load8, store: rawmem.Store8, xchg: rawmem.Exchange8, cas: rawmem.CompareExchange8,
		add: rawmem.ExchangeAdd8, and: rawmem.And8, or: rawmem.Or8, xor: rawmem.Xor8,
	}
	ops2 = &wordOps[uint16]{
		kind: Lane2, width: 2,
		load: rawmem.Load16, store: rawmem.Store16, xchg: rawmem.Exchange16, cas: rawmem.CompareExchange16,
		add: rawmem.ExchangeAdd16, and: rawmem.And16, or: rawmem.Or16, xor: rawmem.Xor16,
	}
	ops4 = &wordOps[uint32]{
		kind: Lane4, width: 4,
		load: rawmem.Load32, store: rawmem.Store32, xchg: rawmem.Exchange32, cas: rawmem.CompareExchange32,
		add: rawmem.ExchangeAdd32, and: rawmem.And32, or: rawmem.Or32, xor: rawmem.Xor32,
	}
	ops8 = &wordOps[uint64]{
		kind: Lane8, width: 8,
		load: rawmem.Load64, store: rawmem.Store64, xchg: rawmem.Exchange64, cas: rawmem.CompareExchange64,
		add: rawmem.ExchangeAdd64, and: rawmem.And64, or: rawmem.Or64, xor: rawmem.Xor64,
	}
)

// Word is a lock-free lane for a T exactly as wide as W.
type Word[T any, W bitcast.Word] struct {
	ops  *wordOps[W]
	mask W
	full bool
}

func newWord[T any, W bitcast.Word](ops *wordOps[W]) *Word[T, W] {
	m := bitcast.MaskOf[T]()
	return &Word[T, W]{ops: ops, mask: bitcast.MaskWord[W](m), full: m.Full()}
}

// Kind returns the lane kind for the word width.
func (l *Word[T, W]) Kind() Kind { return l.ops.kind }

// Store writes v. Relaxed is a plain atomic store, release adds a barrier
// before it and seq_cst goes through an exchange.
func (l *Word[T, W]) Store(c Cell[T], v T, o memorder.Order) {
	if !memorder.CheckStore(o) {
		return
	}
	w := bitcast.ToWord[W](v)
	switch o {
	case memorder.Relaxed:
		l.ops.store(c.addr(), w)
	case memorder.Release:
		rawmem.ReadWriteBarrier()
		l.ops.store(c.addr(), w)
	default:
		l.ops.xchg(c.addr(), w)
	}
}

// Load reads the value.
func (l *Word[T, W]) Load(c Cell[T], o memorder.Order) T {
	if !memorder.CheckLoad(o) {
		var zero T
		return zero
	}
	w := l.ops.load(c.addr())
	acquireFence(o)
	return bitcast.FromWord[T](w)
}

// Exchange writes v and returns the previous value.
func (l *Word[T, W]) Exchange(c Cell[T], v T, o memorder.Order) T {
	if !memorder.Check(o) {
		var zero T
		return zero
	}
	releaseFence(o)
	old := l.ops.xchg(c.addr(), bitcast.ToWord[W](v))
	acquireFence(o)
	return bitcast.FromWord[T](old)
}

// CompareExchange swaps in desired if the value bits equal those of
// *expected. A raw mismatch confined to padding refreshes the expected word
// with the observed padding and retries.
func (l *Word[T, W]) CompareExchange(c Cell[T], expected *T, desired T, o memorder.Order) bool {
	if !memorder.Check(o) {
		return false
	}
	exp := bitcast.ToWord[W](*expected)
	des := bitcast.ToWord[W](desired)

	releaseFence(o)
	for {
		prev, ok := l.ops.cas(c.addr(), exp, des)
		if ok {
			acquireFence(o)
			return true
		}
		if !l.full && (prev^exp)&l.mask == 0 {
			exp = bitcast.Merge(exp, prev, l.mask)
			continue
		}
		*expected = bitcast.FromWord[T](prev)
		return false
	}
}

// Wait blocks while the value bits equal those of old, parking on the raw
// word last observed.
func (l *Word[T, W]) Wait(c Cell[T], old T, o memorder.Order) {
	if !memorder.CheckLoad(o) {
		return
	}
	exp := bitcast.ToWord[W](old)
	for {
		cur := l.ops.load(c.addr())
		if (cur^exp)&l.mask != 0 {
			acquireFence(o)
			return
		}
		c.Park.WaitDirect(c.addr(), l.ops.width, rawmem.Bits{uint64(cur)}, waitq.NoTimeout)
	}
}

// NotifyOne wakes one waiter on the cell.
func (l *Word[T, W]) NotifyOne(c Cell[T]) { notifyOne(c) }

// NotifyAll wakes every waiter on the cell.
func (l *Word[T, W]) NotifyAll(c Cell[T]) { notifyAll(c) }

// FetchOp applies op with operand v and returns the previous raw bits.
func (l *Word[T, W]) FetchOp(addr unsafe.Pointer, op Op, v uint64, o memorder.Order) uint64 {
	if !memorder.Check(o) {
		return 0
	}
	w := W(v)
	releaseFence(o)
	var old W
	switch op {
	case OpAdd:
		old = l.ops.add(addr, w)
	case OpAnd:
		old = l.ops.and(addr, w)
	case OpOr:
		old = l.ops.or(addr, w)
	case OpXor:
		old = l.ops.xor(addr, w)
	default:
		panic("lane: unknown fetch op")
	}
	acquireFence(o)
	return uint64(old)
}
