package atomic

import (
	"math"
	"sync"
	"testing"
	"unsafe"

	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
)

// TestInt_NoLostUpdates runs two goroutines doing 100000 FetchAdd(1) each
// and expects exactly 200000.
func TestInt_NoLostUpdates(t *testing.T) {
	var v Int[int32]
	const goroutines, iterations = 2, 100000

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				v.FetchAdd(1)
			}
		}()
	}
	wg.Wait()

	if got := v.Load(); got != goroutines*iterations {
		t.Errorf("Load() = %d, want %d", got, goroutines*iterations)
	}
}

// fetchAddAll runs n goroutines of m FetchAdd(1) on an Int[T].
func fetchAddAll[T interface{ ~int16 | ~uint64 | ~int8 }](v *Int[T], n, m int) {
	var wg sync.WaitGroup
	for g := 0; g < n; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < m; i++ {
				v.FetchAdd(1)
			}
		}()
	}
	wg.Wait()
}

// TestInt_NoLostUpdates_Widths repeats the counter test on other lanes.
func TestInt_NoLostUpdates_Widths(t *testing.T) {
	var u64 Int[uint64]
	fetchAddAll(&u64, 4, 2000)
	if got := u64.Load(); got != 8000 {
		t.Errorf("uint64 counter = %d, want 8000", got)
	}

	var i16 Int[int16]
	fetchAddAll(&i16, 4, 2000)
	if got := i16.Load(); got != 8000 {
		t.Errorf("int16 counter = %d, want 8000", got)
	}

	// 4*2000 = 8000 = 31*256 + 64, so an int8 counter wraps to 64.
	var i8 Int[int8]
	fetchAddAll(&i8, 4, 2000)
	if got := i8.Load(); got != 64 {
		t.Errorf("int8 counter = %d, want 64", got)
	}
}

// TestInt_Operations verifies return values of every integer operation.
func TestInt_Operations(t *testing.T) {
	v := NewInt[uint8](10)

	check := func(name string, got, want uint8) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}

	check("FetchAdd", v.FetchAdd(5), 10)
	check("FetchSub", v.FetchSub(3), 15)
	check("Add", v.Add(8), 20)
	check("Sub", v.Sub(4), 16)
	check("Inc", v.Inc(), 17)
	check("Dec", v.Dec(), 16)
	check("PostInc", v.PostInc(), 16)
	check("PostDec", v.PostDec(), 17)
	check("FetchOr", v.FetchOr(0x80), 16)
	check("FetchAnd", v.FetchAnd(0x90), 0x90)
	check("FetchXor", v.FetchXor(0xFF), 0x90)
	check("Load", v.Load(), 0x6F)

	v.Store(0)
	check("wrap Dec", v.Dec(), 0xFF)
	check("wrap Inc", v.Inc(), 0)
}

// TestInt_FetchSubIsNegatedAdd verifies FetchSub(x) == FetchAdd(-x).
func TestInt_FetchSubIsNegatedAdd(t *testing.T) {
	a, b := NewInt[int64](100), NewInt[int64](100)
	for _, x := range []int64{1, -7, math.MaxInt64, math.MinInt64} {
		if oa, ob := a.FetchSub(x), b.FetchAdd(-x); oa != ob {
			t.Fatalf("FetchSub(%d) old = %d, FetchAdd(-x) old = %d", x, oa, ob)
		}
		if a.Load() != b.Load() {
			t.Fatalf("after x=%d: %d != %d", x, a.Load(), b.Load())
		}
	}
}

// TestIntRef_LockedFallback verifies fetch ops on the locked lane use the
// compare-exchange loop.
func TestIntRef_LockedFallback(t *testing.T) {
	opts := DefaultOptions()
	opts.ForceLocked = true
	ctx, err := NewContext(opts)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	var n int32
	r := NewIntRefIn(ctx, &n)
	if r.Lane() != LaneLocked {
		t.Fatalf("Lane() = %v, want locked", r.Lane())
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				r.FetchAdd(1)
			}
		}()
	}
	wg.Wait()

	if got := r.Load(); got != 4000 {
		t.Errorf("Load() = %d, want 4000", got)
	}
	if got := r.FetchXor(0xF); got != 4000 {
		t.Errorf("FetchXor old = %d", got)
	}
}

// TestFloat_Atomicity checks that a reader never sees a torn value while
// several goroutines run FetchAdd.
func TestFloat_Atomicity(t *testing.T) {
	var v Float[float64]
	const writers, iterations = 4, 2000
	const total = writers * iterations

	stop := make(chan struct{})
	var reader sync.WaitGroup
	reader.Add(1)
	go func() {
		defer reader.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			x := v.Load()
			if x != math.Trunc(x) || x < 0 || x > total {
				t.Errorf("reader observed %v", x)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				v.FetchAdd(1)
			}
		}()
	}
	wg.Wait()
	close(stop)
	reader.Wait()

	if got := v.Load(); got != total {
		t.Errorf("Load() = %v, want %v", got, total)
	}
}

// TestFloat_Operations verifies return values.
func TestFloat_Operations(t *testing.T) {
	v := NewFloat[float32](1.5)
	if old := v.FetchAdd(2); old != 1.5 {
		t.Errorf("FetchAdd old = %v", old)
	}
	if old := v.FetchSub(0.5); old != 3.5 {
		t.Errorf("FetchSub old = %v", old)
	}
	if got := v.Add(1); got != 4 {
		t.Errorf("Add = %v", got)
	}
	if got := v.Sub(4); got != 0 {
		t.Errorf("Sub = %v", got)
	}

	nan := NewFloat(math.NaN())
	nan.FetchAdd(1) // must terminate
	if !math.IsNaN(nan.Load()) {
		t.Error("NaN + 1 is not NaN")
	}
}

// TestPointer_Stride verifies pointer arithmetic scales by the element size.
func TestPointer_Stride(t *testing.T) {
	type elem struct{ A, B, C int32 }
	var arr [8]elem
	p := NewPointer(&arr[0])
	if p.Lane() != LanePtr && p.Lane() != LaneLocked {
		t.Errorf("Lane() = %v", p.Lane())
	}

	if old := p.FetchAdd(3); old != &arr[0] {
		t.Errorf("FetchAdd old = %p, want %p", old, &arr[0])
	}
	if got := p.Load(); got != &arr[3] {
		t.Errorf("after FetchAdd(3) = %p, want %p", got, &arr[3])
	}
	if d := uintptr(unsafe.Pointer(p.Load())) - uintptr(unsafe.Pointer(&arr[0])); d != 3*unsafe.Sizeof(elem{}) {
		t.Errorf("advanced %d bytes, want %d", d, 3*unsafe.Sizeof(elem{}))
	}
	if got := p.Inc(); got != &arr[4] {
		t.Errorf("Inc = %p, want %p", got, &arr[4])
	}
	if got := p.PostDec(); got != &arr[4] {
		t.Errorf("PostDec = %p, want %p", got, &arr[4])
	}
	if got := p.Dec(); got != &arr[2] {
		t.Errorf("Dec = %p, want %p", got, &arr[2])
	}
	if got := p.PostInc(); got != &arr[2] {
		t.Errorf("PostInc = %p, want %p", got, &arr[2])
	}
	p.FetchSub(3)
	if got := p.Load(); got != &arr[0] {
		t.Errorf("after FetchSub(3) = %p, want %p", got, &arr[0])
	}
}

type wide struct {
	Lo, Hi uint64
}

// aligned16 returns a 16-byte aligned *wide inside pointer-free backing.
func aligned16(t *testing.T) *wide {
	t.Helper()
	buf := make([]uint64, 4)
	p := unsafe.Pointer(&buf[0])
	if uintptr(p)%16 != 0 {
		p = unsafe.Pointer(&buf[1])
	}
	return (*wide)(p)
}

// TestRef_Wide checks that compare-and-swap on a 16-byte referent replaces
// the whole struct and leaves expected untouched when it succeeds.
func TestRef_Wide(t *testing.T) {
	p := aligned16(t)
	*p = wide{Lo: 1, Hi: 2}
	r := NewRef(p)

	want := LaneLocked
	if rawmem.Has128 && !DefaultContext().Options().ForceLocked {
		want = Lane16
	}
	if r.Lane() != want {
		t.Errorf("Lane() = %v, want %v", r.Lane(), want)
	}

	expected := wide{Lo: 1, Hi: 2}
	if !r.CompareAndSwap(&expected, wide{Lo: 10, Hi: 20}) {
		t.Fatal("CompareAndSwap failed on match")
	}
	if expected != (wide{Lo: 1, Hi: 2}) {
		t.Errorf("expected modified on success: %+v", expected)
	}
	if *p != (wide{Lo: 10, Hi: 20}) {
		t.Errorf("referent = %+v, want {10 20}", *p)
	}

	expected = wide{Lo: 10, Hi: 21}
	if r.CompareAndSwap(&expected, wide{}) {
		t.Error("CompareAndSwap succeeded on high-half mismatch")
	}
	if expected != (wide{Lo: 10, Hi: 20}) {
		t.Errorf("expected after failure = %+v", expected)
	}
}

// TestRef_SharedLock verifies Refs over one object share the registry lock.
func TestRef_SharedLock(t *testing.T) {
	var obj triple
	a, b := NewRef(&obj), NewRef(&obj)
	if a.Lane() != LaneLocked {
		t.Fatalf("Lane() = %v, want locked", a.Lane())
	}
	if a.cell.Lock == nil || a.cell.Lock != b.cell.Lock {
		t.Error("Refs over the same object do not share a lock")
	}

	var other triple
	if NewRef(&other).cell.Lock == a.cell.Lock {
		t.Error("Refs over different objects share a lock")
	}
}

// TestRef_ByteField verifies a one-byte referent leaves its neighbours.
func TestRef_ByteField(t *testing.T) {
	type rec struct {
		Flags [4]uint8
		N     uint32
	}
	obj := &rec{Flags: [4]uint8{1, 2, 3, 4}, N: 99}
	r := NewIntRef(&obj.Flags[1])
	if r.FetchAdd(10) != 2 {
		t.Error("FetchAdd old != 2")
	}
	r.FetchOr(0x80)
	if obj.Flags != [4]uint8{1, 0x8C, 3, 4} || obj.N != 99 {
		t.Errorf("record = %+v", *obj)
	}
}

// TestIntRef_Operations verifies return values of every integer operation
// on caller memory.
func TestIntRef_Operations(t *testing.T) {
	n := int16(10)
	r := NewIntRef(&n)

	check := func(name string, got, want int16) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}

	check("FetchAdd", r.FetchAdd(5), 10)
	check("FetchSub", r.FetchSub(3), 15)
	check("FetchSubExplicit", r.FetchSubExplicit(2, AcqRel), 12)
	check("Add", r.Add(8), 18)
	check("Sub", r.Sub(4), 14)
	check("Inc", r.Inc(), 15)
	check("Dec", r.Dec(), 14)
	check("PostInc", r.PostInc(), 14)
	check("PostDec", r.PostDec(), 15)
	check("FetchOrExplicit", r.FetchOrExplicit(0x100, Release), 14)
	check("FetchAndExplicit", r.FetchAndExplicit(0x10F, Acquire), 0x10E)
	check("FetchXorExplicit", r.FetchXorExplicit(0xFF, Relaxed), 0x10E)
	check("FetchAddExplicit", r.FetchAddExplicit(1, SeqCst), 0x1F1)
	if n != 0x1F2 {
		t.Errorf("referent = %#x, want 0x1f2", n)
	}
}

// TestFloatRef verifies floating arithmetic on caller memory.
func TestFloatRef(t *testing.T) {
	x := 1.0
	r := NewFloatRef(&x)
	if old := r.FetchAdd(2); old != 1 {
		t.Errorf("FetchAdd old = %v", old)
	}
	if old := r.FetchSub(0.5); old != 3 {
		t.Errorf("FetchSub old = %v", old)
	}
	if got := r.Add(1.5); got != 4 {
		t.Errorf("Add = %v", got)
	}
	if got := r.Sub(1); got != 3 {
		t.Errorf("Sub = %v", got)
	}
	if old := r.FetchAddExplicit(1, Release); old != 3 {
		t.Errorf("FetchAddExplicit old = %v", old)
	}
	if old := r.FetchSubExplicit(4, AcqRel); old != 4 {
		t.Errorf("FetchSubExplicit old = %v", old)
	}
	if x != 0 {
		t.Errorf("x = %v, want 0", x)
	}
}

// TestRefIn_Constructors verifies the typed constructors bind to ctx.
func TestRefIn_Constructors(t *testing.T) {
	opts := DefaultOptions()
	opts.ForceLocked = true
	ctx, err := NewContext(opts)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	var n uint32
	var f float32
	ir, fr := NewIntRefIn(ctx, &n), NewFloatRefIn(ctx, &f)
	if ir.Lane() != LaneLocked || fr.Lane() != LaneLocked {
		t.Errorf("lanes = %v, %v, want locked", ir.Lane(), fr.Lane())
	}
	ir.Add(7)
	fr.Add(0.5)
	if n != 7 || f != 0.5 {
		t.Errorf("n = %d, f = %v", n, f)
	}
	if st := ctx.LockStats(); st.Occupied+st.Overflow != 2 {
		t.Errorf("LockStats = %+v, want 2 entries", st)
	}
}

// TestContext_LockStable verifies references over one object in a context
// always share a lock, however many other addresses the context has seen.
func TestContext_LockStable(t *testing.T) {
	opts := DefaultOptions()
	opts.LockSlots = 16
	ctx, err := NewContext(opts)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	var obj triple
	a := NewRefIn(ctx, &obj)
	others := make([]triple, 64)
	for i := range others {
		NewRefIn(ctx, &others[i])
	}
	b := NewRefIn(ctx, &obj)
	if a.cell.Lock == nil || a.cell.Lock != b.cell.Lock {
		t.Error("references over one object hold different locks")
	}
}

// TestContext_CloseKeepsRefs verifies Close refuses new references but
// leaves existing ones working.
func TestContext_CloseKeepsRefs(t *testing.T) {
	ctx, err := NewContext(DefaultOptions())
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	var n int64
	r := NewIntRefIn(ctx, &n)
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !ctx.Closed() {
		t.Error("Closed() = false after Close")
	}
	if r.Inc() != 1 || n != 1 {
		t.Errorf("Inc after Close: n = %d", n)
	}
}

// TestNewRefIn_Closed verifies closed contexts refuse new references.
func TestNewRefIn_Closed(t *testing.T) {
	ctx, err := NewContext(DefaultOptions())
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("NewRefIn on closed context did not panic")
		}
	}()
	var n int
	NewRefIn(ctx, &n)
}

// TestNewRef_Nil verifies nil referents are rejected.
func TestNewRef_Nil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewRef(nil) did not panic")
		}
	}()
	NewRef[int](nil)
}
