package bitcast

import (
	"math"
	"reflect"
	"testing"
	"unsafe"
)

type padded struct {
	A uint8
	// 3 bytes of padding
	B uint32
}

type tail struct {
	A uint32
	B uint8
	// 3 bytes of tail padding
}

type nested struct {
	P [2]padded
}

// TestToWord_RoundTrip verifies ToWord/FromWord preserve object bytes.
func TestToWord_RoundTrip(t *testing.T) {
	f := float32(-1.5)
	w := ToWord[uint32](f)
	if w != math.Float32bits(f) {
		t.Errorf("ToWord(%v) = %#x, want %#x", f, w, math.Float32bits(f))
	}
	if got := FromWord[float32](w); got != f {
		t.Errorf("FromWord(%#x) = %v, want %v", w, got, f)
	}

	b := [3]byte{1, 2, 3}
	w4 := ToWord[uint32](b)
	if got := FromWord[[3]byte](w4); got != b {
		t.Errorf("FromWord(ToWord(%v)) = %v", b, got)
	}
	// The fourth byte of the word is zero.
	if bs := (*[4]byte)(unsafe.Pointer(&w4)); bs[3] != 0 {
		t.Errorf("unused word byte = %d, want 0", bs[3])
	}
}

// TestToPair verifies 16-byte conversion.
func TestToPair(t *testing.T) {
	v := [2]uint64{0x1111, 0x2222}
	p := ToPair(v)
	if p != (Pair{0x1111, 0x2222}) {
		t.Errorf("ToPair(%v) = %v", v, p)
	}
	if got := FromPair[[2]uint64](p); got != v {
		t.Errorf("FromPair(%v) = %v", p, got)
	}
}

// TestMask_PaddingFree verifies identity masks.
func TestMask_PaddingFree(t *testing.T) {
	tests := []struct {
		name string
		m    *Mask
	}{
		{"uint32", MaskOf[uint32]()},
		{"float64", MaskOf[float64]()},
		{"[4]byte", MaskOf[[4]byte]()},
		{"pointer", MaskOf[*int]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.m.Full() {
				t.Errorf("mask not full: %x", tt.m.Bytes())
			}
		})
	}
}

// TestMask_Padded verifies interior and tail padding are cleared.
func TestMask_Padded(t *testing.T) {
	m := MaskOf[padded]()
	want := []byte{0xFF, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}
	if !reflect.DeepEqual(m.Bytes(), want) {
		t.Errorf("mask(padded) = %x, want %x", m.Bytes(), want)
	}
	if m.Full() {
		t.Error("mask(padded).Full() = true")
	}

	m = MaskOf[tail]()
	want = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0}
	if !reflect.DeepEqual(m.Bytes(), want) {
		t.Errorf("mask(tail) = %x, want %x", m.Bytes(), want)
	}
}

// TestMask_Nested verifies masks recurse through arrays of structs.
func TestMask_Nested(t *testing.T) {
	m := MaskOf[nested]()
	if m.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", m.Len())
	}
	p := m.PairMask()
	half := MaskWord[uint64](MaskOf[padded]())
	if p[0] != half || p[1] != half {
		t.Errorf("PairMask() = %#x, want both halves %#x", p, half)
	}
}

// TestMask_Memoized verifies one Mask per type.
func TestMask_Memoized(t *testing.T) {
	if MaskOf[padded]() != MaskOf[padded]() {
		t.Error("MaskOf returned different instances for the same type")
	}
}

// TestMask_Equal verifies padding bytes are ignored.
func TestMask_Equal(t *testing.T) {
	var a, b padded
	a.A, a.B = 7, 9
	b.A, b.B = 7, 9
	Bytes(&b)[1] = 0xAB // padding

	m := MaskOf[padded]()
	if !m.Equal(unsafe.Pointer(&a), unsafe.Pointer(&b)) {
		t.Error("Equal() = false for values differing only in padding")
	}

	b.B = 10
	if m.Equal(unsafe.Pointer(&a), unsafe.Pointer(&b)) {
		t.Error("Equal() = true for values differing in a field")
	}
}

// TestMask_ClearPadding verifies padding is zeroed and fields are kept.
func TestMask_ClearPadding(t *testing.T) {
	var v padded
	raw := Bytes(&v)
	for i := range raw {
		raw[i] = 0xCC
	}
	MaskOf[padded]().ClearPadding(unsafe.Pointer(&v))
	want := []byte{0xCC, 0, 0, 0, 0xCC, 0xCC, 0xCC, 0xCC}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("after ClearPadding = %x, want %x", raw, want)
	}
}

// TestMask_FloatZero verifies floats compare bitwise.
func TestMask_FloatZero(t *testing.T) {
	pos, neg := 0.0, math.Copysign(0, -1)
	if MaskOf[float64]().Equal(unsafe.Pointer(&pos), unsafe.Pointer(&neg)) {
		t.Error("+0.0 and -0.0 compared equal under the float mask")
	}
}

// TestMerge verifies expected refresh keeps value bits.
func TestMerge(t *testing.T) {
	got := Merge[uint32](0x000000AA, 0x12345655, 0x000000FF)
	if got != 0x123456AA {
		t.Errorf("Merge = %#x, want 0x123456aa", got)
	}
	pair := MergePair(Pair{0xAA, 0xBB}, Pair{0xF0F0, 0x0F0F}, Pair{0xFF, 0xFF})
	if pair != (Pair{0xF0AA, 0x0FBB}) {
		t.Errorf("MergePair = %#x", pair)
	}
}

// TestHasPointers verifies GC pointer classification.
func TestHasPointers(t *testing.T) {
	type withPtr struct {
		N int
		P *int
	}
	type wrap struct{ P *int }

	tests := []struct {
		typ    reflect.Type
		ptrs   bool
		shaped bool
	}{
		{reflect.TypeFor[int64](), false, false},
		{reflect.TypeFor[*int](), true, true},
		{reflect.TypeFor[unsafe.Pointer](), true, true},
		{reflect.TypeFor[map[int]int](), true, true},
		{reflect.TypeFor[wrap](), true, true},
		{reflect.TypeFor[withPtr](), true, false},
		{reflect.TypeFor[string](), true, false},
		{reflect.TypeFor[[0]*int](), false, false},
		{reflect.TypeFor[padded](), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := HasPointers(tt.typ); got != tt.ptrs {
				t.Errorf("HasPointers = %v, want %v", got, tt.ptrs)
			}
			if got := PointerShaped(tt.typ); got != tt.shaped {
				t.Errorf("PointerShaped = %v, want %v", got, tt.shaped)
			}
		})
	}
}
