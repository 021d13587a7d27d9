package bitcast

import (
	"reflect"
	"sync"
	"unsafe"
)

// Mask marks which bytes of a type's object representation carry value.
//
// Bytes between struct fields and after the last field carry no value: Go
// leaves their contents unspecified, so two logically equal values may
// differ there. Compare-and-swap on raw bits must ignore them.
//
// Floating-point and other padding-free types get the identity mask: every
// bit is significant, so -0.0 and +0.0 compare unequal and NaNs compare by
// payload, exactly as a raw compare would.
type Mask struct {
	bytes []byte
	full  bool
}

// masks memoizes Mask per reflect.Type. Entries are never removed.
var masks sync.Map // reflect.Type -> *Mask

// MaskOf returns the memoized value-bits mask of T.
func MaskOf[T any]() *Mask {
	return MaskFor(reflect.TypeFor[T]())
}

// MaskFor returns the memoized value-bits mask of t.
func MaskFor(t reflect.Type) *Mask {
	if m, ok := masks.Load(t); ok {
		return m.(*Mask)
	}
	m := computeMask(t)
	actual, _ := masks.LoadOrStore(t, m)
	return actual.(*Mask)
}

func computeMask(t reflect.Type) *Mask {
	b := make([]byte, t.Size())
	markValueBytes(t, 0, b)

	full := true
	for _, x := range b {
		if x != 0xFF {
			full = false
			break
		}
	}
	return &Mask{bytes: b, full: full}
}

// markValueBytes sets every byte covered by a value-carrying field of t,
// placed at offset base, to 0xFF.
func markValueBytes(t reflect.Type, base uintptr, b []byte) {
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			markValueBytes(f.Type, base+f.Offset, b)
		}
	case reflect.Array:
		elem := t.Elem()
		for i := 0; i < t.Len(); i++ {
			markValueBytes(elem, base+uintptr(i)*elem.Size(), b)
		}
	default:
		for i := uintptr(0); i < t.Size(); i++ {
			b[base+i] = 0xFF
		}
	}
}

// Full reports whether every byte is significant.
func (m *Mask) Full() bool { return m.full }

// Len returns the mask length in bytes (the type's size).
func (m *Mask) Len() int { return len(m.bytes) }

// Bytes returns a copy of the mask bytes.
func (m *Mask) Bytes() []byte {
	return append([]byte(nil), m.bytes...)
}

// MaskWord returns the mask as a raw word of width W. Bytes beyond the
// type's size are zero, so they never take part in a comparison.
func MaskWord[W Word](m *Mask) W {
	var w W
	n := min(uintptr(len(m.bytes)), unsafe.Sizeof(w))
	copy(bytesOf(unsafe.Pointer(&w), n), m.bytes[:n])
	return w
}

// PairMask returns the mask as a Pair.
func (m *Mask) PairMask() Pair {
	var p Pair
	n := min(uintptr(len(m.bytes)), unsafe.Sizeof(p))
	copy(bytesOf(unsafe.Pointer(&p), n), m.bytes[:n])
	return p
}

// Equal reports whether the objects at a and b are equal on value bytes.
func (m *Mask) Equal(a, b unsafe.Pointer) bool {
	n := uintptr(len(m.bytes))
	x, y := bytesOf(a, n), bytesOf(b, n)
	if m.full {
		return string(x) == string(y)
	}
	for i, mb := range m.bytes {
		if (x[i]^y[i])&mb != 0 {
			return false
		}
	}
	return true
}

// ClearPadding zeroes the non-value bytes of the object at p.
func (m *Mask) ClearPadding(p unsafe.Pointer) {
	if m.full {
		return
	}
	x := bytesOf(p, uintptr(len(m.bytes)))
	for i, mb := range m.bytes {
		x[i] &= mb
	}
}

// Merge returns observed with its value bits replaced by those of expected.
// Used to refresh an expected operand after a CAS failure confined to
// padding: the result compares raw-equal to the stored bits while keeping
// the caller's value.
func Merge[W Word](expected, observed, mask W) W {
	return (expected & mask) | (observed &^ mask)
}

// MergePair is Merge for 128-bit values.
func MergePair(expected, observed, mask Pair) Pair {
	return Pair{
		Merge(expected[0], observed[0], mask[0]),
		Merge(expected[1], observed[1], mask[1]),
	}
}

// HasPointers reports whether values of t contain pointers the garbage
// collector must see.
func HasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Slice, reflect.String, reflect.Interface:
		return true
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if HasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	case reflect.Array:
		return t.Len() > 0 && HasPointers(t.Elem())
	default:
		return false
	}
}

// PointerShaped reports whether t is exactly one pointer word that the
// garbage collector must see, such as *U, map, chan, func, unsafe.Pointer
// or a struct wrapping one of those.
func PointerShaped(t reflect.Type) bool {
	return t.Size() == unsafe.Sizeof(uintptr(0)) && HasPointers(t)
}
