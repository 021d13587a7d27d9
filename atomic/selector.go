package atomic

import (
	"reflect"
)

// Kind classifies a value type for the selector.
type Kind int

const (
	// KindGeneric types use Value. bool is generic.
	KindGeneric Kind = iota
	// KindIntegral types use Int.
	KindIntegral
	// KindFloating types use Float.
	KindFloating
	// KindPointer is an object pointer *U, served by Pointer[U].
	KindPointer
	// KindPlainPointer covers pointer-shaped types without element
	// arithmetic: unsafe.Pointer, func, chan and map.
	KindPlainPointer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindIntegral:
		return "integral"
	case KindFloating:
		return "floating"
	case KindPointer:
		return "pointer"
	case KindPlainPointer:
		return "plain_pointer"
	default:
		return "unknown"
	}
}

// KindOf classifies T by its underlying kind. New dispatches on a narrower
// set; see New.
func KindOf[T any]() Kind {
	return kindOf(reflect.TypeFor[T]())
}

func kindOf(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindIntegral
	case reflect.Float32, reflect.Float64:
		return KindFloating
	case reflect.Pointer:
		return KindPointer
	case reflect.UnsafePointer, reflect.Func, reflect.Chan, reflect.Map:
		return KindPlainPointer
	default:
		return KindGeneric
	}
}

// Cell is the operation set every atomic cell offers.
type Cell[T any] interface {
	Store(x T)
	StoreExplicit(x T, o MemoryOrder)
	Load() T
	LoadExplicit(o MemoryOrder) T
	Swap(x T) T
	SwapExplicit(x T, o MemoryOrder) T
	CompareAndSwap(expected *T, desired T) bool
	CompareAndSwapExplicit(expected *T, desired T, o MemoryOrder) bool
	Wait(old T)
	WaitExplicit(old T, o MemoryOrder)
	NotifyOne()
	NotifyAll()
	Lane() LaneKind
}

var (
	_ Cell[int]     = (*Value[int])(nil)
	_ Cell[int]     = (*Int[int])(nil)
	_ Cell[int]     = (*Ref[int])(nil)
	_ Cell[*int]    = (*Pointer[int])(nil)
	_ Cell[float64] = (*Float[float64])(nil)
)

// New returns a cell holding v, backed by the facade its type selects:
// *Int for the predeclared integer types, *Float for float32 and float64,
// and *Value otherwise.
//
// New cannot reach every facade KindOf names. A type switch on a type
// parameter only matches exact types, and Pointer[U] needs U as its own
// type parameter, so two cases fall back to *Value:
//   - KindPointer (*U): use NewPointer for element arithmetic.
//   - defined integer and float types (type Celsius float64): use NewInt or
//     NewFloat.
//
// The returned cell behaves identically for Store, Load, Swap,
// CompareAndSwap and Wait; only the arithmetic methods are missing.
func New[T any](v T) Cell[T] {
	var c any
	switch x := any(v).(type) {
	case int:
		c = NewInt(x)
	case int8:
		c = NewInt(x)
	case int16:
		c = NewInt(x)
	case int32:
		c = NewInt(x)
	case int64:
		c = NewInt(x)
	case uint:
		c = NewInt(x)
	case uint8:
		c = NewInt(x)
	case uint16:
		c = NewInt(x)
	case uint32:
		c = NewInt(x)
	case uint64:
		c = NewInt(x)
	case uintptr:
		c = NewInt(x)
	case float32:
		c = NewFloat(x)
	case float64:
		c = NewFloat(x)
	default:
		return NewValue(v)
	}
	return c.(Cell[T])
}
