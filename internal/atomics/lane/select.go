package lane

import (
	"reflect"

	"github.com/kolkov/atomiclanes/internal/atomics/bitcast"
	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
)

// Placement describes the storage a lane will operate on.
type Placement struct {
	// Align is the guaranteed alignment of the storage address.
	Align uintptr
	// Wide permits the 16-byte lane.
	Wide bool
	// ForceLocked selects the locked lane unconditionally.
	ForceLocked bool
}

// AddrAlign returns the largest power of two, up to 16, that divides addr.
func AddrAlign(a uintptr) uintptr {
	if a == 0 {
		return 16
	}
	return min(a&-a, 16)
}

// KindFor decides the lane for values of type t stored per p.
func KindFor(t reflect.Type, p Placement) Kind {
	if p.ForceLocked {
		return Locked
	}
	if bitcast.PointerShaped(t) {
		return LanePtr
	}
	if bitcast.HasPointers(t) {
		return Locked
	}
	switch size := t.Size(); {
	case size == 1:
		return Lane1
	case size == 2 && p.Align >= 2:
		return Lane2
	case size == 4 && p.Align >= 4:
		return Lane4
	case size == 8 && p.Align >= 8:
		return Lane8
	case size == 16 && p.Wide && rawmem.Has128 && p.Align >= 16:
		return Lane16
	}
	return Locked
}

// Select builds the lane for T stored per p.
func Select[T any](p Placement) Lane[T] {
	switch KindFor(reflect.TypeFor[T](), p) {
	case LanePtr:
		return Ptr[T]{}
	case Lane1:
		return newWord[T](ops1)
	case Lane2:
		return newWord[T](ops2)
	case Lane4:
		return newWord[T](ops4)
	case Lane8:
		return newWord[T](ops8)
	case Lane16:
		return newWide[T]()
	default:
		return newLocked[T]()
	}
}
