package atomic

import (
	"testing"
	"unsafe"
)

// TestKindOf verifies type classification.
func TestKindOf(t *testing.T) {
	type celsius float64
	tests := []struct {
		name string
		got  Kind
		want Kind
	}{
		{"bool", KindOf[bool](), KindGeneric},
		{"int32", KindOf[int32](), KindIntegral},
		{"uintptr", KindOf[uintptr](), KindIntegral},
		{"float32", KindOf[float32](), KindFloating},
		{"celsius", KindOf[celsius](), KindFloating},
		{"*int", KindOf[*int](), KindPointer},
		{"unsafe.Pointer", KindOf[unsafe.Pointer](), KindPlainPointer},
		{"func()", KindOf[func()](), KindPlainPointer},
		{"chan int", KindOf[chan int](), KindPlainPointer},
		{"map", KindOf[map[string]int](), KindPlainPointer},
		{"struct", KindOf[padded](), KindGeneric},
		{"string", KindOf[string](), KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("KindOf = %v, want %v", tt.got, tt.want)
			}
		})
	}
}

// TestKind_String verifies names, including out-of-range values.
func TestKind_String(t *testing.T) {
	if KindPlainPointer.String() != "plain_pointer" {
		t.Errorf("KindPlainPointer = %q", KindPlainPointer.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99) = %q", Kind(99).String())
	}
}

// TestNew_Dispatch verifies the selector picks the facade by type.
func TestNew_Dispatch(t *testing.T) {
	if _, ok := New(int64(5)).(*Int[int64]); !ok {
		t.Error("New(int64) is not *Int[int64]")
	}
	if _, ok := New(uint8(5)).(*Int[uint8]); !ok {
		t.Error("New(uint8) is not *Int[uint8]")
	}
	if _, ok := New(2.5).(*Float[float64]); !ok {
		t.Error("New(float64) is not *Float[float64]")
	}
	if _, ok := New(true).(*Value[bool]); !ok {
		t.Error("New(bool) is not *Value[bool]")
	}

	type celsius float64
	if _, ok := New(celsius(1)).(*Value[celsius]); !ok {
		t.Error("New(celsius) is not *Value[celsius]")
	}

	x := new(int)
	if _, ok := New(x).(*Value[*int]); !ok {
		t.Error("New(*int) is not *Value[*int]")
	}
	if KindOf[*int]() != KindPointer {
		t.Error("KindOf[*int] is not KindPointer")
	}

	c := New(int32(7))
	if c.Load() != 7 {
		t.Errorf("Load() = %d, want 7", c.Load())
	}
	c.Store(8)
	if c.Swap(9) != 8 {
		t.Error("Swap old != 8")
	}
}
