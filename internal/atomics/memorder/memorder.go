// Package memorder defines memory-order levels and the validators that
// reject orders illegal for an operation category.
//
// Store-class operations accept {Relaxed, Release, SeqCst}. Load-class
// operations accept {Relaxed, Consume, Acquire, SeqCst}. Every other
// operation accepts any of the six levels. Passing anything else is a
// contract violation reported through package report; it is never a
// recoverable error.
package memorder

import (
	"strconv"

	"github.com/kolkov/atomiclanes/internal/atomics/report"
)

// Order is the ordering contract attached to one atomic operation.
type Order int

const (
	// Relaxed guarantees atomicity only.
	Relaxed Order = iota
	// Consume is treated as Acquire.
	Consume
	// Acquire orders later accesses after the load.
	Acquire
	// Release orders earlier accesses before the store.
	Release
	// AcqRel combines Acquire and Release for read-modify-write operations.
	AcqRel
	// SeqCst adds a single total order over all SeqCst operations.
	SeqCst
)

// String returns the C11 spelling of the order.
func (o Order) String() string {
	switch o {
	case Relaxed:
		return "relaxed"
	case Consume:
		return "consume"
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case AcqRel:
		return "acq_rel"
	case SeqCst:
		return "seq_cst"
	default:
		return "Order(" + strconv.Itoa(int(o)) + ")"
	}
}

// Valid reports whether o is one of the six defined levels.
func (o Order) Valid() bool {
	return o >= Relaxed && o <= SeqCst
}

// IsStore reports whether o is legal for a store.
func (o Order) IsStore() bool {
	return o == Relaxed || o == Release || o == SeqCst
}

// IsLoad reports whether o is legal for a load.
func (o Order) IsLoad() bool {
	return o == Relaxed || o == Consume || o == Acquire || o == SeqCst
}

// NeedsFence reports whether o requires a barrier on top of the plain
// atomic instruction. Relaxed does not; SeqCst is already served by the
// sequentially consistent instruction.
func (o Order) NeedsFence() bool {
	return o == Consume || o == Acquire || o == Release || o == AcqRel
}

// CheckStore validates o for a store-class operation.
// It reports a violation and returns false when o is illegal.
func CheckStore(o Order) bool {
	if o.IsStore() {
		return true
	}
	report.Fatal("store", o.String(), "store accepts only relaxed, release, seq_cst")
	return false
}

// CheckLoad validates o for a load-class operation (load and wait).
func CheckLoad(o Order) bool {
	if o.IsLoad() {
		return true
	}
	report.Fatal("load", o.String(), "load accepts only relaxed, consume, acquire, seq_cst")
	return false
}

// Check validates o for an operation that accepts any defined order.
func Check(o Order) bool {
	if o.Valid() {
		return true
	}
	report.Fatal("read_modify_write", o.String(), "order must be one of relaxed, consume, acquire, release, acq_rel, seq_cst")
	return false
}
