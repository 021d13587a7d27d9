// Package spinlock provides the per-cell mutual exclusion used by the locked
// lane.
//
// A SpinLock is a single 32-bit word. Lock spins with a CPU pause hint for a
// bounded number of attempts and then yields the processor, so a holder that
// was descheduled does not starve waiters on a small GOMAXPROCS.
package spinlock

import (
	"runtime"
	"sync/atomic"
)

const (
	unlocked uint32 = 0
	locked   uint32 = 1
)

// defaultSpinBudget is the number of paused spins before yielding.
const defaultSpinBudget = 64

var spinBudget atomic.Int32

func init() {
	spinBudget.Store(defaultSpinBudget)
}

// SetSpinBudget sets the number of paused spins Lock performs before
// yielding and returns the previous value. Values below one are treated as
// one.
func SetSpinBudget(n int) int {
	if n < 1 {
		n = 1
	}
	return int(spinBudget.Swap(int32(n)))
}

// SpinBudget returns the current spin budget.
func SpinBudget() int { return int(spinBudget.Load()) }

// SpinLock is a test-and-test-and-set lock. The zero value is unlocked.
// A SpinLock must not be copied after first use.
type SpinLock struct {
	state atomic.Uint32
}

// Lock acquires l, spinning until it is free.
func (l *SpinLock) Lock() {
	if l.state.CompareAndSwap(unlocked, locked) {
		return
	}
	l.lockSlow()
}

func (l *SpinLock) lockSlow() {
	budget := spinBudget.Load()
	for spins := int32(0); ; spins++ {
		if l.state.Load() == unlocked && l.state.CompareAndSwap(unlocked, locked) {
			return
		}
		if spins < budget {
			cpuRelax()
			continue
		}
		runtime.Gosched()
		spins = 0
	}
}

// TryLock acquires l if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(unlocked, locked)
}

// Unlock releases l. Unlocking an unlocked SpinLock panics.
func (l *SpinLock) Unlock() {
	if l.state.Swap(unlocked) != locked {
		panic("spinlock: unlock of unlocked lock")
	}
}

// Locked reports whether l is currently held. Diagnostic only.
func (l *SpinLock) Locked() bool {
	return l.state.Load() == locked
}
