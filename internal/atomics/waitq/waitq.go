// Package waitq implements address-keyed parking for atomic wait and notify.
//
// Waiters are hashed by address into a fixed table of buckets. Each bucket
// holds a mutex and a FIFO of parked goroutines; several addresses may share
// a bucket, so every waiter records its exact address and notifications
// only wake waiters of that address.
//
// Lost wakeups are impossible as long as notifiers modify the value before
// calling NotifyOne or NotifyAll: a waiter re-checks its condition while
// holding the bucket lock and enqueues itself before releasing it, so a
// notifier either runs before the check (and the check fails) or finds the
// waiter in the queue.
//
// Spurious wakeups are allowed. Callers loop on their own condition.
package waitq

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/kolkov/atomiclanes/internal/atomics/rawmem"
)

// Status reports how a wait ended.
type Status int

const (
	// StatusChanged means the value differed before parking.
	StatusChanged Status = iota
	// StatusWoken means a notify released the waiter.
	StatusWoken
	// StatusTimedOut means the timeout elapsed first.
	StatusTimedOut
)

// String returns a short name for s.
func (s Status) String() string {
	switch s {
	case StatusChanged:
		return "changed"
	case StatusWoken:
		return "woken"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// NoTimeout waits without a deadline.
const NoTimeout time.Duration = -1

// numBuckets is the bucket count; a power of two.
const numBuckets = 256

type waiter struct {
	addr  uintptr
	ready chan struct{}
}

type bucket struct {
	mu sync.Mutex
	// nwait counts queued waiters. Notifiers read it without the lock to
	// skip empty buckets.
	nwait   atomic.Int32
	waiters []*waiter
	_       cpu.CacheLinePad
}

// Table is a set of wait buckets. The zero value is ready to use.
type Table struct {
	buckets [numBuckets]bucket
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

func (t *Table) bucketFor(addr uintptr) *bucket {
	const goldenRatio = 0x9E3779B97F4A7C15
	return &t.buckets[(uint64(addr)*goldenRatio)>>56]
}

// WaitIndirect parks the caller on addr while stillEqual reports true.
//
// stillEqual runs with the bucket lock held; it may take a cell lock, but
// must never call back into the table. A negative timeout waits forever.
func (t *Table) WaitIndirect(addr unsafe.Pointer, stillEqual func() bool, timeout time.Duration) Status {
	key := uintptr(addr)
	b := t.bucketFor(key)

	b.mu.Lock()
	b.nwait.Add(1)
	if !stillEqual() {
		b.nwait.Add(-1)
		b.mu.Unlock()
		return StatusChanged
	}
	w := &waiter{addr: key, ready: make(chan struct{})}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	if timeout < 0 {
		<-w.ready
		return StatusWoken
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.ready:
		return StatusWoken
	case <-timer.C:
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remove(w) {
		return StatusTimedOut
	}
	// A notifier dequeued us between the timer firing and the lock.
	return StatusWoken
}

// WaitDirect parks the caller on addr while the width-byte raw value there
// equals expected.
func (t *Table) WaitDirect(addr unsafe.Pointer, width uintptr, expected rawmem.Bits, timeout time.Duration) Status {
	return t.WaitIndirect(addr, func() bool {
		return rawmem.LoadBits(addr, width) == expected
	}, timeout)
}

// NotifyOne wakes the longest-waiting goroutine parked on addr and reports
// whether there was one.
func (t *Table) NotifyOne(addr unsafe.Pointer) bool {
	return t.notify(uintptr(addr), 1) == 1
}

// NotifyAll wakes every goroutine parked on addr and returns how many.
func (t *Table) NotifyAll(addr unsafe.Pointer) int {
	return t.notify(uintptr(addr), -1)
}

func (t *Table) notify(key uintptr, limit int) int {
	b := t.bucketFor(key)
	if b.nwait.Load() == 0 {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	woken := 0
	kept := b.waiters[:0]
	for _, w := range b.waiters {
		if w.addr == key && (limit < 0 || woken < limit) {
			close(w.ready)
			woken++
			continue
		}
		kept = append(kept, w)
	}
	clear(b.waiters[len(kept):])
	b.waiters = kept
	b.nwait.Add(int32(-woken))
	return woken
}

// remove drops w from the queue and reports whether it was still present.
// Called with b.mu held.
func (b *bucket) remove(w *waiter) bool {
	for i, x := range b.waiters {
		if x == w {
			copy(b.waiters[i:], b.waiters[i+1:])
			b.waiters[len(b.waiters)-1] = nil
			b.waiters = b.waiters[:len(b.waiters)-1]
			b.nwait.Add(-1)
			return true
		}
	}
	return false
}

// Waiters returns the number of goroutines parked on addr.
func (t *Table) Waiters(addr unsafe.Pointer) int {
	key := uintptr(addr)
	b := t.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, w := range b.waiters {
		if w.addr == key {
			n++
		}
	}
	return n
}

// Parked returns the total number of parked goroutines.
func (t *Table) Parked() int {
	n := 0
	for i := range t.buckets {
		n += int(t.buckets[i].nwait.Load())
	}
	return n
}
