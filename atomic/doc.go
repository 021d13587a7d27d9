// Package atomic provides generic atomic cells with explicit memory orders,
// padding-aware compare-and-swap and address-keyed wait/notify.
//
// # Quick Start
//
//	var hits atomic.Int[int64]
//	hits.Inc()
//
//	var cfg atomic.Value[Config]       // any type, lock-free when it fits a lane
//	cfg.Store(Config{Limit: 10})
//
//	ready := atomic.NewInt[int32](0)
//	go func() {
//		ready.Store(1)
//		ready.NotifyOne()
//	}()
//	ready.Wait(0) // returns once the value is no longer 0
//
// # Cell Types
//
//   - [Value]: any T, owned by the cell
//   - [Int]: integers, with FetchAdd/FetchSub/FetchAnd/FetchOr/FetchXor
//   - [Float]: float32/float64, with FetchAdd/FetchSub
//   - [Pointer]: *T, with element-stride arithmetic
//   - [Ref], [IntRef], [FloatRef]: atomic access to memory the caller owns
//
// [New] and [KindOf] pick the facade for a type.
//
// # Memory Orders
//
// Every operation has a sequentially consistent default and an Explicit
// form taking a [MemoryOrder]. Stores accept Relaxed, Release and SeqCst;
// loads and waits accept Relaxed, Consume, Acquire and SeqCst; everything
// else accepts all six. Go's atomic instructions are sequentially
// consistent, so each order is served at least at the strength requested.
//
// Passing an order an operation does not accept is a programming error.
// It is not returned as an error: a report naming the call site is printed
// to stderr and the process exits with status 2, like the runtime's fatal
// errors. Set on_violation=panic in ATOMICLANES to panic instead.
//
// # Lanes
//
// Each cell runs on one lane, reported by its Lane method:
//
//	lane1, lane2   1- and 2-byte values, via their containing 32-bit word
//	lane4, lane8   native 32- and 64-bit atomics
//	lane16         16-byte references on amd64 with CMPXCHG16B
//	laneptr        single-pointer types, visible to the garbage collector
//	locked         everything else, under a spin lock
//
// Compare-and-swap ignores padding bytes: two values that differ only in
// padding compare equal. Floating-point values compare bitwise.
//
// # Configuration
//
// The ATOMICLANES environment variable is read once, on first use:
//
//	ATOMICLANES="spin=64 force_locked=0 lock_slots=65536 on_violation=abort"
//
// force_locked=1 moves every cell onto the locked lane, which is useful for
// checking that code does not depend on lock freedom.
package atomic
