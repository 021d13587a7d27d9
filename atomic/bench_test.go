package atomic

import (
	"testing"
)

// BenchmarkInt_FetchAdd benchmarks the lock-free word lane.
func BenchmarkInt_FetchAdd(b *testing.B) {
	var v Int[int64]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.FetchAdd(1)
	}
}

// BenchmarkInt8_FetchAdd benchmarks the subword path.
func BenchmarkInt8_FetchAdd(b *testing.B) {
	var v Int[int8]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.FetchAdd(1)
	}
}

// BenchmarkFloat_FetchAdd benchmarks the compare-exchange loop.
func BenchmarkFloat_FetchAdd(b *testing.B) {
	var v Float[float64]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.FetchAdd(1)
	}
}

// BenchmarkValue_Locked benchmarks a 24-byte cell on the locked lane.
func BenchmarkValue_Locked(b *testing.B) {
	var v Value[triple]
	x := triple{1, 2, 3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Store(x)
		_ = v.Load()
	}
}

// BenchmarkInt_FetchAdd_Parallel benchmarks a contended counter.
func BenchmarkInt_FetchAdd_Parallel(b *testing.B) {
	var v Int[int64]

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			v.FetchAdd(1)
		}
	})
}

// BenchmarkRef_Locked_Parallel benchmarks the registry-backed reference path.
func BenchmarkRef_Locked_Parallel(b *testing.B) {
	var obj triple
	r := NewRef(&obj)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		x := triple{1, 1, 1}
		for pb.Next() {
			expected := r.Load()
			r.CompareAndSwap(&expected, x)
		}
	})
}

// BenchmarkNotifyOne_NoWaiters benchmarks the empty-bucket fast path.
func BenchmarkNotifyOne_NoWaiters(b *testing.B) {
	var v Value[int32]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.NotifyOne()
	}
}
