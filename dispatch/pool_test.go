package dispatch

import (
	"sync/atomic"
	"testing"
)

func TestForEachCoversRangeExactlyOnce(t *testing.T) {
	pool := NewPoolSize(4)
	defer pool.Stop()

	const n = 10000
	hits := make([]atomic.Int32, n)

	pool.ForEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			hits[i].Add(1)
		}
	})

	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Fatalf("unit %d processed %d times", i, got)
		}
	}
}

func TestForEachSmallRangeRunsSerial(t *testing.T) {
	pool := NewPoolSize(4)
	defer pool.Stop()

	// Below the parallel threshold no workers start, so plain writes are safe.
	const n = 100
	seen := make([]bool, n)
	pool.ForEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			seen[i] = true
		}
	})

	for i, s := range seen {
		if !s {
			t.Fatalf("unit %d not processed", i)
		}
	}
}

func TestForEachZeroAndNegative(t *testing.T) {
	pool := NewPoolSize(2)
	defer pool.Stop()

	called := false
	pool.ForEach(0, func(start, end int) { called = true })
	pool.ForEach(-5, func(start, end int) { called = true })
	if called {
		t.Error("fn called for empty range")
	}
}

func TestForEachIsABarrier(t *testing.T) {
	pool := NewPoolSize(4)
	defer pool.Stop()

	// Stage A's writes must all be visible when ForEach returns: stage B
	// reads every slot written by A.
	const n = 4096
	vals := make([]int, n)

	for round := 1; round <= 8; round++ {
		pool.ForEach(n, func(start, end int) {
			for i := start; i < end; i++ {
				vals[i]++
			}
		})
		pool.ForEach(n, func(start, end int) {
			for i := start; i < end; i++ {
				if vals[i] != round {
					panic("stale read across stage boundary")
				}
			}
		})
	}

	for i := range vals {
		if vals[i] != 8 {
			t.Fatalf("slot %d: %d rounds, want 8", i, vals[i])
		}
	}
}

func TestPoolRestartsAfterStop(t *testing.T) {
	pool := NewPoolSize(4)

	var count atomic.Int64
	pool.ForEach(1000, func(start, end int) { count.Add(int64(end - start)) })
	pool.Stop()

	pool.ForEach(1000, func(start, end int) { count.Add(int64(end - start)) })
	pool.Stop()

	if got := count.Load(); got != 2000 {
		t.Fatalf("processed %d units, want 2000", got)
	}
}

func TestNewPoolSizeClampsWorkers(t *testing.T) {
	pool := NewPoolSize(0)
	defer pool.Stop()

	if pool.Workers() != 1 {
		t.Fatalf("workers = %d, want 1", pool.Workers())
	}

	done := false
	pool.ForEach(5000, func(start, end int) {
		if start != 0 || end != 5000 {
			t.Errorf("single-worker pool split range [%d, %d)", start, end)
		}
		done = true
	})
	if !done {
		t.Error("fn never ran")
	}
}
