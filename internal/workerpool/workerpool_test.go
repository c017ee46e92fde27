package workerpool

import (
	"sync/atomic"
	"testing"
)

func newIntPool(numWorkers int) *Pool[int] {
	return New(numWorkers, func(slot int) int { return slot })
}

func TestParallelForCoversAllIndicesExactlyOnce(t *testing.T) {
	p := newIntPool(4)
	defer p.Close()

	const n = 1000
	var seen [n]int32
	p.ParallelFor(n, func(start, end int, _ *int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestParallelForAtomicCoversAllIndicesExactlyOnce(t *testing.T) {
	p := newIntPool(8)
	defer p.Close()

	const n = 2000
	var seen [n]int32
	p.ParallelForAtomic(n, func(i int, _ *int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestParallelForOnClosedPoolRunsSequentially(t *testing.T) {
	p := newIntPool(2)
	p.Close()

	var total int
	p.ParallelFor(10, func(start, end int, _ *int) {
		total += end - start
	})
	if total != 10 {
		t.Errorf("total = %d, want 10", total)
	}
}

func TestNumWorkersDefaultsToGOMAXPROCSWhenNonPositive(t *testing.T) {
	p := newIntPool(0)
	defer p.Close()
	if p.NumWorkers() <= 0 {
		t.Errorf("NumWorkers() = %d, want > 0", p.NumWorkers())
	}
}

// TestNewBuildsOneScratchValuePerSlot covers the pool's per-worker
// scratch pinning: every slot gets its own value from newScratch, and
// ForEach visits each slot exactly once in slot order.
func TestNewBuildsOneScratchValuePerSlot(t *testing.T) {
	p := newIntPool(5)
	defer p.Close()

	var visited []int
	p.ForEach(func(slot int, s *int) {
		visited = append(visited, *s)
	})
	if len(visited) != 5 {
		t.Fatalf("ForEach visited %d slots, want 5", len(visited))
	}
	for i, v := range visited {
		if v != i {
			t.Errorf("scratch[%d] = %d, want %d", i, v, i)
		}
	}
}

// TestForEachCanResetScratchBetweenPhases covers the pattern the tracer
// relies on: reuse the same pool across two ParallelFor passes, with
// ForEach zeroing shared scratch state in between.
func TestForEachCanResetScratchBetweenPhases(t *testing.T) {
	p := New(4, func(slot int) *int32 {
		var v int32
		return &v
	})
	defer p.Close()

	p.ParallelFor(100, func(start, end int, acc **int32) {
		atomic.AddInt32(*acc, int32(end-start))
	})

	var total int32
	p.ForEach(func(_ int, acc **int32) {
		total += **acc
		**acc = 0
	})
	if total != 100 {
		t.Fatalf("total after phase 1 = %d, want 100", total)
	}

	p.ParallelFor(40, func(start, end int, acc **int32) {
		atomic.AddInt32(*acc, int32(end-start))
	})
	total = 0
	p.ForEach(func(_ int, acc **int32) {
		total += **acc
	})
	if total != 40 {
		t.Fatalf("total after reset + phase 2 = %d, want 40", total)
	}
}
