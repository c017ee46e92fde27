// Package accum implements the per-thread hit accumulator from spec.md
// §3/§4.3: parallel per-primitive counters, thread-local, combined by
// element-wise summation at the end of the parallel region.
package accum

import "github.com/fluxtrace/fluxtrace/internal/geom"

// HitAccumulator holds the per-primitive deposited weight, exposed area,
// and hit count. One instance per worker thread during tracing; merged by
// Merge at the end (spec.md §4.3). All values are >= 0 (spec.md §8).
type HitAccumulator struct {
	Deposited   []float64
	ExposedArea []float64
	HitCount    []uint64
}

// New allocates a HitAccumulator sized for n primitives, all counters
// zeroed.
func New(n int) *HitAccumulator {
	return &HitAccumulator{
		Deposited:   make([]float64, n),
		ExposedArea: make([]float64, n),
		HitCount:    make([]uint64, n),
	}
}

// Deposit adds value to Deposited[id] and increments HitCount[id]
// (spec.md §4.3).
func (h *HitAccumulator) Deposit(id geom.PrimId, value float32) {
	h.Deposited[id] += float64(value)
	h.HitCount[id]++
}

// SetExposedAreas installs the per-primitive exposed-area values computed
// by the tracer's exposed-area pass (spec.md §4.3/§4.7).
func (h *HitAccumulator) SetExposedAreas(areas []float64) {
	copy(h.ExposedArea, areas)
}

// Reset zeroes every counter in place, so a worker-pinned accumulator
// (internal/workerpool's per-slot scratch) can be reused across two
// phases of the same run without carrying the first phase's deposits
// into the second's reduction.
func (h *HitAccumulator) Reset() {
	for i := range h.Deposited {
		h.Deposited[i] = 0
		h.ExposedArea[i] = 0
		h.HitCount[i] = 0
	}
}

// Merge combines src into dst element-wise (spec.md §4.3: "merge(a, b) is
// element-wise addition"). Associative and commutative, so the final
// reduction is independent of thread count and merge order (spec.md §8).
func Merge(dst, src *HitAccumulator) {
	for i := range dst.Deposited {
		dst.Deposited[i] += src.Deposited[i]
		dst.ExposedArea[i] += src.ExposedArea[i]
		dst.HitCount[i] += src.HitCount[i]
	}
}

// Reduce folds a slice of per-thread accumulators into a single result,
// in the order given. Per spec.md §8, swapping the merge order must
// yield tolerance-equal results — callers verifying that property should
// call Reduce with permuted inputs and compare.
func Reduce(n int, accs []*HitAccumulator) *HitAccumulator {
	out := New(n)
	for _, a := range accs {
		Merge(out, a)
	}
	return out
}
