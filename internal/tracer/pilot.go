package tracer

import (
	"sync"
	"sync/atomic"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/mixture"
	"github.com/fluxtrace/fluxtrace/internal/trajectory"
)

// runPilot implements spec.md §4.6 phase 1: up to NPilot trajectories
// sampled from the raw rectangular source, stopping early once
// NRelevant pilot samples have been collected. Each pilot ray that
// terminates with its first geometry hit on a relevant primitive
// contributes its plane-parameter origin to the shared buffer.
//
// Work is distributed by atomic work-stealing (spec.md §5: "dynamically
// partitioned"), since pilot trajectories vary wildly in bounce count —
// a fully-sticking primitive terminates a pilot ray in one bounce, a
// low-sticking one can roulette for thousands — and static chunking
// would leave fast workers idle (SPEC_FULL.md §4.3). The pilot buffer
// itself is guarded by a mutex under low contention, per spec.md §5's
// "single-threaded inside a critical section" option.
func (t *Tracer) runPilot() ([]mixture.Pair, error) {
	if t.cfg.NPilot <= 0 {
		return nil, nil
	}

	var mu sync.Mutex
	var origins []mixture.Pair
	var collected atomic.Int64
	target := int64(t.cfg.NRelevant)

	t.pool.ParallelForAtomic(t.cfg.NPilot, func(i int, s *rayScratch) {
		if target > 0 && collected.Load() >= target {
			return
		}

		// Roulette shares the reflection-sampling state: spec.md §4.1
		// requires exactly two independent states per worker ("one for
		// source sampling, one for reflection sampling"), and roulette's
		// survival draw is part of the reflection-sampling concern.
		r, u, v := sampleSourceRay(t.rect, s.sourceRNG)
		s.ctx.Run(r, trajectory.InitialWeight)

		hit, ok := s.ctx.FirstGeometryHit()
		if !ok || !t.geometry.Relevance(geom.PrimId(hit.PrimId)) {
			return
		}

		mu.Lock()
		if target <= 0 || int64(len(origins)) < target {
			origins = append(origins, mixture.Pair{u, v})
		}
		mu.Unlock()
		collected.Add(1)
	})

	return origins, nil
}
