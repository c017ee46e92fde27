package tracer

import (
	"github.com/fluxtrace/fluxtrace/internal/accum"
	"github.com/fluxtrace/fluxtrace/internal/boundary"
	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/scene"
	"github.com/fluxtrace/fluxtrace/internal/trajectory"
	"github.com/fluxtrace/fluxtrace/internal/workerpool"
)

// rayScratch is the per-worker-slot state a tracer run pins for its
// duration: the slot's independent source- and reflection-sampling RNG
// states (spec.md §4.1) and a trajectory.Context wired to this tracer's
// scene/geometry/boundary and this slot's own accumulator (spec.md
// §4.3). Both the pilot and production phases run on the same pool and
// so reuse the same slot's scratch; resetSlotAccumulators clears the
// accumulator between them.
type rayScratch struct {
	sourceRNG  rng.Source
	reflectRNG rng.Source
	ctx        *trajectory.Context
}

// newRayScratchFactory returns the per-slot constructor workerpool.New
// calls once per worker slot at pool creation: seeds that slot's RNG
// pair from cfg.SeedBase (spec.md §4.1's seed_i = (thread_index+1)*29,
// implemented by rng.ThreadSeeds) and builds one trajectory.Context
// bound to this run's scene/geometry/boundary and a fresh accumulator.
func newRayScratchFactory(cfg Config, g *geom.Geometry, b *boundary.Boundary, sc *scene.Scene) func(slot int) rayScratch {
	n := g.PrimitiveCount()
	return func(slot int) rayScratch {
		sourceRNG, reflectRNG := newRNGPair(cfg.SeedBase, slot)
		ctx := trajectory.New(sc, g, b, accum.New(n), reflectRNG, reflectRNG)
		ctx.WeightLowerThreshold, ctx.RenewWeight, ctx.InitialWeight = cfg.WLo, cfg.WRenew, trajectory.InitialWeight
		return rayScratch{sourceRNG: sourceRNG, reflectRNG: reflectRNG, ctx: ctx}
	}
}

func newWorkerPool(cfg Config, g *geom.Geometry, b *boundary.Boundary, sc *scene.Scene) *workerpool.Pool[rayScratch] {
	return workerpool.New(cfg.MaxThreads, newRayScratchFactory(cfg, g, b, sc))
}

// resetSlotAccumulators zeroes every slot's pinned accumulator in place.
// The tracer calls this between the pilot and production phases: the
// pilot's trajectories deposit into the same accumulator object
// (ctx.Run has no "don't deposit" mode) but only FirstGeometryHit
// matters to phase 1, so those deposits must not bleed into the
// production reduction (spec.md §4.6 phase 3).
func resetSlotAccumulators(pool *workerpool.Pool[rayScratch]) {
	pool.ForEach(func(_ int, s *rayScratch) {
		s.ctx.Accumulator.Reset()
	})
}
