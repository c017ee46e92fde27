package tracer

import (
	"sync/atomic"

	"github.com/fluxtrace/fluxtrace/internal/accum"
	"github.com/fluxtrace/fluxtrace/internal/mixture"
	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/trajectory"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// maxRejectionAttempts bounds the rejection-sampling retry loop per ray
// (spec.md §4.6: "restricted by rejection to the rectangle"). A mixture
// fit so far off the rectangle that every draw for 64 attempts lands
// outside it is itself a diagnostic signal, not a hang risk worth an
// unbounded loop.
const maxRejectionAttempts = 64

// runProduction implements spec.md §4.6 phase 3: NumRays trajectories
// with origins drawn from the mixture, each weighted by w(x) =
// p_uniform(x)/p_mixture(x) (spec.md §4.6, §9's acknowledged bias —
// p_mixture is deliberately left un-renormalized to the rectangle, per
// mixture.Mixture.Density's doc comment).
//
// Work is statically chunked across the pool (spec.md §4.3's "contiguous
// chunking" option): each worker owns one contiguous ray-index range and
// reuses its slot's persistent trajectory.Context/accumulator (built
// once by newRayScratchFactory) for the whole chunk, so the per-thread
// seed policy (spec.md §4.1's seed_i = (thread_index+1)*29) ties each
// slot's RNG pair to one contiguous ray-index range.
func (t *Tracer) runProduction(mix *mixture.Mixture) (*accum.HitAccumulator, int, error) {
	n := t.geometry.PrimitiveCount()
	if t.cfg.NumRays <= 0 {
		return accum.New(n), 0, nil
	}

	var rejectedTotal atomic.Int64

	t.pool.ParallelFor(t.cfg.NumRays, func(start, end int, s *rayScratch) {
		var localRejected int
		for i := start; i < end; i++ {
			r, weight, rejected, ok := sampleImportanceRay(t.rect, mix, s.sourceRNG, maxRejectionAttempts)
			localRejected += rejected
			if !ok {
				continue
			}
			t.recordSource(r.Origin, float64(weight))
			runTracedTrajectory(s.ctx, t, r, weight)
		}
		rejectedTotal.Add(int64(localRejected))
	})

	accs := make([]*accum.HitAccumulator, 0, t.pool.NumWorkers())
	t.pool.ForEach(func(_ int, s *rayScratch) {
		accs = append(accs, s.ctx.Accumulator)
	})

	return accum.Reduce(n, accs), int(rejectedTotal.Load()), nil
}

// runTracedTrajectory drives one production trajectory, recording its
// bounce polyline for the optional ray-log diagnostic (SPEC_FULL.md
// §4.9) when enabled.
func runTracedTrajectory(ctx *trajectory.Context, t *Tracer, r ray.Ray, weight float32) {
	if !t.cfg.Diagnostics.LogRays {
		ctx.Run(r, weight)
		return
	}

	points := []vecmath.Vec3{r.Origin}
	bounces := ctx.Run(r, weight)
	_ = bounces
	// The kernel doesn't expose intermediate bounce points (by design —
	// spec.md §4.5 resolves and overwrites the ray in place), so the
	// logged polyline records start and (if any) first-hit point only.
	if hit, ok := ctx.FirstGeometryHit(); ok {
		points = append(points, r.PointAt(hit.T))
	}
	t.recordRay(points)
}
