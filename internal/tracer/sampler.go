package tracer

import (
	"math"

	"github.com/fluxtrace/fluxtrace/internal/mixture"
	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/source"
)

// sampleSourceRay draws a complete source ray plus its plane-parameter
// (u, v) coordinates, per spec.md §4.4. Both the origin and direction
// draws are the source-sampling concern and so share sourceRNG; the
// caller's separate reflection-sampling state is reserved for the
// bounce loop (spec.md §4.1).
func sampleSourceRay(rect source.Rectangle, sourceRNG rng.Source) (r ray.Ray, u, v float32) {
	return source.Sample(rect, sourceRNG)
}

// sampleImportanceRay draws a phase-3 origin from the mixture, rejecting
// to the rectangle (spec.md §4.6), and computes its importance weight
// w(x) = p_uniform(x) / p_mixture(x). rejected is the number of draws
// this call discarded, both those outside the rectangle and those with
// zero mixture density. The resampled
// direction, like the pilot phase's, is drawn from sourceRNG: it is
// still the source's own direction draw, not a bounce-loop reflection.
func sampleImportanceRay(rect source.Rectangle, mix *mixture.Mixture, sourceRNG rng.Source, maxAttempts int) (r ray.Ray, weight float32, rejected int, ok bool) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		p := mix.Sample(sourceRNG)
		u, v := p[0], p[1]
		if u < rect.Lo0 || u > rect.Hi0 || v < rect.Lo1 || v > rect.Hi1 {
			rejected++
			continue
		}

		origin := rect.PlaneAt(u, v)
		r.Origin = origin
		r.TNear = sourceEpsilon
		r.TFar = float32(math.Inf(1))
		r.Time = 0

		dir := source.CosineDirection{InwardNormal: rect.InwardNormal}
		dir.Fill(&r, sourceRNG)

		pUniform := 1.0 / float64(rect.Area())
		pMixture := mix.Density(p)
		if pMixture <= 0 {
			rejected++
			continue
		}
		weight = float32(pUniform / pMixture)
		return r, weight, rejected, true
	}
	return ray.Ray{}, 0, rejected, false
}

const sourceEpsilon = 1e-4
