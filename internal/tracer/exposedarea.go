package tracer

import (
	"math"

	"github.com/fluxtrace/fluxtrace/internal/fluxerr"
	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// defaultNEA is the N_ea sampling count spec.md §4.7 names when the
// config doesn't override it.
const defaultNEA = 1024

// exposedAreaEpsilon offsets each sampling-mode launch disc along the
// primitive's normal, keeping the launch point clear of the primitive's
// own plane (spec.md §4.5's near-surface-origin convention).
const exposedAreaEpsilon = 1e-3

// computeExposedAreas implements spec.md §4.7: whole-area mode for
// triangles, sampling mode for discs. Sampling mode launches N_ea rays
// from a disc of twice the primitive's radius, offset along the normal
// and aimed along the inverted normal, and counts how many resolve their nearest geometry hit back
// onto the launching primitive itself.
func (t *Tracer) computeExposedAreas() ([]float64, error) {
	n := t.geometry.PrimitiveCount()
	areas := make([]float64, n)

	hasDisc := false
	for i := 0; i < n; i++ {
		if t.geometry.Primitive(geom.PrimId(i)).Kind == geom.KindDisc {
			hasDisc = true
			break
		}
	}
	if hasDisc {
		if err := t.geometry.CheckDiscBoundaryClearance(t.boundary.Min, t.boundary.Max); err != nil {
			return nil, fluxerr.Of(fluxerr.SceneBuildError, err)
		}
	}

	nea := t.cfg.NEA
	if nea <= 0 {
		nea = defaultNEA
	}

	// A single dedicated stream, independent of the pilot/production RNG
	// pairs: exposed-area sampling is a one-shot post-process, not a
	// per-thread trajectory concern (spec.md §4.1 only names the two
	// per-worker states the tracing loop itself needs).
	source := rng.NewSource(t.cfg.SeedBase + 746501)

	for i := 0; i < n; i++ {
		id := geom.PrimId(i)
		p := t.geometry.Primitive(id)
		switch p.Kind {
		case geom.KindTriangle:
			areas[i] = float64(t.geometry.Area(id))
		case geom.KindDisc:
			hits := t.sampleDiscExposure(id, p, nea, source)
			areas[i] = float64(t.geometry.Area(id)) * float64(hits) / float64(nea)
		}
	}
	return areas, nil
}

// sampleDiscExposure launches nea rays uniformly over a disc of radius
// 2*p.Radius, offset along p.Normal by exposedAreaEpsilon, aimed along
// the inverted normal, and counts how many of them hit prim id as the
// scene's nearest geometry intersection.
func (t *Tracer) sampleDiscExposure(id geom.PrimId, p geom.Primitive, nea int, source rng.Source) int {
	normal := p.Normal.Normalize()
	_, b, u := vecmath.OrthonormalBasis(normal)
	launchRadius := 2 * p.Radius

	var hits int
	for i := 0; i < nea; i++ {
		r1 := source.Float01()
		r2 := source.Float01()
		radius := launchRadius * float32(math.Sqrt(float64(r1)))
		theta := 2 * math.Pi * float64(r2)
		offset := b.Mul(radius * float32(math.Cos(theta))).Add(u.Mul(radius * float32(math.Sin(theta))))

		origin := p.Center.Add(normal.Mul(exposedAreaEpsilon)).Add(offset)
		launch := ray.Ray{
			Origin:    origin,
			Direction: normal.Mul(-1),
			TNear:     1e-5,
			TFar:      float32(math.Inf(1)),
		}

		if t.nearestGeometryHitIsSelf(launch, id) {
			hits++
		}
	}
	return hits
}

// nearestGeometryHitIsSelf resolves the scene's nearest geometry hit for
// r (bypassing trajectory.Context — this is a pure geometric query with
// no weight, reflection, or accumulator semantics) and reports whether it
// lands on primitive id.
func (t *Tracer) nearestGeometryHitIsSelf(r ray.Ray, id geom.PrimId) bool {
	var (
		found  bool
		isSelf bool
	)
	onGeometry := func(hit ray.Hit) bool {
		found = true
		isSelf = geom.PrimId(hit.PrimId) == id
		return true
	}
	t.scene.Intersect1(r, onGeometry, nil)
	return found && isSelf
}
