// Package trajectory implements the intersection context from spec.md
// §4.5 — the single hardest piece of the kernel: it drives one trajectory
// through repeated calls to scene.Scene.Intersect1, using the any-hit
// filter callbacks to stage an outgoing ray for each collection
// (geometry, boundary) eagerly, then resolves which staged ray actually
// becomes the next bounce once the backing library's traversal has
// settled on the nearest accepted hit across both collections.
//
// Grounded directly on the original implementation's
// rti::trace::triangle_context (original_source/src/rti/trace/triangle_context.hpp):
// same reset/filter/resolve/deposit/roulette protocol, generalized from an
// Embree RTCIntersectContext subclass to plain Go closures passed to
// scene.Scene.Intersect1 (Design Notes §9: pass context via explicit
// parameters/closures, not struct-layout tricks).
package trajectory

import (
	"github.com/fluxtrace/fluxtrace/internal/accum"
	"github.com/fluxtrace/fluxtrace/internal/boundary"
	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/reflect"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/scene"
)

// Roulette constants, per spec.md §4.5 step 7. The original source
// computes RAY_RENEW_WEIGHT as 3*RAY_WEIGHT_LOWER_THRESHOLD; spelled out
// here since the distilled spec gives both values directly.
const (
	InitialWeight        float32 = 1.0
	WeightLowerThreshold float32 = 0.1
	RenewWeight          float32 = 0.3
)

// Context drives a single trajectory: it owns the per-thread RNG states,
// the hit accumulator it deposits into, and the staged-outcome scratch
// state that persists only across one intersect call (spec.md §3's
// TrajectoryContext: "reset at the start of each intersect call").
//
// A Context is not safe for concurrent use; the tracer allocates one per
// worker thread (spec.md §4.5's "Lifecycle: created at thread entry...
// destroyed at thread exit").
type Context struct {
	Scene       *scene.Scene
	Geometry    *geom.Geometry
	Boundary    *boundary.Boundary
	Accumulator *accum.HitAccumulator

	// ReflectionRNG drives the reflection models' direction sampling;
	// RouletteRNG drives the roulette's survival draw. Both come from the
	// thread's reflection-sampling RNG state (spec.md §4.1 keeps a
	// separate state for source sampling, not touched here).
	ReflectionRNG rng.Source
	RouletteRNG   rng.Source

	// Roulette thresholds, defaulted from the package constants in New
	// but overridable per run from internal/config (SPEC_FULL.md §4.2
	// promotes these named spec constants to configuration).
	WeightLowerThreshold float32
	RenewWeight          float32
	InitialWeight        float32

	weight float32

	geoIntersected bool
	geoFirstT      float32
	geoHit         ray.Hit
	stagedGeo      reflect.Outcome

	boundIntersected bool
	boundFirstT      float32
	stagedBound      reflect.Outcome

	firstHit    ray.Hit
	firstHitSet bool
}

// New constructs a Context bound to the scene, geometry, boundary, and
// accumulator it will drive trajectories against.
func New(s *scene.Scene, g *geom.Geometry, b *boundary.Boundary, acc *accum.HitAccumulator, reflectionRNG, rouletteRNG rng.Source) *Context {
	return &Context{
		Scene:                s,
		Geometry:             g,
		Boundary:             b,
		Accumulator:          acc,
		ReflectionRNG:        reflectionRNG,
		RouletteRNG:          rouletteRNG,
		WeightLowerThreshold: WeightLowerThreshold,
		RenewWeight:          RenewWeight,
		InitialWeight:        InitialWeight,
	}
}

// Run drives one full trajectory starting at r to termination — either
// the ray leaves the domain through an open boundary face, or roulette
// kills it — and returns the number of intersect calls performed.
// initialWeight seeds the trajectory's weight: spec.md §4.5 for
// rectangle-uniform sampling (InitialWeight, 1.0) or the
// importance-sampling weight correction w(x) for phase 3 (spec.md
// §4.6).
func (c *Context) Run(r ray.Ray, initialWeight float32) int {
	c.weight = initialWeight
	c.firstHitSet = false
	bounces := 0
	for {
		bounces++
		if !c.step(&r) {
			return bounces
		}
	}
}

// FirstGeometryHit returns the trajectory's first hit against traced
// geometry (not the boundary), if any occurred before the trajectory
// ended. Used by the tracer's phase-1 pilot loop (spec.md §4.6: "For each
// trajectory whose first-hit primitive is relevant...") to classify the
// trajectory without needing a second pass.
func (c *Context) FirstGeometryHit() (ray.Hit, bool) {
	return c.firstHit, c.firstHitSet
}

// step implements one iteration of spec.md §4.5's per-intersect-call
// protocol: reset, intersect with filter callbacks staging outgoing
// rays, then resolve. Returns whether the trajectory continues; when it
// does, r has been overwritten with the chosen next ray.
func (c *Context) step(r *ray.Ray) bool {
	c.geoIntersected = false
	c.boundIntersected = false

	incoming := *r
	c.Scene.Intersect1(incoming, c.onGeometry(incoming), c.onBoundary(incoming))

	return c.resolve(r)
}

// onGeometry is the geometry_filter_callback from spec.md §4.5 step 3:
// runs the diffuse-cosine model against the hit and stages its outgoing
// ray, unconditionally accepting (the disc in-radius rejection already
// happened inside scene.Scene's primitive intersection test, so any
// candidate reaching this callback is a valid hit).
func (c *Context) onGeometry(incoming ray.Ray) scene.FilterFunc {
	return func(hit ray.Hit) bool {
		prim := geom.PrimId(hit.PrimId)
		sticking := c.Geometry.StickingCoefficient(prim)
		c.stagedGeo = reflect.Diffuse(incoming, hit, sticking, c.weight, c.ReflectionRNG)
		c.geoFirstT = hit.T
		c.geoHit = hit
		c.geoIntersected = true
		if !c.firstHitSet {
			c.firstHit = hit
			c.firstHitSet = true
		}
		return true
	}
}

// onBoundary is the boundary_filter_callback from spec.md §4.5 step 4.
// Which reflection model applies depends on which face was hit: lateral
// faces reflect specularly (spec.md §2 item 4); the top/bottom faces are
// open, so the staged outcome carries ShouldReflect=false and resolve
// terminates the trajectory when it wins. A ray crossing an open face
// into the domain (a source standing off above the top face) is not
// stopped by it: that candidate is rejected.
func (c *Context) onBoundary(incoming ray.Ray) scene.FilterFunc {
	return func(hit ray.Hit) bool {
		face := c.Boundary.FaceOf(incoming.PointAt(hit.T))
		if !face.Lateral() && incoming.Direction.Dot(c.Boundary.Normal(face)) > 0 {
			return false
		}
		if face.Lateral() {
			c.stagedBound = reflect.Specular(incoming, hit)
		} else {
			c.stagedBound = reflect.Outcome{ShouldReflect: false}
		}
		c.boundFirstT = hit.T
		c.boundIntersected = true
		return true
	}
}

// resolve implements spec.md §4.5 step 5's decision table plus steps 6-8
// (deposit, roulette, re-seed). Returns whether the trajectory continues.
func (c *Context) resolve(r *ray.Ray) bool {
	switch {
	case !c.geoIntersected && !c.boundIntersected:
		return false
	case c.geoIntersected && !c.boundIntersected:
		return c.resolveGeometry(r)
	case !c.geoIntersected && c.boundIntersected:
		return c.resolveBoundary(r)
	default:
		// Tie-break: equal t between geometry and boundary -> geometry
		// wins (spec.md §4.5, "Tie-breaks / edge cases").
		if c.geoFirstT <= c.boundFirstT {
			return c.resolveGeometry(r)
		}
		return c.resolveBoundary(r)
	}
}

// resolveGeometry implements step 6 (deposit) and step 7 (roulette) for a
// trajectory that hit traced geometry nearest.
func (c *Context) resolveGeometry(r *ray.Ray) bool {
	if !c.firstHitSet {
		c.firstHit = c.geoHit
		c.firstHitSet = true
	}
	drop := c.stagedGeo.WeightDrop
	c.Accumulator.Deposit(geom.PrimId(c.geoHit.PrimId), drop)
	c.weight -= drop

	if !c.roulette() {
		return false
	}
	*r = normalizeDirection(c.stagedGeo.Out)
	return true
}

// resolveBoundary implements the boundary branch: no deposit, no
// roulette; reflects off lateral faces, terminates at open faces.
func (c *Context) resolveBoundary(r *ray.Ray) bool {
	if !c.stagedBound.ShouldReflect {
		return false
	}
	*r = normalizeDirection(c.stagedBound.Out)
	return true
}

// roulette implements spec.md §4.5 step 7: below W_LO, draw uniformly
// and kill with probability 1 - weight/W_RENEW; otherwise renew the
// weight to W_RENEW. Above W_LO, always survives.
func (c *Context) roulette() bool {
	wLo, wRenew := c.WeightLowerThreshold, c.RenewWeight
	if wLo == 0 {
		wLo = WeightLowerThreshold
	}
	if wRenew == 0 {
		wRenew = RenewWeight
	}
	if c.weight >= wLo {
		return true
	}
	killProbability := 1 - c.weight/wRenew
	if c.RouletteRNG.Float01() < killProbability {
		return false
	}
	c.weight = wRenew
	return true
}

// normalizeDirection guards spec.md §4.5's "Ray direction not
// unit-normalized after reflection model -> renormalize before
// re-entering intersect" edge case.
func normalizeDirection(r ray.Ray) ray.Ray {
	r.Direction = r.Direction.Normalize()
	return r
}
