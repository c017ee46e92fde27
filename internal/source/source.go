// Package source implements the ray source from spec.md §4.4: an
// axis-aligned rectangle on the source plane for ray origins, and a
// cosine-weighted direction sampler about the plane's inward normal.
//
// spec.md §9 flags the original implementation's hard-coded source-plane
// orientation ("x = 0 in one variant and z = zmax in another") as
// something that should be promoted to configuration; PlaneAxis below is
// that promotion (SPEC_FULL.md §4.2).
package source

import (
	"math"

	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

type Vec3 = vecmath.Vec3
type Ray = ray.Ray

// Axis names which coordinate the source plane is perpendicular to.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// epsSource is the near-plane offset applied to sourced rays, per
// spec.md §4.4.
const epsSource = 1e-4

// Rectangle is the axis-aligned rectangular origin sampler. The two
// non-plane axes are bounded by [Lo0, Hi0] x [Lo1, Hi1]; the plane axis
// is pinned to PlaneValue.
type Rectangle struct {
	PlaneAxis    Axis
	PlaneValue   float32
	Lo0, Hi0     float32
	Lo1, Hi1     float32
	InwardNormal Vec3 // unit vector pointing into the domain
}

// Area returns the rectangle's area, used by the uniform source density
// p_uniform = 1/Area in the importance-sampling weight correction
// (spec.md §4.6).
func (r Rectangle) Area() float32 {
	return (r.Hi0 - r.Lo0) * (r.Hi1 - r.Lo1)
}

// sampleOriginAt maps a (u, v) pair in the rectangle's 2-D parameter
// space to a 3-D point on the source plane.
func (r Rectangle) sampleOriginAt(u, v float32) Vec3 {
	switch r.PlaneAxis {
	case AxisX:
		return Vec3{r.PlaneValue, u, v}
	case AxisY:
		return Vec3{u, r.PlaneValue, v}
	default: // AxisZ
		return Vec3{u, v, r.PlaneValue}
	}
}

// PlaneAt maps a (u, v) pair in the rectangle's 2-D parameter space to
// its 3-D point on the source plane, exported for the tracer's phase-3
// importance-sampling loop, which draws (u, v) from the fitted mixture
// instead of uniformly (spec.md §4.6).
func (r Rectangle) PlaneAt(u, v float32) Vec3 { return r.sampleOriginAt(u, v) }

// UniformOrigin draws (u, v) uniformly in the rectangle using
// sourceRNG, the per-thread source-sampling RNG state (spec.md §4.1).
func (r Rectangle) UniformOrigin(sourceRNG rng.Source) (origin Vec3, u, v float32) {
	u = r.Lo0 + sourceRNG.Float01()*(r.Hi0-r.Lo0)
	v = r.Lo1 + sourceRNG.Float01()*(r.Hi1-r.Lo1)
	return r.sampleOriginAt(u, v), u, v
}

// ToPair projects a 2-D (u, v) onto the rectangle's own coordinate frame,
// used by the mixture fit which operates purely in the plane's 2-D space.
func (r Rectangle) ToPair(u, v float32) ray.Pair { return ray.Pair{u, v} }

// Fill implements spec.md §4.4's origin_sampler.fill: draws an origin
// from the rectangle and installs it into ray out, leaving direction
// untouched (the direction sampler fills that separately).
func (r Rectangle) Fill(out *ray.Ray, sourceRNG rng.Source) (u, v float32) {
	origin, u, v := r.UniformOrigin(sourceRNG)
	out.Origin = origin
	out.TNear = epsSource
	out.TFar = float32(math.Inf(1))
	out.Time = 0
	return u, v
}

// CosineDirection is the direction sampler: cosine-weighted about the
// plane's inward normal, using the same orthonormal-basis/cosine-hemisphere
// machinery as the diffuse reflection model (spec.md §4.4).
type CosineDirection struct {
	InwardNormal Vec3
}

// Fill draws a cosine-weighted direction about InwardNormal and installs
// it into out.Direction. Takes sourceRNG: the source ray's direction is
// part of the source-sampling concern (spec.md §4.1), not the bounce-loop
// reflection model, which draws from its own, independent state.
func (d CosineDirection) Fill(out *ray.Ray, sourceRNG rng.Source) {
	n, b, t := vecmath.OrthonormalBasis(d.InwardNormal)
	u1, u2 := sourceRNG.Float01(), sourceRNG.Float01()
	out.Direction = vecmath.CosineHemisphere(n, b, t, u1, u2)
}

// Sample draws a complete source ray: both the origin and the
// cosine-weighted direction about the inward normal come from sourceRNG,
// the thread's source-sampling state (spec.md §4.1) — kept entirely
// separate from the reflection-sampling state the bounce loop uses.
func Sample(rect Rectangle, sourceRNG rng.Source) (r ray.Ray, planeU, planeV float32) {
	planeU, planeV = rect.Fill(&r, sourceRNG)
	dir := CosineDirection{InwardNormal: rect.InwardNormal}
	dir.Fill(&r, sourceRNG)
	return r, planeU, planeV
}
