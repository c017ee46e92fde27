// Package ray defines the Ray and Hit value types shared across the
// scene intersector, reflection models, and trajectory kernel (spec.md
// §3).
package ray

import "github.com/fluxtrace/fluxtrace/internal/vecmath"

type Vec3 = vecmath.Vec3
type Pair = vecmath.Pair

// Ray matches spec.md §3's invariants post-construction: |Direction| = 1,
// TNear >= 0.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TNear     float32
	TFar      float32
	Time      float32
}

// GeomId distinguishes which scene collection (geometry vs. boundary) a
// Hit came from.
type GeomId int

const (
	GeomGeometry GeomId = iota
	GeomBoundary
)

// Hit is the intersection record passed to the any-hit filter callbacks
// (spec.md §3, §4.5).
type Hit struct {
	GeomId GeomId
	PrimId uint32
	Normal Vec3
	UV     Pair
	T      float32
}

// PointAt evaluates the ray at parameter t.
func (r Ray) PointAt(t float32) Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
