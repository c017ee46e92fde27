// Package vecmath holds the fixed-size vector primitives shared by every
// layer of the tracer: points, directions, and the orthonormal-basis /
// cosine-hemisphere sampling used by both the diffuse reflection model and
// the ray source.
package vecmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a plain value triple. Single precision, matching the teacher's
// math dependency; see SPEC_FULL.md §3 for why this isn't generic over
// float64.
type Vec3 = mgl32.Vec3

// Pair is a 2-D value pair, used for source-plane coordinates and mixture
// component parameters.
type Pair = mgl32.Vec2

const subnormalFloor = float32(1e-30)

// FlushSubnormal rounds components smaller in magnitude than a practical
// subnormal floor down to zero. Substitutes for per-thread FTZ/DAZ CPU mode
// (see SPEC_FULL.md §5): Go exposes no portable way to toggle the FPU's
// flush-to-zero flag without cgo, so the kernel calls this explicitly at the
// points where gradual underflow could otherwise slow down the hot loop.
func FlushSubnormal(v Vec3) Vec3 {
	flush := func(x float32) float32 {
		if x != 0 && float32(math.Abs(float64(x))) < subnormalFloor {
			return 0
		}
		return x
	}
	return Vec3{flush(v[0]), flush(v[1]), flush(v[2])}
}

// OrthonormalBasis returns (n, b, t): n is the input normal (normalized),
// b and t complete a right-handed orthonormal basis. Candidate selection
// follows spec.md §4.2 — of three analytically perpendicular candidates,
// pick the one maximizing the sum of its components, which keeps the basis
// well-conditioned near axis-aligned normals instead of producing a
// near-zero vector.
func OrthonormalBasis(normal Vec3) (n, b, t Vec3) {
	n = normal.Normalize()

	c0 := Vec3{n[2], n[2], -(n[0] + n[1])}
	c1 := Vec3{n[1], -(n[0] + n[2]), n[1]}
	c2 := Vec3{-(n[1] + n[2]), n[0], n[0]}

	sum := func(v Vec3) float32 { return v[0] + v[1] + v[2] }
	best := c0
	if sum(c1) > sum(best) {
		best = c1
	}
	if sum(c2) > sum(best) {
		best = c2
	}
	b = best.Normalize()
	t = n.Cross(b).Normalize()
	return n, b, t
}

// CosineHemisphere draws a direction from the cosine-weighted hemisphere
// about the basis (n, b, t), given two uniform samples in [0, 1).
// r = sqrt(u1), theta = 2*pi*u2; direction = r*cos(theta)*b + r*sin(theta)*t
// + sqrt(1 - u1)*n. Shared by the diffuse reflection model (spec.md §4.2)
// and the source's direction sampler (spec.md §4.4).
func CosineHemisphere(n, b, t Vec3, u1, u2 float32) Vec3 {
	r := float32(math.Sqrt(float64(u1)))
	theta := 2 * math.Pi * float64(u2)
	cosT, sinT := float32(math.Cos(theta)), float32(math.Sin(theta))
	nz := float32(math.Sqrt(float64(1 - u1)))

	dir := b.Mul(r * cosT).Add(t.Mul(r * sinT)).Add(n.Mul(nz))
	return dir.Normalize()
}

// Reflect mirrors d about unit normal n: d' = d - 2(d.n)n.
func Reflect(d, n Vec3) Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n))).Normalize()
}

// NearlyUnit reports whether v has unit length within tol.
func NearlyUnit(v Vec3, tol float32) bool {
	return float32(math.Abs(float64(v.Len()-1))) < tol
}
