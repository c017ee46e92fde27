// Package boundary implements the six-sided enclosing prism from spec.md
// §2/§4: particles leaving through the lateral faces are specularly
// reflected back in; the top/bottom faces are open and terminate the
// trajectory.
package boundary

import (
	"fmt"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

type Vec3 = vecmath.Vec3

// Face identifies one of the prism's six sides.
type Face int

const (
	FaceXMin Face = iota
	FaceXMax
	FaceYMin
	FaceYMax
	FaceZMin // bottom: open
	FaceZMax // top: open
)

// Lateral reports whether a face reflects (true) or is open (false).
func (f Face) Lateral() bool {
	return f != FaceZMin && f != FaceZMax
}

// topEpsilon keeps the top face strictly above, and the bottom face
// strictly below, the geometry's bounding box, per spec.md §3's Boundary invariant ("the top face is positioned
// at z = zmax + epsilon").
const topEpsilon = 1e-3

// Boundary is the closed prism enclosing the traced geometry, built from
// six Triangle faces (spec.md §3), with the originating geometry's AABB
// strictly contained within it.
type Boundary struct {
	Min, Max Vec3 // prism extents, Max.Z = geometry zmax + topEpsilon
}

// Build constructs a Boundary around the given scene bounding box, padded
// laterally by margin, extended upward by topEpsilon above geomMax.Z and
// downward by the same amount below geomMin.Z, satisfying spec.md §3's "geometry's bounding box is strictly contained"
// invariant.
func Build(geomMin, geomMax Vec3, lateralMargin float32) (*Boundary, error) {
	// Lateral extent must be strictly positive (a zero-width source
	// rectangle can't emit anything), but z may legitimately be flat: a
	// surface mesh lying exactly in one z-plane (the common case for a
	// simple test floor, or a genuinely planar micro-structure) is valid
	// geometry, not a degenerate bounding box.
	if geomMax[0] <= geomMin[0] || geomMax[1] <= geomMin[1] || geomMax[2] < geomMin[2] {
		return nil, fmt.Errorf("boundary: degenerate geometry bounding box %v..%v", geomMin, geomMax)
	}
	margin := Vec3{lateralMargin, lateralMargin, 0}
	min := geomMin.Sub(margin)
	max := geomMax.Add(margin)
	max[2] = geomMax[2] + topEpsilon
	min[2] = geomMin[2] - topEpsilon
	return &Boundary{Min: min, Max: max}, nil
}

// FaceOf classifies which face a point at or very near the boundary
// belongs to, choosing the axis with the smallest distance to a face
// plane. Used to decide reflection vs. termination at a boundary hit.
func (b *Boundary) FaceOf(p Vec3) Face {
	best := FaceXMin
	bestDist := absf(p[0] - b.Min[0])
	candidates := []struct {
		f Face
		d float32
	}{
		{FaceXMin, absf(p[0] - b.Min[0])},
		{FaceXMax, absf(p[0] - b.Max[0])},
		{FaceYMin, absf(p[1] - b.Min[1])},
		{FaceYMax, absf(p[1] - b.Max[1])},
		{FaceZMin, absf(p[2] - b.Min[2])},
		{FaceZMax, absf(p[2] - b.Max[2])},
	}
	for _, c := range candidates {
		if c.d < bestDist {
			best, bestDist = c.f, c.d
		}
	}
	return best
}

// Normal returns the inward-facing surface normal of a face (pointing
// into the domain), used by the boundary's specular reflection model.
func (b *Boundary) Normal(f Face) Vec3 {
	switch f {
	case FaceXMin:
		return Vec3{1, 0, 0}
	case FaceXMax:
		return Vec3{-1, 0, 0}
	case FaceYMin:
		return Vec3{0, 1, 0}
	case FaceYMax:
		return Vec3{0, -1, 0}
	case FaceZMin:
		return Vec3{0, 0, 1}
	case FaceZMax:
		return Vec3{0, 0, -1}
	default:
		panic(fmt.Sprintf("boundary: unknown face %v", f))
	}
}

// Triangles decomposes the prism into twelve Triangle primitives (two per
// face) sharing eight corner vertices, in the representation geom.Geometry
// expects — used when writing the `.bounding-box.vtp` diagnostic output
// and when the scene intersector treats the boundary like any other
// triangle geometry.
func (b *Boundary) Triangles() (vertices []Vec3, prims []geom.Primitive) {
	min, max := b.Min, b.Max
	vertices = []Vec3{
		{min[0], min[1], min[2]}, // 0
		{max[0], min[1], min[2]}, // 1
		{max[0], max[1], min[2]}, // 2
		{min[0], max[1], min[2]}, // 3
		{min[0], min[1], max[2]}, // 4
		{max[0], min[1], max[2]}, // 5
		{max[0], max[1], max[2]}, // 6
		{min[0], max[1], max[2]}, // 7
	}
	quad := func(a, bb, c, d geom.VertexId) []geom.Primitive {
		return []geom.Primitive{
			{Kind: geom.KindTriangle, V0: a, V1: bb, V2: c},
			{Kind: geom.KindTriangle, V0: a, V1: c, V2: d},
		}
	}
	prims = append(prims, quad(0, 1, 2, 3)...) // bottom (open)
	prims = append(prims, quad(4, 5, 6, 7)...) // top (open)
	prims = append(prims, quad(0, 4, 7, 3)...) // x-min (lateral)
	prims = append(prims, quad(1, 2, 6, 5)...) // x-max (lateral)
	prims = append(prims, quad(0, 1, 5, 4)...) // y-min (lateral)
	prims = append(prims, quad(3, 7, 6, 2)...) // y-max (lateral)
	return vertices, prims
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
