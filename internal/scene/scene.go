package scene

import (
	"fmt"
	"math"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/ray"
)

// FilterFunc is an any-hit filter callback, invoked once per candidate
// hit during Intersect1 traversal (spec.md §4.5). It returns whether to
// accept the hit. The disc in-radius check is decided by the
// primitive-intersection test itself before the callback is invoked, so
// geometry callbacks always accept (spec.md §4.5 step 3's "Always
// accept"); the trajectory's boundary callback rejects a ray crossing an
// open face into the domain. The callback is also where the reflection
// model runs and the staged outgoing ray gets produced.
type FilterFunc func(hit ray.Hit) bool

// primRecord is a scene-local copy of the geometric data needed to
// intersect a primitive, tagged with which collection (geometry vs.
// boundary) it belongs to.
type primRecord struct {
	geomID ray.GeomId
	primID uint32
	kind   geom.Kind

	// Triangle data.
	v0, v1, v2 ray.Vec3

	// Disc data.
	center ray.Vec3
	radius float32
	normal ray.Vec3
}

// Scene is the built, read-only scene: a BVH over both the traced
// geometry's primitives and the boundary's primitives, tagged so
// Intersect1 can route each candidate to the right filter callback.
type Scene struct {
	prims []primRecord
	nodes []bvhNode
	order []int32
}

// Build constructs a Scene from the traced geometry and the boundary's
// triangle decomposition. Built once; read-only during tracing
// (spec.md §5).
func Build(g *geom.Geometry, boundaryVerts []ray.Vec3, boundaryPrims []geom.Primitive) (*Scene, error) {
	var prims []primRecord
	var bounds [][2]ray.Vec3

	for i := 0; i < g.PrimitiveCount(); i++ {
		id := geom.PrimId(i)
		p := g.Primitive(id)
		rec := primRecord{geomID: ray.GeomGeometry, primID: uint32(id), kind: p.Kind}
		switch p.Kind {
		case geom.KindTriangle:
			rec.v0, rec.v1, rec.v2 = g.TriangleVertices(id)
		case geom.KindDisc:
			rec.center, rec.radius, rec.normal = p.Center, p.Radius, p.Normal.Normalize()
		default:
			return nil, fmt.Errorf("scene: unknown primitive kind %v", p.Kind)
		}
		min, max := g.AABB(id)
		prims = append(prims, rec)
		bounds = append(bounds, [2]ray.Vec3{min, max})
	}

	for i, bp := range boundaryPrims {
		if bp.Kind != geom.KindTriangle {
			return nil, fmt.Errorf("scene: boundary primitive %d is not a triangle", i)
		}
		v0 := boundaryVerts[bp.V0]
		v1 := boundaryVerts[bp.V1]
		v2 := boundaryVerts[bp.V2]
		rec := primRecord{geomID: ray.GeomBoundary, primID: uint32(i), kind: geom.KindTriangle, v0: v0, v1: v1, v2: v2}
		prims = append(prims, rec)
		min, max := triangleAABB(v0, v1, v2)
		bounds = append(bounds, [2]ray.Vec3{min, max})
	}

	nodes, order := buildBVH(bounds)
	return &Scene{prims: prims, nodes: nodes, order: order}, nil
}

func triangleAABB(v0, v1, v2 ray.Vec3) (min, max ray.Vec3) {
	min = componentMin(componentMin(v0, v1), v2)
	max = componentMax(componentMax(v0, v1), v2)
	return min, max
}

// Intersect1 is the library's single-ray intersect entry point
// (spec.md §4.5 step 2). It traverses the BVH in arbitrary order,
// invoking onGeometry or onBoundary on every candidate primitive whose
// parametric distance falls within (r.TNear, currentNearest]; an
// accepted candidate shrinks currentNearest, pruning farther branches.
// currentNearest is shared by both collections, so accepted calls arrive
// with non-increasing T and the final accepted call overall is the
// nearest accepted hit across both collections. A collection's own last
// call is its nearest hit only when no nearer hit of the other
// collection cut it off; spec.md §4.5's resolve step compares the two
// collections' last calls, which picks the overall nearest either way.
func (s *Scene) Intersect1(r ray.Ray, onGeometry, onBoundary FilterFunc) {
	if len(s.nodes) == 0 {
		return
	}
	nearest := r.TFar
	s.traverse(0, r, &nearest, onGeometry, onBoundary)
}

func (s *Scene) traverse(nodeIdx int32, r ray.Ray, nearest *float32, onGeometry, onBoundary FilterFunc) {
	node := &s.nodes[nodeIdx]
	if !intersectAABB(r, *nearest, node.min, node.max) {
		return
	}
	if node.leafCount > 0 {
		for i := int32(0); i < node.leafCount; i++ {
			primIdx := s.order[node.leafFirst+i]
			rec := &s.prims[primIdx]
			hit, ok := intersectPrim(rec, r)
			if !ok {
				continue
			}
			if hit.T <= r.TNear || hit.T > *nearest {
				continue
			}
			var accepted bool
			switch rec.geomID {
			case ray.GeomGeometry:
				if onGeometry != nil {
					accepted = onGeometry(hit)
				}
			case ray.GeomBoundary:
				if onBoundary != nil {
					accepted = onBoundary(hit)
				}
			}
			if accepted {
				*nearest = hit.T
			}
		}
		return
	}
	s.traverse(node.left, r, nearest, onGeometry, onBoundary)
	s.traverse(node.right, r, nearest, onGeometry, onBoundary)
}

// intersectPrim computes the exact ray-primitive intersection: the
// Möller-Trumbore test for triangles, and a ray-plane intersection
// gated by an in-radius projection check for discs (spec.md §4.5 step 3:
// "for disc geometry, only accept when the ray-disc projection falls
// within the disc radius").
func intersectPrim(rec *primRecord, r ray.Ray) (ray.Hit, bool) {
	switch rec.kind {
	case geom.KindTriangle:
		return intersectTriangle(rec, r)
	case geom.KindDisc:
		return intersectDisc(rec, r)
	default:
		return ray.Hit{}, false
	}
}

const triangleEpsilon = 1e-7

func intersectTriangle(rec *primRecord, r ray.Ray) (ray.Hit, bool) {
	e1 := rec.v1.Sub(rec.v0)
	e2 := rec.v2.Sub(rec.v0)
	pvec := r.Direction.Cross(e2)
	det := e1.Dot(pvec)
	if det > -triangleEpsilon && det < triangleEpsilon {
		return ray.Hit{}, false
	}
	invDet := 1 / det
	tvec := r.Origin.Sub(rec.v0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return ray.Hit{}, false
	}
	qvec := tvec.Cross(e1)
	v := r.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return ray.Hit{}, false
	}
	t := e2.Dot(qvec) * invDet
	if t <= 0 {
		return ray.Hit{}, false
	}
	normal := e1.Cross(e2).Normalize()
	return ray.Hit{
		GeomId: rec.geomID,
		PrimId: rec.primID,
		Normal: normal,
		UV:     ray.Pair{u, v},
		T:      t,
	}, true
}

func intersectDisc(rec *primRecord, r ray.Ray) (ray.Hit, bool) {
	denom := rec.normal.Dot(r.Direction)
	if denom > -triangleEpsilon && denom < triangleEpsilon {
		return ray.Hit{}, false // ray parallel to disc plane
	}
	t := rec.center.Sub(r.Origin).Dot(rec.normal) / denom
	if t <= 0 {
		return ray.Hit{}, false
	}
	point := r.PointAt(t)
	dist := point.Sub(rec.center).Len()
	if dist > rec.radius {
		// ray-disc projection falls outside the disc radius: reject,
		// per spec.md §4.5 step 3.
		return ray.Hit{}, false
	}
	return ray.Hit{
		GeomId: rec.geomID,
		PrimId: rec.primID,
		Normal: rec.normal,
		UV:     ray.Pair{float32(math.NaN()), float32(math.NaN())},
		T:      t,
	}, true
}
