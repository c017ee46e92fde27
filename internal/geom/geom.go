// Package geom implements the geometry adapter (spec.md §4, "Geometry
// adapter"): the primitive array, vertex array, and the per-primitive
// normal/area/relevance/sticking-coefficient lookups the rest of the
// tracer depends on. PrimId is assigned densely from 0, matching spec.md
// §3's Primitive invariant.
package geom

import (
	"fmt"
	"math"

	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// Kind is a closed tagged variant over the two primitive shapes the spec
// names, per Design Notes §9 ("prefer a closed tagged-variant enumeration
// where the set is fixed").
type Kind int

const (
	KindTriangle Kind = iota
	KindDisc
)

func (k Kind) String() string {
	switch k {
	case KindTriangle:
		return "triangle"
	case KindDisc:
		return "disc"
	default:
		return fmt.Sprintf("geom.Kind(%d)", int(k))
	}
}

// PrimId densely indexes primitives from 0.
type PrimId uint32

// VertexId indexes into Geometry's shared vertex array.
type VertexId uint32

// Primitive is the tagged-variant primitive record. Triangle primitives
// index into the shared vertex array; Disc primitives carry their own
// center/radius/normal. Immutable after NewGeometry.
type Primitive struct {
	Kind Kind
	Id   PrimId

	// Triangle fields.
	V0, V1, V2 VertexId

	// Disc fields.
	Center Vec3
	Radius float32
	Normal Vec3

	// Sticking is this primitive's sticking coefficient. If zero, the
	// owning Geometry's DefaultSticking applies — this resolves spec.md
	// §9's "sticking coefficient is per-geometry in some paths and
	// per-primitive in others" to per-primitive-with-a-default.
	Sticking float32

	// Relevant flags primitives contributing to the importance-sampling
	// pilot (spec.md §3, "Relevant primitive").
	Relevant bool
}

type Vec3 = vecmath.Vec3

// Geometry owns the vertex array and primitive array and exposes the
// per-primitive queries the kernel needs. Built once, read-only during
// tracing (spec.md §5).
type Geometry struct {
	vertices         []Vec3
	prims            []Primitive
	defaultSticking  float32
	exposedAreaCache []float32 // not written by any code; exposed areas are computed by the tracer
}

// ErrDiscNearBoundary is returned (wrapped) by CheckDiscBoundaryClearance
// for a disc primitive within 2r of a boundary face, which the tracer
// checks before sampling-mode exposed-area computation — the
// resolution chosen for spec.md §9's disc-near-boundary Open Question
// (SPEC_FULL.md §4.10), rather than silently producing the unreliable
// result the source code itself flags as broken.
var ErrDiscNearBoundary = fmt.Errorf("geom: disc primitive center within 2*radius of a boundary face")

// NewGeometry builds a Geometry from a shared vertex array and a slice of
// primitives. Primitive.Id is assigned densely here, overwriting whatever
// the caller set, so readers don't need to track id allocation themselves.
func NewGeometry(vertices []Vec3, prims []Primitive, defaultSticking float32) *Geometry {
	g := &Geometry{
		vertices:        append([]Vec3(nil), vertices...),
		prims:           make([]Primitive, len(prims)),
		defaultSticking: defaultSticking,
	}
	for i, p := range prims {
		p.Id = PrimId(i)
		g.prims[i] = p
	}
	return g
}

// PrimitiveCount returns the number of primitives.
func (g *Geometry) PrimitiveCount() int { return len(g.prims) }

// Primitive returns the primitive record for id.
func (g *Geometry) Primitive(id PrimId) Primitive { return g.prims[id] }

// Vertex returns the vertex position for a VertexId.
func (g *Geometry) Vertex(id VertexId) Vec3 { return g.vertices[id] }

// Normal returns the unit-length surface normal at a primitive, per
// spec.md §3's Geometry invariant ("normal is unit-length").
func (g *Geometry) Normal(id PrimId) Vec3 {
	p := g.prims[id]
	switch p.Kind {
	case KindDisc:
		return p.Normal.Normalize()
	case KindTriangle:
		v0, v1, v2 := g.vertices[p.V0], g.vertices[p.V1], g.vertices[p.V2]
		return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	default:
		panic(fmt.Sprintf("geom: unknown primitive kind %v", p.Kind))
	}
}

// Area returns the primitive's surface area, per spec.md §3's invariant
// ("area > 0").
func (g *Geometry) Area(id PrimId) float32 {
	p := g.prims[id]
	switch p.Kind {
	case KindDisc:
		return math.Pi * p.Radius * p.Radius
	case KindTriangle:
		v0, v1, v2 := g.vertices[p.V0], g.vertices[p.V1], g.vertices[p.V2]
		return v1.Sub(v0).Cross(v2.Sub(v0)).Len() * 0.5
	default:
		panic(fmt.Sprintf("geom: unknown primitive kind %v", p.Kind))
	}
}

// Relevance reports whether a primitive is flagged relevant for the
// importance-sampling pilot (spec.md §3).
func (g *Geometry) Relevance(id PrimId) bool { return g.prims[id].Relevant }

// StickingCoefficient resolves a primitive's sticking coefficient,
// falling back to the geometry's default when the primitive didn't
// override it (spec.md §9).
func (g *Geometry) StickingCoefficient(id PrimId) float32 {
	if s := g.prims[id].Sticking; s > 0 {
		return s
	}
	return g.defaultSticking
}

// TriangleVertices returns the three world-space vertices of a triangle
// primitive. Panics if id does not name a triangle.
func (g *Geometry) TriangleVertices(id PrimId) (v0, v1, v2 Vec3) {
	p := g.prims[id]
	if p.Kind != KindTriangle {
		panic("geom: TriangleVertices called on non-triangle primitive")
	}
	return g.vertices[p.V0], g.vertices[p.V1], g.vertices[p.V2]
}

// AABB returns the primitive's axis-aligned bounding box.
func (g *Geometry) AABB(id PrimId) (min, max Vec3) {
	p := g.prims[id]
	switch p.Kind {
	case KindDisc:
		r := Vec3{p.Radius, p.Radius, p.Radius}
		return p.Center.Sub(r), p.Center.Add(r)
	case KindTriangle:
		v0, v1, v2 := g.vertices[p.V0], g.vertices[p.V1], g.vertices[p.V2]
		min = componentMin(componentMin(v0, v1), v2)
		max = componentMax(componentMax(v0, v1), v2)
		return min, max
	default:
		panic(fmt.Sprintf("geom: unknown primitive kind %v", p.Kind))
	}
}

// SceneAABB returns the bounding box over all primitives.
func (g *Geometry) SceneAABB() (min, max Vec3) {
	if len(g.prims) == 0 {
		return Vec3{}, Vec3{}
	}
	min, max = g.AABB(g.prims[0].Id)
	for i := 1; i < len(g.prims); i++ {
		pmin, pmax := g.AABB(g.prims[i].Id)
		min = componentMin(min, pmin)
		max = componentMax(max, pmax)
	}
	return min, max
}

func componentMin(a, b Vec3) Vec3 {
	return Vec3{fmin(a[0], b[0]), fmin(a[1], b[1]), fmin(a[2], b[2])}
}
func componentMax(a, b Vec3) Vec3 {
	return Vec3{fmax(a[0], b[0]), fmax(a[1], b[1]), fmax(a[2], b[2])}
}
func fmin(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func fmax(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// CheckDiscBoundaryClearance validates the Design Notes §9 resolution:
// when sampling-mode exposed area is requested, every disc primitive must
// be at least 2*radius away from each of the six boundary planes
// (boundMin, boundMax). Returns ErrDiscNearBoundary on the first
// violation found.
func (g *Geometry) CheckDiscBoundaryClearance(boundMin, boundMax Vec3) error {
	for _, p := range g.prims {
		if p.Kind != KindDisc {
			continue
		}
		clearance := 2 * p.Radius
		for axis := 0; axis < 3; axis++ {
			if p.Center[axis]-boundMin[axis] < clearance || boundMax[axis]-p.Center[axis] < clearance {
				return fmt.Errorf("%w: primitive %d", ErrDiscNearBoundary, p.Id)
			}
		}
	}
	return nil
}
