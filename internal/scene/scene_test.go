package scene

import (
	"math"
	"testing"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/ray"
)

func singleTriangleGeometry() *geom.Geometry {
	verts := []geom.Vec3{
		{-1, -1, 0},
		{1, -1, 0},
		{0, 1, 0},
	}
	prims := []geom.Primitive{
		{Kind: geom.KindTriangle, V0: 0, V1: 1, V2: 2},
	}
	return geom.NewGeometry(verts, prims, 1.0)
}

func emptyBoundary() ([]ray.Vec3, []geom.Primitive) {
	return nil, nil
}

func TestIntersect1HitsSingleTriangle(t *testing.T) {
	g := singleTriangleGeometry()
	bv, bp := emptyBoundary()
	s, err := Build(g, bv, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := ray.Ray{
		Origin:    ray.Vec3{0, 0, -5},
		Direction: ray.Vec3{0, 0, 1},
		TNear:     1e-4,
		TFar:      float32(math.Inf(1)),
	}

	var got ray.Hit
	var hit bool
	s.Intersect1(r, func(h ray.Hit) bool {
		got = h
		hit = true
		return true
	}, func(h ray.Hit) bool {
		t.Fatalf("unexpected boundary callback for empty boundary")
		return false
	})

	if !hit {
		t.Fatalf("expected a geometry hit")
	}
	if math.Abs(float64(got.T-5)) > 1e-4 {
		t.Errorf("T = %v, want ~5", got.T)
	}
	if got.GeomId != ray.GeomGeometry {
		t.Errorf("GeomId = %v, want GeomGeometry", got.GeomId)
	}
}

func TestIntersect1MissesWhenRayPointsAway(t *testing.T) {
	g := singleTriangleGeometry()
	bv, bp := emptyBoundary()
	s, err := Build(g, bv, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := ray.Ray{
		Origin:    ray.Vec3{0, 0, -5},
		Direction: ray.Vec3{0, 0, -1},
		TNear:     1e-4,
		TFar:      float32(math.Inf(1)),
	}

	hit := false
	s.Intersect1(r, func(h ray.Hit) bool {
		hit = true
		return true
	}, nil)

	if hit {
		t.Errorf("expected no hit when ray points away from triangle")
	}
}

func TestIntersectDiscRejectsOutsideRadius(t *testing.T) {
	prims := []geom.Primitive{
		{Kind: geom.KindDisc, Center: geom.Vec3{0, 0, 0}, Radius: 1.0, Normal: geom.Vec3{0, 0, 1}},
	}
	g := geom.NewGeometry(nil, prims, 1.0)
	bv, bp := emptyBoundary()
	s, err := Build(g, bv, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Ray passes through the disc's plane at (2, 2, 0), well outside radius 1.
	r := ray.Ray{
		Origin:    ray.Vec3{2, 2, -5},
		Direction: ray.Vec3{0, 0, 1},
		TNear:     1e-4,
		TFar:      float32(math.Inf(1)),
	}

	hit := false
	s.Intersect1(r, func(h ray.Hit) bool {
		hit = true
		return true
	}, nil)

	if hit {
		t.Errorf("expected no hit: ray-disc projection is outside the disc radius")
	}
}

func TestIntersectDiscAcceptsWithinRadius(t *testing.T) {
	prims := []geom.Primitive{
		{Kind: geom.KindDisc, Center: geom.Vec3{0, 0, 0}, Radius: 1.0, Normal: geom.Vec3{0, 0, 1}},
	}
	g := geom.NewGeometry(nil, prims, 1.0)
	bv, bp := emptyBoundary()
	s, err := Build(g, bv, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := ray.Ray{
		Origin:    ray.Vec3{0.3, 0.2, -5},
		Direction: ray.Vec3{0, 0, 1},
		TNear:     1e-4,
		TFar:      float32(math.Inf(1)),
	}

	hit := false
	s.Intersect1(r, func(h ray.Hit) bool {
		hit = true
		return true
	}, nil)

	if !hit {
		t.Errorf("expected a hit: ray-disc projection is within the disc radius")
	}
}

func TestIntersect1ResolvesNearestRegardlessOfTraversalOrder(t *testing.T) {
	// Two parallel triangles stacked along Z; the nearer one must win
	// even though BVH traversal order is not guaranteed to visit it first.
	verts := []geom.Vec3{
		{-1, -1, 5}, {1, -1, 5}, {0, 1, 5}, // far triangle, z=5
		{-1, -1, 2}, {1, -1, 2}, {0, 1, 2}, // near triangle, z=2
	}
	prims := []geom.Primitive{
		{Kind: geom.KindTriangle, V0: 0, V1: 1, V2: 2},
		{Kind: geom.KindTriangle, V0: 3, V1: 4, V2: 5},
	}
	g := geom.NewGeometry(verts, prims, 1.0)
	bv, bp := emptyBoundary()
	s, err := Build(g, bv, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := ray.Ray{
		Origin:    ray.Vec3{0, 0, 0},
		Direction: ray.Vec3{0, 0, 1},
		TNear:     1e-4,
		TFar:      float32(math.Inf(1)),
	}

	var nearestT float32 = float32(math.Inf(1))
	s.Intersect1(r, func(h ray.Hit) bool {
		if h.T < nearestT {
			nearestT = h.T
		}
		return true
	}, nil)

	if math.Abs(float64(nearestT-2)) > 1e-4 {
		t.Errorf("nearest T = %v, want ~2 (the near triangle)", nearestT)
	}
}
