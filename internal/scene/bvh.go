// Package scene is the stand-in for spec.md §1's "underlying
// scene-intersection library": a single-ray intersect entry point with
// registerable per-geometry any-hit filter callbacks. spec.md treats this
// collaborator as an external black box; since no embree-class binding
// exists anywhere in the retrieved dependency corpus (SPEC_FULL.md §4.8),
// this package implements a minimal one, adapted from the teacher's
// voxelrt/rt/bvh median-split AABB tree builder (generalized from voxel
// AABBs to triangle/disc primitive AABBs).
package scene

import (
	"math"
	"sort"

	"github.com/fluxtrace/fluxtrace/internal/ray"
)

type aabbItem struct {
	min, max ray.Vec3
	centroid ray.Vec3
	index    int
}

type bvhNode struct {
	min, max        ray.Vec3
	left, right     int32 // -1 if leaf
	leafFirst       int32
	leafCount       int32
}

// buildBVH constructs a median-split AABB tree over the given primitive
// bounds, following the same recursive-median-split strategy as the
// teacher's TLASBuilder.recursiveBuild, generalized to an arbitrary
// primitive count and primitive-kind-agnostic bounds.
func buildBVH(bounds [][2]ray.Vec3) ([]bvhNode, []int32) {
	items := make([]aabbItem, len(bounds))
	for i, b := range bounds {
		items[i] = aabbItem{
			min:      b[0],
			max:      b[1],
			centroid: b[0].Add(b[1]).Mul(0.5),
			index:    i,
		}
	}
	var nodes []bvhNode
	var order []int32
	if len(items) == 0 {
		return nodes, order
	}
	recursiveBuildBVH(items, &nodes, &order)
	return nodes, order
}

func recursiveBuildBVH(items []aabbItem, nodes *[]bvhNode, order *[]int32) int32 {
	idx := int32(len(*nodes))
	*nodes = append(*nodes, bvhNode{left: -1, right: -1, leafFirst: -1, leafCount: 0})

	minB := ray.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))}
	maxB := ray.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))}
	for _, it := range items {
		minB = componentMin(minB, it.min)
		maxB = componentMax(maxB, it.max)
	}
	(*nodes)[idx].min = minB
	(*nodes)[idx].max = maxB

	if len(items) <= 2 {
		first := int32(len(*order))
		for _, it := range items {
			*order = append(*order, int32(it.index))
		}
		(*nodes)[idx].leafFirst = first
		(*nodes)[idx].leafCount = int32(len(items))
		return idx
	}

	extent := maxB.Sub(minB)
	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].centroid[axis] < items[j].centroid[axis]
	})

	mid := len(items) / 2
	(*nodes)[idx].left = recursiveBuildBVH(items[:mid], nodes, order)
	(*nodes)[idx].right = recursiveBuildBVH(items[mid:], nodes, order)
	return idx
}

func componentMin(a, b ray.Vec3) ray.Vec3 {
	return ray.Vec3{minf(a[0], b[0]), minf(a[1], b[1]), minf(a[2], b[2])}
}
func componentMax(a, b ray.Vec3) ray.Vec3 {
	return ray.Vec3{maxf(a[0], b[0]), maxf(a[1], b[1]), maxf(a[2], b[2])}
}
func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// intersectAABB returns whether the ray intersects the box within
// (tnear, tfar], used to prune BVH branches during traversal.
func intersectAABB(r ray.Ray, tfar float32, min, max ray.Vec3) bool {
	tMin, tMax := r.TNear, tfar
	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < min[axis] || r.Origin[axis] > max[axis] {
				return false
			}
			continue
		}
		inv := 1 / r.Direction[axis]
		t0 := (min[axis] - r.Origin[axis]) * inv
		t1 := (max[axis] - r.Origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}
