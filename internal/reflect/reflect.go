// Package reflect implements the two reflection models from spec.md §4.2:
// diffuse-cosine (used on the traced geometry) and specular (used only on
// the boundary). Both are pure functions of (incoming ray, hit record,
// sticking coefficient / normal, RNG) returning the outgoing ray plus
// whether to continue the trajectory and how much weight was dropped.
package reflect

import (
	"math"

	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// Model is a closed tagged variant over the two reflection kinds the spec
// names (Design Notes §9: "prefer a closed tagged-variant enumeration
// where the set is fixed").
type Model int

const (
	ModelDiffuse Model = iota
	ModelSpecular
)

// originEpsilon pushes the new ray origin off the surface along the
// normal, per spec.md §4.2's common preamble, to avoid immediate
// self-intersection on the next bounce.
const originEpsilon = 1e-4

// Outcome is the result of applying a reflection model to a hit.
type Outcome struct {
	Out           ray.Ray
	ShouldReflect bool
	WeightDrop    float32
}

// Diffuse implements spec.md §4.2's diffuse-cosine model: build an
// orthonormal basis from the surface normal, sample a cosine-weighted
// direction, and drop weight*sticking on the hit primitive. The caller
// (the trajectory kernel) is responsible for actually crediting
// WeightDrop to the hit accumulator — this function stays pure.
func Diffuse(incoming ray.Ray, hit ray.Hit, sticking float32, weight float32, reflectionRNG rng.Source) Outcome {
	hitPoint := incoming.PointAt(hit.T)
	n, b, t := vecmath.OrthonormalBasis(hit.Normal)

	origin := vecmath.FlushSubnormal(hitPoint.Add(n.Mul(originEpsilon)))
	u1, u2 := reflectionRNG.Float01(), reflectionRNG.Float01()
	direction := vecmath.CosineHemisphere(n, b, t, u1, u2)

	return Outcome{
		Out: ray.Ray{
			Origin:    origin,
			Direction: direction,
			TNear:     originEpsilon,
			TFar:      float32(math.Inf(1)),
			Time:      0,
		},
		ShouldReflect: true,
		WeightDrop:    weight * sticking,
	}
}

// Specular implements spec.md §4.2's specular model: d' = d - 2(d.n)n, no
// weight drop, no deposition. Used only on the boundary's lateral faces.
func Specular(incoming ray.Ray, hit ray.Hit) Outcome {
	hitPoint := incoming.PointAt(hit.T)
	n := hit.Normal
	direction := vecmath.Reflect(incoming.Direction, n)
	origin := vecmath.FlushSubnormal(hitPoint.Add(n.Mul(originEpsilon)))

	return Outcome{
		Out: ray.Ray{
			Origin:    origin,
			Direction: direction,
			TNear:     originEpsilon,
			TFar:      float32(math.Inf(1)),
			Time:      0,
		},
		ShouldReflect: true,
		WeightDrop:    0,
	}
}

// Apply dispatches on Model, for callers that hold the model as data
// (e.g. the geometry's configured reflection model) rather than calling
// Diffuse/Specular directly.
func Apply(m Model, incoming ray.Ray, hit ray.Hit, sticking float32, weight float32, reflectionRNG rng.Source) Outcome {
	switch m {
	case ModelDiffuse:
		return Diffuse(incoming, hit, sticking, weight, reflectionRNG)
	case ModelSpecular:
		return Specular(incoming, hit)
	default:
		panic("reflect: unknown model")
	}
}
