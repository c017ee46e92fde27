package source

import (
	"math"
	"testing"

	"github.com/fluxtrace/fluxtrace/internal/rng"
)

func rect() Rectangle {
	return Rectangle{
		PlaneAxis:    AxisZ,
		PlaneValue:   1.0,
		Lo0:          0, Hi0: 1,
		Lo1: 0, Hi1: 1,
		InwardNormal: Vec3{0, 0, -1},
	}
}

func TestUniformOriginWithinRectangle(t *testing.T) {
	r := rect()
	src := rng.NewSource(3)
	for i := 0; i < 200; i++ {
		origin, u, v := r.UniformOrigin(src)
		if u < 0 || u > 1 || v < 0 || v > 1 {
			t.Fatalf("sample (%v, %v) outside [0,1]x[0,1]", u, v)
		}
		if origin[2] != 1.0 {
			t.Fatalf("origin Z should be pinned to plane value, got %v", origin[2])
		}
	}
}

func TestSampleProducesUnitDirection(t *testing.T) {
	r := rect()
	srcRNG := rng.NewSource(1)
	for i := 0; i < 50; i++ {
		ray, _, _ := Sample(r, srcRNG)
		if d := ray.Direction.Len(); math.Abs(float64(d-1)) > 1e-5 {
			t.Errorf("direction not unit length: %v", d)
		}
		if ray.TNear != epsSource {
			t.Errorf("TNear = %v, want %v", ray.TNear, epsSource)
		}
		if !math.IsInf(float64(ray.TFar), 1) {
			t.Errorf("TFar should be +Inf, got %v", ray.TFar)
		}
	}
}

func TestDirectionSampledTowardInwardHemisphere(t *testing.T) {
	d := CosineDirection{InwardNormal: Vec3{0, 0, -1}}
	srcRNG := rng.NewSource(9)
	for i := 0; i < 50; i++ {
		var out Ray
		d.Fill(&out, srcRNG)
		if out.Direction[2] > 0 {
			t.Errorf("direction should stay in the inward hemisphere, got %v", out.Direction)
		}
	}
}

func TestAreaMatchesRectangleDimensions(t *testing.T) {
	r := Rectangle{Lo0: 1, Hi0: 3, Lo1: -1, Hi1: 1}
	if a := r.Area(); a != 4 {
		t.Errorf("Area() = %v, want 4", a)
	}
}
