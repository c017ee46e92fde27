package reflect

import (
	"math"
	"testing"

	"github.com/fluxtrace/fluxtrace/internal/ray"
	"github.com/fluxtrace/fluxtrace/internal/rng"
)

func TestDiffuseDirectionIsUnitAndOutgoing(t *testing.T) {
	incoming := ray.Ray{Origin: ray.Vec3{0, 0, 1}, Direction: ray.Vec3{0, 0, -1}, TFar: 1}
	hit := ray.Hit{Normal: ray.Vec3{0, 0, 1}, T: 1}
	src := rng.NewSource(1)

	out := Diffuse(incoming, hit, 0.5, 1.0, src)
	if !out.ShouldReflect {
		t.Fatal("diffuse reflection should always continue the trajectory")
	}
	if d := out.Out.Direction.Len(); d < 0.99999 || d > 1.00001 {
		t.Errorf("outgoing direction not unit length: %v", d)
	}
	if out.WeightDrop != 0.5 {
		t.Errorf("expected weight drop 0.5, got %v", out.WeightDrop)
	}
	// Cosine-weighted about an upward normal should stay in the upper
	// hemisphere.
	if out.Out.Direction[2] < 0 {
		t.Errorf("expected outgoing direction in the normal's hemisphere, got %v", out.Out.Direction)
	}
}

func TestSpecularNoWeightDropNoDeposit(t *testing.T) {
	incoming := ray.Ray{Origin: ray.Vec3{0, 0, 1}, Direction: ray.Vec3{0, 0, -1}, TFar: 1}
	hit := ray.Hit{Normal: ray.Vec3{0, 0, 1}, T: 1}

	out := Specular(incoming, hit)
	if out.WeightDrop != 0 {
		t.Errorf("specular must not drop weight, got %v", out.WeightDrop)
	}
	want := ray.Vec3{0, 0, 1}
	for i := 0; i < 3; i++ {
		if math.Abs(float64(out.Out.Direction[i]-want[i])) > 1e-6 {
			t.Errorf("reflected direction = %v, want %v", out.Out.Direction, want)
		}
	}
}

func TestSpecularTwiceRestoresDirection(t *testing.T) {
	incoming := ray.Ray{Origin: ray.Vec3{0, 2, 0}, Direction: ray.Vec3{0.6, -0.8, 0}, TFar: 2}
	hit := ray.Hit{Normal: ray.Vec3{0, 1, 0}, T: 2}

	once := Specular(incoming, hit)
	// Reflect the outgoing ray off a parallel plane facing the opposite
	// way.
	hit2 := ray.Hit{Normal: ray.Vec3{0, -1, 0}, T: 1}
	twice := Specular(ray.Ray{Origin: once.Out.Origin, Direction: once.Out.Direction, TFar: 1}, hit2)

	for i := 0; i < 3; i++ {
		if math.Abs(float64(twice.Out.Direction[i]-incoming.Direction[i])) > 1e-6 {
			t.Errorf("double reflection mismatch at %d: got %v want %v", i, twice.Out.Direction, incoming.Direction)
		}
	}
}
