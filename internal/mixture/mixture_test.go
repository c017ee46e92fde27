package mixture

import (
	"math"
	"testing"

	"github.com/fluxtrace/fluxtrace/internal/rng"
)

func clusteredSamples() []Pair {
	var samples []Pair
	// Two well-separated clusters so EM has an easy time recovering them.
	base := rng.NewSource(42)
	for i := 0; i < 60; i++ {
		samples = append(samples, Pair{
			-5 + (base.Float01()-0.5)*0.5,
			-5 + (base.Float01()-0.5)*0.5,
		})
	}
	for i := 0; i < 60; i++ {
		samples = append(samples, Pair{
			5 + (base.Float01()-0.5)*0.5,
			5 + (base.Float01()-0.5)*0.5,
		})
	}
	return samples
}

func TestFitSingleGaussianRecoversMeanAndVariance(t *testing.T) {
	samples := []Pair{{0, 0}, {2, 0}, {0, 2}, {2, 2}}
	m := FitSingleGaussian(samples)
	if len(m.Components) != 1 {
		t.Fatalf("expected exactly one component, got %d", len(m.Components))
	}
	c := m.Components[0]
	if math.Abs(float64(c.Mean[0]-1)) > 1e-4 || math.Abs(float64(c.Mean[1]-1)) > 1e-4 {
		t.Errorf("mean = %v, want (1,1)", c.Mean)
	}
	// Unbiased sample variance of {0, 2, 0, 2}: 4/3 on each axis.
	if math.Abs(float64(c.Variance[0])-4.0/3) > 1e-4 || math.Abs(float64(c.Variance[1])-4.0/3) > 1e-4 {
		t.Errorf("variance = %v, want (4/3, 4/3)", c.Variance)
	}
	if c.Weight != 1 {
		t.Errorf("weight = %v, want 1", c.Weight)
	}
}

func TestFitRejectsTooFewSamples(t *testing.T) {
	samples := []Pair{{0, 0}, {1, 1}}
	_, err := Fit(samples, 3, rng.NewSource(1))
	if err != ErrServiceUnavailable {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestDensityIntegratesRoughlyToOneOverWideGrid(t *testing.T) {
	m := &Mixture{Components: []Component{{Mean: Pair{0, 0}, Variance: Pair{1, 1}, Weight: 1}}}
	const step = 0.2
	const half = 20.0
	var sum float64
	for x := -half; x <= half; x += step {
		for y := -half; y <= half; y += step {
			sum += m.Density(Pair{float32(x), float32(y)}) * step * step
		}
	}
	if math.Abs(sum-1.0) > 0.05 {
		t.Errorf("numerical integral = %v, want ~1.0", sum)
	}
}

func TestFitChoosesAMixtureWithPositiveWeightsSummingToOne(t *testing.T) {
	samples := clusteredSamples()
	m, err := Fit(samples, 3, rng.NewSource(7))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	var total float64
	for _, c := range m.Components {
		if c.Weight <= 0 {
			t.Errorf("component weight %v should be > 0", c.Weight)
		}
		total += c.Weight
	}
	if math.Abs(total-1.0) > 1e-6 {
		t.Errorf("weights sum to %v, want 1.0", total)
	}
}
