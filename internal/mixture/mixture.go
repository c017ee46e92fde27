// Package mixture fits the 2-D diagonal-covariance Gaussian mixture used
// by the tracer's phase-2 importance-sampling step (spec.md §4.6). The
// spec frames the fit as delegated to "an external statistics service"
// with an observable input/output contract and a documented fallback;
// no such service exists in this module, so Fit implements the contract
// directly with an EM search over component count, using gonum's
// stat/mat primitives the way pthm-soup builds its CMA-ES optimizer
// directly on gonum.org/v1/gonum/optimize rather than a packaged
// algorithm (DESIGN.md).
package mixture

import (
	"errors"
	"math"

	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type Pair = vecmath.Pair

// Component is one 2-D Gaussian in the mixture, per spec.md §3's
// GaussianMixture data model.
type Component struct {
	Mean     Pair
	Variance Pair
	Weight   float64
}

// Mixture is an immutable, ordered list of components built once from
// pilot samples (spec.md §3).
type Mixture struct {
	Components []Component
}

// minVariance floors a fitted component's variance, guarding against a
// degenerate (zero-width) component collapsing the density to infinity.
const minVariance = 1e-8

// ErrServiceUnavailable is returned when the fit could not produce
// a usable mixture (too few pilot samples, or every EM run degenerated),
// mirroring spec.md §6's StatsServiceUnavailable error kind: "mixture
// fit failed; fall back to single-Gaussian".
var ErrServiceUnavailable = errors.New("mixture: fit unavailable, single-Gaussian fallback required")

// minSamplesForFit is the smallest pilot sample count Fit will attempt
// an EM search on; below this, the distribution is undersampled and the
// caller should fall back per spec.md §4.6.
const minSamplesForFit = 8

// Density evaluates p_mixture(x) = Sum_k pi_k * N(x; mean_k, Sigma_k),
// the untruncated mixture density spec.md §4.6/§9 uses in the
// importance-sampling weight correction w(x) = p_uniform(x)/p_mixture(x).
func (m *Mixture) Density(x Pair) float64 {
	var total float64
	for _, c := range m.Components {
		total += c.Weight * gaussian2D(x, c.Mean, c.Variance)
	}
	return total
}

// gaussian2D evaluates a diagonal-covariance 2-D Gaussian density at x.
// The covariance is diagonal, so Sigma^-1 is itself diagonal and |Sigma|
// is just the product of the two variances; mat.DiagDense/mat.VecDense
// carry that algebra (inverse-covariance contraction via MulVec, the
// Mahalanobis term via Dot) rather than hand-expanding the 2x2 case.
func gaussian2D(x, mean, variance Pair) float64 {
	vx := math.Max(float64(variance[0]), minVariance)
	vy := math.Max(float64(variance[1]), minVariance)

	diff := mat.NewVecDense(2, []float64{float64(x[0] - mean[0]), float64(x[1] - mean[1])})
	invCov := mat.NewDiagDense(2, []float64{1 / vx, 1 / vy})

	var scaled mat.VecDense
	scaled.MulVec(invCov, diff)
	mahalanobis := mat.Dot(diff, &scaled)

	det := vx * vy
	norm := 1.0 / (2 * math.Pi * math.Sqrt(det))
	return norm * math.Exp(-0.5*mahalanobis)
}

// Sample draws one point from the mixture: pick a component weighted by
// Weight, then draw a diagonal 2-D Gaussian from it via Box-Muller. Used
// by the tracer's phase-3 production loop (spec.md §4.6) to draw
// importance-sampled source origins.
func (m *Mixture) Sample(source rng.Source) Pair {
	draw := source.Float01()
	var cumulative float64
	chosen := m.Components[len(m.Components)-1]
	for _, c := range m.Components {
		cumulative += c.Weight
		if float64(draw) < cumulative {
			chosen = c
			break
		}
	}

	u1, u2 := source.Float01(), source.Float01()
	if u1 <= 0 {
		u1 = 1e-7
	}
	r := math.Sqrt(-2 * math.Log(float64(u1)))
	theta := 2 * math.Pi * float64(u2)
	z0 := r * math.Cos(theta)
	z1 := r * math.Sin(theta)

	sx := math.Sqrt(math.Max(float64(chosen.Variance[0]), minVariance))
	sy := math.Sqrt(math.Max(float64(chosen.Variance[1]), minVariance))
	return Pair{
		chosen.Mean[0] + float32(z0*sx),
		chosen.Mean[1] + float32(z1*sy),
	}
}

// FitSingleGaussian is the spec.md §4.6 fallback: sample mean/variance
// per axis, one component with weight 1.
func FitSingleGaussian(samples []Pair) *Mixture {
	if len(samples) == 0 {
		return &Mixture{Components: []Component{{Mean: Pair{0, 0}, Variance: Pair{1, 1}, Weight: 1}}}
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = float64(s[0])
		ys[i] = float64(s[1])
	}
	mx, vx := stat.MeanVariance(xs, nil)
	my, vy := stat.MeanVariance(ys, nil)
	return &Mixture{Components: []Component{{
		Mean:     Pair{float32(mx), float32(my)},
		Variance: Pair{float32(math.Max(vx, minVariance)), float32(math.Max(vy, minVariance))},
		Weight:   1,
	}}}
}

// Fit runs an EM search over component counts 1..maxComponents, picking
// the count that minimizes the Bayesian information criterion, per
// spec.md §4.6 ("Component count is chosen by an information-criterion
// search"). initRNG picks the samples each candidate fit's components are
// seeded at, uniformly at random; the same seed always produces the same
// mixture.
func Fit(samples []Pair, maxComponents int, initRNG rng.Source) (*Mixture, error) {
	if len(samples) < minSamplesForFit {
		return nil, ErrServiceUnavailable
	}
	if maxComponents < 1 {
		maxComponents = 1
	}

	var best *Mixture
	bestBIC := math.Inf(1)
	n := float64(len(samples))

	for k := 1; k <= maxComponents; k++ {
		mix, logLikelihood, ok := fitEM(samples, k, initRNG)
		if !ok {
			continue
		}
		numParams := float64(k)*5 - 1 // mean(2)+variance(2)+weight(1) per component, minus one weight DOF
		bic := -2*logLikelihood + numParams*math.Log(n)
		if bic < bestBIC {
			bestBIC = bic
			best = mix
		}
	}

	if best == nil {
		return nil, ErrServiceUnavailable
	}
	return best, nil
}

const (
	emMaxIterations   = 100
	emConvergenceTol  = 1e-6
)

// fitEM runs expectation-maximization for a fixed component count k,
// returning the fitted mixture and its final data log-likelihood.
func fitEM(samples []Pair, k int, initRNG rng.Source) (*Mixture, float64, bool) {
	n := len(samples)
	if k > n {
		return nil, 0, false
	}

	comps := initComponents(samples, k, initRNG)
	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < emMaxIterations; iter++ {
		ll := eStep(samples, comps, resp)
		if !mStep(samples, comps, resp) {
			return nil, 0, false
		}
		if math.Abs(ll-prevLL) < emConvergenceTol {
			prevLL = ll
			break
		}
		prevLL = ll
	}
	return &Mixture{Components: comps}, prevLL, true
}

// initComponents seeds k components at samples picked deterministically
// via initRNG, with the global sample variance as a starting spread and
// uniform weights.
func initComponents(samples []Pair, k int, initRNG rng.Source) []Component {
	n := len(samples)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range samples {
		xs[i] = float64(s[0])
		ys[i] = float64(s[1])
	}
	_, vx := stat.MeanVariance(xs, nil)
	_, vy := stat.MeanVariance(ys, nil)
	initVar := Pair{float32(math.Max(vx, minVariance)), float32(math.Max(vy, minVariance))}

	comps := make([]Component, k)
	for i := 0; i < k; i++ {
		idx := int(initRNG.Float01() * float32(n))
		if idx >= n {
			idx = n - 1
		}
		comps[i] = Component{Mean: samples[idx], Variance: initVar, Weight: 1.0 / float64(k)}
	}
	return comps
}

// eStep computes responsibilities resp[i][k] and returns the current
// data log-likelihood under comps.
func eStep(samples []Pair, comps []Component, resp [][]float64) float64 {
	var logLikelihood float64
	for i, x := range samples {
		var denom float64
		for k, c := range comps {
			p := c.Weight * gaussian2D(x, c.Mean, c.Variance)
			resp[i][k] = p
			denom += p
		}
		if denom <= 0 {
			// Degenerate: every component assigns ~0 density; spread
			// responsibility uniformly to avoid a NaN cascade.
			for k := range comps {
				resp[i][k] = 1.0 / float64(len(comps))
			}
			denom = 1
		} else {
			for k := range comps {
				resp[i][k] /= denom
			}
		}
		logLikelihood += math.Log(denom)
	}
	return logLikelihood
}

// mStep updates comps in place from resp. Returns false if a component
// collapsed to zero responsibility (the caller should discard this k).
func mStep(samples []Pair, comps []Component, resp [][]float64) bool {
	n := len(samples)
	k := len(comps)
	nk := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			nk[c] += resp[i][c]
		}
	}
	for c := 0; c < k; c++ {
		if nk[c] < 1e-6 {
			return false
		}
	}

	newMean := make([]Pair, k)
	for i, x := range samples {
		for c := 0; c < k; c++ {
			w := float32(resp[i][c])
			newMean[c][0] += w * x[0]
			newMean[c][1] += w * x[1]
		}
	}
	for c := 0; c < k; c++ {
		newMean[c][0] /= float32(nk[c])
		newMean[c][1] /= float32(nk[c])
	}

	newVar := make([]Pair, k)
	for i, x := range samples {
		for c := 0; c < k; c++ {
			w := float32(resp[i][c])
			dx := x[0] - newMean[c][0]
			dy := x[1] - newMean[c][1]
			newVar[c][0] += w * dx * dx
			newVar[c][1] += w * dy * dy
		}
	}
	for c := 0; c < k; c++ {
		comps[c].Mean = newMean[c]
		comps[c].Variance = Pair{
			float32(math.Max(float64(newVar[c][0]/float32(nk[c])), minVariance)),
			float32(math.Max(float64(newVar[c][1]/float32(nk[c])), minVariance)),
		}
		comps[c].Weight = nk[c] / float64(n)
	}
	return true
}
