// Package tracer implements spec.md §4.6's importance-sampled outer
// loop: pilot, mixture fit, production, then exposed-area computation and
// accumulator reduction into a result.Result. It is the top-level
// collaborator cmd/fluxtrace drives; every other internal package is a
// dependency of this one.
package tracer

import (
	"sync"
	"time"

	"github.com/fluxtrace/fluxtrace/internal/accum"
	"github.com/fluxtrace/fluxtrace/internal/boundary"
	"github.com/fluxtrace/fluxtrace/internal/fluxerr"
	"github.com/fluxtrace/fluxtrace/internal/fluxlog"
	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/mixture"
	"github.com/fluxtrace/fluxtrace/internal/result"
	"github.com/fluxtrace/fluxtrace/internal/rng"
	"github.com/fluxtrace/fluxtrace/internal/scene"
	"github.com/fluxtrace/fluxtrace/internal/source"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
	"github.com/fluxtrace/fluxtrace/internal/vtpio"
	"github.com/fluxtrace/fluxtrace/internal/workerpool"
)

// Diagnostics enables the optional .ray-log.vtp/.ray-src-log.vtp outputs
// (SPEC_FULL.md §4.9). Off by default — recording every trajectory's
// bounce polyline is not something a production-sized N_rays can afford
// to carry unconditionally.
type Diagnostics struct {
	LogRays    bool
	LogSources bool
}

// Config is the full set of tunables a Tracer run needs, assembled by
// the CLI from internal/config plus the command-line flags it overrides
// (SPEC_FULL.md §4.4).
type Config struct {
	NumRays              int
	MaxThreads           int
	SeedBase             int64
	NPilot               int
	NRelevant            int
	MaxMixtureComponents int
	NEA                  int
	WLo, WRenew          float32
	LateralMargin        float32
	SourceAxis           source.Axis
	SourcePlaneValue     float32

	Diagnostics Diagnostics
	Logger      fluxlog.Logger
}

// Tracer owns the built scene and drives the three-phase loop once per
// Run call.
type Tracer struct {
	cfg      Config
	geometry *geom.Geometry
	boundary *boundary.Boundary
	scene    *scene.Scene
	rect     source.Rectangle
	pool     *workerpool.Pool[rayScratch]
	log      fluxlog.Logger

	mu        sync.Mutex
	rayLog    []vtpio.RayLogEntry
	sourceLog []vtpio.SourceLogEntry
}

// New builds the geometry/boundary/scene triple and the fixed source
// rectangle, per spec.md §3's "geometry's bounding box is strictly
// contained" invariant. vertices/prims come from an internal/meshio
// reader.
func New(cfg Config, vertices []vecmath.Vec3, prims []geom.Primitive, defaultSticking float32) (*Tracer, error) {
	if cfg.Logger == nil {
		cfg.Logger = fluxlog.NewNop()
	}
	if len(prims) == 0 {
		return nil, fluxerr.Ofm(fluxerr.SceneBuildError, "tracer: geometry has no primitives")
	}

	g := geom.NewGeometry(vertices, prims, defaultSticking)

	gMin, gMax := g.SceneAABB()
	b, err := boundary.Build(gMin, gMax, cfg.LateralMargin)
	if err != nil {
		return nil, fluxerr.Of(fluxerr.SceneBuildError, err)
	}

	bv, bp := b.Triangles()
	sc, err := scene.Build(g, bv, bp)
	if err != nil {
		return nil, fluxerr.Of(fluxerr.SceneBuildError, err)
	}

	rect := buildSourceRectangle(cfg, gMin, gMax, b)

	return &Tracer{
		cfg:      cfg,
		geometry: g,
		boundary: b,
		scene:    sc,
		rect:     rect,
		log:      cfg.Logger,
		pool:     newWorkerPool(cfg, g, b, sc),
	}, nil
}

// buildSourceRectangle places the source plane at the boundary's top
// face (z = zmax + topEpsilon), spanning the lateral extent of the
// boundary prism, aimed inward — the z-plane variant of spec.md §9's
// now-configurable source orientation (SPEC_FULL.md §4.2).
func buildSourceRectangle(cfg Config, gMin, gMax vecmath.Vec3, b *boundary.Boundary) source.Rectangle {
	var rect source.Rectangle
	switch cfg.SourceAxis {
	case source.AxisX:
		rect = source.Rectangle{
			PlaneAxis: source.AxisX, PlaneValue: b.Max[0],
			Lo0: b.Min[1], Hi0: b.Max[1], Lo1: b.Min[2], Hi1: b.Max[2],
			InwardNormal: vecmath.Vec3{-1, 0, 0},
		}
	case source.AxisY:
		rect = source.Rectangle{
			PlaneAxis: source.AxisY, PlaneValue: b.Max[1],
			Lo0: b.Min[0], Hi0: b.Max[0], Lo1: b.Min[2], Hi1: b.Max[2],
			InwardNormal: vecmath.Vec3{0, -1, 0},
		}
	default: // AxisZ
		rect = source.Rectangle{
			PlaneAxis: source.AxisZ, PlaneValue: b.Max[2],
			Lo0: b.Min[0], Hi0: b.Max[0], Lo1: b.Min[1], Hi1: b.Max[1],
			InwardNormal: vecmath.Vec3{0, 0, -1},
		}
	}
	// SourcePlaneValue lets the CLI override the derived boundary-face
	// plane position (e.g. a source standing off above the domain rather
	// than sitting flush on the boundary's top face).
	if cfg.SourcePlaneValue != 0 {
		rect.PlaneValue = cfg.SourcePlaneValue
	}
	return rect
}

// Run executes the full pilot/fit/production/exposed-area pipeline and
// reduces the per-worker accumulators into a result.Result.
func (t *Tracer) Run(inputFile string) (result.Result, error) {
	start := time.Now()

	pilotOrigins, err := t.runPilot()
	if err != nil {
		return result.Result{}, err
	}

	mix, fallbackUsed := t.fitMixture(pilotOrigins)

	resetSlotAccumulators(t.pool)
	acc, rejected, err := t.runProduction(mix)
	if err != nil {
		return result.Result{}, err
	}

	exposed, err := t.computeExposedAreas()
	if err != nil {
		return result.Result{}, err
	}
	acc.SetExposedAreas(exposed)

	if err := assertNonNegativeAccumulator(acc); err != nil {
		return result.Result{}, err
	}

	r := result.FromAccumulator(acc)
	r.InputFile = inputFile
	r.RayCount = t.cfg.NumRays
	r.WallClock = time.Since(start)
	r.ThreadCount = t.pool.NumWorkers()
	r.FallbackUsed = fallbackUsed
	r.RejectedSamples = rejected
	return r, nil
}

// Geometry exposes the built geometry for the CLI's output-writing step
// (internal/vtpio needs it to emit the surface mesh alongside the
// per-primitive arrays).
func (t *Tracer) Geometry() *geom.Geometry { return t.geometry }

// Boundary exposes the built boundary prism for the `.bounding-box.vtp`
// diagnostic output.
func (t *Tracer) Boundary() *boundary.Boundary { return t.boundary }

// RayLog returns the recorded diagnostic trajectory polylines, if
// Diagnostics.LogRays was set.
func (t *Tracer) RayLog() []vtpio.RayLogEntry { return t.rayLog }

// SourceLog returns the recorded diagnostic source samples, if
// Diagnostics.LogSources was set.
func (t *Tracer) SourceLog() []vtpio.SourceLogEntry { return t.sourceLog }

func (t *Tracer) recordRay(points []vecmath.Vec3) {
	if !t.cfg.Diagnostics.LogRays {
		return
	}
	t.mu.Lock()
	t.rayLog = append(t.rayLog, vtpio.RayLogEntry{Points: points})
	t.mu.Unlock()
}

func (t *Tracer) recordSource(origin vecmath.Vec3, weight float64) {
	if !t.cfg.Diagnostics.LogSources {
		return
	}
	t.mu.Lock()
	t.sourceLog = append(t.sourceLog, vtpio.SourceLogEntry{Origin: origin, Weight: weight})
	t.mu.Unlock()
}

func newRNGPair(seedBase int64, threadIndex int) (sourceRNG, reflectRNG rng.Source) {
	sSeed, rSeed := rng.ThreadSeeds(seedBase, threadIndex)
	return rng.NewSource(sSeed), rng.NewSource(rSeed)
}

func assertInvariant(cond bool, msg string) error {
	if !cond {
		return fluxerr.Ofm(fluxerr.InvariantViolation, "%s", msg)
	}
	return nil
}

// assertNonNegativeAccumulator checks spec.md §8's "for all primitives p
// and time t during tracing: deposited[p] >= 0, hit_count[p] >= 0,
// exposed_area[p] >= 0" invariant against the final reduced accumulator.
func assertNonNegativeAccumulator(acc *accum.HitAccumulator) error {
	for i, v := range acc.Deposited {
		if err := assertInvariant(v >= 0, "deposited became negative"); err != nil {
			return err
		}
		if err := assertInvariant(acc.ExposedArea[i] >= 0, "exposed_area became negative"); err != nil {
			return err
		}
	}
	return nil
}

// fitMixture implements spec.md §4.6 phase 2: fit the 2-D mixture to the
// pilot origins, falling back to a single Gaussian (and marking
// fallbackUsed) when the fit is unavailable — too few pilot samples, or
// every EM run in mixture.Fit degenerated (spec.md §7's
// StatsServiceUnavailable path).
func (t *Tracer) fitMixture(origins []mixture.Pair) (mix *mixture.Mixture, fallbackUsed bool) {
	initRNG := rng.NewSource(t.cfg.SeedBase + 982451653)
	mix, err := mixture.Fit(origins, t.cfg.MaxMixtureComponents, initRNG)
	if err != nil {
		t.log.Warnf("mixture fit unavailable, falling back to single-Gaussian: %v", err)
		return mixture.FitSingleGaussian(origins), true
	}
	return mix, false
}
