// Command fluxtrace runs the Monte Carlo particle-flux tracer over a
// triangle mesh or disc point cloud and writes the resulting
// per-primitive surface file, plus optional diagnostic outputs
// (SPEC_FULL.md §4.4).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluxtrace/fluxtrace/internal/config"
	"github.com/fluxtrace/fluxtrace/internal/fluxerr"
	"github.com/fluxtrace/fluxtrace/internal/fluxlog"
	"github.com/fluxtrace/fluxtrace/internal/meshio"
	"github.com/fluxtrace/fluxtrace/internal/tracer"
	"github.com/fluxtrace/fluxtrace/internal/vtpio"
)

// Exit codes dispatched from the run's error kind (spec.md §7).
const (
	exitOK             = 0
	exitUsageError     = 1
	exitRuntimeFailure = 2
	exitInvariant      = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fluxtrace", flag.ContinueOnError)
	infile := fs.String("infile", "", "input mesh or point-cloud file (required)")
	fs.StringVar(infile, "i", "", "shorthand for --infile")
	outfile := fs.String("outfile", "", "output surface .vtp file (optional; no file is written when omitted)")
	fs.StringVar(outfile, "o", "", "shorthand for --outfile")
	numRays := fs.Int("number-of-rays", 100000, "total number of production rays")
	fs.IntVar(numRays, "r", 100000, "shorthand for --number-of-rays")
	maxThreads := fs.Int("max-threads", 0, "worker thread count (0 = GOMAXPROCS)")
	fs.IntVar(maxThreads, "m", 0, "shorthand for --max-threads")
	triangles := fs.Bool("triangles", false, "read infile as a JSON triangle mesh")
	discs := fs.Bool("discs", false, "read infile as a CSV disc point cloud")
	configPath := fs.String("config", "", "optional YAML config overlay")
	seed := fs.Int64("seed", 0, "RNG seed base override (0 = config default)")
	debug := fs.Bool("debug", false, "enable debug-level logging")
	logRays := fs.Bool("log-rays", false, "write a .ray-log.vtp diagnostic")
	logSources := fs.Bool("log-sources", false, "write a .ray-src-log.vtp diagnostic")

	if err := fs.Parse(args); err != nil {
		return exitUsageError
	}

	if *infile == "" {
		fmt.Fprintln(os.Stderr, "fluxtrace: --infile is required")
		return exitUsageError
	}
	if *outfile != "" {
		*outfile = ensureVTPExtension(*outfile)
	}
	if *triangles == *discs {
		fmt.Fprintln(os.Stderr, "fluxtrace: exactly one of --triangles or --discs must be set")
		return exitUsageError
	}

	log := fluxlog.New(filepath.Base(*infile), *debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorf("loading config: %v", err)
		return exitUsageError
	}

	var reader meshio.Reader
	if *triangles {
		reader = meshio.TriangleMeshReader{}
	} else {
		reader = meshio.PointCloudReader{}
	}

	vertices, prims, err := reader.Read(*infile)
	if err != nil {
		log.Errorf("reading %s: %v", *infile, err)
		return exitForErr(fluxerr.Of(fluxerr.InputFormatError, err))
	}

	seedBase := cfg.Seed.Base
	if *seed != 0 {
		seedBase = *seed
	}

	tcfg := tracer.Config{
		NumRays:              *numRays,
		MaxThreads:           *maxThreads,
		SeedBase:             seedBase,
		NPilot:               cfg.Importance.NPilot,
		NRelevant:            cfg.Importance.NRelevant,
		MaxMixtureComponents: cfg.Importance.MaxMixtureComponents,
		NEA:                  cfg.ExposedArea.NEA,
		WLo:                  cfg.Kernel.WLo,
		WRenew:               cfg.Kernel.WRenew,
		LateralMargin:        cfg.Boundary.LateralMargin,
		SourceAxis:           cfg.Source.Axis(),
		SourcePlaneValue:     cfg.Source.PlaneValue,
		Diagnostics: tracer.Diagnostics{
			LogRays:    *logRays,
			LogSources: *logSources,
		},
		Logger: log,
	}

	t, err := tracer.New(tcfg, vertices, prims, 1.0)
	if err != nil {
		log.Errorf("building tracer: %v", err)
		return exitForErr(err)
	}

	log.Infof("tracing %d rays over %d primitives", *numRays, t.Geometry().PrimitiveCount())
	result, err := t.Run(*infile)
	if err != nil {
		log.Errorf("run failed: %v", err)
		return exitForErr(err)
	}

	if *outfile == "" {
		log.Infof("no --outfile given, skipping output (run=%s, %d rays, %v, fallback=%v)", result.RunID, result.RayCount, result.WallClock, result.FallbackUsed)
		return exitOK
	}

	if err := vtpio.WriteSurface(*outfile, t.Geometry(), result); err != nil {
		log.Errorf("writing surface output: %v", err)
		return exitRuntimeFailure
	}

	bbPath := withSuffix(*outfile, ".bounding-box.vtp")
	bv, bp := t.Boundary().Triangles()
	if err := vtpio.WriteBoundingBox(bbPath, bv, bp); err != nil {
		log.Errorf("writing bounding-box output: %v", err)
		return exitRuntimeFailure
	}

	if *logRays {
		rayLogPath := withSuffix(*outfile, ".ray-log.vtp")
		if err := vtpio.WriteRayLog(rayLogPath, t.RayLog()); err != nil {
			log.Errorf("writing ray-log output: %v", err)
			return exitRuntimeFailure
		}
	}
	if *logSources {
		srcLogPath := withSuffix(*outfile, ".ray-src-log.vtp")
		if err := vtpio.WriteSourceLog(srcLogPath, t.SourceLog()); err != nil {
			log.Errorf("writing ray-src-log output: %v", err)
			return exitRuntimeFailure
		}
	}

	log.Infof("wrote %s (run=%s, %d rays, %v, fallback=%v)", *outfile, result.RunID, result.RayCount, result.WallClock, result.FallbackUsed)
	return exitOK
}

// ensureVTPExtension appends .vtp when outfile's extension doesn't already
// match, mirroring main_rt.cpp:224-226 ("Appending .vtp to the given file
// name").
func ensureVTPExtension(outfile string) string {
	if filepath.Ext(outfile) != ".vtp" {
		return outfile + ".vtp"
	}
	return outfile
}

// withSuffix replaces outfile's extension with suffix, matching the
// `<name>.bounding-box.vtp` / `<name>.ray-log.vtp` naming spec.md §6 uses
// for the optional diagnostic outputs.
func withSuffix(outfile, suffix string) string {
	base := strings.TrimSuffix(outfile, filepath.Ext(outfile))
	return base + suffix
}

// exitForErr maps a fluxerr.Kind to the process exit code spec.md §7
// specifies.
func exitForErr(err error) int {
	kind, ok := fluxerr.KindOf(err)
	if !ok {
		return exitRuntimeFailure
	}
	switch kind {
	case fluxerr.InputFormatError, fluxerr.SceneBuildError, fluxerr.OutOfMemory:
		return exitRuntimeFailure
	case fluxerr.InvariantViolation:
		return exitInvariant
	default:
		return exitRuntimeFailure
	}
}
