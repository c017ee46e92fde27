package vtpio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/result"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

func singleTriangleGeometry() *geom.Geometry {
	vertices := []vecmath.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	prims := []geom.Primitive{{Kind: geom.KindTriangle, V0: 0, V1: 1, V2: 2}}
	return geom.NewGeometry(vertices, prims, 1.0)
}

func TestWriteSurfaceProducesWellFormedXML(t *testing.T) {
	g := singleTriangleGeometry()
	r := result.Result{
		InputFile:   "mesh.json",
		RayCount:    1000,
		WallClock:   5 * time.Second,
		Deposited:   []float64{0.5},
		ExposedArea: []float64{0.5},
		HitCount:    []uint64{3},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.vtp")
	if err := WriteSurface(path, g, r); err != nil {
		t.Fatalf("WriteSurface: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	for _, want := range []string{"PolyData", "deposited", "exposed_area", "hit_count", "InputFile", "mesh.json"} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWriteBoundingBoxWritesTwelveTriangles(t *testing.T) {
	vertices := []vecmath.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	var prims []geom.Primitive
	quad := func(a, b, c, d geom.VertexId) {
		prims = append(prims,
			geom.Primitive{Kind: geom.KindTriangle, V0: a, V1: b, V2: c},
			geom.Primitive{Kind: geom.KindTriangle, V0: a, V1: c, V2: d},
		)
	}
	quad(0, 1, 2, 3)
	quad(4, 5, 6, 7)
	quad(0, 4, 7, 3)
	quad(1, 2, 6, 5)
	quad(0, 1, 5, 4)
	quad(3, 7, 6, 2)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.bounding-box.vtp")
	if err := WriteBoundingBox(path, vertices, prims); err != nil {
		t.Fatalf("WriteBoundingBox: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `NumberOfPolys="12"`) {
		t.Errorf("expected 12 polys in output, got:\n%s", data)
	}
}

func TestWriteRayLogWritesOnePolylinePerEntry(t *testing.T) {
	entries := []RayLogEntry{
		{Points: []vecmath.Vec3{{0, 0, 1}, {0, 0, 0}}},
		{Points: []vecmath.Vec3{{1, 1, 1}, {1, 1, 0.5}, {1, 1, 0}}},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ray-log.vtp")
	if err := WriteRayLog(path, entries); err != nil {
		t.Fatalf("WriteRayLog: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `NumberOfLines="2"`) {
		t.Errorf("expected 2 lines in output, got:\n%s", data)
	}
}

func TestWriteSourceLogWritesOneVertexPerSample(t *testing.T) {
	entries := []SourceLogEntry{
		{Origin: vecmath.Vec3{0.1, 0.2, 1}, Weight: 0.8},
		{Origin: vecmath.Vec3{0.3, 0.4, 1}, Weight: 1.2},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ray-src-log.vtp")
	if err := WriteSourceLog(path, entries); err != nil {
		t.Fatalf("WriteSourceLog: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `NumberOfVerts="2"`) {
		t.Errorf("expected 2 verts in output, got:\n%s", data)
	}
	if !strings.Contains(string(data), "weight") {
		t.Errorf("expected weight array in output")
	}
}
