package meshio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fluxtrace/fluxtrace/internal/geom"
)

func TestTriangleMeshReaderParsesValidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.json")
	doc := `{
		"vertices": [[0,0,0],[1,0,0],[0,1,0]],
		"triangles": [[0,1,2]],
		"sticking": [0.75],
		"relevant": [true]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	vertices, prims, err := TriangleMeshReader{}.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(vertices) != 3 {
		t.Fatalf("len(vertices) = %d, want 3", len(vertices))
	}
	if len(prims) != 1 {
		t.Fatalf("len(prims) = %d, want 1", len(prims))
	}
	p := prims[0]
	if p.Kind != geom.KindTriangle {
		t.Errorf("Kind = %v, want KindTriangle", p.Kind)
	}
	if p.Sticking != 0.75 {
		t.Errorf("Sticking = %v, want 0.75", p.Sticking)
	}
	if !p.Relevant {
		t.Errorf("Relevant = false, want true")
	}
}

func TestTriangleMeshReaderRejectsOutOfRangeIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.json")
	doc := `{"vertices": [[0,0,0]], "triangles": [[0,1,2]]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, err := TriangleMeshReader{}.Read(path)
	if !errors.Is(err, ErrInputFormat) {
		t.Fatalf("err = %v, want wrapped ErrInputFormat", err)
	}
}

func TestTriangleMeshReaderRejectsMissingFile(t *testing.T) {
	_, _, err := TriangleMeshReader{}.Read("/nonexistent/mesh.json")
	if !errors.Is(err, ErrInputFormat) {
		t.Fatalf("err = %v, want wrapped ErrInputFormat", err)
	}
}

func TestPointCloudReaderParsesValidCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.csv")
	csv := "x,y,z,radius,nx,ny,nz,sticking,relevant\n" +
		"1,2,3,0.5,0,0,1,0.9,true\n" +
		"4,5,6,0.25,0,1,0,0.1,false\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	vertices, prims, err := PointCloudReader{}.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if vertices != nil {
		t.Errorf("vertices = %v, want nil for disc point clouds", vertices)
	}
	if len(prims) != 2 {
		t.Fatalf("len(prims) = %d, want 2", len(prims))
	}
	if prims[0].Kind != geom.KindDisc {
		t.Errorf("Kind = %v, want KindDisc", prims[0].Kind)
	}
	if prims[0].Radius != 0.5 {
		t.Errorf("Radius = %v, want 0.5", prims[0].Radius)
	}
	if !prims[0].Relevant || prims[1].Relevant {
		t.Errorf("Relevant parsed incorrectly: %v, %v", prims[0].Relevant, prims[1].Relevant)
	}
}

func TestPointCloudReaderRejectsMissingFile(t *testing.T) {
	_, _, err := PointCloudReader{}.Read("/nonexistent/points.csv")
	if !errors.Is(err, ErrInputFormat) {
		t.Fatalf("err = %v, want wrapped ErrInputFormat", err)
	}
}
