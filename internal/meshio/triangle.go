package meshio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// triangleMeshDoc is the on-disk JSON shape: a flat vertex array, a
// triangle index array, and an optional per-triangle sticking override
// (SPEC_FULL.md §4.5). A missing or short Sticking array leaves those
// triangles at zero, which geom.Geometry.StickingCoefficient resolves to
// the geometry-wide default.
type triangleMeshDoc struct {
	Vertices [][3]float32 `json:"vertices"`
	Triangles [][3]int    `json:"triangles"`
	Sticking []float32    `json:"sticking"`
	Relevant []bool       `json:"relevant"`
}

// TriangleMeshReader reads the JSON triangle-mesh format. The format
// exists to stand in for the spec's external mesh-reader collaborator; no
// corpus dependency reads a richer mesh format, so stdlib encoding/json
// is the right tool here rather than a gap to be filled with a library
// (DESIGN.md).
type TriangleMeshReader struct{}

func (TriangleMeshReader) Read(path string) ([]vecmath.Vec3, []geom.Primitive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, wrap("reading triangle mesh file", err)
	}

	var doc triangleMeshDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, wrap("parsing triangle mesh JSON", err)
	}
	if len(doc.Triangles) == 0 {
		return nil, nil, wrap("parsing triangle mesh JSON", fmt.Errorf("no triangles"))
	}

	vertices := make([]vecmath.Vec3, len(doc.Vertices))
	for i, v := range doc.Vertices {
		vertices[i] = vecmath.Vec3{v[0], v[1], v[2]}
	}

	prims := make([]geom.Primitive, len(doc.Triangles))
	for i, tri := range doc.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return nil, nil, wrap("parsing triangle mesh JSON", fmt.Errorf("triangle %d references out-of-range vertex %d", i, idx))
			}
		}
		p := geom.Primitive{
			Kind: geom.KindTriangle,
			V0:   geom.VertexId(tri[0]),
			V1:   geom.VertexId(tri[1]),
			V2:   geom.VertexId(tri[2]),
		}
		if i < len(doc.Sticking) {
			p.Sticking = doc.Sticking[i]
		}
		if i < len(doc.Relevant) {
			p.Relevant = doc.Relevant[i]
		}
		prims[i] = p
	}
	return vertices, prims, nil
}
