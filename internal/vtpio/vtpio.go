// Package vtpio writes the tracer's output surface as VTK XML PolyData
// (.vtp), per spec.md §6: per-primitive scalar arrays `deposited`,
// `exposed_area`, `hit_count`, plus global attributes for input filename,
// ray count, and wall-clock nanoseconds. Built on stdlib encoding/xml —
// justified in DESIGN.md, since grepping encoding/xml across every
// retrieved example repo returns zero hits; no XML/VTK dependency exists
// anywhere in the corpus to reuse instead.
package vtpio

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/result"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// discSides is the polygon approximation used to render a disc primitive
// as a VTK cell; discs have no native VTK cell type.
const discSides = 16

type vtkFile struct {
	XMLName   xml.Name `xml:"VTKFile"`
	Type      string   `xml:"type,attr"`
	Version   string   `xml:"version,attr"`
	ByteOrder string   `xml:"byte_order,attr"`
	PolyData  vtkPolyData `xml:"PolyData"`
	FieldData *vtkFieldData `xml:"FieldData,omitempty"`
}

type vtkPolyData struct {
	Piece vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	NumberOfPoints int         `xml:"NumberOfPoints,attr"`
	NumberOfPolys  int         `xml:"NumberOfPolys,attr"`
	Points         vtkPoints   `xml:"Points"`
	Polys          vtkPolys    `xml:"Polys"`
	CellData       *vtkCellData `xml:"CellData,omitempty"`
}

type vtkPoints struct {
	DataArray vtkDataArray `xml:"DataArray"`
}

type vtkPolys struct {
	DataArray []vtkDataArray `xml:"DataArray"`
}

type vtkCellData struct {
	DataArray []vtkDataArray `xml:"DataArray"`
}

type vtkFieldData struct {
	DataArray []vtkDataArray `xml:"DataArray"`
}

type vtkDataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr,omitempty"`
	Format             string `xml:"format,attr"`
	CharData           string `xml:",chardata"`
}

// mesh is the flattened point/connectivity representation vtpio builds
// from a geom.Geometry before serializing, so the XML marshaling code
// never has to know about triangle-vs-disc primitive kinds.
type mesh struct {
	points       []vecmath.Vec3
	connectivity []int
	offsets      []int
}

func buildMesh(g *geom.Geometry) mesh {
	var m mesh
	offset := 0
	for id := 0; id < g.PrimitiveCount(); id++ {
		p := g.Primitive(geom.PrimId(id))
		switch p.Kind {
		case geom.KindTriangle:
			v0, v1, v2 := g.TriangleVertices(geom.PrimId(id))
			base := len(m.points)
			m.points = append(m.points, v0, v1, v2)
			m.connectivity = append(m.connectivity, base, base+1, base+2)
			offset += 3
		case geom.KindDisc:
			base := len(m.points)
			n := g.Normal(geom.PrimId(id))
			_, bTan, tTan := vecmath.OrthonormalBasis(n)
			for i := 0; i < discSides; i++ {
				theta := 2 * math.Pi * float64(i) / float64(discSides)
				offsetVec := bTan.Mul(p.Radius * float32(math.Cos(theta))).Add(tTan.Mul(p.Radius * float32(math.Sin(theta))))
				m.points = append(m.points, p.Center.Add(offsetVec))
				m.connectivity = append(m.connectivity, base+i)
			}
			offset += discSides
		}
		m.offsets = append(m.offsets, offset)
	}
	return m
}

func ascii(vals []float32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, " ")
}

func asciiF64(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func asciiU64(vals []uint64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, " ")
}

func asciiInt(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func writeVTKFile(path string, vf vtkFile) error {
	vf.XMLName = xml.Name{Local: "VTKFile"}
	vf.Type = "PolyData"
	vf.Version = "0.1"
	vf.ByteOrder = "LittleEndian"

	data, err := xml.MarshalIndent(vf, "", "  ")
	if err != nil {
		return fmt.Errorf("vtpio: marshaling %s: %w", path, err)
	}
	out := append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("vtpio: writing %s: %w", path, err)
	}
	return nil
}

func pointsDataArray(points []vecmath.Vec3) vtkDataArray {
	flat := make([]float32, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p[0], p[1], p[2])
	}
	return vtkDataArray{
		Type:               "Float32",
		NumberOfComponents: 3,
		Format:             "ascii",
		CharData:           ascii(flat),
	}
}

// WriteSurface writes the primary output file: the geometry surface with
// per-primitive deposited/exposed_area/hit_count scalar arrays and the
// run's global attributes (spec.md §6).
func WriteSurface(path string, g *geom.Geometry, r result.Result) error {
	m := buildMesh(g)

	vf := vtkFile{
		PolyData: vtkPolyData{
			Piece: vtkPiece{
				NumberOfPoints: len(m.points),
				NumberOfPolys:  g.PrimitiveCount(),
				Points:         vtkPoints{DataArray: pointsDataArray(m.points)},
				Polys: vtkPolys{DataArray: []vtkDataArray{
					{Type: "Int32", Name: "connectivity", Format: "ascii", CharData: asciiInt(m.connectivity)},
					{Type: "Int32", Name: "offsets", Format: "ascii", CharData: asciiInt(m.offsets)},
				}},
				CellData: &vtkCellData{DataArray: []vtkDataArray{
					{Type: "Float64", Name: "deposited", Format: "ascii", CharData: asciiF64(r.Deposited)},
					{Type: "Float64", Name: "exposed_area", Format: "ascii", CharData: asciiF64(r.ExposedArea)},
					{Type: "UInt64", Name: "hit_count", Format: "ascii", CharData: asciiU64(r.HitCount)},
				}},
			},
		},
		FieldData: &vtkFieldData{DataArray: []vtkDataArray{
			{Type: "String", Name: "RunID", Format: "ascii", CharData: r.RunID},
			{Type: "String", Name: "InputFile", Format: "ascii", CharData: r.InputFile},
			{Type: "Int32", Name: "RayCount", Format: "ascii", CharData: strconv.Itoa(r.RayCount)},
			{Type: "Int64", Name: "WallClockNanoseconds", Format: "ascii", CharData: strconv.FormatInt(r.WallClock.Nanoseconds(), 10)},
			{Type: "Int32", Name: "FallbackUsed", Format: "ascii", CharData: boolToArray(r.FallbackUsed)},
		}},
	}
	return writeVTKFile(path, vf)
}

func boolToArray(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// WriteBoundingBox writes the `.bounding-box.vtp` diagnostic: the
// boundary prism's twelve triangles with no cell data (spec.md §6).
func WriteBoundingBox(path string, vertices []vecmath.Vec3, prims []geom.Primitive) error {
	g := geom.NewGeometry(vertices, prims, 0)
	m := buildMesh(g)
	vf := vtkFile{
		PolyData: vtkPolyData{
			Piece: vtkPiece{
				NumberOfPoints: len(m.points),
				NumberOfPolys:  len(prims),
				Points:         vtkPoints{DataArray: pointsDataArray(m.points)},
				Polys: vtkPolys{DataArray: []vtkDataArray{
					{Type: "Int32", Name: "connectivity", Format: "ascii", CharData: asciiInt(m.connectivity)},
					{Type: "Int32", Name: "offsets", Format: "ascii", CharData: asciiInt(m.offsets)},
				}},
			},
		},
	}
	return writeVTKFile(path, vf)
}
