package vtpio

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// RayLogEntry is one trajectory's bounce polyline, recorded by
// tracer.Diagnostics when LogRays is set (SPEC_FULL.md §4.9).
type RayLogEntry struct {
	Points []vecmath.Vec3
}

// SourceLogEntry is one phase-3 source sample, recorded by
// tracer.Diagnostics when LogSources is set (SPEC_FULL.md §4.9).
type SourceLogEntry struct {
	Origin vecmath.Vec3
	Weight float64
}

type vtkLines struct {
	DataArray []vtkDataArray `xml:"DataArray"`
}

type vtkVerts struct {
	DataArray []vtkDataArray `xml:"DataArray"`
}

type vtkLinePiece struct {
	NumberOfPoints int       `xml:"NumberOfPoints,attr"`
	NumberOfLines  int       `xml:"NumberOfLines,attr"`
	Points         vtkPoints `xml:"Points"`
	Lines          vtkLines  `xml:"Lines"`
}

type vtkLinePolyData struct {
	Piece vtkLinePiece `xml:"Piece"`
}

type vtkLineFile struct {
	XMLName   xml.Name        `xml:"VTKFile"`
	Type      string          `xml:"type,attr"`
	Version   string          `xml:"version,attr"`
	ByteOrder string          `xml:"byte_order,attr"`
	PolyData  vtkLinePolyData `xml:"PolyData"`
}

// WriteRayLog writes the `.ray-log.vtp` diagnostic: one polyline per
// logged trajectory, its bounce points in order.
func WriteRayLog(path string, entries []RayLogEntry) error {
	var points []vecmath.Vec3
	var connectivity, offsets []int
	for _, e := range entries {
		base := len(points)
		points = append(points, e.Points...)
		for i := range e.Points {
			connectivity = append(connectivity, base+i)
		}
		offsets = append(offsets, len(connectivity))
	}

	vf := vtkLineFile{
		Type:      "PolyData",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		PolyData: vtkLinePolyData{
			Piece: vtkLinePiece{
				NumberOfPoints: len(points),
				NumberOfLines:  len(entries),
				Points:         vtkPoints{DataArray: pointsDataArray(points)},
				Lines: vtkLines{DataArray: []vtkDataArray{
					{Type: "Int32", Name: "connectivity", Format: "ascii", CharData: asciiInt(connectivity)},
					{Type: "Int32", Name: "offsets", Format: "ascii", CharData: asciiInt(offsets)},
				}},
			},
		},
	}
	return writeLineFile(path, vf)
}

type vtkVertPiece struct {
	NumberOfPoints int          `xml:"NumberOfPoints,attr"`
	NumberOfVerts  int          `xml:"NumberOfVerts,attr"`
	Points         vtkPoints    `xml:"Points"`
	Verts          vtkVerts     `xml:"Verts"`
	PointData      *vtkCellData `xml:"PointData,omitempty"`
}

type vtkVertPolyData struct {
	Piece vtkVertPiece `xml:"Piece"`
}

type vtkVertFile struct {
	XMLName   xml.Name        `xml:"VTKFile"`
	Type      string          `xml:"type,attr"`
	Version   string          `xml:"version,attr"`
	ByteOrder string          `xml:"byte_order,attr"`
	PolyData  vtkVertPolyData `xml:"PolyData"`
}

// WriteSourceLog writes the `.ray-src-log.vtp` diagnostic: one vertex per
// logged phase-3 source sample, with its importance weight as point data.
func WriteSourceLog(path string, entries []SourceLogEntry) error {
	points := make([]vecmath.Vec3, len(entries))
	weights := make([]float64, len(entries))
	connectivity := make([]int, len(entries))
	offsets := make([]int, len(entries))
	for i, e := range entries {
		points[i] = e.Origin
		weights[i] = e.Weight
		connectivity[i] = i
		offsets[i] = i + 1
	}

	vf := vtkVertFile{
		Type:      "PolyData",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		PolyData: vtkVertPolyData{
			Piece: vtkVertPiece{
				NumberOfPoints: len(points),
				NumberOfVerts:  len(points),
				Points:         vtkPoints{DataArray: pointsDataArray(points)},
				Verts: vtkVerts{DataArray: []vtkDataArray{
					{Type: "Int32", Name: "connectivity", Format: "ascii", CharData: asciiInt(connectivity)},
					{Type: "Int32", Name: "offsets", Format: "ascii", CharData: asciiInt(offsets)},
				}},
				PointData: &vtkCellData{DataArray: []vtkDataArray{
					{Type: "Float64", Name: "weight", Format: "ascii", CharData: asciiF64(weights)},
				}},
			},
		},
	}
	return writeVertFile(path, vf)
}

func writeLineFile(path string, vf vtkLineFile) error {
	vf.XMLName = xml.Name{Local: "VTKFile"}
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

func writeVertFile(path string, vf vtkVertFile) error {
	vf.XMLName = xml.Name{Local: "VTKFile"}
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
