package meshio

import (
	"os"

	"github.com/gocarina/gocsv"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// discRow is one row of the CSV disc point cloud, tagged for gocsv the
// same way pthm-soup/telemetry's CSV records are (SPEC_FULL.md §4.5).
type discRow struct {
	X         float32 `csv:"x"`
	Y         float32 `csv:"y"`
	Z         float32 `csv:"z"`
	Radius    float32 `csv:"radius"`
	NX        float32 `csv:"nx"`
	NY        float32 `csv:"ny"`
	NZ        float32 `csv:"nz"`
	Sticking  float32 `csv:"sticking"`
	Relevant  bool    `csv:"relevant"`
}

// PointCloudReader reads the CSV disc point-cloud format
// (x,y,z,radius,nx,ny,nz,sticking,relevant), grounded in
// pthm-soup/telemetry/output.go's use of gocsv for structured tabular
// I/O (SPEC_FULL.md §4.5).
type PointCloudReader struct{}

func (PointCloudReader) Read(path string) ([]vecmath.Vec3, []geom.Primitive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, wrap("opening point cloud file", err)
	}
	defer f.Close()

	var rows []discRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, nil, wrap("parsing point cloud CSV", err)
	}
	if len(rows) == 0 {
		return nil, nil, wrap("parsing point cloud CSV", errEmptyPointCloud)
	}

	prims := make([]geom.Primitive, len(rows))
	for i, row := range rows {
		prims[i] = geom.Primitive{
			Kind:     geom.KindDisc,
			Center:   vecmath.Vec3{row.X, row.Y, row.Z},
			Radius:   row.Radius,
			Normal:   vecmath.Vec3{row.NX, row.NY, row.NZ},
			Sticking: row.Sticking,
			Relevant: row.Relevant,
		}
	}
	// Disc primitives carry their own centers; the shared vertex array is
	// unused for this format.
	return nil, prims, nil
}
