// Package meshio implements the input-side reader collaborators spec.md
// §9 calls for ("inject the parsed vertex/primitive arrays" rather than
// preserving the source's singleton global reader). Two formats are
// supported: a JSON triangle mesh and a CSV disc point cloud, selected by
// the CLI's --triangles/--discs flags (SPEC_FULL.md §4.5).
package meshio

import (
	"errors"
	"fmt"

	"github.com/fluxtrace/fluxtrace/internal/geom"
	"github.com/fluxtrace/fluxtrace/internal/vecmath"
)

// ErrInputFormat wraps any parse/validation failure from a reader. The CLI
// maps this to the fluxerr.InputFormatError kind (spec.md §7).
var ErrInputFormat = errors.New("meshio: invalid input format")

var errEmptyPointCloud = errors.New("no rows")

// Reader produces the vertex/primitive arrays a geom.Geometry is built
// from. vertices is shared across all triangle primitives; disc
// primitives carry their own center in Primitive.Center and leave
// vertices unused.
type Reader interface {
	Read(path string) (vertices []vecmath.Vec3, prims []geom.Primitive, err error)
}

func wrap(context string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInputFormat, context, err)
}
