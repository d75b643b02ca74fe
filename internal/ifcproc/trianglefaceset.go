package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessTriangulatedFaceSet reads the CartesianPointList3D, converts
// 1-based coordinate indices to 0-based, and emits positions and
// indices directly — no triangulation work since the source data
// is already triangulated.
func ProcessTriangulatedFaceSet(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	coordsRef, ok := e.RefAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "TriangulatedFaceSet: missing Coordinates")
	}
	coordsEntity, err := dec.DecodeByID(coordsRef)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeGeometryInvalid, "TriangulatedFaceSet: decode Coordinates")
	}
	pointLists, ok := coordsEntity.ListAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "TriangulatedFaceSet: malformed CartesianPointList3D")
	}

	mesh := &geom.Mesh{}
	for _, pl := range pointLists {
		if pl.Kind != step.AttrList || len(pl.List) < 2 {
			continue
		}
		x, _ := pl.List[0].AsFloat()
		y, _ := pl.List[1].AsFloat()
		var z float64
		if len(pl.List) > 2 {
			z, _ = pl.List[2].AsFloat()
		}
		mesh.AddVertex(geom.Vec3{X: x, Y: y, Z: z}, nil)
	}

	coordIndex, ok := e.ListAt(3)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "TriangulatedFaceSet: missing CoordIndex")
	}
	vcount := uint32(mesh.VertexCount())
	for _, tri := range coordIndex {
		if tri.Kind != step.AttrList || len(tri.List) != 3 {
			continue
		}
		i0, ok0 := tri.List[0].AsFloat()
		i1, ok1 := tri.List[1].AsFloat()
		i2, ok2 := tri.List[2].AsFloat()
		if !ok0 || !ok1 || !ok2 {
			continue
		}
		a, b, c := uint32(i0)-1, uint32(i1)-1, uint32(i2)-1
		if a >= vcount || b >= vcount || c >= vcount {
			continue
		}
		mesh.AddTriangle(a, b, c)
	}
	geom.ComputeSmoothNormals(mesh)
	return mesh, nil
}
