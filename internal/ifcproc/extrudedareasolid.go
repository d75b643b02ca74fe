package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessExtrudedAreaSolid resolves the swept area to a profile, reads
// the direction and depth, and extrudes.
func ProcessExtrudedAreaSolid(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	profileRef, ok := e.RefAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "ExtrudedAreaSolid: missing SweptArea")
	}
	profile, err := resolveProfile(profileRef, dec)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeGeometryInvalid, "ExtrudedAreaSolid: resolve profile")
	}

	dirRef, ok := e.RefAt(2)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "ExtrudedAreaSolid: missing ExtrudedDirection")
	}
	dir := resolveDirection(dirRef, dec)

	depth, ok := e.FloatAt(3)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "ExtrudedAreaSolid: missing Depth")
	}

	mesh := geom.Extrude(profile, dir, depth)
	if posRef, ok := e.RefAt(1); ok {
		mat := resolveAxis2Placement3D(posRef, dec)
		geom.ApplyTransform(mesh, &mat)
	}
	return mesh, nil
}
