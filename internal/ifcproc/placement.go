package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// resolveAxis2Placement3D decodes an IfcAxis2Placement3D (Location,
// Axis, RefDirection) into its rigid transform, reused here
// for an ExtrudedAreaSolid/RevolvedAreaSolid item's own Position
// attribute (distinct from the element-level placement hierarchy the
// router composes separately). A null ref yields the identity.
func resolveAxis2Placement3D(ref uint32, dec *step.Decoder) geom.Mat4 {
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return geom.Identity()
	}
	location := resolvePoint(mustRef(e, 0), dec)
	var axis, refDir geom.Vec3
	var hasAxis, hasRef bool
	if r, ok := e.RefAt(1); ok {
		axis = resolveDirection(r, dec)
		hasAxis = true
	}
	if r, ok := e.RefAt(2); ok {
		refDir = resolveDirection(r, dec)
		hasRef = true
	}
	return geom.Axis2Placement3DMatrix(location, axis, refDir, hasAxis, hasRef)
}

// ResolveAxis2Placement3D exposes resolveAxis2Placement3D for the void
// engine's extrusion-direction chase, which needs an
// ExtrudedAreaSolid's own Position the same way ProcessExtrudedAreaSolid
// does.
func ResolveAxis2Placement3D(ref uint32, dec *step.Decoder) geom.Mat4 {
	return resolveAxis2Placement3D(ref, dec)
}

func mustRef(e *step.Entity, i int) uint32 {
	r, _ := e.RefAt(i)
	return r
}
