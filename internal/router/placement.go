package router

import (
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// maxPlacementDepth bounds LocalPlacement parent-chain recursion in
// case a malformed file contains a placement cycle.
const maxPlacementDepth = 50

// ResolvePlacement composes an IfcLocalPlacement's full world transform
// by recursively composing parent × local. A null placement
// ref or a chain deeper than maxPlacementDepth yields the identity at
// that point rather than failing the whole element.
func ResolvePlacement(placementRef uint32, dec *step.Decoder) geom.Mat4 {
	return resolvePlacementDepth(placementRef, dec, 0)
}

// ScaledPlacement composes placementRef's full world transform via
// ResolvePlacement and scales its translation column to model units.
// Exposed so the void engine can resolve an opening's own placement
// the same way the router resolves any element's.
func ScaledPlacement(placementRef uint32, dec *step.Decoder, unitScale float64) geom.Mat4 {
	mat := ResolvePlacement(placementRef, dec)
	return mat.WithTranslation(mat.Translation().Scale(unitScale))
}

func resolvePlacementDepth(placementRef uint32, dec *step.Decoder, depth int) geom.Mat4 {
	if placementRef == 0 || depth >= maxPlacementDepth {
		return geom.Identity()
	}
	e, err := dec.DecodeByID(placementRef)
	if err != nil {
		return geom.Identity()
	}

	parent := geom.Identity()
	if parentRef, ok := e.RefAt(0); ok {
		parent = resolvePlacementDepth(parentRef, dec, depth+1)
	}

	local := geom.Identity()
	if relRef, ok := e.RefAt(1); ok {
		local = resolveRelativePlacement(relRef, dec)
	}
	return parent.Mul(local)
}

// resolveRelativePlacement decodes an IfcAxis2Placement3D's Location,
// Axis and RefDirection into the column-major rigid transform of
// defaulting Z to (0,0,1) and X to (1,0,0) when absent.
func resolveRelativePlacement(ref uint32, dec *step.Decoder) geom.Mat4 {
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return geom.Identity()
	}
	locRef, hasLoc := e.RefAt(0)
	location := geom.Vec3{}
	if hasLoc {
		location = pointAt(locRef, dec)
	}
	var axis, refDir geom.Vec3
	var hasAxis, hasRef bool
	if r, ok := e.RefAt(1); ok {
		axis = directionAt(r, dec)
		hasAxis = true
	}
	if r, ok := e.RefAt(2); ok {
		refDir = directionAt(r, dec)
		hasRef = true
	}
	return geom.Axis2Placement3DMatrix(location, axis, refDir, hasAxis, hasRef)
}

func pointAt(ref uint32, dec *step.Decoder) geom.Vec3 {
	x, y, z, ok := dec.GetCartesianPointFast(ref)
	if !ok {
		return geom.Vec3{}
	}
	return geom.Vec3{X: x, Y: y, Z: z}
}

func directionAt(ref uint32, dec *step.Decoder) geom.Vec3 {
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return geom.Vec3{}
	}
	ratios, ok := e.ListAt(0)
	if !ok {
		return geom.Vec3{}
	}
	var v geom.Vec3
	if len(ratios) > 0 {
		v.X, _ = ratios[0].AsFloat()
	}
	if len(ratios) > 1 {
		v.Y, _ = ratios[1].AsFloat()
	}
	if len(ratios) > 2 {
		v.Z, _ = ratios[2].AsFloat()
	}
	return v
}
