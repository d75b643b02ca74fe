package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// halfSpaceClipDepth bounds the otherwise-infinite half-space solid to a
// finite prism before triangulation. No real building element or
// opening in practice approaches this depth along a single clip
// direction, so it behaves as "infinite" for every input this pipeline
// sees while keeping the mesh bounded.
const halfSpaceClipDepth = 50.0

// ProcessPolygonalBoundedHalfSpace resolves the PolygonalBoundary curve
// in the item's own Position-local XY plane, then extrudes it along
// that frame's Z axis (flipped when AgreementFlag is false, matching
// IfcHalfSpaceSolid's "agreement with the surface's normal" semantics)
// to produce a finite bounding prism for the clipped region. The prism
// this emits is geometrically the same clip volume a
// BooleanClippingResult's SecondOperand would otherwise subtract (see
// the csg package's PrismPlanes, which builds the identical side/cap
// planes from a ring for the void engine's own subtraction path); this
// processor instead returns that volume as a standalone solid for
// direct IfcPolygonalBoundedHalfSpace representation items rather than
// performing the subtraction itself.
func ProcessPolygonalBoundedHalfSpace(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	posRef, ok := e.RefAt(2)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "PolygonalBoundedHalfSpace: missing Position")
	}
	boundaryRef, ok := e.RefAt(3)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "PolygonalBoundedHalfSpace: missing PolygonalBoundary")
	}
	localPts, err := resolveCurvePoints(boundaryRef, dec)
	if err != nil || len(localPts) < 3 {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "PolygonalBoundedHalfSpace: unresolvable PolygonalBoundary")
	}

	frame := resolveAxis2Placement3D(posRef, dec)
	worldPts := make([]geom.Vec3, len(localPts))
	for i, p := range localPts {
		worldPts[i] = frame.TransformPoint(p)
	}

	dir := frame.TransformNormal(geom.Vec3{Z: 1}).Normalize()
	if agree, ok := e.BoolAt(1); ok && !agree {
		dir = dir.Neg()
	}

	profile := geom.Profile{Outer: worldPts}
	return geom.Extrude(profile, dir, halfSpaceClipDepth), nil
}
