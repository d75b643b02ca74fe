package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessSweptDiskSolid extracts points along the directrix curve, builds
// a local frame at each sample (tangent from finite differences), emits a
// ring of Radius at each sample, and stitches successive rings into a
// capped tube.
func ProcessSweptDiskSolid(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	directrixRef, ok := e.RefAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "SweptDiskSolid: missing Directrix")
	}
	radius, ok := e.FloatAt(1)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "SweptDiskSolid: missing Radius")
	}

	samples, err := resolveCurvePoints(directrixRef, dec)
	if err != nil || len(samples) < 2 {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "SweptDiskSolid: unresolvable directrix")
	}

	segments := ctx.SweptDiskSegments
	if segments <= 0 {
		segments = 12
	}
	rings := make([][]geom.Vec3, len(samples))
	for i, p := range samples {
		tangent := tangentAt(samples, i)
		frame := geom.BuildFrame(p, tangent)
		rings[i] = frame.Ring(radius, segments)
	}
	return geom.SweepRings(rings, true), nil
}

// tangentAt estimates the directrix tangent at index i by central
// difference, falling back to a forward/backward difference at the
// endpoints.
func tangentAt(pts []geom.Vec3, i int) geom.Vec3 {
	switch {
	case i == 0:
		return pts[1].Sub(pts[0])
	case i == len(pts)-1:
		return pts[i].Sub(pts[i-1])
	default:
		return pts[i+1].Sub(pts[i-1])
	}
}
