package ifcproc

import (
	stderrors "errors"

	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// errUnresolvableProfile covers any profile-curve shape this package
// does not know how to walk (missing attribute, unsupported curve
// type); always wrapped as CodeGeometryInvalid before reaching a
// caller.
var errUnresolvableProfile = stderrors.New("ifcproc: unresolvable profile curve")

// resolveProfile decodes an IfcProfileDef subtype into a geom.Profile in
// the profile's own local 2D-in-3D plane (z=0), shared by
// ExtrudedAreaSolid and RevolvedAreaSolid.
func resolveProfile(profileRef uint32, dec *step.Decoder) (geom.Profile, error) {
	e, err := dec.DecodeByID(profileRef)
	if err != nil {
		return geom.Profile{}, errors.Wrap(err, errors.CodeGeometryInvalid, "decode profile")
	}
	switch e.Type {
	case "IFCRECTANGLEPROFILEDEF":
		xdim, _ := e.FloatAt(3)
		ydim, _ := e.FloatAt(4)
		return geom.RectangleProfile(xdim, ydim), nil
	case "IFCCIRCLEPROFILEDEF":
		radius, _ := e.FloatAt(3)
		return geom.CircleProfile(radius, 32), nil
	case "IFCARBITRARYCLOSEDPROFILEDEF":
		curveRef, ok := e.RefAt(2)
		if !ok {
			return geom.Profile{}, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "missing outer curve")
		}
		pts, err := resolveCurvePoints(curveRef, dec)
		if err != nil {
			return geom.Profile{}, err
		}
		return geom.Profile{Outer: pts}, nil
	case "IFCARBITRARYPROFILEDEFWITHVOIDS":
		curveRef, ok := e.RefAt(2)
		if !ok {
			return geom.Profile{}, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "missing outer curve")
		}
		outer, err := resolveCurvePoints(curveRef, dec)
		if err != nil {
			return geom.Profile{}, err
		}
		var holes [][]geom.Vec3
		innerRefs, _ := e.ListAt(3)
		for _, attr := range innerRefs {
			if attr.Kind != step.AttrRef {
				continue
			}
			h, err := resolveCurvePoints(attr.Ref, dec)
			if err == nil {
				holes = append(holes, h)
			}
		}
		return geom.Profile{Outer: outer, Holes: holes}, nil
	default:
		return geom.Profile{}, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "unsupported profile type: "+e.Type)
	}
}

// resolveCurvePoints resolves an IfcPolyline's (or IfcPolyLoop's, reused
// for closed curves) point list to world-space-free local coordinates.
func resolveCurvePoints(curveRef uint32, dec *step.Decoder) ([]geom.Vec3, error) {
	if pts, ok := dec.GetPolyLoopCoordsCached(curveRef); ok {
		out := make([]geom.Vec3, len(pts))
		for i, p := range pts {
			out[i] = geom.Vec3{X: p[0], Y: p[1], Z: p[2]}
		}
		return out, nil
	}
	refs, ok := dec.GetEntityRefListFast(curveRef)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "unresolvable curve")
	}
	out := make([]geom.Vec3, 0, len(refs))
	for _, r := range refs {
		x, y, z, ok := dec.GetCartesianPointFast(r)
		if !ok {
			continue
		}
		out = append(out, geom.Vec3{X: x, Y: y, Z: z})
	}
	return out, nil
}

// directionFromEntity resolves an IfcDirection entity's ratio list to a
// Vec3, defaulting missing components to 0.
func directionFromEntity(e *step.Entity) geom.Vec3 {
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

func resolveDirection(ref uint32, dec *step.Decoder) geom.Vec3 {
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return geom.Vec3{}
	}
	return directionFromEntity(e)
}

// ResolveProfile exposes resolveProfile for the void engine's opening
// classification, which needs an opening's own profile
// ring to build CSG prism planes rather than a triangulated mesh.
func ResolveProfile(profileRef uint32, dec *step.Decoder) (geom.Profile, error) {
	return resolveProfile(profileRef, dec)
}

// ResolveDirection exposes resolveDirection for the void engine's
// extrusion-direction chase.
func ResolveDirection(ref uint32, dec *step.Decoder) geom.Vec3 {
	return resolveDirection(ref, dec)
}

func resolvePoint(ref uint32, dec *step.Decoder) geom.Vec3 {
	x, y, z, ok := dec.GetCartesianPointFast(ref)
	if !ok {
		return geom.Vec3{}
	}
	return geom.Vec3{X: x, Y: y, Z: z}
}
