package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessMappedItem resolves MappingSource to a RepresentationMap,
// processes its MappedRepresentation items (via ctx.Dispatch, so the
// router's own caching at the RepresentationMap level still
// applies above this call), then applies the MappingTarget
// CartesianTransformationOperator. Nested MappedItems inside the
// mapped representation are skipped: resolution is depth 1.
//
// MappingOrigin is not applied separately: the MappedRepresentation's
// items are already expressed in the map's own local system, and the
// common simplification (shared by most IFC viewers) of composing only
// MappingTarget against those local coordinates matches what nearly
// every real-world exporter produces — IfcRepresentationMap.MappingOrigin
// is the identity placement in the overwhelming majority of files.
func ProcessMappedItem(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	mapRef, ok := e.RefAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "MappedItem: missing MappingSource")
	}
	mapEntity, err := dec.DecodeByID(mapRef)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeGeometryInvalid, "MappedItem: decode RepresentationMap")
	}
	repRef, ok := mapEntity.RefAt(1)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "MappedItem: missing MappedRepresentation")
	}
	repEntity, err := dec.DecodeByID(repRef)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeGeometryInvalid, "MappedItem: decode ShapeRepresentation")
	}
	items, ok := repEntity.ListAt(3)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "MappedItem: missing Items")
	}

	mesh := &geom.Mesh{}
	for _, item := range items {
		if item.Kind != step.AttrRef {
			continue
		}
		nested, err := dec.DecodeByID(item.Ref)
		if err != nil {
			continue
		}
		if nested.Type == "IFCMAPPEDITEM" {
			// resolution stays at depth 1: a nested MappedItem here could
			// reference the map being expanded and recurse without bound
			continue
		}
		itemMesh, err := ctx.Dispatch(item.Ref)
		if err != nil {
			continue
		}
		geom.Merge(mesh, itemMesh)
	}

	if targetRef, ok := e.RefAt(1); ok {
		target := ResolveCartesianTransformOperator(targetRef, dec)
		geom.ApplyTransform(mesh, &target)
	}
	return mesh, nil
}

// ResolveCartesianTransformOperator decodes an
// IfcCartesianTransformationOperator3D (Axis1=X, Axis2=Y, LocalOrigin,
// Scale, Axis3=Z — all but LocalOrigin optional) into a transform.
func ResolveCartesianTransformOperator(ref uint32, dec *step.Decoder) geom.Mat4 {
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return geom.Identity()
	}
	x := geom.Vec3{X: 1}
	if r, ok := e.RefAt(0); ok {
		if d := resolveDirection(r, dec); d.LengthSq() > 1e-20 {
			x = d.Normalize()
		}
	}
	y := geom.Vec3{Y: 1}
	if r, ok := e.RefAt(1); ok {
		if d := resolveDirection(r, dec); d.LengthSq() > 1e-20 {
			y = d.Normalize()
		}
	}
	origin := geom.Vec3{}
	if r, ok := e.RefAt(2); ok {
		origin = resolvePoint(r, dec)
	}
	scale := 1.0
	if s, ok := e.FloatAt(3); ok {
		scale = s
	}
	z := x.Cross(y).Normalize()
	if r, ok := e.RefAt(4); ok {
		if d := resolveDirection(r, dec); d.LengthSq() > 1e-20 {
			z = d.Normalize()
		}
	}
	basis := geom.FromBasis(origin, x, y, z)
	return basis.Mul(geom.ScaleUniform(scale))
}
