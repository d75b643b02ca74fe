package ifcproc

import (
	"errors"

	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

var errNoDispatch = errors.New("ifcproc: no dispatcher configured for recursive resolution")

// ErrUnsupportedType is returned by Dispatch when no processor is
// registered for an entity's IFC type; the router treats this the same
// as any other GeometryError — skip the item, keep going.
var ErrUnsupportedType = errors.New("ifcproc: unsupported representation item type")

// Registry is the geometry dispatcher: processors are keyed by the
// entity's IFC type and looked up by exact match on the identifier.
type Registry struct {
	byType map[string]Processor
}

// NewRegistry builds the registry with every supported processor
// wired in.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]Processor, 16)}
	r.Register("IFCEXTRUDEDAREASOLID", processorFunc(ProcessExtrudedAreaSolid))
	r.Register("IFCTRIANGULATEDFACESET", processorFunc(ProcessTriangulatedFaceSet))
	r.Register("IFCFACETEDBREP", processorFunc(ProcessFacetedBrep))
	r.Register("IFCSWEPTDISKSOLID", processorFunc(ProcessSweptDiskSolid))
	r.Register("IFCREVOLVEDAREASOLID", processorFunc(ProcessRevolvedAreaSolid))
	r.Register("IFCADVANCEDBREP", processorFunc(ProcessAdvancedBrep))
	r.Register("IFCMAPPEDITEM", processorFunc(ProcessMappedItem))
	r.Register("IFCBOOLEANCLIPPINGRESULT", processorFunc(ProcessBooleanClippingResult))
	r.Register("IFCBOOLEANRESULT", processorFunc(ProcessBooleanClippingResult))
	r.Register("IFCFACEBASEDSURFACEMODEL", processorFunc(ProcessFaceBasedSurfaceModel))
	r.Register("IFCSHELLBASEDSURFACEMODEL", processorFunc(ProcessShellBasedSurfaceModel))
	r.Register("IFCPOLYGONALBOUNDEDHALFSPACE", processorFunc(ProcessPolygonalBoundedHalfSpace))
	return r
}

// Register binds a processor to an IFC type name. Type names are
// compared upper-cased, matching the scanner's case-tolerant header
// parse ("#45=IFCWALL(...)" and "#45 = IfcWall(...)" are
// equivalent).
func (r *Registry) Register(typeName string, p Processor) {
	r.byType[typeName] = p
}

// Supports reports whether typeName has a registered processor.
func (r *Registry) Supports(typeName string) bool {
	_, ok := r.byType[typeName]
	return ok
}

// Dispatch decodes id and routes it to the processor registered for
// its type, returning ErrUnsupportedType if none matches.
func (r *Registry) Dispatch(id uint32, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	e, err := dec.DecodeByID(id)
	if err != nil {
		return nil, err
	}
	return r.DispatchEntity(e, dec, ctx)
}

// DispatchEntity routes an already-decoded entity to its processor.
func (r *Registry) DispatchEntity(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	p, ok := r.byType[e.Type]
	if !ok {
		return nil, ErrUnsupportedType
	}
	return p.Process(e, dec, ctx)
}

// BindDispatch returns a DispatchFunc closed over r, dec and ctx's
// tessellation settings, for processors (MappedItem,
// BooleanClippingResult) that must recurse into another item.
func (r *Registry) BindDispatch(dec *step.Decoder, ctx *ProcessContext) DispatchFunc {
	return func(id uint32) (*geom.Mesh, error) {
		return r.Dispatch(id, dec, ctx)
	}
}
