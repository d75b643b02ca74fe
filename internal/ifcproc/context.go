// Package ifcproc holds the per-type geometry processors dispatched by
// the router: one file per IFC representation-item shape, each
// turning a decoded entity into a *geom.Mesh in the entity's own local
// units (unit scaling and placement are applied upstream by the
// router).
package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// DispatchFunc resolves an entity id to a mesh by re-entering the
// registry, used by processors that recurse into other representation
// items: MappedItem's MappedRepresentation, BooleanClippingResult's
// FirstOperand, the chase through BooleanClippingResult/MappedItem that
// the void engine performs to find an opening's extrusion direction.
type DispatchFunc func(id uint32) (*geom.Mesh, error)

// ProcessContext is threaded through every processor call. It carries
// no unit scale or placement — those are applied once, after items are
// merged, by the router — only what a processor needs
// to resolve nested geometry or honor per-run budgets.
type ProcessContext struct {
	Dispatch           DispatchFunc
	RevolutionSegments int // default 24, RevolvedAreaSolid
	SweptDiskSegments  int // default 12, SweptDiskSolid
	SurfaceUSegments   int // default 16, AdvancedBrep B-spline grid
	SurfaceVSegments   int
}

// DefaultContext returns a ProcessContext with the default
// tessellation constants and a dispatcher that always fails — callers
// that need recursive resolution (MappedItem, BooleanClippingResult)
// must supply their own Dispatch.
func DefaultContext() *ProcessContext {
	return &ProcessContext{
		RevolutionSegments: 24,
		SweptDiskSegments:  12,
		SurfaceUSegments:   16,
		SurfaceVSegments:   16,
		Dispatch: func(id uint32) (*geom.Mesh, error) {
			return nil, errNoDispatch
		},
	}
}

// Processor turns one decoded representation-item entity into a mesh.
type Processor interface {
	Process(entity *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error)
}

type processorFunc func(entity *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error)

func (f processorFunc) Process(e *step.Entity, d *step.Decoder, c *ProcessContext) (*geom.Mesh, error) {
	return f(e, d, c)
}
