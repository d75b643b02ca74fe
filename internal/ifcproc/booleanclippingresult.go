package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessBooleanClippingResult resolves only FirstOperand and dispatches
// it recursively through ctx.Dispatch. The SecondOperand — the thing
// actually being subtracted, typically an IfcPolygonalBoundedHalfSpace
// or IfcExtrudedAreaSolid carving an opening — is currently ignored by
// the processor itself: void geometry at this repository's scope is
// resolved independently by the opening-element pass rather than by
// replaying each wall's own boolean tree, so reprocessing SecondOperand
// here would duplicate that work. A BooleanResult chain therefore
// degrades to "take the positive operand as-is", which is exact for the
// common two-level FirstOperand-is-solid / SecondOperand-is-void-shape
// shape and only loses fidelity on decorative boolean geometry that
// doesn't correspond to a registered opening.
func ProcessBooleanClippingResult(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	if ctx.Dispatch == nil {
		return nil, errNoDispatch
	}

	// Follow the FirstOperand chain iteratively, bounded so a file with
	// a boolean reference cycle cannot recurse without bound.
	cur := e
	for hops := 0; hops < maxOperandChainDepth; hops++ {
		firstRef, ok := cur.RefAt(1)
		if !ok {
			return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "BooleanClippingResult: missing FirstOperand")
		}
		base, err := dec.DecodeByID(firstRef)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeGeometryInvalid, "BooleanClippingResult: decode FirstOperand")
		}
		switch base.Type {
		case "IFCBOOLEANCLIPPINGRESULT", "IFCBOOLEANRESULT":
			cur = base
		case "IFCMAPPEDITEM":
			// a mapped item is not a solid operand; dispatching it here
			// can loop back into the boolean tree that contains it
			return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "BooleanClippingResult: MappedItem operand")
		default:
			return ctx.Dispatch(firstRef)
		}
	}
	return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "BooleanClippingResult: operand chain too deep")
}

// maxOperandChainDepth bounds FirstOperand chasing in case a malformed
// file contains a boolean reference cycle.
const maxOperandChainDepth = 50
