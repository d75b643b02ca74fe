package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessFaceBasedSurfaceModel treats FbsmFaces as a list of connected
// face sets, each carrying its own CfsFaces — like FacetedBrep but with
// an extra list layer on top.
func ProcessFaceBasedSurfaceModel(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	return processFaceSetList(e, dec, 0)
}

// ProcessShellBasedSurfaceModel treats SbsmBoundary as a list of shells
// (open or closed), each carrying CfsFaces directly.
func ProcessShellBasedSurfaceModel(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	return processFaceSetList(e, dec, 0)
}

func processFaceSetList(e *step.Entity, dec *step.Decoder, attrIndex int) (*geom.Mesh, error) {
	refs, ok := e.ListAt(attrIndex)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "surface model: missing face-set/shell list")
	}
	mesh := &geom.Mesh{}
	for _, r := range refs {
		if r.Kind != step.AttrRef {
			continue
		}
		shellMesh, err := processShell(r.Ref, dec)
		if err != nil {
			continue
		}
		geom.Merge(mesh, shellMesh)
	}
	return mesh, nil
}
