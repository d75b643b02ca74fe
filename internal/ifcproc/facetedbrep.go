package ifcproc

import (
	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessFacetedBrep iterates shell faces; for each face, iterates
// bounds, distinguishes outer from inner (holes), reverses the loop if
// orientation is false, and triangulates. This is the
// non-batched path; the BRep batching preprocess pass produces the
// same result for many BReps at once and installs it into the router's
// FacetedBrep cache, bypassing this function on a batch hit.
func ProcessFacetedBrep(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	shellRef, ok := e.RefAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "FacetedBrep: missing Outer shell")
	}
	return processShell(shellRef, dec)
}

// processShell triangulates every face of an IfcClosedShell/IfcOpenShell,
// shared by FacetedBrep and the face-set/shell-based surface models.
func processShell(shellRef uint32, dec *step.Decoder) (*geom.Mesh, error) {
	faceRefs, ok := dec.GetEntityRefListFast(shellRef)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "shell: unresolvable CfsFaces")
	}
	mesh := &geom.Mesh{}
	for _, faceRef := range faceRefs {
		faceMesh, err := processFace(faceRef, dec)
		if err != nil {
			continue // GeometryError on one face: skip it, the rest of the shell still renders
		}
		geom.Merge(mesh, faceMesh)
	}
	return mesh, nil
}

// processFace resolves an IfcFace's bounds into an outer loop and any
// holes, applying each bound's orientation flag, then triangulates.
func processFace(faceRef uint32, dec *step.Decoder) (*geom.Mesh, error) {
	outer, holes, err := ExtractFaceLoops(faceRef, dec)
	if err != nil {
		return nil, err
	}
	return geom.TriangulatePlanarFace(outer, holes), nil
}

// ExtractFaceLoops resolves an IfcFace's bounds into an outer loop and
// any holes, applying each bound's orientation flag, without
// triangulating. Split out from processFace so the router's BRep
// batching preprocess pass can run this extraction step sequentially
// and hand the resulting polygons to a single parallel triangulation
// batch across every face of every FacetedBrep in the file.
func ExtractFaceLoops(faceRef uint32, dec *step.Decoder) (outer []geom.Vec3, holes [][]geom.Vec3, err error) {
	boundRefs, ok := dec.GetEntityRefListFast(faceRef)
	if !ok {
		return nil, nil, errUnresolvableProfile
	}
	for _, boundRef := range boundRefs {
		loopID, orientation, isOuter, ok := dec.GetFaceBoundFast(boundRef)
		if !ok {
			continue
		}
		pts, ok := dec.GetPolyLoopCoordsCached(loopID)
		if !ok {
			continue
		}
		loop := toVec3Slice(pts)
		if !orientation {
			loop = reverseVec3(loop)
		}
		if isOuter || outer == nil {
			outer = loop
		} else {
			holes = append(holes, loop)
		}
	}
	if len(outer) < 3 {
		return nil, nil, errUnresolvableProfile
	}
	return outer, holes, nil
}

func toVec3Slice(pts [][3]float64) []geom.Vec3 {
	out := make([]geom.Vec3, len(pts))
	for i, p := range pts {
		out[i] = geom.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

func reverseVec3(v []geom.Vec3) []geom.Vec3 {
	out := make([]geom.Vec3, len(v))
	n := len(v)
	for i, p := range v {
		out[n-1-i] = p
	}
	return out
}
