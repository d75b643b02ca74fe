package csg

import (
	"errors"

	"github.com/arx-os/ifcgeom/internal/geom"
)

// ErrDegenerate is returned by SubtractConvex when the opening's plane
// set cannot bound a solid region (fewer than 4 planes). Callers fold this into
// CodeCSGFailure and fall back to the pre-clip host mesh for that
// opening.
var ErrDegenerate = errors.New("csg: opening plane set is degenerate")

// SubtractBox removes the portion of host inside box, the
// rectangular-opening void path.
func SubtractBox(host *geom.Mesh, box AABB) *geom.Mesh {
	return ConvexClipAndCollect(host, BoxPlanesFor(box))
}

// SubtractConvex removes the portion of host inside the convex region
// bounded by planes — the polyhedral engine backing the
// non-rectangular path (round or other convex swept openings). There is
// no third-party CSG library anywhere in the reference corpus this
// module was built against (see DESIGN.md), so this generalizes the
// same inward-plane clip-and-collect already required for the
// rectangular case rather than reaching for exact boundary
// representations; it does not attempt exact-arithmetic CSG.
func SubtractConvex(host *geom.Mesh, planes []Plane) (*geom.Mesh, error) {
	if len(planes) < 4 {
		return nil, ErrDegenerate
	}
	return ConvexClipAndCollect(host, planes), nil
}
