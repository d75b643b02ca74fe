package csg

import "github.com/arx-os/ifcgeom/internal/geom"

// TriangleIntersectsAABB is a separating-axis test: a triangle
// and a box are disjoint iff some axis exists onto which their
// projections don't overlap. Tests 13 candidate axes — the box's 3 face
// normals, the triangle's own face normal, and the 9 cross products of
// each box edge with each triangle edge — skipping any axis whose
// magnitude is below 1e-10 (near-parallel edges produce a degenerate
// cross product that carries no separating information).
func TriangleIntersectsAABB(a, b, c geom.Vec3, box AABB) bool {
	center := box.Center()
	extents := box.Extents()
	ta, tb, tc := a.Sub(center), b.Sub(center), c.Sub(center)

	boxAxes := [3]geom.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
	triEdges := [3]geom.Vec3{tb.Sub(ta), tc.Sub(tb), ta.Sub(tc)}

	for _, axis := range boxAxes {
		if !overlapsOnAxis(axis, ta, tb, tc, extents) {
			return false
		}
	}

	triNormal := triEdges[0].Cross(triEdges[1])
	if triNormal.LengthSq() > 1e-20 {
		if !overlapsOnAxis(triNormal, ta, tb, tc, extents) {
			return false
		}
	}

	for _, be := range boxAxes {
		for _, te := range triEdges {
			axis := be.Cross(te)
			if axis.LengthSq() < 1e-20 {
				continue
			}
			if !overlapsOnAxis(axis, ta, tb, tc, extents) {
				return false
			}
		}
	}
	return true
}

// overlapsOnAxis projects the triangle (already centered on the box
// center) and the box's own radius onto axis, returning whether the two
// intervals overlap.
func overlapsOnAxis(axis geom.Vec3, ta, tb, tc, extents geom.Vec3) bool {
	pa, pb, pc := ta.Dot(axis), tb.Dot(axis), tc.Dot(axis)
	triMin, triMax := pa, pa
	if pb < triMin {
		triMin = pb
	}
	if pb > triMax {
		triMax = pb
	}
	if pc < triMin {
		triMin = pc
	}
	if pc > triMax {
		triMax = pc
	}

	boxRadius := extents.X*abs(axis.X) + extents.Y*abs(axis.Y) + extents.Z*abs(axis.Z)
	return triMin <= boxRadius+Epsilon && triMax >= -boxRadius-Epsilon
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// MeshIntersectsAABB reports whether any triangle of m fails the SAT
// disjointness test against box, i.e. whether the opening candidate's
// mesh genuinely overlaps the host's box rather than only sharing a
// loose bounding-box overlap (the refinement after the initial cheap
// AABB-vs-AABB overlap check).
func MeshIntersectsAABB(m *geom.Mesh, box AABB) bool {
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		if TriangleIntersectsAABB(a, b, c, box) {
			return true
		}
	}
	return false
}
