package csg

import "github.com/arx-os/ifcgeom/internal/geom"

// ConvexClipAndCollect subtracts the convex region bounded by planes
// (each inward-pointing, so the region is the intersection of their
// front half-spaces) from mesh m, returning only the part of m outside
// that region. This generalizes the six-plane box
// clip-and-collect to an arbitrary convex polyhedron: a rectangular
// opening supplies the box's six AABB planes, and a circular or other
// convex swept opening supplies its N side planes plus two end caps, so
// the same algorithm handles both without downgrading round holes to
// their bounding box.
//
// Per plane, in order: triangles entirely behind it are definitely
// outside the overall convex region (being outside any single
// half-space is enough) and go straight to the result; triangles
// entirely in front continue to the next plane; split triangles
// contribute their back fragment to the result and their front
// fragment to the next plane. Whatever is still in front after every
// plane is inside the opening and is discarded.
func ConvexClipAndCollect(m *geom.Mesh, planes []Plane) *geom.Mesh {
	type tri [3]geom.Vec3
	remaining := make([]tri, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		remaining = append(remaining, tri{a, b, c})
	}

	var result []tri
	for _, pl := range planes {
		next := make([]tri, 0, len(remaining))
		for _, tr := range remaining {
			front, back := ClipTriangleByPlane(tr[0], tr[1], tr[2], pl)
			for _, f := range front {
				next = append(next, tri(f))
			}
			for _, bk := range back {
				result = append(result, tri(bk))
			}
		}
		remaining = next
	}

	out := &geom.Mesh{}
	for _, tr := range result {
		n := faceNormal(tr)
		i0 := out.AddVertex(tr[0], &n)
		i1 := out.AddVertex(tr[1], &n)
		i2 := out.AddVertex(tr[2], &n)
		out.AddTriangle(i0, i1, i2)
	}
	return out
}

// BoxPlanesFor returns the six inward-pointing planes of box, for use
// with ConvexClipAndCollect in the rectangular-opening path.
func BoxPlanesFor(box AABB) []Plane {
	p := box.Planes()
	return p[:]
}

// PrismPlanes builds the side and cap planes of a convex prism swept
// along dir by depth from a convex 2D ring (already embedded in 3D at
// the base), for use with ConvexClipAndCollect in the non-rectangular
// (round or other convex profile) opening path. ring must wind CCW when
// viewed down -dir, matching the profile conventions used elsewhere in
// this module.
func PrismPlanes(ring []geom.Vec3, dir geom.Vec3, depth float64) []Plane {
	dir = dir.Normalize()
	if dir.LengthSq() < 1e-20 {
		dir = geom.Vec3{Z: 1}
	}
	n := len(ring)
	planes := make([]Plane, 0, n+2)
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		edge := b.Sub(a)
		outward := edge.Cross(dir)
		// Inward-pointing plane normal is the negation of the
		// outward-facing side normal.
		planes = append(planes, NewPlane(a, outward.Neg()))
	}
	base := centroidOf(ring)
	planes = append(planes, NewPlane(base, dir))
	planes = append(planes, NewPlane(base.Add(dir.Scale(depth)), dir.Neg()))
	return planes
}

func centroidOf(pts []geom.Vec3) geom.Vec3 {
	c := geom.Vec3{}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}
