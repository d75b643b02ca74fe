package csg

import "github.com/arx-os/ifcgeom/internal/geom"

// ClipTriangleByPlane splits triangle (a,b,c) against pl, returning the
// fragment(s) on the front side (SignedDistance >= -Epsilon) and the
// fragment(s) on the back side, each as a list of triangles so callers
// never have to deal with quads. The case table:
// all-front and all-back return the triangle unchanged on one side; the
// two split cases (1-front/2-back and 2-front/1-back) each produce one
// triangle on the smaller side and two on the larger, via linear
// interpolation at the two crossed edges.
func ClipTriangleByPlane(a, b, c geom.Vec3, pl Plane) (front, back [][3]geom.Vec3) {
	da, db, dc := pl.SignedDistance(a), pl.SignedDistance(b), pl.SignedDistance(c)
	fa, fb, fc := da >= -Epsilon, db >= -Epsilon, dc >= -Epsilon

	switch {
	case fa && fb && fc:
		return [][3]geom.Vec3{{a, b, c}}, nil
	case !fa && !fb && !fc:
		return nil, [][3]geom.Vec3{{a, b, c}}
	}

	// Rotate (a,b,c,da,db,dc,fa,fb,fc) so the case analysis only has to
	// handle "vertex 0 differs from 1 and 2" and "vertex 0 agrees with
	// exactly one of 1/2", i.e. always start from a canonical vertex 0.
	verts := [3]geom.Vec3{a, b, c}
	dist := [3]float64{da, db, dc}
	inFront := [3]bool{fa, fb, fc}

	frontCount := 0
	for _, v := range inFront {
		if v {
			frontCount++
		}
	}

	if frontCount == 1 {
		i := soleIndex(inFront, true)
		j, k := (i+1)%3, (i+2)%3
		pj := lerpCross(verts[i], verts[j], dist[i], dist[j])
		pk := lerpCross(verts[i], verts[k], dist[i], dist[k])
		front = [][3]geom.Vec3{{verts[i], pj, pk}}
		back = [][3]geom.Vec3{{verts[j], verts[k], pk}, {verts[j], pk, pj}}
		return front, back
	}

	// frontCount == 2
	i := soleIndex(inFront, false)
	j, k := (i+1)%3, (i+2)%3
	pj := lerpCross(verts[i], verts[j], dist[i], dist[j])
	pk := lerpCross(verts[i], verts[k], dist[i], dist[k])
	back = [][3]geom.Vec3{{verts[i], pj, pk}}
	front = [][3]geom.Vec3{{verts[j], verts[k], pk}, {verts[j], pk, pj}}
	return front, back
}

func soleIndex(flags [3]bool, want bool) int {
	for i, f := range flags {
		if f == want {
			return i
		}
	}
	return 0
}

// lerpCross interpolates the plane crossing between two vertices given
// their signed distances: t = d_front/(d_front-d_back).
func lerpCross(p, q geom.Vec3, dp, dq float64) geom.Vec3 {
	denom := dp - dq
	if denom == 0 {
		return p
	}
	t := dp / denom
	return geom.Lerp(p, q, t)
}

// ClipMesh keeps the triangles (and split fragments) of m on the front
// side of pl if keepFront, otherwise the back side. This is the generic
// clipping processor, used both directly (BooleanClippingResult
// against a half-space) and as a building block for ConvexClipAndCollect.
func ClipMesh(m *geom.Mesh, pl Plane, keepFront bool) *geom.Mesh {
	out := &geom.Mesh{}
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		front, back := ClipTriangleByPlane(a, b, c, pl)
		kept := back
		if keepFront {
			kept = front
		}
		for _, tri := range kept {
			n := faceNormal(tri)
			i0 := out.AddVertex(tri[0], &n)
			i1 := out.AddVertex(tri[1], &n)
			i2 := out.AddVertex(tri[2], &n)
			out.AddTriangle(i0, i1, i2)
		}
	}
	return out
}

func faceNormal(tri [3]geom.Vec3) geom.Vec3 {
	return tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])).Normalize()
}
