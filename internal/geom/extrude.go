package geom

import "math"

// Profile is a 2D-in-3D polygon (already embedded at some base plane): an
// outer boundary plus optional holes, shared by ExtrudedAreaSolid,
// RevolvedAreaSolid and PolygonalBoundedHalfSpace.
type Profile struct {
	Outer []Vec3
	Holes [][]Vec3
}

// TriangulateProfile triangulates p, preferring the fast paths and
// falling back to full ear-clipping with holes.
func TriangulateProfile(p Profile) (tris [][3]int, allPoints []Vec3) {
	if t, ok := TriangulateFastPath(p.Outer, len(p.Holes) > 0); ok {
		return t, append([]Vec3(nil), p.Outer...)
	}
	return TriangulateWithHoles(p.Outer, p.Holes)
}

// Extrude sweeps profile p along dir by depth, emitting a capped solid:
// a bottom cap (reversed winding, facing -dir), a top cap (facing +dir,
// at base+dir*depth), and side walls with one normal per quad strip.
// This is the shared kernel behind ExtrudedAreaSolid and
// PolygonalBoundedHalfSpace.
func Extrude(p Profile, dir Vec3, depth float64) *Mesh {
	mesh := &Mesh{}
	dir = dir.Normalize()
	if dir.LengthSq() < 1e-20 {
		dir = Vec3{0, 0, 1}
	}
	offset := dir.Scale(depth)

	tris, allPoints := TriangulateProfile(p)
	if len(tris) == 0 || len(allPoints) == 0 {
		return mesh
	}

	bottomNormal := dir.Neg()
	topNormal := dir

	bottomIdx := make([]uint32, len(allPoints))
	topIdx := make([]uint32, len(allPoints))
	for i, p3 := range allPoints {
		bottomIdx[i] = mesh.AddVertex(p3, &bottomNormal)
	}
	for i, p3 := range allPoints {
		topIdx[i] = mesh.AddVertex(p3.Add(offset), &topNormal)
	}
	for _, t := range tris {
		// Bottom cap: reverse winding so it faces -dir.
		mesh.AddTriangle(bottomIdx[t[0]], bottomIdx[t[2]], bottomIdx[t[1]])
		mesh.AddTriangle(topIdx[t[0]], topIdx[t[1]], topIdx[t[2]])
	}

	emitSideWalls(mesh, p.Outer, offset)
	for _, h := range p.Holes {
		emitSideWalls(mesh, reversedRing(h), offset)
	}
	return mesh
}

func reversedRing(ring []Vec3) []Vec3 {
	out := make([]Vec3, len(ring))
	n := len(ring)
	for i, p := range ring {
		out[n-1-i] = p
	}
	return out
}

// emitSideWalls extrudes a single closed ring into side-wall quads, one
// outward-facing normal per strip (computed per quad, not per vertex, so
// sharp edges stay sharp rather than smoothing across the extrusion).
func emitSideWalls(mesh *Mesh, ring []Vec3, offset Vec3) {
	n := len(ring)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		aTop := a.Add(offset)
		bTop := b.Add(offset)

		edge1 := b.Sub(a)
		edge2 := aTop.Sub(a)
		n3 := edge1.Cross(edge2).Normalize()

		ia := mesh.AddVertex(a, &n3)
		ib := mesh.AddVertex(b, &n3)
		ibt := mesh.AddVertex(bTop, &n3)
		iat := mesh.AddVertex(aTop, &n3)

		mesh.AddTriangle(ia, ib, ibt)
		mesh.AddTriangle(ia, ibt, iat)
	}
}

// Frame is a right-handed orthonormal local frame used to emit swept
// rings (SweptDiskSolid).
type Frame struct {
	Origin     Vec3
	Tangent    Vec3 // local Z, direction of travel
	Normal     Vec3 // local X
	Binormal   Vec3 // local Y
}

// BuildFrame constructs an orthonormal frame at origin with forward
// direction tangent, choosing a stable perpendicular reference the same
// way Axis2Placement3D derives Y = Z × X: pick any vector not parallel to tangent,
// cross it to get one axis, cross again to re-orthogonalize.
func BuildFrame(origin, tangent Vec3) Frame {
	t := tangent.Normalize()
	if t.LengthSq() < 1e-20 {
		t = Vec3{0, 0, 1}
	}
	ref := Vec3{0, 0, 1}
	if abs(t.Dot(ref)) > 0.99 {
		ref = Vec3{1, 0, 0}
	}
	x := ref.Cross(t).Normalize()
	y := t.Cross(x).Normalize()
	return Frame{Origin: origin, Tangent: t, Normal: x, Binormal: y}
}

// Ring emits n points of radius r around the frame's tangent axis,
// starting at Origin+Normal*r and proceeding right-handed about Tangent.
func (f Frame) Ring(r float64, n int) []Vec3 {
	pts := make([]Vec3, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		c, s := math.Cos(theta), math.Sin(theta)
		off := f.Normal.Scale(r * c).Add(f.Binormal.Scale(r * s))
		pts[i] = f.Origin.Add(off)
	}
	return pts
}

// SweepRings connects successive rings of equal point count with quads
// and, when capped is set, caps both ends with triangle fans from a
// central vertex — the shared kernel behind SweptDiskSolid,
// RevolvedAreaSolid and AdvancedBrep's cylindrical faces.
func SweepRings(rings [][]Vec3, capped bool) *Mesh {
	mesh := &Mesh{}
	if len(rings) < 2 {
		return mesh
	}
	n := len(rings[0])

	ringIdx := make([][]uint32, len(rings))
	for ri, ring := range rings {
		ringIdx[ri] = make([]uint32, n)
		for i, p := range ring {
			ringIdx[ri][i] = mesh.AddVertex(p, nil)
		}
	}
	for ri := 0; ri < len(rings)-1; ri++ {
		for i := 0; i < n; i++ {
			a := ringIdx[ri][i]
			b := ringIdx[ri][(i+1)%n]
			bNext := ringIdx[ri+1][(i+1)%n]
			aNext := ringIdx[ri+1][i]
			mesh.AddTriangle(a, b, bNext)
			mesh.AddTriangle(a, bNext, aNext)
		}
	}
	if capped {
		capRing(mesh, rings[0], ringIdx[0], true)
		capRing(mesh, rings[len(rings)-1], ringIdx[len(rings)-1], false)
	}
	ComputeSmoothNormals(mesh)
	return mesh
}

func capRing(mesh *Mesh, ring []Vec3, idx []uint32, start bool) {
	n := len(ring)
	if n < 3 {
		return
	}
	center := Vec3{}
	for _, p := range ring {
		center = center.Add(p)
	}
	center = center.Scale(1 / float64(n))
	centerIdx := mesh.AddVertex(center, nil)
	for i := 0; i < n; i++ {
		a := idx[i]
		b := idx[(i+1)%n]
		if start {
			mesh.AddTriangle(centerIdx, b, a)
		} else {
			mesh.AddTriangle(centerIdx, a, b)
		}
	}
}

// ComputeSmoothNormals derives per-vertex normals by averaging adjacent
// face normals, used where the kernel did not already assign a sharp
// per-face normal (e.g. swept-disk rings).
func ComputeSmoothNormals(mesh *Mesh) {
	n := mesh.VertexCount()
	acc := make([]Vec3, n)
	for t := 0; t < mesh.TriangleCount(); t++ {
		a, b, c := mesh.Triangle(t)
		fn := b.Sub(a).Cross(c.Sub(a))
		ia, ib, ic := mesh.Indices[t*3], mesh.Indices[t*3+1], mesh.Indices[t*3+2]
		acc[ia] = acc[ia].Add(fn)
		acc[ib] = acc[ib].Add(fn)
		acc[ic] = acc[ic].Add(fn)
	}
	mesh.Normals = make([]float32, n*3)
	for i, a := range acc {
		u := a.Normalize()
		mesh.Normals[i*3] = float32(u.X)
		mesh.Normals[i*3+1] = float32(u.Y)
		mesh.Normals[i*3+2] = float32(u.Z)
	}
}
