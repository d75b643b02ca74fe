package geom

// TriangulatePlanarFace triangulates a single flat polygon (with
// optional holes) into a mesh with one flat normal per face, shared by
// the BRep-style processors (FacetedBrep, FaceBasedSurfaceModel,
// ShellBasedSurfaceModel, AdvancedBrep's planar faces) that all reduce
// to "triangulate this loop, tag with the loop's own normal".
func TriangulatePlanarFace(outer []Vec3, holes [][]Vec3) *Mesh {
	mesh := &Mesh{}
	if len(outer) < 3 {
		return mesh
	}
	n := UnitNormal(outer)
	tris, allPoints := TriangulateProfile(Profile{Outer: outer, Holes: holes})
	idx := make([]uint32, len(allPoints))
	for i, p := range allPoints {
		idx[i] = mesh.AddVertex(p, &n)
	}
	for _, t := range tris {
		mesh.AddTriangle(idx[t[0]], idx[t[1]], idx[t[2]])
	}
	return mesh
}
