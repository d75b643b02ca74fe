// Package geom holds the primitive geometry kernel shared by every
// per-type processor: the Mesh type, vector/matrix math, triangulation,
// extrusion/sweep helpers, and normal computation.
package geom

import "math"

// Mesh is three parallel arrays describing a triangle soup. Positions and
// Normals are flattened float32 coordinate triples; Indices are triangle
// vertex indices, never fans.
type Mesh struct {
	Positions []float32 // len % 3 == 0
	Normals   []float32 // empty, or len(Normals) == len(Positions)
	Indices   []uint32  // len % 3 == 0
}

// VertexCount returns the number of (x,y,z) vertices in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Empty reports whether the mesh carries no geometry.
func (m *Mesh) Empty() bool { return m == nil || len(m.Positions) == 0 }

// Vertex returns the position of vertex i as a Vec3.
func (m *Mesh) Vertex(i int) Vec3 {
	o := i * 3
	return Vec3{float64(m.Positions[o]), float64(m.Positions[o+1]), float64(m.Positions[o+2])}
}

// Triangle returns the three world-space vertices of triangle t.
func (m *Mesh) Triangle(t int) (Vec3, Vec3, Vec3) {
	o := t * 3
	return m.Vertex(int(m.Indices[o])), m.Vertex(int(m.Indices[o+1])), m.Vertex(int(m.Indices[o+2]))
}

// AddVertex appends a position (and, if nrm is non-nil, a matching normal)
// and returns its index.
func (m *Mesh) AddVertex(p Vec3, nrm *Vec3) uint32 {
	idx := uint32(m.VertexCount())
	m.Positions = append(m.Positions, float32(p.X), float32(p.Y), float32(p.Z))
	if nrm != nil {
		m.Normals = append(m.Normals, float32(nrm.X), float32(nrm.Y), float32(nrm.Z))
	}
	return idx
}

// AddTriangle appends one triangle by vertex index.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// Validate checks the universal mesh invariants: positions length is
// a multiple of 3, normals are empty or match positions, every index is in
// range, and every coordinate is finite.
func (m *Mesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return errInvalidMesh("positions length not a multiple of 3")
	}
	if len(m.Indices)%3 != 0 {
		return errInvalidMesh("indices length not a multiple of 3")
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return errInvalidMesh("normals length does not match positions")
	}
	n := uint32(m.VertexCount())
	for _, i := range m.Indices {
		if i >= n {
			return errInvalidMesh("index out of range")
		}
	}
	for _, v := range m.Positions {
		if !isFiniteF32(v) {
			return errInvalidMesh("non-finite position coordinate")
		}
	}
	for _, v := range m.Normals {
		if !isFiniteF32(v) {
			return errInvalidMesh("non-finite normal coordinate")
		}
	}
	return nil
}

func isFiniteF32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type meshError string

func errInvalidMesh(reason string) error { return meshError(reason) }
func (e meshError) Error() string        { return "geom: invalid mesh: " + string(e) }

// Merge concatenates src's geometry onto dst, offsetting src's indices by
// dst's current vertex count. If exactly one of dst/src carries normals,
// the other is padded with zero normals so the length invariant holds;
// padding with zero (rather than dropping normals entirely) keeps the
// lengths aligned without having to recompute anything.
func Merge(dst *Mesh, src *Mesh) {
	if src.Empty() {
		return
	}
	base := uint32(dst.VertexCount())

	needNormals := len(dst.Normals) > 0 || len(src.Normals) > 0
	if needNormals {
		if len(dst.Normals) == 0 && len(dst.Positions) > 0 {
			dst.Normals = make([]float32, len(dst.Positions))
		}
	}

	dst.Positions = append(dst.Positions, src.Positions...)
	if needNormals {
		if len(src.Normals) == len(src.Positions) {
			dst.Normals = append(dst.Normals, src.Normals...)
		} else {
			dst.Normals = append(dst.Normals, make([]float32, len(src.Positions))...)
		}
	}
	for _, idx := range src.Indices {
		dst.Indices = append(dst.Indices, idx+base)
	}
}

// MergeAll merges a slice of meshes into one.
func MergeAll(meshes []*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		Merge(out, m)
	}
	return out
}

// ContentHashInput is everything ContentHash reads, split out so the
// router's dedup cache and tests can compute the same key.
func ContentHashInput(m *Mesh) (vertexCount, indexCount int, positions []float32, indices []uint32) {
	return m.VertexCount(), len(m.Indices), m.Positions, m.Indices
}

// ApplyTransform applies t to every position (and, with renormalization,
// every normal) of m in place.
func ApplyTransform(m *Mesh, t *Mat4) {
	for i := 0; i < len(m.Positions); i += 3 {
		p := Vec3{float64(m.Positions[i]), float64(m.Positions[i+1]), float64(m.Positions[i+2])}
		tp := t.TransformPoint(p)
		m.Positions[i] = float32(tp.X)
		m.Positions[i+1] = float32(tp.Y)
		m.Positions[i+2] = float32(tp.Z)
	}
	if len(m.Normals) == 0 {
		return
	}
	for i := 0; i < len(m.Normals); i += 3 {
		n := Vec3{float64(m.Normals[i]), float64(m.Normals[i+1]), float64(m.Normals[i+2])}
		tn := t.TransformNormal(n).Normalize()
		m.Normals[i] = float32(tn.X)
		m.Normals[i+1] = float32(tn.Y)
		m.Normals[i+2] = float32(tn.Z)
	}
}

// Scale multiplies every position by s (unit scaling). Normals are
// direction-only and are unaffected by uniform scale.
func Scale(m *Mesh, s float64) {
	sf := float32(s)
	for i := range m.Positions {
		m.Positions[i] *= sf
	}
}

// SubtractOffset subtracts a constant RTC offset from every position.
func SubtractOffset(m *Mesh, dx, dy, dz float64) {
	fx, fy, fz := float32(dx), float32(dy), float32(dz)
	for i := 0; i+2 < len(m.Positions); i += 3 {
		m.Positions[i] -= fx
		m.Positions[i+1] -= fy
		m.Positions[i+2] -= fz
	}
}

// Clone returns a deep copy of m, used by the router's caching layers
// whenever a shared cached mesh is about to be scaled or
// transformed for one particular instance — the cache always keeps the
// untransformed original.
func Clone(m *Mesh) *Mesh {
	if m == nil {
		return &Mesh{}
	}
	out := &Mesh{
		Positions: append([]float32(nil), m.Positions...),
		Indices:   append([]uint32(nil), m.Indices...),
	}
	if m.Normals != nil {
		out.Normals = append([]float32(nil), m.Normals...)
	}
	return out
}
