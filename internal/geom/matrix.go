package geom

// Mat4 is a 4x4 homogeneous transform stored column-major, matching the
// "Transforms from the host always column-major" wire contract. Indexing:
// element (row r, col c) lives at m[c*4+r].
type Mat4 struct {
	m [16]float64
}

// Identity returns the identity transform.
func Identity() Mat4 {
	var m Mat4
	m.m[0], m.m[5], m.m[10], m.m[15] = 1, 1, 1, 1
	return m
}

// NewMat4ColumnMajor builds a Mat4 from 16 column-major doubles.
func NewMat4ColumnMajor(v [16]float64) Mat4 { return Mat4{m: v} }

// At returns element (row, col).
func (a Mat4) At(row, col int) float64 { return a.m[col*4+row] }

func (a *Mat4) set(row, col int, v float64) { a.m[col*4+row] = v }

// ColumnMajor returns the raw column-major array, e.g. for the wire
// format's transform_matrix_column_major.
func (a Mat4) ColumnMajor() [16]float64 { return a.m }

// ColumnMajorF32 narrows to float32 for the wire boundary.
func (a Mat4) ColumnMajorF32() [16]float32 {
	var out [16]float32
	for i, v := range a.m {
		out[i] = float32(v)
	}
	return out
}

// Mul returns a*b (applies b first, then a — standard column-vector
// convention: (a*b)*v == a*(b*v)).
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a.At(r, k) * b.At(k, c)
			}
			out.set(r, c, sum)
		}
	}
	return out
}

// TransformPoint applies the full affine transform (including
// translation) to a point.
func (a Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		X: a.At(0, 0)*p.X + a.At(0, 1)*p.Y + a.At(0, 2)*p.Z + a.At(0, 3),
		Y: a.At(1, 0)*p.X + a.At(1, 1)*p.Y + a.At(1, 2)*p.Z + a.At(1, 3),
		Z: a.At(2, 0)*p.X + a.At(2, 1)*p.Y + a.At(2, 2)*p.Z + a.At(2, 3),
	}
}

// TransformNormal applies only the rotational (upper-left 3x3) part,
// correct for normals under rigid/uniform-scale transforms (the only
// transforms this pipeline composes — IFC placements are always
// orthonormal rotation + translation, optionally with a uniform
// CartesianTransformationOperator scale).
func (a Mat4) TransformNormal(n Vec3) Vec3 {
	return Vec3{
		X: a.At(0, 0)*n.X + a.At(0, 1)*n.Y + a.At(0, 2)*n.Z,
		Y: a.At(1, 0)*n.X + a.At(1, 1)*n.Y + a.At(1, 2)*n.Z,
		Z: a.At(2, 0)*n.X + a.At(2, 1)*n.Y + a.At(2, 2)*n.Z,
	}
}

// Translation returns the translation column.
func (a Mat4) Translation() Vec3 {
	return Vec3{a.At(0, 3), a.At(1, 3), a.At(2, 3)}
}

// WithTranslation returns a copy of a with its translation column
// replaced.
func (a Mat4) WithTranslation(t Vec3) Mat4 {
	out := a
	out.set(0, 3, t.X)
	out.set(1, 3, t.Y)
	out.set(2, 3, t.Z)
	return out
}

// FromBasis builds a rigid transform from an orthonormal basis (x, y, z)
// and an origin, as used by Axis2Placement3D composition.
func FromBasis(origin, x, y, z Vec3) Mat4 {
	var m Mat4
	m.set(0, 0, x.X)
	m.set(1, 0, x.Y)
	m.set(2, 0, x.Z)
	m.set(0, 1, y.X)
	m.set(1, 1, y.Y)
	m.set(2, 1, y.Z)
	m.set(0, 2, z.X)
	m.set(1, 2, z.Y)
	m.set(2, 2, z.Z)
	m.set(0, 3, origin.X)
	m.set(1, 3, origin.Y)
	m.set(2, 3, origin.Z)
	m.set(3, 3, 1)
	return m
}

// ScaleUniform returns a uniform-scale transform.
func ScaleUniform(s float64) Mat4 {
	var m Mat4
	m.m[0], m.m[5], m.m[10], m.m[15] = s, s, s, 1
	return m
}

// Translate returns a pure-translation transform.
func Translate(t Vec3) Mat4 {
	m := Identity()
	return m.WithTranslation(t)
}
