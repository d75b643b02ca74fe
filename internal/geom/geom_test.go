package geom

import (
	"math"
	"testing"
)

func TestMesh_Validate(t *testing.T) {
	m := &Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid mesh, got %v", err)
	}

	bad := &Mesh{Positions: []float32{0, 0}, Indices: []uint32{0}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error for malformed positions")
	}

	oob := &Mesh{Positions: []float32{0, 0, 0}, Indices: []uint32{5, 0, 0}}
	if err := oob.Validate(); err == nil {
		t.Fatalf("expected validation error for out-of-range index")
	}
}

// Scenario 1: single wall extrusion — 1.0 x 0.2 x 3.0 m box.
func TestExtrude_SingleWallBox(t *testing.T) {
	profile := RectangleProfile(1.0, 0.2)
	mesh := Extrude(profile, Vec3{0, 0, 1}, 3.0)

	if err := mesh.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
	if got := mesh.VertexCount(); got != 24 {
		t.Fatalf("expected 24 vertices, got %d", got)
	}
	if got := mesh.TriangleCount(); got != 12 {
		t.Fatalf("expected 12 triangles, got %d", got)
	}

	// Every normal must be unit length.
	for i := 0; i < len(mesh.Normals); i += 3 {
		n := Vec3{float64(mesh.Normals[i]), float64(mesh.Normals[i+1]), float64(mesh.Normals[i+2])}
		if math.Abs(n.Length()-1) > 1e-3 {
			t.Fatalf("normal %v not unit length", n)
		}
	}

	// Bounding box must match 1.0 x 0.2 x 3.0.
	minV, maxV := boundsOf(mesh)
	if math.Abs((maxV.X-minV.X)-1.0) > 1e-6 || math.Abs((maxV.Y-minV.Y)-0.2) > 1e-6 || math.Abs((maxV.Z-minV.Z)-3.0) > 1e-6 {
		t.Fatalf("unexpected bounds: min=%v max=%v", minV, maxV)
	}
}

func boundsOf(m *Mesh) (Vec3, Vec3) {
	min := m.Vertex(0)
	max := min
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.Z < min.Z {
			min.Z = v.Z
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
		if v.Z > max.Z {
			max.Z = v.Z
		}
	}
	return min, max
}

func TestTriangulateWithHoles_SquareWithSquareHole(t *testing.T) {
	outer := []Vec3{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 10, 0}}
	hole := []Vec3{{4, 4, 0}, {6, 4, 0}, {6, 6, 0}, {4, 6, 0}}

	tris, allPoints := TriangulateWithHoles(outer, [][]Vec3{hole})
	if len(tris) == 0 {
		t.Fatalf("expected triangles, got none")
	}

	var area float64
	for _, tr := range tris {
		a, b, c := allPoints[tr[0]], allPoints[tr[1]], allPoints[tr[2]]
		cr := b.Sub(a).Cross(c.Sub(a))
		area += cr.Length() / 2
	}
	expected := 100.0 - 4.0
	if math.Abs(area-expected) > 1e-6 {
		t.Fatalf("expected total triangle area %v, got %v", expected, area)
	}
}

func TestTriangulateFastPath_Quad(t *testing.T) {
	quad := []Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	tris, ok := TriangulateFastPath(quad, false)
	if !ok || len(tris) != 2 {
		t.Fatalf("expected fast-path quad split into 2 triangles, got %v ok=%v", tris, ok)
	}
}

func TestFrame_RingIsPlanarAndRadiusCorrect(t *testing.T) {
	f := BuildFrame(Vec3{0, 0, 0}, Vec3{0, 0, 1})
	ring := f.Ring(2.0, 12)
	if len(ring) != 12 {
		t.Fatalf("expected 12 points, got %d", len(ring))
	}
	for _, p := range ring {
		if math.Abs(p.Z) > 1e-9 {
			t.Fatalf("expected ring in z=0 plane, got z=%v", p.Z)
		}
		r := math.Hypot(p.X, p.Y)
		if math.Abs(r-2.0) > 1e-9 {
			t.Fatalf("expected radius 2.0, got %v", r)
		}
	}
}

func TestMatMul_IdentityIsNeutral(t *testing.T) {
	id := Identity()
	tr := Translate(Vec3{1, 2, 3})
	got := id.Mul(tr).TransformPoint(Vec3{0, 0, 0})
	if got != (Vec3{1, 2, 3}) {
		t.Fatalf("expected (1,2,3), got %v", got)
	}
}

func TestMerge_PadsNormalsWhenOnlyOneSideHasThem(t *testing.T) {
	withNormals := &Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
	}
	withoutNormals := &Mesh{
		Positions: []float32{2, 0, 0, 3, 0, 0, 2, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	Merge(withNormals, withoutNormals)
	if err := withNormals.Validate(); err != nil {
		t.Fatalf("merged mesh invalid: %v", err)
	}
	if len(withNormals.Normals) != len(withNormals.Positions) {
		t.Fatalf("expected normals padded to match positions")
	}
}
