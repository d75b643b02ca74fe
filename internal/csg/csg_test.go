package csg

import (
	"math"
	"testing"

	"github.com/arx-os/ifcgeom/internal/geom"
)

func boxMesh(min, max geom.Vec3) *geom.Mesh {
	p := geom.RectangleProfile(max.X-min.X, max.Y-min.Y)
	for i := range p.Outer {
		p.Outer[i].X += (min.X + max.X) / 2
		p.Outer[i].Y += (min.Y + max.Y) / 2
		p.Outer[i].Z = min.Z
	}
	return geom.Extrude(p, geom.Vec3{Z: 1}, max.Z-min.Z)
}

func TestTriangleIntersectsAABB(t *testing.T) {
	box := AABB{Min: geom.Vec3{X: -1, Y: -1, Z: -1}, Max: geom.Vec3{X: 1, Y: 1, Z: 1}}
	inside := []geom.Vec3{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0, Y: 0.5}}
	if !TriangleIntersectsAABB(inside[0], inside[1], inside[2], box) {
		t.Fatalf("expected triangle inside box to intersect")
	}

	far := []geom.Vec3{{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 10, Y: 11}}
	if TriangleIntersectsAABB(far[0], far[1], far[2], box) {
		t.Fatalf("expected far triangle to not intersect box")
	}
}

func TestClipTriangleByPlane_SplitPreservesArea(t *testing.T) {
	a, b, c := geom.Vec3{X: -1}, geom.Vec3{X: 1}, geom.Vec3{Y: 1}
	pl := NewPlane(geom.Vec3{}, geom.Vec3{X: 1})
	front, back := ClipTriangleByPlane(a, b, c, pl)
	if len(front) == 0 || len(back) == 0 {
		t.Fatalf("expected both a front and back fragment, got front=%d back=%d", len(front), len(back))
	}
	total := triArea(a, b, c)
	var got float64
	for _, f := range front {
		got += triArea(f[0], f[1], f[2])
	}
	for _, bk := range back {
		got += triArea(bk[0], bk[1], bk[2])
	}
	if math.Abs(got-total) > 1e-9 {
		t.Fatalf("expected clipped fragment area to sum to original area %v, got %v", total, got)
	}
}

func triArea(a, b, c geom.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Length() / 2
}

func TestSubtractBox_RemovesInteriorVolume(t *testing.T) {
	host := boxMesh(geom.Vec3{X: -5, Y: -5, Z: -5}, geom.Vec3{X: 5, Y: 5, Z: 5})
	opening := AABB{Min: geom.Vec3{X: -1, Y: -1, Z: -1}, Max: geom.Vec3{X: 1, Y: 1, Z: 1}}
	result := SubtractBox(host, opening)
	if err := result.Validate(); err != nil {
		t.Fatalf("invalid result mesh: %v", err)
	}
	if result.TriangleCount() == 0 {
		t.Fatalf("expected non-empty result after subtracting an interior box")
	}
	// No resulting vertex should lie strictly inside the opening box.
	eps := 1e-6
	for i := 0; i < result.VertexCount(); i++ {
		v := result.Vertex(i)
		if v.X > opening.Min.X+eps && v.X < opening.Max.X-eps &&
			v.Y > opening.Min.Y+eps && v.Y < opening.Max.Y-eps &&
			v.Z > opening.Min.Z+eps && v.Z < opening.Max.Z-eps {
			t.Fatalf("vertex %v lies strictly inside the subtracted opening", v)
		}
	}
}

func TestSubtractConvex_DegeneratePlanesRejected(t *testing.T) {
	host := boxMesh(geom.Vec3{X: -1, Y: -1, Z: -1}, geom.Vec3{X: 1, Y: 1, Z: 1})
	_, err := SubtractConvex(host, []Plane{NewPlane(geom.Vec3{}, geom.Vec3{X: 1})})
	if err != ErrDegenerate {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestPrismPlanes_CircularOpeningClipsRoundHole(t *testing.T) {
	host := boxMesh(geom.Vec3{X: -5, Y: -5, Z: -5}, geom.Vec3{X: 5, Y: 5, Z: 5})
	circle := geom.CircleProfile(1.0, 16)
	for i := range circle.Outer {
		circle.Outer[i].Z = -6
	}
	planes := PrismPlanes(circle.Outer, geom.Vec3{Z: 1}, 12)
	result, err := SubtractConvex(host, planes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := result.Validate(); err != nil {
		t.Fatalf("invalid result mesh: %v", err)
	}
	if result.TriangleCount() == 0 {
		t.Fatalf("expected non-empty result")
	}
}
