package step

import "testing"

func TestDecoder_RoundTrip(t *testing.T) {
	src := []byte("#1=IFCDIRECTION((0.,0.,1.));#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);")
	idx, err := BuildEntityIndex(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := NewDecoder(src, idx)

	e1, err := dec.DecodeByID(3)
	if err != nil {
		t.Fatalf("decode #3: %v", err)
	}
	if e1.Type != "IFCEXTRUDEDAREASOLID" {
		t.Fatalf("unexpected type %q", e1.Type)
	}
	ref, ok := e1.RefAt(0)
	if !ok || ref != 2 {
		t.Fatalf("expected attr0 to be ref #2, got %v ok=%v", ref, ok)
	}
	depth, ok := e1.FloatAt(3)
	if !ok || depth != 3000 {
		t.Fatalf("expected depth 3000, got %v ok=%v", depth, ok)
	}

	// Round-trip: decoding the same id twice must return the same
	// (structurally equal) attribute vector, served from cache.
	e2, err := dec.DecodeByID(3)
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if e1 != e2 {
		t.Fatalf("expected cache hit to return the identical *Entity")
	}
}

func TestDecoder_ProfileAttributes(t *testing.T) {
	src := []byte("#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);")
	idx, _ := BuildEntityIndex(src)
	dec := NewDecoder(src, idx)

	e, err := dec.DecodeByID(2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	kind, ok := e.EnumAt(0)
	if !ok || kind != "AREA" {
		t.Fatalf("expected enum AREA, got %q ok=%v", kind, ok)
	}
	if !e.IsNull(1) || !e.IsNull(2) {
		t.Fatalf("expected attrs 1,2 to be null")
	}
	xdim, ok := e.FloatAt(3)
	if !ok || xdim != 1000 {
		t.Fatalf("expected XDim 1000, got %v", xdim)
	}
}

func TestFastPaths_CartesianPointAndPolyLoop(t *testing.T) {
	src := []byte(`#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCCARTESIANPOINT((1.,0.,0.));
#3=IFCCARTESIANPOINT((0.,1.,0.));
#4=IFCPOLYLOOP((#1,#2,#3));`)
	idx, err := BuildEntityIndex(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := NewDecoder(src, idx)

	x, y, z, ok := dec.GetCartesianPointFast(2)
	if !ok || x != 1 || y != 0 || z != 0 {
		t.Fatalf("unexpected point: %v %v %v ok=%v", x, y, z, ok)
	}

	pts, ok := dec.GetPolyLoopCoordsCached(4)
	if !ok || len(pts) != 3 {
		t.Fatalf("expected 3 points, got %v ok=%v", pts, ok)
	}
	if pts[1] != [3]float64{1, 0, 0} {
		t.Fatalf("unexpected second point: %v", pts[1])
	}
}

func TestFastPaths_ReturnFalseOnDeviation(t *testing.T) {
	src := []byte("#1=IFCWALL($,$,$,$,$,$,$,$,$);")
	idx, _ := BuildEntityIndex(src)
	dec := NewDecoder(src, idx)

	if _, _, _, ok := dec.GetCartesianPointFast(1); ok {
		t.Fatalf("expected fast path to fail gracefully on a non-point entity")
	}
	if _, ok := dec.GetEntityRefListFast(999); ok {
		t.Fatalf("expected failure for unknown id")
	}
}
