package voids

import (
	"testing"

	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/csg"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/step"
)

func decodeIndex(t *testing.T, src string) (*step.EntityIndex, *step.Decoder) {
	t.Helper()
	buf := []byte(src)
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatalf("BuildEntityIndex: %v", err)
	}
	return idx, step.NewDecoder(buf, idx)
}

func TestBuildIndex_MapsHostToOpenings(t *testing.T) {
	src := `#1=IFCWALL($,$,$,$,$,$,$,$);
#2=IFCOPENINGELEMENT($,$,$,$,$,$,$,$);
#3=IFCRELVOIDSELEMENT($,$,$,$,#1,#2);`
	idx, dec := decodeIndex(t, src)
	vi := BuildIndex(idx, dec)

	openings := vi.OpeningsFor(1)
	if len(openings) != 1 || openings[0] != 2 {
		t.Fatalf("expected wall #1 to have opening #2, got %v", openings)
	}
	host, ok := vi.HostFor(2)
	if !ok || host != 1 {
		t.Fatalf("expected opening #2's host to be #1, got %d ok=%v", host, ok)
	}
	if !vi.IsHost(1) {
		t.Fatalf("expected #1 to be recognized as a host")
	}
}

func newRouterForTest(t *testing.T, dec *step.Decoder, unitScale float64) *router.Router {
	t.Helper()
	cache, err := router.NewGeometryCache(1024 * 1024)
	if err != nil {
		t.Fatalf("NewGeometryCache: %v", err)
	}
	registry := ifcproc.NewRegistry()
	ctx := ifcproc.DefaultContext()
	r := router.NewRouter(registry, cache, ctx, unitScale, logger.New(logger.ERROR))
	r.Ctx.Dispatch = registry.BindDispatch(dec, r.Ctx)
	return r
}

// doorFixture builds a wall-with-door fixture: a 5m x 0.2m x 3m
// wall (#10) with a 1m x 0.3m x 2.1m door opening (#20) centered at
// x=2.5, penetrating the wall's full thickness.
const doorFixture = `#1=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,5000.,200.);
#2=IFCDIRECTION((0.,0.,1.));
#3=IFCEXTRUDEDAREASOLID(#1,$,#2,3000.);
#4=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#3));
#5=IFCPRODUCTDEFINITIONSHAPE($,$,(#4));
#10=IFCWALL($,$,$,$,$,$,#5,$);
#11=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,2100.);
#12=IFCDIRECTION((0.,0.,1.));
#13=IFCDIRECTION((0.,1.,0.));
#14=IFCDIRECTION((1.,0.,0.));
#15=IFCCARTESIANPOINT((0.,0.,0.));
#16=IFCAXIS2PLACEMENT3D(#15,#13,#14);
#17=IFCEXTRUDEDAREASOLID(#11,#16,#12,300.);
#18=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#17));
#19=IFCPRODUCTDEFINITIONSHAPE($,$,(#18));
#21=IFCCARTESIANPOINT((2500.,0.,1050.));
#22=IFCAXIS2PLACEMENT3D(#21,$,$);
#23=IFCLOCALPLACEMENT($,#22);
#20=IFCOPENINGELEMENT($,$,$,$,$,#23,#19,$);
#30=IFCRELVOIDSELEMENT($,$,$,$,#10,#20);`

func TestClassify_DoorOpeningIsRectangular(t *testing.T) {
	_, dec := decodeIndex(t, doorFixture)
	r := newRouterForTest(t, dec, 0.001)

	openingMesh, err := r.ProcessElement(20, dec)
	if err != nil {
		t.Fatalf("ProcessElement(opening): %v", err)
	}
	placement := router.ScaledPlacement(23, dec, 0.001)
	op := Classify(20, openingMesh, 17, dec, placement, 0.001, geom.Vec3{}, false)

	if op.Kind != OpeningRectangular {
		t.Fatalf("expected OpeningRectangular, got %v", op.Kind)
	}
	if abs(op.Direction.Y-1) > 1e-6 {
		t.Fatalf("expected world direction (0,1,0), got %v", op.Direction)
	}
	if op.WorldAABB.Min.X > 2.01 || op.WorldAABB.Max.X < 2.99 {
		t.Fatalf("expected opening AABB x-span to cover [2,3], got %v..%v", op.WorldAABB.Min.X, op.WorldAABB.Max.X)
	}
}

func TestClassify_FloorOpeningUpgradesToCSG(t *testing.T) {
	src := `#1=IFCCIRCLEPROFILEDEF(.AREA.,$,$,500.);
#2=IFCDIRECTION((0.,0.,1.));
#3=IFCEXTRUDEDAREASOLID(#1,$,#2,300.);
#4=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#3));
#5=IFCPRODUCTDEFINITIONSHAPE($,$,(#4));
#6=IFCOPENINGELEMENT($,$,$,$,$,$,#5,$);`
	_, dec := decodeIndex(t, src)
	r := newRouterForTest(t, dec, 0.001)

	openingMesh, err := r.ProcessElement(6, dec)
	if err != nil {
		t.Fatalf("ProcessElement: %v", err)
	}
	op := Classify(6, openingMesh, 3, dec, geom.Identity(), 0.001, geom.Vec3{}, false)
	if op.Kind != OpeningNonRectangular {
		t.Fatalf("expected a vertical cylinder opening to upgrade to CSG, got %v", op.Kind)
	}
	if len(op.WorldRing) == 0 {
		t.Fatalf("expected a resolved profile ring for the CSG path")
	}
}

func TestExtendAlongDirection_CoversHostExtent(t *testing.T) {
	host := csg.AABB{Min: geom.Vec3{X: -2.5, Y: -0.1, Z: 0}, Max: geom.Vec3{X: 2.5, Y: 0.1, Z: 3}}
	opening := csg.AABB{Min: geom.Vec3{X: 2, Y: 0, Z: 0}, Max: geom.Vec3{X: 3, Y: 0.3, Z: 2.1}}

	extended := ExtendAlongDirection(opening, host, geom.Vec3{Y: 1})
	if extended.Min.Y > host.Min.Y || extended.Max.Y < host.Max.Y {
		t.Fatalf("expected extended opening to cover host's y-range, got %v..%v", extended.Min.Y, extended.Max.Y)
	}
	if extended.Min.X != opening.Min.X || extended.Max.X != opening.Max.X {
		t.Fatalf("expected x-extent to stay put when extending along y, got %v..%v", extended.Min.X, extended.Max.X)
	}
}

func TestEngine_Subtract_DoorOpeningPenetratesWall(t *testing.T) {
	idx, dec := decodeIndex(t, doorFixture)
	unitScale := 0.001
	r := newRouterForTest(t, dec, unitScale)
	vi := BuildIndex(idx, dec)
	eng := NewEngine(vi, r, unitScale, geom.Vec3{}, false)

	hostMesh, err := r.ProcessElement(10, dec)
	if err != nil {
		t.Fatalf("ProcessElement(host): %v", err)
	}
	hostPlacement := router.ScaledPlacement(0, dec, unitScale)

	result, err := eng.Subtract(10, hostMesh, hostPlacement, dec)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if result.TriangleCount() == 0 {
		t.Fatalf("expected a non-empty wall mesh after subtraction")
	}

	for i := 0; i < result.TriangleCount(); i++ {
		a, b, c := result.Triangle(i)
		cx := (a.X + b.X + c.X) / 3
		cy := (a.Y + b.Y + c.Y) / 3
		cz := (a.Z + b.Z + c.Z) / 3
		if cx > 2.05 && cx < 2.95 && cy > -0.05 && cy < 0.05 && cz > 0.1 && cz < 2.0 {
			t.Fatalf("triangle centroid (%v,%v,%v) lies inside the door opening", cx, cy, cz)
		}
	}
}

func TestEngine_Subtract_ClampsAboveMaxOpeningsPerHost(t *testing.T) {
	vi := &Index{hostToOpenings: map[uint32][]uint32{}, openingToHost: map[uint32]uint32{}}
	var many []uint32
	for i := uint32(1); i <= 16; i++ {
		many = append(many, i)
	}
	vi.hostToOpenings[100] = many

	src := `#100=IFCWALL($,$,$,$,$,$,$,$);`
	_, dec := decodeIndex(t, src)
	r := newRouterForTest(t, dec, 1.0)
	eng := NewEngine(vi, r, 1.0, geom.Vec3{}, false)

	base := &geom.Mesh{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}
	result, err := eng.Subtract(100, base, geom.Identity(), dec)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if result != base {
		t.Fatalf("expected the base mesh unchanged when opening count exceeds the per-host clamp")
	}
}

// TestChaseExtrusion_CyclicChainTerminates feeds a boolean result whose
// FirstOperand is itself; the chase must stop at the depth cap and
// report failure instead of recursing without bound.
func TestChaseExtrusion_CyclicChainTerminates(t *testing.T) {
	src := `#1=IFCBOOLEANCLIPPINGRESULT(.DIFFERENCE.,#1,#1);`
	_, dec := decodeIndex(t, src)
	if _, _, _, ok := chaseExtrusion(1, dec, geom.Identity()); ok {
		t.Fatal("expected a cyclic operand chain to report ok=false")
	}
}

// TestCollectClipPlanes_CyclicChainTerminates walks a boolean result
// whose FirstOperand is itself; the collection must stop at the depth
// cap rather than recurse forever.
func TestCollectClipPlanes_CyclicChainTerminates(t *testing.T) {
	src := `#1=IFCBOOLEANCLIPPINGRESULT(.DIFFERENCE.,#1,#2);
#2=IFCHALFSPACESOLID(#3,.F.);
#3=IFCPLANE(#4);
#4=IFCAXIS2PLACEMENT3D(#5,$,$);
#5=IFCCARTESIANPOINT((0.,0.,0.));`
	_, dec := decodeIndex(t, src)
	planes := collectClipPlanes(1, dec, geom.Identity())
	if len(planes) > maxChaseDepth {
		t.Fatalf("collected %d planes, expected the chase to stop at the depth cap", len(planes))
	}
}
