package ifcproc

import (
	"testing"

	"github.com/arx-os/ifcgeom/internal/step"
)

func decode(t *testing.T, src string, id uint32) (*step.Entity, *step.Decoder) {
	t.Helper()
	buf := []byte(src)
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatalf("BuildEntityIndex: %v", err)
	}
	dec := step.NewDecoder(buf, idx)
	e, err := dec.DecodeByID(id)
	if err != nil {
		t.Fatalf("DecodeByID(%d): %v", id, err)
	}
	return e, dec
}

// TestProcessExtrudedAreaSolid_SingleWallBox extrudes a single wall
// at the raw-decode level (a 1000mm x 200mm profile extruded 3000mm), independent
// of the router's unit scaling.
func TestProcessExtrudedAreaSolid_SingleWallBox(t *testing.T) {
	src := `#1=IFCDIRECTION((0.,0.,1.));
#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);
#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);`
	e, dec := decode(t, src, 3)
	ctx := DefaultContext()

	mesh, err := ProcessExtrudedAreaSolid(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessExtrudedAreaSolid: %v", err)
	}
	if mesh.VertexCount() == 0 || mesh.TriangleCount() == 0 {
		t.Fatalf("expected a non-empty box mesh, got %d verts %d tris", mesh.VertexCount(), mesh.TriangleCount())
	}
	// 2 triangles per cap x 2 caps + 2 triangles per side quad x 4 sides.
	if mesh.TriangleCount() != 2*2+4*2 {
		t.Fatalf("unexpected triangle count %d for an extruded rectangle", mesh.TriangleCount())
	}
}

func TestProcessTriangulatedFaceSet_BasicTriangle(t *testing.T) {
	src := `#1=IFCCARTESIANPOINTLIST3D(((0.,0.,0.),(1.,0.,0.),(0.,1.,0.)));
#2=IFCTRIANGULATEDFACESET(#1,$,$,((1,2,3)),$);`
	e, dec := decode(t, src, 2)
	ctx := DefaultContext()

	mesh, err := ProcessTriangulatedFaceSet(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessTriangulatedFaceSet: %v", err)
	}
	if mesh.VertexCount() != 3 || mesh.TriangleCount() != 1 {
		t.Fatalf("expected 3 verts / 1 tri, got %d / %d", mesh.VertexCount(), mesh.TriangleCount())
	}
}

func TestProcessSweptDiskSolid_StraightRun(t *testing.T) {
	src := `#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCCARTESIANPOINT((0.,0.,1000.));
#3=IFCPOLYLINE((#1,#2));
#4=IFCSWEPTDISKSOLID(#3,50.,$,$,$);`
	e, dec := decode(t, src, 4)
	ctx := DefaultContext()

	mesh, err := ProcessSweptDiskSolid(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessSweptDiskSolid: %v", err)
	}
	if mesh.VertexCount() == 0 || mesh.TriangleCount() == 0 {
		t.Fatalf("expected a non-empty swept-disk mesh")
	}
}

func TestProcessRevolvedAreaSolid_FullTurnCylinder(t *testing.T) {
	src := `#1=IFCCARTESIANPOINT((100.,0.,0.));
#2=IFCCARTESIANPOINT((100.,0.,500.));
#3=IFCPOLYLINE((#1,#2));
#4=IFCAXIS1PLACEMENT(#5,$);
#5=IFCCARTESIANPOINT((0.,0.,0.));
#6=IFCREVOLVEDAREASOLID(#7,$,#4,6.283185307179586);
#7=IFCARBITRARYCLOSEDPROFILEDEF(.AREA.,$,#3);`
	e, dec := decode(t, src, 6)
	ctx := DefaultContext()

	mesh, err := ProcessRevolvedAreaSolid(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessRevolvedAreaSolid: %v", err)
	}
	if mesh.VertexCount() == 0 || mesh.TriangleCount() == 0 {
		t.Fatalf("expected a non-empty revolved mesh")
	}
}

func TestProcessMappedItem_DispatchesAndTransforms(t *testing.T) {
	src := `#1=IFCDIRECTION((0.,0.,1.));
#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);
#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);
#4=IFCSHAPEREPRESENTATION($,$,$,(#3));
#5=IFCREPRESENTATIONMAP($,#4);
#6=IFCCARTESIANTRANSFORMATIONOPERATOR3D($,$,#7,$,$);
#7=IFCCARTESIANPOINT((500.,0.,0.));
#8=IFCMAPPEDITEM(#5,#6);`
	e, dec := decode(t, src, 8)
	registry := NewRegistry()
	ctx := DefaultContext()
	ctx.Dispatch = registry.BindDispatch(dec, ctx)

	mesh, err := ProcessMappedItem(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessMappedItem: %v", err)
	}
	if mesh.VertexCount() == 0 {
		t.Fatalf("expected mapped geometry to carry through")
	}
}

func TestProcessBooleanClippingResult_ReturnsFirstOperand(t *testing.T) {
	src := `#1=IFCDIRECTION((0.,0.,1.));
#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);
#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);
#4=IFCBOOLEANCLIPPINGRESULT(.DIFFERENCE.,#3,#3);`
	e, dec := decode(t, src, 4)
	registry := NewRegistry()
	ctx := DefaultContext()
	ctx.Dispatch = registry.BindDispatch(dec, ctx)

	mesh, err := ProcessBooleanClippingResult(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessBooleanClippingResult: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatalf("expected FirstOperand's geometry to pass through")
	}
}

func TestProcessPolygonalBoundedHalfSpace_BuildsBoundedPrism(t *testing.T) {
	src := `#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCCARTESIANPOINT((0.,0.,0.));
#4=IFCCARTESIANPOINT((1.,0.,0.));
#5=IFCCARTESIANPOINT((1.,1.,0.));
#6=IFCCARTESIANPOINT((0.,1.,0.));
#7=IFCPOLYLINE((#3,#4,#5,#6));
#8=IFCPOLYGONALBOUNDEDHALFSPACE($,.T.,#2,#7);`
	e, dec := decode(t, src, 8)
	ctx := DefaultContext()

	mesh, err := ProcessPolygonalBoundedHalfSpace(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessPolygonalBoundedHalfSpace: %v", err)
	}
	if mesh.VertexCount() == 0 || mesh.TriangleCount() == 0 {
		t.Fatalf("expected a non-empty bounded prism")
	}
}

func TestRegistry_DispatchUnsupportedType(t *testing.T) {
	src := `#1=IFCWALL($,$,$,$,$,$,$,$);`
	e, dec := decode(t, src, 1)
	registry := NewRegistry()
	ctx := DefaultContext()

	if _, err := registry.DispatchEntity(e, dec, ctx); err != ErrUnsupportedType {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

// TestProcessBooleanClippingResult_SelfReferencingChainTerminates feeds
// a boolean result whose FirstOperand is itself; the operand chase must
// give up with an error instead of recursing.
func TestProcessBooleanClippingResult_SelfReferencingChainTerminates(t *testing.T) {
	src := `#1=IFCBOOLEANCLIPPINGRESULT(.DIFFERENCE.,#1,#1);`
	e, dec := decode(t, src, 1)
	registry := NewRegistry()
	ctx := DefaultContext()
	ctx.Dispatch = registry.BindDispatch(dec, ctx)

	if _, err := ProcessBooleanClippingResult(e, dec, ctx); err == nil {
		t.Fatal("expected an error for a cyclic FirstOperand chain")
	}
}

// TestProcessMappedItem_SkipsNestedMappedItem maps a representation
// whose only item is the mapped item itself; the nested occurrence is
// skipped, yielding an empty mesh rather than unbounded recursion.
func TestProcessMappedItem_SkipsNestedMappedItem(t *testing.T) {
	src := `#1=IFCSHAPEREPRESENTATION($,$,$,(#4));
#2=IFCREPRESENTATIONMAP($,#1);
#3=IFCCARTESIANPOINT((0.,0.,0.));
#4=IFCMAPPEDITEM(#2,$);`
	e, dec := decode(t, src, 4)
	registry := NewRegistry()
	ctx := DefaultContext()
	ctx.Dispatch = registry.BindDispatch(dec, ctx)

	mesh, err := ProcessMappedItem(e, dec, ctx)
	if err != nil {
		t.Fatalf("ProcessMappedItem: %v", err)
	}
	if !mesh.Empty() {
		t.Fatalf("expected an empty mesh once the nested MappedItem is skipped")
	}
}
