package stream

import (
	"math"
	"testing"

	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/step"
)

const twoWallFixture = `ISO-10303-21;
DATA;
#1=IFCDIRECTION((0.,0.,1.));
#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);
#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);
#4=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#3));
#5=IFCPRODUCTDEFINITIONSHAPE($,$,(#4));
#6=IFCWALL($,$,$,$,$,$,#5,$);
#7=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);
#8=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#7));
#9=IFCPRODUCTDEFINITIONSHAPE($,$,(#8));
#10=IFCWALL($,$,$,$,$,$,#9,$);
#11=IFCWALL($,$,$,$,$,$,$,$);
ENDSEC;
`

func newTestDriver(t *testing.T, buf []byte, opts Options) (*Driver, *step.EntityIndex, *step.Decoder) {
	t.Helper()
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatalf("BuildEntityIndex: %v", err)
	}
	dec := step.NewDecoder(buf, idx)

	cache, err := router.NewGeometryCache(10 * 1024 * 1024)
	if err != nil {
		t.Fatal(err)
	}
	registry := ifcproc.NewRegistry()
	pctx := ifcproc.DefaultContext()
	pctx.Dispatch = registry.BindDispatch(dec, pctx)
	r := router.NewRouter(registry, cache, pctx, 0.001, logger.New(logger.ERROR))

	return NewDriver(r, opts, logger.New(logger.ERROR)), idx, dec
}

func TestRunEmitsWallsAndCounts(t *testing.T) {
	var batches []BatchProgress
	d, idx, dec := newTestDriver(t, []byte(twoWallFixture), Options{
		Sequential: true,
		BatchSize:  1,
		Progress:   func(b BatchProgress) { batches = append(batches, b) },
	})

	res, err := d.Run(idx, dec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Completion.TotalCandidates != 3 {
		t.Errorf("total candidates = %d, want 3", res.Completion.TotalCandidates)
	}
	if res.Completion.EmptyRepresentation != 1 {
		t.Errorf("empty representation = %d, want 1", res.Completion.EmptyRepresentation)
	}

	emitted := 0
	for _, b := range batches {
		if b.Phase != PhaseSimple {
			t.Errorf("wall batch in phase %v", b.Phase)
		}
		emitted += len(b.Elements)
	}
	if emitted != 2 {
		t.Errorf("emitted = %d elements, want 2", emitted)
	}

	if res.RunID == "" {
		t.Error("run id missing")
	}
	if res.Preamble.HasRTC {
		t.Error("small model should not trigger RTC")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	run := func() CompletionPayload {
		d, idx, dec := newTestDriver(t, []byte(twoWallFixture), Options{Sequential: true})
		res, err := d.Run(idx, dec)
		if err != nil {
			t.Fatal(err)
		}
		return res.Completion
	}
	if run() != run() {
		t.Error("two runs over the same file disagree on aggregate counts")
	}
}

func TestRunInstancedSharesGeometry(t *testing.T) {
	d, idx, dec := newTestDriver(t, []byte(twoWallFixture), Options{Sequential: true})

	res, set, err := d.RunInstanced(idx, dec)
	if err != nil {
		t.Fatalf("RunInstanced: %v", err)
	}
	// the two walls share one extruded profile, the third has no
	// representation
	if len(set.Geometries) != 1 {
		t.Fatalf("geometries = %d, want 1", len(set.Geometries))
	}
	if set.InstanceCount() != 2 {
		t.Errorf("instances = %d, want 2", set.InstanceCount())
	}
	if res.Completion.TotalCandidates != 3 {
		t.Errorf("total candidates = %d", res.Completion.TotalCandidates)
	}
}

func TestClassifyCandidatesPartition(t *testing.T) {
	buf := []byte("#1=IFCWALL($);\n#2=IFCDOOR($);\n#3=IFCCARTESIANPOINT((0.,0.,0.));\n")
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatal(err)
	}
	simple, complexIDs := classifyCandidates(idx)
	if len(simple) != 1 || simple[0] != 1 {
		t.Errorf("simple = %v", simple)
	}
	if len(complexIDs) != 1 || complexIDs[0] != 2 {
		t.Errorf("complex = %v", complexIDs)
	}
}

func TestChunk(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5}
	batches := chunk(ids, 2)
	if len(batches) != 3 || len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Errorf("chunk = %v", batches)
	}
	if got := chunk(nil, 2); got != nil {
		t.Errorf("chunk(nil) = %v", got)
	}
	if got := chunk(ids, 0); len(got) != 1 || len(got[0]) != 5 {
		t.Errorf("chunk with non-positive size = %v", got)
	}
}

func TestIsOutlierMesh(t *testing.T) {
	ok := &geom.Mesh{Positions: []float32{0, 0, 0, 1, 1, 1, 2, 2, 2}}
	if isOutlierMesh(ok) {
		t.Error("small mesh flagged as outlier")
	}

	nan := &geom.Mesh{Positions: []float32{0, 0, float32(math.NaN())}}
	if !isOutlierMesh(nan) {
		t.Error("non-finite mesh not flagged")
	}

	huge := &geom.Mesh{Positions: []float32{250_000, 0, 0}}
	if !isOutlierMesh(huge) {
		t.Error("mesh beyond the max coordinate not flagged")
	}

	far := &geom.Mesh{Positions: []float32{60_000, 0, 0, 61_000, 0, 0}}
	if !isOutlierMesh(far) {
		t.Error("mesh with every vertex far from origin not flagged")
	}
}

// TestRunRebasesLargeCoordinates places a wall ~6371 km from the
// origin and expects the run to report an RTC offset and emit
// near-origin positions.
func TestRunRebasesLargeCoordinates(t *testing.T) {
	src := `ISO-10303-21;
DATA;
#1=IFCCARTESIANPOINT((6371000.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCLOCALPLACEMENT($,#2);
#4=IFCDIRECTION((0.,0.,1.));
#5=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1.,0.2);
#6=IFCEXTRUDEDAREASOLID(#5,$,#4,3.);
#7=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#6));
#8=IFCPRODUCTDEFINITIONSHAPE($,$,(#7));
#9=IFCWALL($,$,$,$,$,#3,#8,$);
ENDSEC;
`
	buf := []byte(src)
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatal(err)
	}
	dec := step.NewDecoder(buf, idx)

	cache, err := router.NewGeometryCache(10 * 1024 * 1024)
	if err != nil {
		t.Fatal(err)
	}
	registry := ifcproc.NewRegistry()
	pctx := ifcproc.DefaultContext()
	pctx.Dispatch = registry.BindDispatch(dec, pctx)
	r := router.NewRouter(registry, cache, pctx, 1.0, logger.New(logger.ERROR))

	var elements []ElementResult
	d := NewDriver(r, Options{
		Sequential: true,
		Progress:   func(b BatchProgress) { elements = append(elements, b.Elements...) },
	}, logger.New(logger.ERROR))

	res, err := d.Run(idx, dec)
	if err != nil {
		t.Fatal(err)
	}

	if !res.Preamble.HasRTC {
		t.Fatal("expected RTC to engage for a model 6371 km from the origin")
	}
	if math.Abs(res.Preamble.RTC.X-6_371_000) > 1 {
		t.Errorf("rtc x = %g, want ~6.371e6", res.Preamble.RTC.X)
	}
	if len(elements) != 1 {
		t.Fatalf("emitted = %d elements, want 1", len(elements))
	}
	mesh := elements[0].Mesh
	for i := 0; i < mesh.VertexCount(); i++ {
		v := mesh.Vertex(i)
		if math.Abs(v.X) > 100 {
			t.Fatalf("vertex x = %g, expected |x| < 100 after rebasing", v.X)
		}
	}
}
