package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/arx-os/ifcgeom/internal/converter"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/importer"
	"github.com/arx-os/ifcgeom/internal/infrastructure/ifc"
	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/storage"
	"github.com/arx-os/ifcgeom/internal/stream"
)

// fakeService returns canned results without touching the pipeline.
type fakeService struct{}

func (fakeService) Process(ctx context.Context, data []byte) (*ifc.ProcessResult, error) {
	mesh := geom.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	return &ifc.ProcessResult{
		FileInfo:  importer.FileInfo{Schema: "IFC4"},
		UnitScale: 0.001,
		Elements: []stream.ElementResult{
			{ExpressID: 7, IFCTypeName: "IFCWALL", Mesh: mesh, ColorRGBA: [4]float32{1, 1, 1, 1}},
			{ExpressID: 9, IFCTypeName: "IFCWALL", Mesh: mesh, ColorRGBA: [4]float32{1, 1, 1, 1}},
			{ExpressID: 11, IFCTypeName: "IFCDOOR", Mesh: mesh, ColorRGBA: [4]float32{1, 1, 1, 1}},
		},
		Run: &stream.Result{
			Completion: stream.CompletionPayload{TotalCandidates: 4, EmptyMesh: 1},
		},
	}, nil
}

func (fakeService) ProcessInstanced(ctx context.Context, data []byte) (*ifc.InstancedResult, error) {
	set := converter.NewInstancedSet()
	mesh := &geom.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	set.Add(&router.ElementGeometry{Hash: 1, Mesh: mesh, Transform: geom.Identity()}, 7, [4]float32{1, 1, 1, 1})
	set.Add(&router.ElementGeometry{Hash: 1, Mesh: mesh, Transform: geom.Translate(geom.Vec3{X: 5})}, 9, [4]float32{1, 1, 1, 1})
	return &ifc.InstancedResult{
		FileInfo:  importer.FileInfo{Schema: "IFC4"},
		UnitScale: 0.001,
		Instanced: set,
		Run: &stream.Result{
			Completion: stream.CompletionPayload{TotalCandidates: 2},
		},
	}, nil
}

func newTestUseCase(t *testing.T) (*GeometryUseCase, *storage.Manager) {
	t.Helper()
	backend, err := storage.NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := storage.NewManager(backend, 1)
	return NewGeometryUseCase(mgr, fakeService{}, nil), mgr
}

func TestProcessFileSummarizes(t *testing.T) {
	uc, mgr := newTestUseCase(t)
	ctx := context.Background()
	if err := mgr.Put(ctx, "models/office.ifc", []byte("ISO-10303-21;")); err != nil {
		t.Fatal(err)
	}

	result, err := uc.ProcessFile(ctx, "models/office.ifc", ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	m := result.Model
	if m.Name != "office" || m.Schema != "IFC4" {
		t.Errorf("model name/schema = %q/%q", m.Name, m.Schema)
	}
	if m.ElementCounts["IFCWALL"] != 2 || m.ElementCounts["IFCDOOR"] != 1 {
		t.Errorf("element counts = %v", m.ElementCounts)
	}
	if m.Stats.Triangles != 3 {
		t.Errorf("triangles = %d, want 3", m.Stats.Triangles)
	}
	if got := m.SortedTypes(); len(got) != 2 || got[0] != "IFCWALL" {
		t.Errorf("sorted types = %v", got)
	}
}

func TestProcessFileExportsDocument(t *testing.T) {
	uc, mgr := newTestUseCase(t)
	ctx := context.Background()
	if err := mgr.Put(ctx, "models/office.ifc", []byte("ISO-10303-21;")); err != nil {
		t.Fatal(err)
	}

	result, err := uc.ProcessFile(ctx, "models/office.ifc", ProcessOptions{
		OutputKey: "out/office.json",
	})
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.OutputKey != "out/office.json" {
		t.Errorf("output key = %q", result.OutputKey)
	}

	data, err := mgr.Get(ctx, "out/office.json")
	if err != nil {
		t.Fatalf("exported document missing: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("exported document is not JSON: %v", err)
	}
	if _, ok := doc["elements"]; !ok {
		t.Error("exported document has no elements")
	}
}

func TestProcessFileInstancedMode(t *testing.T) {
	uc, mgr := newTestUseCase(t)
	ctx := context.Background()
	if err := mgr.Put(ctx, "models/office.ifc", []byte("ISO-10303-21;")); err != nil {
		t.Fatal(err)
	}

	result, err := uc.ProcessFile(ctx, "models/office.ifc", ProcessOptions{Instanced: true})
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.Model.Stats.SharedGeometries != 1 {
		t.Errorf("shared geometries = %d, want 1", result.Model.Stats.SharedGeometries)
	}
	if result.Model.Stats.Instances != 2 {
		t.Errorf("instances = %d, want 2", result.Model.Stats.Instances)
	}
}

func TestProcessFileMissingSource(t *testing.T) {
	uc, _ := newTestUseCase(t)
	if _, err := uc.ProcessFile(context.Background(), "models/nope.ifc", ProcessOptions{}); err == nil {
		t.Error("expected error for missing source")
	}
}
