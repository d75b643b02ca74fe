package ifc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/config"
)

// wallFixture is a complete minimal STEP file: header with a
// millimeter length unit, one wall with an extruded Body
// representation.
const wallFixture = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('wall.ifc','2024-03-01T10:00:00',(''),(''),'','','');
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#1=IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.);
#2=IFCDIRECTION((0.,0.,1.));
#3=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);
#4=IFCEXTRUDEDAREASOLID(#3,$,#2,3000.);
#5=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#4));
#6=IFCPRODUCTDEFINITIONSHAPE($,$,(#5));
#7=IFCWALL($,$,$,$,$,$,#6,$);
ENDSEC;
END-ISO-10303-21;
`

func testConfig() config.GeometryConfig {
	cfg := config.Default().Geometry
	cfg.Sequential = true
	return cfg
}

func TestGeometryServiceProcess(t *testing.T) {
	svc := NewGeometryService(testConfig(), logger.New(logger.ERROR), nil)

	result, err := svc.Process(context.Background(), []byte(wallFixture))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	assert.Equal(t, "IFC4", result.FileInfo.Schema)
	assert.Equal(t, 0.001, result.UnitScale)
	assert.Len(t, result.Elements, 1)
	assert.Equal(t, 1, result.Run.Completion.TotalCandidates)

	el := result.Elements[0]
	assert.Equal(t, uint32(7), el.ExpressID)
	assert.Equal(t, "IFCWALL", el.IFCTypeName)
	assert.Equal(t, 12, len(el.Mesh.Indices)/3)
	if err := el.Mesh.Validate(); err != nil {
		t.Errorf("emitted mesh invalid: %v", err)
	}
}

func TestGeometryServiceProcessInstanced(t *testing.T) {
	svc := NewGeometryService(testConfig(), logger.New(logger.ERROR), nil)

	result, err := svc.ProcessInstanced(context.Background(), []byte(wallFixture))
	if err != nil {
		t.Fatalf("ProcessInstanced: %v", err)
	}
	assert.Len(t, result.Instanced.Geometries, 1)
	assert.Equal(t, 1, result.Instanced.InstanceCount())
}

func TestGeometryServiceRejectsNonStep(t *testing.T) {
	svc := NewGeometryService(testConfig(), logger.New(logger.ERROR), nil)
	_, err := svc.Process(context.Background(), []byte("<html>not a model</html>"))
	assert.Error(t, err)
}

func TestGeometryServiceHonorsCanceledContext(t *testing.T) {
	svc := NewGeometryService(testConfig(), logger.New(logger.ERROR), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Process(ctx, []byte(wallFixture))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoggingServiceDelegates(t *testing.T) {
	svc := NewLoggingService(NewGeometryService(testConfig(), logger.New(logger.ERROR), nil), logger.New(logger.ERROR))

	result, err := svc.Process(context.Background(), []byte(wallFixture))
	if err != nil {
		t.Fatalf("Process through decorator: %v", err)
	}
	assert.Len(t, result.Elements, 1)
}
