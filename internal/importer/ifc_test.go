package importer

import (
	"testing"

	"github.com/arx-os/ifcgeom/internal/step"
)

const headerFixture = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('office.ifc','2024-03-01T10:00:00',('author'),(''),'','','');
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#1=IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.);
#2=IFCSIUNIT(*,.AREAUNIT.,$,.SQUARE_METRE.);
ENDSEC;
END-ISO-10303-21;
`

func TestCanImport(t *testing.T) {
	if !CanImport([]byte(headerFixture)) {
		t.Error("STEP fixture should be importable")
	}
	if CanImport([]byte("%PDF-1.7 not a step file")) {
		t.Error("non-STEP data should be rejected")
	}
}

func TestReadFileInfo(t *testing.T) {
	info := ReadFileInfo([]byte(headerFixture))
	if info.Schema != "IFC4" {
		t.Errorf("schema = %q, want IFC4", info.Schema)
	}
	if info.Name != "office.ifc" {
		t.Errorf("name = %q", info.Name)
	}
	if info.Description != "ViewDefinition [CoordinationView]" {
		t.Errorf("description = %q", info.Description)
	}
}

func TestUnitScaleMillimeters(t *testing.T) {
	buf := []byte(headerFixture)
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatal(err)
	}
	dec := step.NewDecoder(buf, idx)
	if scale := UnitScale(idx, dec); scale != 0.001 {
		t.Errorf("scale = %g, want 0.001", scale)
	}
}

func TestUnitScaleDefaultsToMeters(t *testing.T) {
	buf := []byte("ISO-10303-21;\nDATA;\n#1=IFCSIUNIT(*,.LENGTHUNIT.,$,.METRE.);\nENDSEC;\n")
	idx, err := step.BuildEntityIndex(buf)
	if err != nil {
		t.Fatal(err)
	}
	dec := step.NewDecoder(buf, idx)
	if scale := UnitScale(idx, dec); scale != 1.0 {
		t.Errorf("scale = %g, want 1.0", scale)
	}
}
