package collab

import (
	"testing"

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

const fixture = `#1=IFCPROJECT('gid1',$,'Project',$,$,$,$,$,$);
#2=IFCSITE('gid2',$,'Site',$,$,$,$,$,$,$,$,$,$);
#3=IFCBUILDING('gid3',$,'Building',$,$,$,$,$,$,$,$,$);
#4=IFCBUILDINGSTOREY('gid4',$,'Level 1',$,$,$,$,$,$,3000.);
#5=IFCWALL('gid5',$,'Wall 1',$,$,$,$,$);
#10=IFCRELAGGREGATES($,$,$,$,#1,(#2));
#11=IFCRELAGGREGATES($,$,$,$,#2,(#3));
#12=IFCRELAGGREGATES($,$,$,$,#3,(#4));
#13=IFCRELCONTAINEDINSPATIALSTRUCTURE($,$,$,$,(#5),#4);
#20=IFCPROPERTYSET('gid20',$,'Pset_WallCommon',$,(#21));
#21=IFCPROPERTYSINGLEVALUE('IsExternal',$,.T.,$);
#30=IFCELEMENTQUANTITY('gid30',$,'Qto_WallBaseQuantities',$,'Area',(#31));
#31=IFCQUANTITYAREA('NetSideArea',$,$,12.5,$);`

func TestStepPropertyExtractor_Extract(t *testing.T) {
	idx, dec := decodeIndex(t, fixture)
	dm, err := StepPropertyExtractor{}.Extract(idx, dec)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(dm.Entities) != 13 {
		t.Fatalf("expected 13 entities, got %d", len(dm.Entities))
	}
	if len(dm.PropertySets) != 1 || dm.PropertySets[0].PsetName != "Pset_WallCommon" {
		t.Fatalf("expected one property set, got %+v", dm.PropertySets)
	}
	if len(dm.QuantitySets) != 1 || dm.QuantitySets[0].Quantities[0].Value != 12.5 {
		t.Fatalf("expected one quantity set with value 12.5, got %+v", dm.QuantitySets)
	}
	foundContainment := false
	for _, r := range dm.Relationships {
		if r.RelType == "IFCRELCONTAINEDINSPATIALSTRUCTURE" && r.RelatingID == 4 && r.RelatedID == 5 {
			foundContainment = true
		}
	}
	if !foundContainment {
		t.Fatalf("expected storey #4 -> wall #5 containment, got %+v", dm.Relationships)
	}
}

func TestRelAggregatesHierarchyBuilder_Build(t *testing.T) {
	idx, dec := decodeIndex(t, fixture)
	dm, err := StepPropertyExtractor{}.Extract(idx, dec)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	h := RelAggregatesHierarchyBuilder{}.Build(dm, dec)

	if h.ProjectID != 1 {
		t.Fatalf("expected project id 1, got %d", h.ProjectID)
	}
	if h.ElementToStorey[5] != 4 {
		t.Fatalf("expected wall #5 mapped to storey #4, got %d", h.ElementToStorey[5])
	}

	var storeyNode *SpatialNode
	for i := range h.Nodes {
		if h.Nodes[i].EntityID == 4 {
			storeyNode = &h.Nodes[i]
		}
	}
	if storeyNode == nil {
		t.Fatalf("expected a node for storey #4")
	}
	if storeyNode.Elevation == nil || *storeyNode.Elevation != 3000 {
		t.Fatalf("expected storey elevation 3000, got %v", storeyNode.Elevation)
	}
	if storeyNode.Path != "Project/Site/Building/Level 1" {
		t.Fatalf("expected full path, got %q", storeyNode.Path)
	}
}
