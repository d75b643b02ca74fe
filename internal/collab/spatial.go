package collab

import (
	"fmt"

	"github.com/arx-os/ifcgeom/internal/step"
)

// SpatialNode is one level of the IfcProject/IfcSite/IfcBuilding/
// IfcBuildingStorey/IfcSpace containment tree, plus the elements
// directly housed at that level.
type SpatialNode struct {
	EntityID   uint32
	ParentID   uint32
	Level      int
	Path       string
	TypeName   string
	Name       string
	Elevation  *float64
	ChildIDs   []uint32
	ElementIDs []uint32
}

// SpatialHierarchy is build_spatial_hierarchy's output: the full node
// set plus flattened element-to-container lookup tables for the four
// container kinds a geometry consumer typically wants.
type SpatialHierarchy struct {
	Nodes             []SpatialNode
	ProjectID         uint32
	ElementToStorey   map[uint32]uint32
	ElementToBuilding map[uint32]uint32
	ElementToSite     map[uint32]uint32
	ElementToSpace    map[uint32]uint32
}

// SpatialHierarchyBuilder builds a SpatialHierarchy from the entity
// metadata and relationships a PropertyExtractor already collected, so
// the driver can call it without re-scanning the file. dec is consulted
// only for attributes DataModel's flat EntityMetadata does not carry,
// such as an IfcBuildingStorey's Elevation.
type SpatialHierarchyBuilder interface {
	Build(dm DataModel, dec *step.Decoder) SpatialHierarchy
}

var spatialTypes = map[string]bool{
	"IFCPROJECT": true, "IFCSITE": true, "IFCBUILDING": true,
	"IFCBUILDINGSTOREY": true, "IFCSPACE": true,
}

// RelAggregatesHierarchyBuilder is the real SpatialHierarchyBuilder,
// grounded on build_spatial_hierarchy: IfcRelAggregates composes the
// spatial tree, IfcRelContainedInSpatialStructure attaches elements to
// their nearest spatial container.
type RelAggregatesHierarchyBuilder struct{}

func (RelAggregatesHierarchyBuilder) Build(dm DataModel, dec *step.Decoder) SpatialHierarchy {
	entityByID := make(map[uint32]EntityMetadata, len(dm.Entities))
	for _, e := range dm.Entities {
		entityByID[e.EntityID] = e
	}

	spatialChildren := make(map[uint32][]uint32)
	elementContainment := make(map[uint32][]uint32)
	for _, rel := range dm.Relationships {
		switch rel.RelType {
		case "IFCRELAGGREGATES":
			spatialChildren[rel.RelatingID] = append(spatialChildren[rel.RelatingID], rel.RelatedID)
		case "IFCRELCONTAINEDINSPATIALSTRUCTURE":
			elementContainment[rel.RelatingID] = append(elementContainment[rel.RelatingID], rel.RelatedID)
		}
	}

	var projectID uint32
	for _, e := range dm.Entities {
		if e.TypeName == "IFCPROJECT" {
			projectID = e.EntityID
			break
		}
	}

	nodes := make(map[uint32]SpatialNode)
	if projectID != 0 {
		buildSpatialNodesRecursive(projectID, 0, 0, "", spatialChildren, elementContainment, entityByID, nodes, dec)
	}
	for id, e := range entityByID {
		if !spatialTypes[e.TypeName] {
			continue
		}
		if _, ok := nodes[id]; ok {
			continue
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", e.TypeName, id)
		}
		node := SpatialNode{
			EntityID:   id,
			Path:       name,
			TypeName:   e.TypeName,
			Name:       e.Name,
			ChildIDs:   spatialChildren[id],
			ElementIDs: elementContainment[id],
		}
		if e.TypeName == "IFCBUILDINGSTOREY" {
			node.Elevation = elevationOf(id, dec)
		}
		nodes[id] = node
	}

	out := SpatialHierarchy{
		ProjectID:         projectID,
		ElementToStorey:   make(map[uint32]uint32),
		ElementToBuilding: make(map[uint32]uint32),
		ElementToSite:     make(map[uint32]uint32),
		ElementToSpace:    make(map[uint32]uint32),
	}
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, n)
		for _, elementID := range n.ElementIDs {
			switch n.TypeName {
			case "IFCBUILDINGSTOREY":
				out.ElementToStorey[elementID] = n.EntityID
			case "IFCBUILDING":
				out.ElementToBuilding[elementID] = n.EntityID
			case "IFCSITE":
				out.ElementToSite[elementID] = n.EntityID
			case "IFCSPACE":
				out.ElementToSpace[elementID] = n.EntityID
			}
		}
	}
	return out
}

func buildSpatialNodesRecursive(
	id uint32, parentID uint32, level int, parentPath string,
	spatialChildren, elementContainment map[uint32][]uint32,
	entityByID map[uint32]EntityMetadata,
	nodes map[uint32]SpatialNode,
	dec *step.Decoder,
) {
	if _, seen := nodes[id]; seen {
		return
	}
	e, ok := entityByID[id]
	if !ok {
		return
	}
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("%s#%d", e.TypeName, id)
	}
	path := name
	if parentPath != "" {
		path = parentPath + "/" + name
	}

	node := SpatialNode{
		EntityID:   id,
		ParentID:   parentID,
		Level:      level,
		Path:       path,
		TypeName:   e.TypeName,
		Name:       e.Name,
		ChildIDs:   spatialChildren[id],
		ElementIDs: elementContainment[id],
	}
	if e.TypeName == "IFCBUILDINGSTOREY" {
		node.Elevation = elevationOf(id, dec)
	}
	nodes[id] = node

	for _, childID := range spatialChildren[id] {
		buildSpatialNodesRecursive(childID, id, level+1, path, spatialChildren, elementContainment, entityByID, nodes, dec)
	}
}

// elevationOf resolves an IfcBuildingStorey's Elevation attribute
// (attribute 9 in the IFC4 layout), used to annotate a storey node
// beyond what DataModel's flat EntityMetadata carries.
func elevationOf(storeyRef uint32, dec *step.Decoder) *float64 {
	e, err := dec.DecodeByID(storeyRef)
	if err != nil {
		return nil
	}
	v, ok := e.FloatAt(9)
	if !ok {
		return nil
	}
	return &v
}
