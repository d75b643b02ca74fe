package collab

import (
	"fmt"
	"strings"

	"github.com/arx-os/ifcgeom/internal/step"
)

// EntityMetadata is the per-entity record PropertyExtractor reports for
// extract_entity_metadata.
type EntityMetadata struct {
	EntityID    uint32
	TypeName    string
	GlobalID    string
	Name        string
	HasGeometry bool
}

// Property is a single name/value pair lifted from an IfcPropertySingleValue.
type Property struct {
	Name  string
	Value string
	Type  string
}

// PropertySet is one IfcPropertySet's HasProperties, filtered to the
// properties this extractor knows how to decode.
type PropertySet struct {
	PsetID     uint32
	PsetName   string
	Properties []Property
}

// Quantity is a single measured value from an IfcPhysicalQuantity.
type Quantity struct {
	Name  string
	Value float64
	Type  string // length, area, volume, count, weight, time
}

// QuantitySet is one IfcElementQuantity's Quantities.
type QuantitySet struct {
	QsetID               uint32
	QsetName             string
	MethodOfMeasurement  string
	Quantities           []Quantity
}

// Relationship flattens an IfcRel* entity's one-to-many relating/related
// pair into one record per related entity, per extract_relationships.
type Relationship struct {
	RelType    string
	RelatingID uint32
	RelatedID  uint32
}

// DataModel is the complete metadata side-channel extract_data_model
// produces: everything the geometry core itself does not need but a
// hosting service wants alongside it.
type DataModel struct {
	Entities      []EntityMetadata
	PropertySets  []PropertySet
	QuantitySets  []QuantitySet
	Relationships []Relationship
}

// PropertyExtractor pulls entity metadata, property sets, quantity sets
// and relationships out of a decoded file. The streaming driver calls it
// once per file if supplied and ignores its absence otherwise.
type PropertyExtractor interface {
	Extract(idx *step.EntityIndex, dec *step.Decoder) (DataModel, error)
}

// hasGeometryTypes mirrors the core's own notion of "geometry-bearing" by
// naming every IfcProduct subtype the router or void engine ever looks
// at the Representation attribute of.
var hasGeometryTypes = map[string]bool{
	"IFCWALL": true, "IFCWALLSTANDARDCASE": true, "IFCSLAB": true,
	"IFCBEAM": true, "IFCCOLUMN": true, "IFCPLATE": true, "IFCROOF": true,
	"IFCCOVERING": true, "IFCFOOTING": true, "IFCRAILING": true,
	"IFCSTAIR": true, "IFCSTAIRFLIGHT": true, "IFCRAMP": true,
	"IFCRAMPFLIGHT": true, "IFCDOOR": true, "IFCWINDOW": true,
	"IFCOPENINGELEMENT": true, "IFCFURNISHINGELEMENT": true,
	"IFCBUILDINGELEMENTPROXY": true, "IFCSPACE": true, "IFCMEMBER": true,
	"IFCPLATESTANDARDCASE": true,
}

// relationshipTypes is extract_relationships' filter set.
var relationshipTypes = map[string]bool{
	"IFCRELCONTAINEDINSPATIALSTRUCTURE": true,
	"IFCRELAGGREGATES":                  true,
	"IFCRELDEFINESBYPROPERTIES":         true,
	"IFCRELDEFINESBYTYPE":               true,
	"IFCRELASSOCIATESMATERIAL":          true,
	"IFCRELVOIDSELEMENT":                true,
	"IFCRELFILLSELEMENT":                true,
}

// StepPropertyExtractor is the real PropertyExtractor, grounded on the
// original data-model extraction service's four passes over the entity
// index.
type StepPropertyExtractor struct{}

func (StepPropertyExtractor) Extract(idx *step.EntityIndex, dec *step.Decoder) (DataModel, error) {
	ids := idx.IDsInOrder()
	var dm DataModel
	dm.Entities = make([]EntityMetadata, 0, len(ids))

	for _, id := range ids {
		typ, ok := idx.TypeName(id)
		if !ok {
			continue
		}
		e, err := dec.DecodeByID(id)
		if err != nil {
			continue
		}

		switch typ {
		case "IFCPROPERTYSET":
			if ps, ok := extractPropertySet(id, e, dec); ok {
				dm.PropertySets = append(dm.PropertySets, ps)
			}
		case "IFCELEMENTQUANTITY":
			if qs, ok := extractQuantitySet(id, e, dec); ok {
				dm.QuantitySets = append(dm.QuantitySets, qs)
			}
		}

		if relationshipTypes[typ] {
			dm.Relationships = append(dm.Relationships, extractRelationships(typ, e)...)
		}

		globalID, _ := e.StringAt(0)
		name, _ := e.StringAt(2)
		dm.Entities = append(dm.Entities, EntityMetadata{
			EntityID:    id,
			TypeName:    typ,
			GlobalID:    globalID,
			Name:        name,
			HasGeometry: hasGeometryTypes[typ],
		})
	}
	return dm, nil
}

// extractPropertySet decodes an IfcPropertySet's HasProperties list
// (attr4), keeping only IfcPropertySingleValue members, same as
// extract_property.
func extractPropertySet(id uint32, e *step.Entity, dec *step.Decoder) (PropertySet, bool) {
	name, ok := e.StringAt(2)
	if !ok {
		return PropertySet{}, false
	}
	refs, ok := e.ListAt(4)
	if !ok {
		return PropertySet{}, false
	}

	var props []Property
	for _, ref := range refs {
		if ref.Kind != step.AttrRef {
			continue
		}
		propEntity, err := dec.DecodeByID(ref.Ref)
		if err != nil || propEntity.Type != "IFCPROPERTYSINGLEVALUE" {
			continue
		}
		propName, ok := propEntity.StringAt(0)
		if !ok {
			continue
		}
		value, valType := decodeNominalValue(propEntity.Attr(2))
		props = append(props, Property{Name: propName, Value: value, Type: valType})
	}
	if len(props) == 0 {
		return PropertySet{}, false
	}
	return PropertySet{PsetID: id, PsetName: name, Properties: props}, true
}

func decodeNominalValue(a step.Attribute) (string, string) {
	switch a.Kind {
	case step.AttrString:
		return fmt.Sprintf("%q", a.Str), "string"
	case step.AttrFloat:
		return fmt.Sprintf("%g", a.Float), "number"
	case step.AttrInt:
		return fmt.Sprintf("%d", a.Int), "integer"
	case step.AttrBool:
		return fmt.Sprintf("%t", a.Bool), "boolean"
	default:
		return "", "unknown"
	}
}

// quantityTypes maps an IfcPhysicalQuantity subtype to extract_quantity_value's
// quantity_type string.
var quantityTypes = map[string]string{
	"IFCQUANTITYLENGTH": "length", "IFCQUANTITYAREA": "area",
	"IFCQUANTITYVOLUME": "volume", "IFCQUANTITYCOUNT": "count",
	"IFCQUANTITYWEIGHT": "weight", "IFCQUANTITYTIME": "time",
}

func extractQuantitySet(id uint32, e *step.Entity, dec *step.Decoder) (QuantitySet, bool) {
	name, ok := e.StringAt(2)
	if !ok {
		return QuantitySet{}, false
	}
	method, _ := e.StringAt(4)
	refs, ok := e.ListAt(5)
	if !ok {
		return QuantitySet{}, false
	}

	var quantities []Quantity
	for _, ref := range refs {
		if ref.Kind != step.AttrRef {
			continue
		}
		qEntity, err := dec.DecodeByID(ref.Ref)
		if err != nil {
			continue
		}
		qType, ok := quantityTypes[qEntity.Type]
		if !ok {
			continue
		}
		qName, ok := qEntity.StringAt(0)
		if !ok {
			continue
		}
		value, ok := qEntity.FloatAt(3)
		if !ok {
			continue
		}
		quantities = append(quantities, Quantity{Name: qName, Value: value, Type: qType})
	}
	if len(quantities) == 0 {
		return QuantitySet{}, false
	}
	return QuantitySet{QsetID: id, QsetName: name, MethodOfMeasurement: method, Quantities: quantities}, true
}

// relatingRelatedIndex is extract_relationship's per-type attribute
// layout: most IfcRel* entities carry RelatingObject at 4 and
// RelatedObjects at 5, but the two property/containment relationships
// swap the order.
func relatingRelatedIndex(relType string) (relating, related int) {
	switch relType {
	case "IFCRELDEFINESBYPROPERTIES":
		return 5, 4
	case "IFCRELCONTAINEDINSPATIALSTRUCTURE":
		return 5, 4
	default:
		return 4, 5
	}
}

func extractRelationships(relType string, e *step.Entity) []Relationship {
	relatingIdx, relatedIdx := relatingRelatedIndex(relType)
	relatingID, ok := e.RefAt(relatingIdx)
	if !ok {
		return nil
	}
	relatedList, ok := e.ListAt(relatedIdx)
	if !ok {
		return nil
	}
	var out []Relationship
	for _, r := range relatedList {
		if r.Kind != step.AttrRef {
			continue
		}
		out = append(out, Relationship{RelType: relType, RelatingID: relatingID, RelatedID: r.Ref})
	}
	return out
}

// TypeNameWithoutPrefix strips the IFC "IFC" prefix for display, e.g. in
// a spatial-node path segment.
func TypeNameWithoutPrefix(t string) string {
	return strings.TrimPrefix(t, "IFC")
}
