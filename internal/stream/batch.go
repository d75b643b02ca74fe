package stream

import (
	"math"

	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// simpleElementTypes is phase 1's "simple" element types: walls,
// slabs, beams, columns, plates, roofs, coverings, footings, railings,
// stairs, ramps.
var simpleElementTypes = map[string]bool{
	"IFCWALL": true, "IFCWALLSTANDARDCASE": true,
	"IFCSLAB":   true,
	"IFCBEAM":   true,
	"IFCCOLUMN": true,
	"IFCPLATE":  true, "IFCPLATESTANDARDCASE": true,
	"IFCROOF":      true,
	"IFCCOVERING":  true,
	"IFCFOOTING":   true,
	"IFCRAILING":   true,
	"IFCSTAIR":     true, "IFCSTAIRFLIGHT": true,
	"IFCRAMP": true, "IFCRAMPFLIGHT": true,
}

// complexElementTypes is everything else geometry-bearing that phase 2
// defers to get full style/void resolution. IfcOpeningElement is
// deliberately excluded: it is only ever processed as a subtrahend by
// the void engine, never emitted as its own result.
var complexElementTypes = map[string]bool{
	"IFCDOOR": true, "IFCWINDOW": true,
	"IFCFURNISHINGELEMENT": true, "IFCBUILDINGELEMENTPROXY": true,
	"IFCMEMBER": true, "IFCSPACE": true,
	// IfcSite goes through the plain merged-mesh path, never the
	// per-item sub-mesh path; its placement semantics differ from the
	// styled multi-item elements.
	"IFCSITE": true,
}

// classifyCandidates partitions every indexed entity id into phase 1 and
// phase 2 candidate lists, preserving scanner order within each.
func classifyCandidates(idx *step.EntityIndex) (simple, complex []uint32) {
	for _, id := range idx.IDsInOrder() {
		t, ok := idx.TypeName(id)
		if !ok {
			continue
		}
		switch {
		case simpleElementTypes[t]:
			simple = append(simple, id)
		case complexElementTypes[t]:
			complex = append(complex, id)
		}
	}
	return simple, complex
}

// chunk splits ids into batches of at most size, preserving order. A
// non-positive size yields a single batch.
func chunk(ids []uint32, size int) [][]uint32 {
	if size <= 0 || len(ids) <= size {
		if len(ids) == 0 {
			return nil
		}
		return [][]uint32{ids}
	}
	var out [][]uint32
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}

// outlierDistanceMeters and outlierMaxCoordMeters are the outlier
// thresholds, applied after RTC rebasing.
const (
	outlierDistanceMeters  = 50_000.0
	outlierMaxCoordMeters  = 200_000.0
	outlierFractionTrigger = 0.9
)

// isOutlierMesh is the post-transform outlier filter: a mesh
// is discarded if any coordinate is non-finite, any vertex's max
// coordinate exceeds outlierMaxCoordMeters, or more than
// outlierFractionTrigger of its vertices are farther than
// outlierDistanceMeters from the origin.
func isOutlierMesh(m *geom.Mesh) bool {
	n := m.VertexCount()
	if n == 0 {
		return false
	}
	far := 0
	for i := 0; i < n; i++ {
		v := m.Vertex(i)
		if !v.IsFinite() {
			return true
		}
		if maxAbsComponent(v) > outlierMaxCoordMeters {
			return true
		}
		if v.Length() > outlierDistanceMeters {
			far++
		}
	}
	return float64(far)/float64(n) > outlierFractionTrigger
}

func maxAbsComponent(v geom.Vec3) float64 {
	m := math.Abs(v.X)
	if a := math.Abs(v.Y); a > m {
		m = a
	}
	if a := math.Abs(v.Z); a > m {
		m = a
	}
	return m
}

// firstBodyItemRef resolves productRef's first accepted-type Body
// representation item, the same join the void engine performs, used
// here only to look up that item's resolved style color.
func firstBodyItemRef(productRef uint32, dec *step.Decoder) (uint32, bool) {
	product, err := dec.DecodeByID(productRef)
	if err != nil {
		return 0, false
	}
	repRef, ok := product.RefAt(6)
	if !ok {
		return 0, false
	}
	shapeEntity, err := dec.DecodeByID(repRef)
	if err != nil {
		return 0, false
	}
	shapeRepRefs, ok := shapeEntity.ListAt(2)
	if !ok {
		return 0, false
	}
	for _, ref := range shapeRepRefs {
		if ref.Kind != step.AttrRef {
			continue
		}
		se, err := dec.DecodeByID(ref.Ref)
		if err != nil {
			continue
		}
		items, ok := se.ListAt(3)
		if !ok || len(items) == 0 || items[0].Kind != step.AttrRef {
			continue
		}
		return items[0].Ref, true
	}
	return 0, false
}
