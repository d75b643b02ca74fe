package step

import "strings"

// GetCartesianPointFast returns an IfcCartesianPoint's coordinates,
// memoized per id in the decoder's point cache; on a miss it decodes the
// entity through DecodeByID, which also fills the generic Entity cache.
// Z defaults to 0 for 2D points, matching IFC's permissive
// two-or-three-coordinate list.
//
// Contract: returns ok=false on any parse deviation; never panics.
func (d *Decoder) GetCartesianPointFast(id uint32) (x, y, z float64, ok bool) {
	d.mu.Lock()
	if p, cached := d.pointCache[id]; cached {
		d.mu.Unlock()
		return p[0], p[1], p[2], true
	}
	d.mu.Unlock()

	e, err := d.DecodeByID(id)
	if err != nil {
		return 0, 0, 0, false
	}
	coords, isList := e.ListAt(0)
	if !isList || len(coords) < 2 || len(coords) > 3 {
		return 0, 0, 0, false
	}
	x, ok1 := coords[0].AsFloat()
	y, ok2 := coords[1].AsFloat()
	if !ok1 || !ok2 {
		return 0, 0, 0, false
	}
	z = 0
	if len(coords) == 3 {
		var ok3 bool
		z, ok3 = coords[2].AsFloat()
		if !ok3 {
			return 0, 0, 0, false
		}
	}
	d.mu.Lock()
	d.pointCache[id] = [3]float64{x, y, z}
	d.mu.Unlock()
	return x, y, z, true
}

// AsFloat returns a's numeric value, accepting either AttrFloat or
// AttrInt, for callers walking a generic attribute list (e.g. an
// IfcDirection's ratio list) rather than a known entity shape.
func (a Attribute) AsFloat() (float64, bool) {
	switch a.Kind {
	case AttrFloat:
		return a.Float, true
	case AttrInt:
		return float64(a.Int), true
	default:
		return 0, false
	}
}

// GetPolyLoopCoordsCached resolves an IfcPolyLoop's full point list in one
// pass, chasing each CartesianPoint reference through
// GetCartesianPointFast so repeated points across many loops only get
// parsed once.
func (d *Decoder) GetPolyLoopCoordsCached(id uint32) ([][3]float64, bool) {
	e, err := d.DecodeByID(id)
	if err != nil {
		return nil, false
	}
	refs, isList := e.ListAt(0)
	if !isList {
		return nil, false
	}
	pts := make([][3]float64, 0, len(refs))
	for _, r := range refs {
		if r.Kind != AttrRef {
			return nil, false
		}
		x, y, z, ok := d.GetCartesianPointFast(r.Ref)
		if !ok {
			return nil, false
		}
		pts = append(pts, [3]float64{x, y, z})
	}
	return pts, true
}

// GetFaceBoundFast inspects a face-bound entity's type name to decide
// whether it is an IfcFaceOuterBound (always outer) or a plain
// IfcFaceBound (outer-ness determined by context, defaulted here to
// false — callers that track "first bound wins" do so themselves), and
// reads its loop reference and orientation flag without decoding the
// entire generic Entity twice.
func (d *Decoder) GetFaceBoundFast(id uint32) (loopID uint32, orientation bool, isOuter bool, ok bool) {
	typeName, known := d.index.TypeName(id)
	if !known {
		return 0, false, false, false
	}
	isOuter = strings.Contains(typeName, "OUTER")

	e, err := d.DecodeByID(id)
	if err != nil {
		return 0, false, false, false
	}
	loopID, isRef := e.RefAt(0)
	if !isRef {
		return 0, false, false, false
	}
	orientation, isBool := e.BoolAt(1)
	if !isBool {
		// Orientation is occasionally omitted in malformed exports;
		// default to true (not reversed) rather than fail the face.
		orientation = true
	}
	return loopID, orientation, isOuter, true
}

// GetEntityRefListFast extracts a list of entity references from the
// first attribute of id that is itself a parenthesized list of refs,
// e.g. an IfcClosedShell's CfsFaces attribute.
func (d *Decoder) GetEntityRefListFast(id uint32) ([]uint32, bool) {
	e, err := d.DecodeByID(id)
	if err != nil {
		return nil, false
	}
	for _, a := range e.Attributes {
		if a.Kind != AttrList {
			continue
		}
		refs := make([]uint32, 0, len(a.List))
		allRefs := len(a.List) > 0
		for _, item := range a.List {
			if item.Kind != AttrRef {
				allRefs = false
				break
			}
			refs = append(refs, item.Ref)
		}
		if allRefs {
			return refs, true
		}
	}
	return nil, false
}
