package router

import (
	"errors"

	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/step"
)

// errMissingMappingSource is returned when an IfcMappedItem is missing
// its MappingSource reference.
var errMissingMappingSource = errors.New("router: MappedItem missing MappingSource")

// acceptedRepresentationTypes is the set of "Accepted representation-type
// strings" — the RepresentationType an IfcShapeRepresentation must
// carry for the router to walk its Items at all.
var acceptedRepresentationTypes = map[string]bool{
	"Body": true, "SweptSolid": true, "SolidModel": true, "Brep": true,
	"CSG": true, "Clipping": true, "SurfaceModel": true, "Tessellation": true,
	"AdvancedSweptSolid": true, "AdvancedBrep": true, "MappedRepresentation": true,
}

// Router processes IfcProduct entities into world-space meshes,
// handling representation resolution, MappedItem/BRep caching,
// content-hash dedup, placement composition, unit scaling and RTC
// rebasing.
type Router struct {
	Registry  *ifcproc.Registry
	Cache     *GeometryCache
	Ctx       *ifcproc.ProcessContext
	UnitScale float64
	Log       *logger.Logger

	hasRTC    bool
	rtcOffset geom.Vec3
}

// NewRouter builds a Router. unitScale converts file-native length
// units to meters (e.g. 0.001 for a file declared in millimeters).
func NewRouter(registry *ifcproc.Registry, cache *GeometryCache, ctx *ifcproc.ProcessContext, unitScale float64, log *logger.Logger) *Router {
	return &Router{Registry: registry, Cache: cache, Ctx: ctx, UnitScale: unitScale, Log: log}
}

// SetRTCOffset installs a coordinate-rebasing offset, applied
// to every element mesh's translation from this point on.
func (r *Router) SetRTCOffset(offset geom.Vec3) {
	r.rtcOffset = offset
	r.hasRTC = true
}

// ProcessElement resolves productRef's geometry: representation
// traversal, item dispatch, merge, placement, unit scaling, RTC.
func (r *Router) ProcessElement(productRef uint32, dec *step.Decoder) (*geom.Mesh, error) {
	product, shapeReps, hasDirectBody, err := r.resolveShapeReps(productRef, dec)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return &geom.Mesh{}, nil
	}

	mesh := &geom.Mesh{}
	for _, sub := range r.collectItemMeshes(shapeReps, hasDirectBody, dec) {
		geom.Merge(mesh, sub.Mesh)
	}

	if placementRef, ok := product.RefAt(5); ok {
		mat := r.resolveScaledPlacement(placementRef, dec)
		geom.ApplyTransform(mesh, &mat)
	}
	if r.hasRTC {
		ApplyRTC(mesh, r.rtcOffset)
	}
	return mesh, nil
}

// SubMesh is one representation item's mesh, tagged with the item's
// entity id so callers can look up per-item styles.
type SubMesh struct {
	GeometryItemID uint32
	Mesh           *geom.Mesh
}

// ElementGeometry is an element's geometry split into a shared,
// untransformed mesh and the per-instance placement. Elements whose
// merged item meshes are byte-identical share Hash and Mesh, so a
// consumer can emit one geometry with many placed instances.
type ElementGeometry struct {
	Hash      uint64
	Mesh      *geom.Mesh
	Transform geom.Mat4
}

// ProcessElementSubMeshes is ProcessElement without the merge: each
// representation item keeps its own identity. Used for elements whose
// items carry distinct styles (windows, doors).
func (r *Router) ProcessElementSubMeshes(productRef uint32, dec *step.Decoder) ([]SubMesh, error) {
	product, shapeReps, hasDirectBody, err := r.resolveShapeReps(productRef, dec)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	subs := r.collectItemMeshes(shapeReps, hasDirectBody, dec)

	var mat geom.Mat4
	havePlacement := false
	if placementRef, ok := product.RefAt(5); ok {
		mat = r.resolveScaledPlacement(placementRef, dec)
		havePlacement = true
	}
	for i := range subs {
		// items come deduplicated out of the cache; transform a copy
		subs[i].Mesh = geom.Clone(subs[i].Mesh)
		if havePlacement {
			geom.ApplyTransform(subs[i].Mesh, &mat)
		}
		if r.hasRTC {
			ApplyRTC(subs[i].Mesh, r.rtcOffset)
		}
	}
	return subs, nil
}

// ProcessElementInstanced resolves productRef's geometry keeping the
// shared mesh and the placement apart: the returned mesh is the
// unit-scaled, untransformed merge of the element's items (the dedup
// cache's canonical copy), and Transform carries placement plus RTC.
func (r *Router) ProcessElementInstanced(productRef uint32, dec *step.Decoder) (*ElementGeometry, error) {
	product, shapeReps, hasDirectBody, err := r.resolveShapeReps(productRef, dec)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return &ElementGeometry{Mesh: &geom.Mesh{}, Transform: geom.Identity()}, nil
	}

	mesh := &geom.Mesh{}
	for _, sub := range r.collectItemMeshes(shapeReps, hasDirectBody, dec) {
		geom.Merge(mesh, sub.Mesh)
	}

	eg := &ElementGeometry{Transform: geom.Identity()}
	if !mesh.Empty() {
		eg.Hash = ContentHash(mesh)
		mesh = r.Cache.Dedup(eg.Hash, mesh)
	}
	eg.Mesh = mesh

	if placementRef, ok := product.RefAt(5); ok {
		eg.Transform = r.resolveScaledPlacement(placementRef, dec)
	}
	if r.hasRTC {
		eg.Transform = eg.Transform.WithTranslation(eg.Transform.Translation().Sub(r.rtcOffset))
	}
	return eg, nil
}

// resolveShapeReps walks productRef to its accepted shape
// representations. A nil product with nil error means the element has
// no resolvable representation.
func (r *Router) resolveShapeReps(productRef uint32, dec *step.Decoder) (*step.Entity, []*step.Entity, bool, error) {
	product, err := dec.DecodeByID(productRef)
	if err != nil {
		return nil, nil, false, err
	}
	repRef, ok := product.RefAt(6)
	if !ok {
		return nil, nil, false, nil
	}
	shapeEntity, err := dec.DecodeByID(repRef)
	if err != nil {
		return nil, nil, false, nil
	}
	shapeRepRefs, ok := shapeEntity.ListAt(2)
	if !ok {
		return nil, nil, false, nil
	}

	var shapeReps []*step.Entity
	hasDirectBody := false
	for _, ref := range shapeRepRefs {
		if ref.Kind != step.AttrRef {
			continue
		}
		se, err := dec.DecodeByID(ref.Ref)
		if err != nil {
			continue
		}
		typ, _ := se.StringAt(2)
		if !acceptedRepresentationTypes[typ] {
			continue
		}
		shapeReps = append(shapeReps, se)
		if typ != "MappedRepresentation" {
			hasDirectBody = true
		}
	}
	return product, shapeReps, hasDirectBody, nil
}

// collectItemMeshes dispatches every item of the accepted shape
// representations, skipping MappedRepresentation when a direct body is
// present and recovering per item.
func (r *Router) collectItemMeshes(shapeReps []*step.Entity, hasDirectBody bool, dec *step.Decoder) []SubMesh {
	var subs []SubMesh
	for _, se := range shapeReps {
		typ, _ := se.StringAt(2)
		if hasDirectBody && typ == "MappedRepresentation" {
			continue
		}
		items, ok := se.ListAt(3)
		if !ok {
			continue
		}
		for _, item := range items {
			if item.Kind != step.AttrRef {
				continue
			}
			itemMesh, err := r.processRepresentationItem(item.Ref, dec)
			if err != nil {
				if r.Log != nil {
					r.Log.Warn("router: skipping representation item #%d: %v", item.Ref, err)
				}
				continue
			}
			subs = append(subs, SubMesh{GeometryItemID: item.Ref, Mesh: itemMesh})
		}
	}
	return subs
}

// resolveScaledPlacement composes the placement hierarchy and scales
// its translation column to model units; rotation is unit-independent.
func (r *Router) resolveScaledPlacement(placementRef uint32, dec *step.Decoder) geom.Mat4 {
	return ScaledPlacement(placementRef, dec, r.UnitScale)
}

// processRepresentationItem routes MappedItem
// through the per-RepresentationMap cache, route FacetedBrep through
// the batch-triangulation cache when a batched mesh already exists,
// and otherwise dispatch to the registered processor. Every path then
// applies unit scaling and content-hash deduplication.
func (r *Router) processRepresentationItem(itemRef uint32, dec *step.Decoder) (*geom.Mesh, error) {
	item, err := dec.DecodeByID(itemRef)
	if err != nil {
		return nil, err
	}

	var mesh *geom.Mesh
	switch item.Type {
	case "IFCMAPPEDITEM":
		mesh, err = r.processMappedItemCached(item, dec)
		if err != nil {
			return nil, err
		}
	case "IFCFACETEDBREP":
		if cached, ok := r.Cache.GetBRepBatch(item.ID); ok {
			mesh = geom.Clone(cached)
		} else {
			mesh, err = r.Registry.DispatchEntity(item, dec, r.Ctx)
			if err != nil {
				return nil, err
			}
		}
	default:
		mesh, err = r.Registry.DispatchEntity(item, dec, r.Ctx)
		if err != nil {
			return nil, err
		}
	}

	if mesh.Empty() {
		return mesh, nil
	}
	geom.Scale(mesh, r.UnitScale)

	hash := ContentHash(mesh)
	return r.Cache.Dedup(hash, mesh), nil
}

// processMappedItemCached caches on RepresentationMap
// id, cloning the cached untransformed mesh on a hit and applying the
// per-instance MappingTarget transform.
func (r *Router) processMappedItemCached(item *step.Entity, dec *step.Decoder) (*geom.Mesh, error) {
	mapRef, ok := item.RefAt(0)
	if !ok {
		return nil, errMissingMappingSource
	}

	base, ok := r.Cache.GetMappedItem(mapRef)
	if !ok {
		built, err := r.buildMappedRepresentation(mapRef, dec)
		if err != nil {
			return nil, err
		}
		r.Cache.PutMappedItem(mapRef, built)
		base = built
	}

	result := geom.Clone(base)
	if targetRef, ok := item.RefAt(1); ok {
		mat := ifcproc.ResolveCartesianTransformOperator(targetRef, dec)
		geom.ApplyTransform(result, &mat)
	}
	return result, nil
}

// buildMappedRepresentation processes a RepresentationMap's items,
// excluding nested MappedItems to prevent cycles.
func (r *Router) buildMappedRepresentation(mapRef uint32, dec *step.Decoder) (*geom.Mesh, error) {
	mapEntity, err := dec.DecodeByID(mapRef)
	if err != nil {
		return nil, err
	}
	repRef, ok := mapEntity.RefAt(1)
	if !ok {
		return &geom.Mesh{}, nil
	}
	repEntity, err := dec.DecodeByID(repRef)
	if err != nil {
		return &geom.Mesh{}, nil
	}
	items, ok := repEntity.ListAt(3)
	if !ok {
		return &geom.Mesh{}, nil
	}

	mesh := &geom.Mesh{}
	for _, item := range items {
		if item.Kind != step.AttrRef {
			continue
		}
		entity, err := dec.DecodeByID(item.Ref)
		if err != nil || entity.Type == "IFCMAPPEDITEM" {
			continue
		}
		itemMesh, err := r.processRepresentationItem(item.Ref, dec)
		if err != nil {
			continue
		}
		geom.Merge(mesh, itemMesh)
	}
	return mesh, nil
}
